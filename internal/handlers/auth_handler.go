package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"complyflow/internal/middleware"
	"complyflow/internal/repository"
	"complyflow/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register creates a new user account
// @Summary Register
// @Description Register a new user. The first registered user becomes admin.
// @Tags Auth
// @Accept json
// @Param request body registerRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Email taken"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			http.Error(w, "Email is already registered", http.StatusConflict)
		case errors.Is(err, service.ErrInvalidCredentials):
			http.Error(w, "Email and password are required", http.StatusBadRequest)
		default:
			slog.Error("Failed to register user", "error", err)
			http.Error(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, user)
}

// Login verifies credentials and issues tokens
// @Summary Login
// @Tags Auth
// @Accept json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	_, pair, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		default:
			slog.Error("Login failed", "error", err)
			http.Error(w, "Login failed", http.StatusInternalServerError)
		}
		return
	}

	JSONResponse(w, pair)
}

// Refresh rotates a refresh token
// @Summary Refresh tokens
// @Tags Auth
// @Accept json
// @Param request body refreshRequest true "Refresh token"
// @Success 200 {object} service.TokenPair
// @Failure 401 {object} map[string]string "Invalid session"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	pair, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) || errors.Is(err, service.ErrUserInactive) {
			http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
		} else {
			slog.Error("Refresh failed", "error", err)
			http.Error(w, "Refresh failed", http.StatusInternalServerError)
		}
		return
	}

	JSONResponse(w, pair)
}

// Logout invalidates a refresh token
// @Summary Logout
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body refreshRequest true "Refresh token"
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.authService.Logout(req.RefreshToken); err != nil {
		slog.Error("Logout failed", "error", err)
		http.Error(w, "Logout failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user with roles
// @Summary Current user
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} models.UserWithRoles
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, ErrMsgUserIDNotFound, http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserWithRoles(userID)
	if err != nil {
		slog.Error("Failed to load user", "error", err, "user_id", userID)
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, user)
}

// ChangePassword changes the caller's password
// @Summary Change password
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Param request body changePasswordRequest true "Passwords"
// @Success 204
// @Failure 401 {object} map[string]string "Wrong current password"
// @Router /auth/password/change [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, ErrMsgUserIDNotFound, http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "Current password is wrong", http.StatusUnauthorized)
		} else {
			slog.Error("Failed to change password", "error", err, "user_id", userID)
			http.Error(w, "Failed to change password", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
