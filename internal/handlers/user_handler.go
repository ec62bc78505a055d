package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"complyflow/internal/repository"
)

// UserHandler handles administrative user management
type UserHandler struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo, roleRepo: roleRepo}
}

// List returns all users
// @Summary List users
// @Tags Users
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /admin/users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAll()
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, users)
}

// AssignRole assigns a role to a user
// @Summary Assign role
// @Tags Users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role path string true "Role name"
// @Success 204
// @Failure 404 {object} map[string]string "Unknown user or role"
// @Router /admin/users/{id}/roles/{role} [post]
func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.roleRequest(w, r)
	if !ok {
		return
	}

	if err := h.roleRepo.AssignRole(userID, role); err != nil {
		slog.Error("Failed to assign role", "error", err, "user_id", userID)
		http.Error(w, "Failed to assign role", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveRole removes a role from a user
// @Summary Remove role
// @Tags Users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param role path string true "Role name"
// @Success 204
// @Router /admin/users/{id}/roles/{role} [delete]
func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.roleRequest(w, r)
	if !ok {
		return
	}

	if err := h.roleRepo.RemoveRole(userID, role); err != nil {
		slog.Error("Failed to remove role", "error", err, "user_id", userID)
		http.Error(w, "Failed to remove role", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// roleRequest resolves the target user and role from the path
func (h *UserHandler) roleRequest(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	userID, err := parseID(r, "id")
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return 0, 0, false
	}

	if _, err := h.userRepo.GetByID(userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			http.Error(w, ErrMsgNotFound, http.StatusNotFound)
		} else {
			http.Error(w, "Failed to load user", http.StatusInternalServerError)
		}
		return 0, 0, false
	}

	role, err := h.roleRepo.GetByName(r.PathValue("role"))
	if err != nil || role == nil {
		http.Error(w, "Unknown role", http.StatusNotFound)
		return 0, 0, false
	}

	return userID, role.ID, true
}
