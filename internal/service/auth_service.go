package service

import (
	"errors"
	"fmt"
	"time"

	"complyflow/internal/auth"
	"complyflow/internal/models"
	"complyflow/internal/repository"
	"complyflow/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// TokenPair is the result of a successful login or refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo          *repository.UserRepository
	roleRepo          *repository.RoleRepository
	sessionRepo       *repository.SessionRepository
	authSvc           *auth.Service
	auditSvc          *AuditService
	refreshExpiration time.Duration
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	sessionRepo *repository.SessionRepository,
	authSvc *auth.Service,
	auditSvc *AuditService,
	refreshExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		roleRepo:          roleRepo,
		sessionRepo:       sessionRepo,
		authSvc:           authSvc,
		auditSvc:          auditSvc,
		refreshExpiration: refreshExpiration,
	}
}

// Register registers a new user. The first registered user becomes admin,
// everyone else starts with the user role.
func (s *AuthService) Register(email, password, firstName, lastName string) (*models.User, error) {
	email = validator.SanitizeEmail(email)
	if err := validator.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}
	if err := validator.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}

	passwordHash, err := s.authSvc.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	count, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	roleName := "user"
	if count == 0 {
		roleName = "admin"
	}
	if role, err := s.roleRepo.GetByName(roleName); err == nil && role != nil {
		if err := s.roleRepo.AssignRole(user.ID, role.ID); err != nil {
			return nil, fmt.Errorf("failed to assign role: %w", err)
		}
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(user.ID, "auth.register", fmt.Sprintf("user/%d", user.ID), user.Email)
	}
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair
func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(validator.SanitizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	_ = s.userRepo.UpdateLastLogin(user.ID)
	if s.auditSvc != nil {
		s.auditSvc.Log(user.ID, "auth.login", fmt.Sprintf("user/%d", user.ID), "")
	}
	return user, pair, nil
}

// Refresh rotates a refresh token and issues a new token pair
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	session, err := s.sessionRepo.GetByRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidSession
	}

	user, err := s.userRepo.GetByID(session.UserID)
	if err != nil {
		return nil, ErrInvalidSession
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	if err := s.sessionRepo.Delete(session.ID); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(refreshToken string) error {
	return s.sessionRepo.DeleteByRefreshToken(refreshToken)
}

// GetUserWithRoles retrieves a user and their roles
func (s *AuthService) GetUserWithRoles(userID uint) (*models.UserWithRoles, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	roles, err := s.roleRepo.GetRolesByUserID(userID)
	if err != nil {
		return nil, err
	}

	return &models.UserWithRoles{User: *user, Roles: roles}, nil
}

// ChangePassword verifies the current password and sets a new one, dropping
// all existing sessions
func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if err := s.authSvc.VerifyPassword(user.PasswordHash, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	if err := validator.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}

	hash, err := s.authSvc.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return err
	}

	return s.sessionRepo.DeleteAllUserSessions(userID)
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	accessToken, err := s.authSvc.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := auth.GenerateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.refreshExpiration),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
