package repository_test

import (
	"errors"
	"testing"

	"complyflow/internal/models"
	"complyflow/internal/repository"
	"complyflow/internal/testutil"
)

func TestUserRepositoryRoles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	userRepo := repository.NewUserRepository(containers.DB)
	roleRepo := repository.NewRoleRepository(containers.DB)

	user := &models.User{
		Email:        "new@test.com",
		PasswordHash: "irrelevant",
		FirstName:    "New",
		LastName:     "Person",
		IsActive:     true,
	}
	if err := userRepo.Create(user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	duplicate := &models.User{Email: "new@test.com", PasswordHash: "x"}
	if err := userRepo.Create(duplicate); !errors.Is(err, repository.ErrUserExists) {
		t.Errorf("Expected ErrUserExists for duplicate email, got %v", err)
	}

	loaded, err := userRepo.GetByEmail("new@test.com")
	if err != nil {
		t.Fatalf("Failed to get user by email: %v", err)
	}
	if loaded.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, loaded.ID)
	}

	if _, err := userRepo.GetByID(99999); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	// Roles seeded by migrations
	managerRole, err := roleRepo.GetByName("manager")
	if err != nil {
		t.Fatalf("Failed to get role: %v", err)
	}
	if managerRole == nil {
		t.Fatal("Expected seeded manager role")
	}

	if err := roleRepo.AssignRole(user.ID, managerRole.ID); err != nil {
		t.Fatalf("Failed to assign role: %v", err)
	}
	// Assigning twice is a no-op
	if err := roleRepo.AssignRole(user.ID, managerRole.ID); err != nil {
		t.Fatalf("Expected repeated assignment to succeed, got %v", err)
	}

	hasRole, err := roleRepo.UserHasRole(user.ID, "manager")
	if err != nil {
		t.Fatalf("Failed to check role: %v", err)
	}
	if !hasRole {
		t.Error("Expected user to have manager role")
	}

	roles, err := roleRepo.GetRolesByUserID(fixtures.AdminUser.ID)
	if err != nil {
		t.Fatalf("Failed to get roles: %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("Expected admin fixture to have 2 roles, got %d", len(roles))
	}

	if err := roleRepo.RemoveRole(user.ID, managerRole.ID); err != nil {
		t.Fatalf("Failed to remove role: %v", err)
	}
	hasRole, err = roleRepo.UserHasRole(user.ID, "manager")
	if err != nil {
		t.Fatalf("Failed to check role: %v", err)
	}
	if hasRole {
		t.Error("Expected manager role to be removed")
	}

	unknown, err := roleRepo.GetByName("superuser")
	if err != nil {
		t.Fatalf("Unexpected error for unknown role: %v", err)
	}
	if unknown != nil {
		t.Errorf("Expected nil for unknown role, got %+v", unknown)
	}

	count, err := userRepo.Count()
	if err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 users including fixtures, got %d", count)
	}
}
