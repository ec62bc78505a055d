package middleware

import (
	"net/http"

	"complyflow/internal/repository"
)

// RBACMiddleware handles role-based access control
type RBACMiddleware struct {
	roleRepo *repository.RoleRepository
}

// NewRBACMiddleware creates a new RBAC middleware
func NewRBACMiddleware(roleRepo *repository.RoleRepository) *RBACMiddleware {
	return &RBACMiddleware{roleRepo: roleRepo}
}

// RequireRole checks if the user has the required role
func (m *RBACMiddleware) RequireRole(roleName string) func(http.Handler) http.Handler {
	return m.RequireAnyRole(roleName)
}

// RequireAnyRole checks if the user has any of the required roles
func (m *RBACMiddleware) RequireAnyRole(roleNames ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			roles, err := m.roleRepo.GetRolesByUserID(userID)
			if err != nil {
				respondWithError(w, http.StatusInternalServerError, "Failed to get user roles")
				return
			}

			for _, role := range roles {
				for _, required := range roleNames {
					if role.Name == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			respondWithError(w, http.StatusForbidden, "Insufficient permissions")
		})
	}
}
