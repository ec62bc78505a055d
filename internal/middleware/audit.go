package middleware

import (
	"net/http"

	"complyflow/internal/models"
	"complyflow/internal/repository"
)

// AuditMiddleware logs security-related actions
type AuditMiddleware struct {
	auditRepo *repository.AuditLogRepository
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(auditRepo *repository.AuditLogRepository) *AuditMiddleware {
	return &AuditMiddleware{auditRepo: auditRepo}
}

// Log records an audit log entry after the wrapped handler completes
func (m *AuditMiddleware) Log(action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			var userID *uint
			if id, ok := GetUserID(r); ok {
				userID = &id
			}

			// Ignore errors so audit logging never blocks the request.
			_ = m.auditRepo.Create(&models.AuditLog{
				UserID:    userID,
				Action:    action,
				Resource:  resource,
				IPAddress: getIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}
