package service

import (
	"complyflow/internal/models"
	"complyflow/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	auditRepo *repository.AuditLogRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *repository.AuditLogRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log creates an audit log entry, ignoring errors.
// Audit logging must never fail the main operation.
func (s *AuditService) Log(userID uint, action, resource, details string) {
	_ = s.auditRepo.Create(&models.AuditLog{
		UserID:   &userID,
		Action:   action,
		Resource: resource,
		Details:  details,
	})
}

// List retrieves audit log entries
func (s *AuditService) List(userID uint, action string, limit int) ([]models.AuditLog, error) {
	return s.auditRepo.List(userID, action, limit)
}
