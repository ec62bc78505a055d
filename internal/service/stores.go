package service

import (
	"time"

	"complyflow/internal/models"
)

// TemplateStore is the persistence contract of the template service.
type TemplateStore interface {
	Create(template *models.ChecklistTemplate) error
	GetByID(id uint) (*models.ChecklistTemplate, error)
	GetAll(kind models.TemplateKind) ([]models.ChecklistTemplate, error)
	Update(template *models.ChecklistTemplate) error
	Delete(id uint) error
	HasSubmissions(templateID uint) (bool, error)
}

// SubmissionStore is the persistence contract of the submission and
// verification services.
type SubmissionStore interface {
	Create(submission *models.Submission) error
	GetByID(id uint) (*models.AuditSubmission, error)
	GetByTemplateAndUser(templateID, userID uint) (*models.AuditSubmission, error)
	GetByUserID(userID uint) ([]models.SubmissionWithDetails, error)
	GetAll(status models.SubmissionStatus, kind models.TemplateKind) ([]models.SubmissionWithDetails, error)
	UpdateDraft(submission *models.Submission) error
	UpdateEvaluation(submission *models.AuditSubmission) error
	UpdateVerification(id uint, expectedVersion int64, status models.VerificationStatus, verifiedBy *uint, verifiedAt *time.Time, correctiveAction *string) error
	Delete(id uint) error
}

// UserStore is the minimal user lookup the verification service needs to
// notify submitters.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

// VerificationNotifier sends review outcome notifications.
type VerificationNotifier interface {
	SendAuditAccepted(to, userName, submissionTitle string, submissionID uint) error
	SendAuditRejected(to, userName, submissionTitle, correctiveAction string, submissionID uint) error
}
