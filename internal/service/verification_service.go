package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"complyflow/internal/models"
	"complyflow/internal/repository"
	"complyflow/internal/verification"
)

// VerificationService applies reviewer decisions to finalized audit
// submissions. Transitions are computed by the verification package and
// persisted under an optimistic lock; a concurrent edit surfaces as
// verification.ErrConflict so the caller can re-read and retry.
type VerificationService struct {
	submissions SubmissionStore
	templates   TemplateStore
	users       UserStore
	auditSvc    *AuditService
	notifier    VerificationNotifier
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	submissions SubmissionStore,
	templates TemplateStore,
	users UserStore,
	auditSvc *AuditService,
	notifier VerificationNotifier,
) *VerificationService {
	return &VerificationService{
		submissions: submissions,
		templates:   templates,
		users:       users,
		auditSvc:    auditSvc,
		notifier:    notifier,
	}
}

// Approve marks an audit submission as accepted
func (s *VerificationService) Approve(submissionID, verifierID uint, isAuthorized bool) (*models.AuditSubmission, error) {
	submission, err := s.loadAudit(submissionID)
	if err != nil {
		return nil, err
	}

	patch, err := verification.Approve(submission.VerificationStatus, verifierID, isAuthorized, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.apply(submission, patch); err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(verifierID, "verification.approve", fmt.Sprintf("submission/%d", submissionID), "")
	}
	s.notify(submission, patch)
	return submission, nil
}

// Reject marks an audit submission as rejected with a corrective action
func (s *VerificationService) Reject(submissionID, verifierID uint, correctiveAction string, isAuthorized bool) (*models.AuditSubmission, error) {
	submission, err := s.loadAudit(submissionID)
	if err != nil {
		return nil, err
	}

	patch, err := verification.Reject(submission.VerificationStatus, verifierID, correctiveAction, isAuthorized, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.apply(submission, patch); err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(verifierID, "verification.reject", fmt.Sprintf("submission/%d", submissionID), *patch.CorrectiveAction)
	}
	s.notify(submission, patch)
	return submission, nil
}

// Reset clears the verification state of an audit submission
func (s *VerificationService) Reset(submissionID, verifierID uint, isAuthorized bool) (*models.AuditSubmission, error) {
	submission, err := s.loadAudit(submissionID)
	if err != nil {
		return nil, err
	}

	patch, err := verification.Reset(submission.VerificationStatus, isAuthorized)
	if err != nil {
		return nil, err
	}

	if err := s.apply(submission, patch); err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(verifierID, "verification.reset", fmt.Sprintf("submission/%d", submissionID), "")
	}
	return submission, nil
}

// loadAudit fetches a submission and checks it is a finalized audit
func (s *VerificationService) loadAudit(submissionID uint) (*models.AuditSubmission, error) {
	submission, err := s.submissions.GetByID(submissionID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, verification.ErrNotFound
	}

	template, err := s.templates.GetByID(submission.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, verification.ErrNotFound
	}
	if template.Kind != models.TemplateKindAudit {
		return nil, &verification.ValidationError{Reason: "only audit submissions can be verified"}
	}
	if submission.Status != models.StatusCompleted && submission.Status != models.StatusPending {
		return nil, &verification.ValidationError{Reason: "submission is not finalized"}
	}

	return submission, nil
}

// apply persists a transition and reflects it on the in-memory submission
func (s *VerificationService) apply(submission *models.AuditSubmission, patch verification.Patch) error {
	err := s.submissions.UpdateVerification(
		submission.ID,
		submission.RowVersion,
		patch.Status,
		patch.VerifiedBy,
		patch.VerifiedAt,
		patch.CorrectiveAction,
	)
	if errors.Is(err, repository.ErrVersionConflict) {
		return verification.ErrConflict
	}
	if errors.Is(err, repository.ErrSubmissionNotFound) {
		return verification.ErrNotFound
	}
	if err != nil {
		return err
	}

	submission.VerificationStatus = patch.Status
	submission.VerifiedBy = patch.VerifiedBy
	submission.VerifiedAt = patch.VerifiedAt
	submission.CorrectiveAction = patch.CorrectiveAction
	submission.RowVersion++
	return nil
}

// notify emails the submitter about the decision. Notification failures are
// logged, never propagated.
func (s *VerificationService) notify(submission *models.AuditSubmission, patch verification.Patch) {
	if s.notifier == nil || s.users == nil {
		return
	}

	user, err := s.users.GetByID(submission.UserID)
	if err != nil || user == nil {
		slog.Warn("Could not load submitter for notification", "submission_id", submission.ID, "error", err)
		return
	}

	name := user.FirstName + " " + user.LastName
	switch patch.Status {
	case models.VerificationAccepted:
		err = s.notifier.SendAuditAccepted(user.Email, name, submission.Title, submission.ID)
	case models.VerificationRejected:
		err = s.notifier.SendAuditRejected(user.Email, name, submission.Title, *patch.CorrectiveAction, submission.ID)
	default:
		return
	}
	if err != nil {
		slog.Warn("Failed to send verification notification", "submission_id", submission.ID, "error", err)
	}
}
