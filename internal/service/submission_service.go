package service

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"complyflow/internal/evaluator"
	"complyflow/internal/models"
	"complyflow/internal/repository"
	"complyflow/internal/storage"
)

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrSubmissionExists    = errors.New("a submission for this template already exists")
	ErrSubmissionFinalized = errors.New("submission is already finalized")
	ErrNotSubmissionOwner  = errors.New("submission belongs to another user")
	ErrNotDocumentItem     = errors.New("item does not accept document answers")
)

// SubmissionService handles checklist and audit submission business logic
type SubmissionService struct {
	submissions SubmissionStore
	templates   TemplateStore
	files       storage.Store
	auditSvc    *AuditService
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(submissions SubmissionStore, templates TemplateStore, files storage.Store, auditSvc *AuditService) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		templates:   templates,
		files:       files,
		auditSvc:    auditSvc,
	}
}

// Start creates a draft submission for a (template, user) pair
func (s *SubmissionService) Start(templateID, userID uint) (*models.Submission, error) {
	template, err := s.templates.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	submission := &models.Submission{
		TemplateID: templateID,
		UserID:     userID,
		Status:     models.StatusDraft,
		Responses:  models.ResponseRecord{Answers: map[string]models.Answer{}},
	}

	if err := s.submissions.Create(submission); err != nil {
		if errors.Is(err, repository.ErrSubmissionExists) {
			return nil, ErrSubmissionExists
		}
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(userID, "submission.start", fmt.Sprintf("submission/%d", submission.ID), template.Title)
	}
	return submission, nil
}

// Get retrieves a submission, enforcing ownership unless the caller may view
// all submissions
func (s *SubmissionService) Get(id, userID uint, canViewAll bool) (*models.AuditSubmission, error) {
	submission, err := s.submissions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	if !canViewAll && submission.UserID != userID {
		return nil, ErrNotSubmissionOwner
	}
	return submission, nil
}

// ListForUser retrieves the caller's submissions
func (s *SubmissionService) ListForUser(userID uint) ([]models.SubmissionWithDetails, error) {
	return s.submissions.GetByUserID(userID)
}

// ListAll retrieves submissions across users, optionally filtered
func (s *SubmissionService) ListAll(status models.SubmissionStatus, kind models.TemplateKind) ([]models.SubmissionWithDetails, error) {
	return s.submissions.GetAll(status, kind)
}

// SaveDraft replaces the response record of an unfinalized submission. The
// submission moves from draft to in_progress once anything is filled in.
func (s *SubmissionService) SaveDraft(id, userID uint, record models.ResponseRecord) (*models.AuditSubmission, error) {
	submission, err := s.submissions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	if submission.UserID != userID {
		return nil, ErrNotSubmissionOwner
	}
	if submission.Status == models.StatusCompleted || submission.Status == models.StatusPending {
		return nil, ErrSubmissionFinalized
	}

	submission.Responses = record
	submission.Title = strings.TrimSpace(record.LocationTitle)
	if len(record.Answers) > 0 || submission.Title != "" {
		submission.Status = models.StatusInProgress
	} else {
		submission.Status = models.StatusDraft
	}

	if err := s.submissions.UpdateDraft(&submission.Submission); err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	return submission, nil
}

// Progress computes the completion progress of a submission
func (s *SubmissionService) Progress(id, userID uint, canViewAll bool) (*models.Progress, error) {
	submission, err := s.Get(id, userID, canViewAll)
	if err != nil {
		return nil, err
	}

	template, err := s.templates.GetByID(submission.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	progress := evaluator.ComputeProgress(template, &submission.Responses)
	return &progress, nil
}

// Finalize validates a submission, determines its result and persists the
// outcome. Audit submissions additionally get their marks recomputed.
// Validation failures are returned as evaluator.ValidationErrors.
func (s *SubmissionService) Finalize(id, userID uint) (*models.AuditSubmission, error) {
	submission, err := s.submissions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	if submission.UserID != userID {
		return nil, ErrNotSubmissionOwner
	}
	if submission.Status == models.StatusCompleted || submission.Status == models.StatusPending {
		return nil, ErrSubmissionFinalized
	}

	template, err := s.templates.GetByID(submission.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	if errs := evaluator.ValidateForFinalization(template, &submission.Responses); len(errs) > 0 {
		return nil, errs
	}

	submission.Result = evaluator.DetermineResult(template, &submission.Responses)
	submission.Status = evaluator.DetermineStatus(submission.Result)
	submission.Title = strings.TrimSpace(submission.Responses.LocationTitle)

	if template.Kind == models.TemplateKindAudit {
		breakdown := evaluator.RecomputeMarks(template, &submission.Responses)
		marks, maxMarks := evaluator.TotalMarks(breakdown)
		submission.Marks = marks
		if maxMarks > 0 {
			submission.Percentage = marks / maxMarks * 100
		} else {
			submission.Percentage = 0
		}
	}

	if err := s.submissions.UpdateEvaluation(submission); err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(userID, "submission.finalize", fmt.Sprintf("submission/%d", id), string(submission.Result))
	}
	return submission, nil
}

// ScoreBreakdown recomputes the per-field marks of an audit submission
func (s *SubmissionService) ScoreBreakdown(id, userID uint, canViewAll bool) ([]models.FieldMarks, error) {
	submission, err := s.Get(id, userID, canViewAll)
	if err != nil {
		return nil, err
	}

	template, err := s.templates.GetByID(submission.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	return evaluator.RecomputeMarks(template, &submission.Responses), nil
}

// AttachDocument stores an uploaded file and records it as the answer of a
// document item. The stored answer is no longer temporary.
func (s *SubmissionService) AttachDocument(id, userID uint, itemID, fileName string, r io.Reader) (*models.AuditSubmission, error) {
	submission, err := s.submissions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	if submission.UserID != userID {
		return nil, ErrNotSubmissionOwner
	}
	if submission.Status == models.StatusCompleted || submission.Status == models.StatusPending {
		return nil, ErrSubmissionFinalized
	}

	template, err := s.templates.GetByID(submission.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}

	var item *models.Item
	for _, candidate := range template.Items() {
		if candidate.ID == itemID {
			item = &candidate
			break
		}
	}
	if item == nil || item.Kind != models.ItemKindDocument {
		return nil, ErrNotDocumentItem
	}

	path, size, err := s.files.Save(fmt.Sprintf("submissions/%d", id), fileName, r)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if submission.Responses.Answers == nil {
		submission.Responses.Answers = map[string]models.Answer{}
	}
	submission.Responses.Answers[itemID] = models.Answer{Document: &models.DocumentAnswer{
		FileName:   fileName,
		FilePath:   path,
		FileSize:   size,
		UploadedAt: &now,
	}}
	if submission.Status == models.StatusDraft {
		submission.Status = models.StatusInProgress
	}

	if err := s.submissions.UpdateDraft(&submission.Submission); err != nil {
		return nil, err
	}

	return submission, nil
}

// Delete removes a submission, owners may delete their own unfinalized ones
func (s *SubmissionService) Delete(id, userID uint, isAdmin bool) error {
	submission, err := s.submissions.GetByID(id)
	if err != nil {
		return err
	}
	if submission == nil {
		return ErrSubmissionNotFound
	}
	if !isAdmin {
		if submission.UserID != userID {
			return ErrNotSubmissionOwner
		}
		if submission.Status == models.StatusCompleted || submission.Status == models.StatusPending {
			return ErrSubmissionFinalized
		}
	}

	return s.submissions.Delete(id)
}
