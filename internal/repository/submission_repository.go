package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"complyflow/internal/models"
)

var (
	ErrSubmissionExists   = errors.New("submission already exists for this template and user")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrVersionConflict    = errors.New("submission was modified concurrently")
)

// SubmissionRepository handles submission database operations. Checklist and
// audit submissions share one table; audit-only columns stay at their zero
// values for checklists.
type SubmissionRepository struct {
	db *sql.DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `
	id, template_id, user_id, title, responses, status, result, marks, percentage,
	comments, verification_status, verified_by, verified_at, corrective_action,
	row_version, created_at, last_edit_at
`

// Create creates a new submission for a (template, user) pair
func (r *SubmissionRepository) Create(submission *models.Submission) error {
	query := `
		INSERT INTO submissions (template_id, user_id, title, responses, status, result, created_at, last_edit_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		submission.TemplateID,
		submission.UserID,
		submission.Title,
		submission.Responses,
		submission.Status,
		submission.Result,
		now,
	).Scan(&submission.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrSubmissionExists
	}
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	submission.CreatedAt = now
	submission.LastEditAt = now
	return nil
}

func scanAuditSubmission(row *sql.Row) (*models.AuditSubmission, error) {
	submission := &models.AuditSubmission{}
	var verificationStatus sql.NullString

	err := row.Scan(
		&submission.ID,
		&submission.TemplateID,
		&submission.UserID,
		&submission.Title,
		&submission.Responses,
		&submission.Status,
		&submission.Result,
		&submission.Marks,
		&submission.Percentage,
		&submission.Comments,
		&verificationStatus,
		&submission.VerifiedBy,
		&submission.VerifiedAt,
		&submission.CorrectiveAction,
		&submission.RowVersion,
		&submission.CreatedAt,
		&submission.LastEditAt,
	)
	if err != nil {
		return nil, err
	}

	submission.VerificationStatus = models.VerificationStatus(verificationStatus.String)
	return submission, nil
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(id uint) (*models.AuditSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`

	submission, err := scanAuditSubmission(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return submission, nil
}

// GetByTemplateAndUser retrieves the submission of a user for a template
func (r *SubmissionRepository) GetByTemplateAndUser(templateID, userID uint) (*models.AuditSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE template_id = $1 AND user_id = $2`

	submission, err := scanAuditSubmission(r.db.QueryRow(query, templateID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	return submission, nil
}

// GetByUserID retrieves all submissions of a user with template info
func (r *SubmissionRepository) GetByUserID(userID uint) ([]models.SubmissionWithDetails, error) {
	query := `
		SELECT s.id, s.template_id, s.user_id, s.title, s.responses, s.status, s.result,
		       s.created_at, s.last_edit_at,
		       u.email, u.first_name || ' ' || u.last_name, t.title, t.kind
		FROM submissions s
		INNER JOIN users u ON u.id = s.user_id
		INNER JOIN checklist_templates t ON t.id = s.template_id
		WHERE s.user_id = $1
		ORDER BY s.last_edit_at DESC
	`

	return r.queryWithDetails(query, userID)
}

// GetAll retrieves submissions with template info, optionally filtered by
// status and template kind. Empty filters match everything.
func (r *SubmissionRepository) GetAll(status models.SubmissionStatus, kind models.TemplateKind) ([]models.SubmissionWithDetails, error) {
	query := `
		SELECT s.id, s.template_id, s.user_id, s.title, s.responses, s.status, s.result,
		       s.created_at, s.last_edit_at,
		       u.email, u.first_name || ' ' || u.last_name, t.title, t.kind
		FROM submissions s
		INNER JOIN users u ON u.id = s.user_id
		INNER JOIN checklist_templates t ON t.id = s.template_id
		WHERE ($1 = '' OR s.status = $1)
		  AND ($2 = '' OR t.kind = $2)
		ORDER BY s.last_edit_at DESC
	`

	return r.queryWithDetails(query, string(status), string(kind))
}

func (r *SubmissionRepository) queryWithDetails(query string, args ...interface{}) ([]models.SubmissionWithDetails, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var submissions []models.SubmissionWithDetails
	for rows.Next() {
		var s models.SubmissionWithDetails
		if err := rows.Scan(
			&s.ID,
			&s.TemplateID,
			&s.UserID,
			&s.Title,
			&s.Responses,
			&s.Status,
			&s.Result,
			&s.CreatedAt,
			&s.LastEditAt,
			&s.UserEmail,
			&s.UserName,
			&s.TemplateTitle,
			&s.TemplateKind,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

// UpdateDraft persists edited responses of a draft or in-progress submission
func (r *SubmissionRepository) UpdateDraft(submission *models.Submission) error {
	query := `
		UPDATE submissions
		SET title = $1, responses = $2, status = $3, last_edit_at = $4, row_version = row_version + 1
		WHERE id = $5
	`

	submission.LastEditAt = time.Now()
	result, err := r.db.Exec(
		query,
		submission.Title,
		submission.Responses,
		submission.Status,
		submission.LastEditAt,
		submission.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrSubmissionNotFound
	}

	return nil
}

// UpdateEvaluation persists the outcome of finalizing a submission
func (r *SubmissionRepository) UpdateEvaluation(submission *models.AuditSubmission) error {
	query := `
		UPDATE submissions
		SET title = $1, responses = $2, status = $3, result = $4, marks = $5,
		    percentage = $6, comments = $7, last_edit_at = $8, row_version = row_version + 1
		WHERE id = $9
	`

	submission.LastEditAt = time.Now()
	result, err := r.db.Exec(
		query,
		submission.Title,
		submission.Responses,
		submission.Status,
		submission.Result,
		submission.Marks,
		submission.Percentage,
		submission.Comments,
		submission.LastEditAt,
		submission.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update submission evaluation: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrSubmissionNotFound
	}

	return nil
}

// UpdateVerification applies a verification transition guarded by the row
// version read when the transition was decided. A stale version yields
// ErrVersionConflict.
func (r *SubmissionRepository) UpdateVerification(
	id uint,
	expectedVersion int64,
	status models.VerificationStatus,
	verifiedBy *uint,
	verifiedAt *time.Time,
	correctiveAction *string,
) error {
	query := `
		UPDATE submissions
		SET verification_status = $1, verified_by = $2, verified_at = $3,
		    corrective_action = $4, row_version = row_version + 1
		WHERE id = $5 AND row_version = $6
	`

	var statusValue sql.NullString
	if status != models.VerificationUnreviewed {
		statusValue = sql.NullString{String: string(status), Valid: true}
	}

	result, err := r.db.Exec(query, statusValue, verifiedBy, verifiedAt, correctiveAction, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check verification update: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check submission existence: %w", err)
		}
		if exists {
			return ErrVersionConflict
		}
		return ErrSubmissionNotFound
	}

	return nil
}

// Delete removes a submission
func (r *SubmissionRepository) Delete(id uint) error {
	if _, err := r.db.Exec(`DELETE FROM submissions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}

// GetStaleDrafts retrieves draft submissions not edited since the cutoff
func (r *SubmissionRepository) GetStaleDrafts(cutoff time.Time) ([]models.SubmissionWithDetails, error) {
	query := `
		SELECT s.id, s.template_id, s.user_id, s.title, s.responses, s.status, s.result,
		       s.created_at, s.last_edit_at,
		       u.email, u.first_name || ' ' || u.last_name, t.title, t.kind
		FROM submissions s
		INNER JOIN users u ON u.id = s.user_id
		INNER JOIN checklist_templates t ON t.id = s.template_id
		WHERE s.status IN ($1, $2) AND s.last_edit_at < $3
		ORDER BY s.last_edit_at
	`

	return r.queryWithDetails(query, models.StatusDraft, models.StatusInProgress, cutoff)
}

// GetUnreviewedAudits retrieves finalized audit submissions that still await
// review and were finalized before the cutoff
func (r *SubmissionRepository) GetUnreviewedAudits(cutoff time.Time) ([]models.SubmissionWithDetails, error) {
	query := `
		SELECT s.id, s.template_id, s.user_id, s.title, s.responses, s.status, s.result,
		       s.created_at, s.last_edit_at,
		       u.email, u.first_name || ' ' || u.last_name, t.title, t.kind
		FROM submissions s
		INNER JOIN users u ON u.id = s.user_id
		INNER JOIN checklist_templates t ON t.id = s.template_id
		WHERE t.kind = $1
		  AND s.status IN ($2, $3)
		  AND (s.verification_status IS NULL OR s.verification_status = $4)
		  AND s.last_edit_at < $5
		ORDER BY s.last_edit_at
	`

	return r.queryWithDetails(
		query,
		models.TemplateKindAudit,
		models.StatusCompleted,
		models.StatusPending,
		models.VerificationPending,
		cutoff,
	)
}
