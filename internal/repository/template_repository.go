package repository

import (
	"database/sql"
	"fmt"
	"time"

	"complyflow/internal/models"
)

// TemplateRepository handles checklist template database operations
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create creates a new checklist template
func (r *TemplateRepository) Create(template *models.ChecklistTemplate) error {
	query := `
		INSERT INTO checklist_templates (title, description, kind, sections, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	err := r.db.QueryRow(
		query,
		template.Title,
		template.Description,
		template.Kind,
		template.Sections,
		template.CreatedBy,
		now,
		now,
	).Scan(&template.ID)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	template.CreatedAt = now
	template.UpdatedAt = now
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplateRepository) GetByID(id uint) (*models.ChecklistTemplate, error) {
	query := `
		SELECT id, title, description, kind, sections, created_by, created_at, updated_at
		FROM checklist_templates
		WHERE id = $1
	`

	template := &models.ChecklistTemplate{}
	err := r.db.QueryRow(query, id).Scan(
		&template.ID,
		&template.Title,
		&template.Description,
		&template.Kind,
		&template.Sections,
		&template.CreatedBy,
		&template.CreatedAt,
		&template.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

// GetAll retrieves all templates, optionally filtered by kind
func (r *TemplateRepository) GetAll(kind models.TemplateKind) ([]models.ChecklistTemplate, error) {
	query := `
		SELECT id, title, description, kind, sections, created_by, created_at, updated_at
		FROM checklist_templates
		WHERE ($1 = '' OR kind = $1)
		ORDER BY title
	`

	rows, err := r.db.Query(query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}
	defer rows.Close()

	var templates []models.ChecklistTemplate
	for rows.Next() {
		var template models.ChecklistTemplate
		if err := rows.Scan(
			&template.ID,
			&template.Title,
			&template.Description,
			&template.Kind,
			&template.Sections,
			&template.CreatedBy,
			&template.CreatedAt,
			&template.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, rows.Err()
}

// Update updates a template's title, description and sections
func (r *TemplateRepository) Update(template *models.ChecklistTemplate) error {
	query := `
		UPDATE checklist_templates
		SET title = $1, description = $2, sections = $3, updated_at = $4
		WHERE id = $5
	`

	template.UpdatedAt = time.Now()
	_, err := r.db.Exec(query, template.Title, template.Description, template.Sections, template.UpdatedAt, template.ID)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	return nil
}

// Delete removes a template
func (r *TemplateRepository) Delete(id uint) error {
	if _, err := r.db.Exec(`DELETE FROM checklist_templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// HasSubmissions reports whether any submission references the template
func (r *TemplateRepository) HasSubmissions(templateID uint) (bool, error) {
	var has bool
	err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM submissions WHERE template_id = $1)`, templateID).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("failed to check template submissions: %w", err)
	}
	return has, nil
}
