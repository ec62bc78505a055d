package service

import (
	"errors"
	"fmt"
	"strings"

	"complyflow/internal/models"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateInUse    = errors.New("template has submissions and cannot be changed")
)

// TemplateService handles checklist template business logic
type TemplateService struct {
	templates TemplateStore
}

// NewTemplateService creates a new template service
func NewTemplateService(templates TemplateStore) *TemplateService {
	return &TemplateService{templates: templates}
}

// Create validates and persists a new template
func (s *TemplateService) Create(template *models.ChecklistTemplate) error {
	if err := validateTemplate(template); err != nil {
		return err
	}
	return s.templates.Create(template)
}

// Get retrieves a template by ID
func (s *TemplateService) Get(id uint) (*models.ChecklistTemplate, error) {
	template, err := s.templates.GetByID(id)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

// List retrieves all templates, optionally filtered by kind
func (s *TemplateService) List(kind models.TemplateKind) ([]models.ChecklistTemplate, error) {
	return s.templates.GetAll(kind)
}

// Update validates and persists edits to a template. Templates referenced by
// submissions are immutable so existing submissions keep their semantics.
func (s *TemplateService) Update(template *models.ChecklistTemplate) error {
	existing, err := s.templates.GetByID(template.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTemplateNotFound
	}

	inUse, err := s.templates.HasSubmissions(template.ID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrTemplateInUse
	}

	if err := validateTemplate(template); err != nil {
		return err
	}

	template.Kind = existing.Kind
	return s.templates.Update(template)
}

// Delete removes a template that has no submissions
func (s *TemplateService) Delete(id uint) error {
	existing, err := s.templates.GetByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrTemplateNotFound
	}

	inUse, err := s.templates.HasSubmissions(id)
	if err != nil {
		return err
	}
	if inUse {
		return ErrTemplateInUse
	}

	return s.templates.Delete(id)
}

// validateTemplate checks structural rules: a non-empty title, a known kind,
// unique item IDs, known item kinds and options on choice items.
func validateTemplate(template *models.ChecklistTemplate) error {
	if strings.TrimSpace(template.Title) == "" {
		return fmt.Errorf("template title is required")
	}
	if template.Kind != models.TemplateKindChecklist && template.Kind != models.TemplateKindAudit {
		return fmt.Errorf("unknown template kind %q", template.Kind)
	}

	seen := make(map[string]bool)
	for _, section := range template.Sections {
		for _, item := range section.Items {
			if strings.TrimSpace(item.ID) == "" {
				return fmt.Errorf("item %q has no ID", item.Name)
			}
			if item.ID == models.LocationTitleKey {
				return fmt.Errorf("item ID %q is reserved", item.ID)
			}
			if seen[item.ID] {
				return fmt.Errorf("duplicate item ID %q", item.ID)
			}
			seen[item.ID] = true

			if !models.KnownItemKind(item.Kind) {
				return fmt.Errorf("item %q has unknown kind %q", item.ID, item.Kind)
			}
			if item.Kind == models.ItemKindChoice && len(item.Options) == 0 {
				return fmt.Errorf("choice item %q has no options", item.ID)
			}
			if item.Weight != nil && *item.Weight < 0 {
				return fmt.Errorf("item %q has negative weight", item.ID)
			}
		}
	}

	return nil
}
