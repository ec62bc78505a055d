package repository_test

import (
	"testing"

	"complyflow/internal/models"
	"complyflow/internal/repository"
	"complyflow/internal/testutil"
)

func TestTemplateRepositoryCRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	containers := testutil.SetupTestContainers(t)
	defer containers.Cleanup(t)

	fixtures := testutil.SetupFixtures(t, containers.DB)
	repo := repository.NewTemplateRepository(containers.DB)

	description := "Monthly ladder checks"
	template := &models.ChecklistTemplate{
		Title:       "Ladder Inspection",
		Description: &description,
		Kind:        models.TemplateKindChecklist,
		Sections: models.Sections{
			{ID: "s1", Name: "Condition", Items: []models.Item{
				{ID: "i1", Name: "Rungs intact", Kind: models.ItemKindYesNo},
				{ID: "i2", Name: "Feet not worn", Kind: models.ItemKindYesNo, AutoFail: true},
			}},
		},
	}

	if err := repo.Create(template); err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}
	if template.ID == 0 {
		t.Fatal("Expected template ID to be set")
	}

	loaded, err := repo.GetByID(template.ID)
	if err != nil {
		t.Fatalf("Failed to get template: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected template, got nil")
	}
	if len(loaded.Sections) != 1 || len(loaded.Sections[0].Items) != 2 {
		t.Fatalf("Expected sections to round-trip, got %+v", loaded.Sections)
	}
	if !loaded.Sections[0].Items[1].AutoFail {
		t.Error("Expected auto-fail flag to round-trip")
	}

	loaded.Title = "Ladder Inspection v2"
	loaded.Sections[0].Items = append(loaded.Sections[0].Items, models.Item{
		ID: "i3", Name: "Labels legible", Kind: models.ItemKindYesNo,
	})
	if err := repo.Update(loaded); err != nil {
		t.Fatalf("Failed to update template: %v", err)
	}

	updated, err := repo.GetByID(template.ID)
	if err != nil {
		t.Fatalf("Failed to reload template: %v", err)
	}
	if updated.Title != "Ladder Inspection v2" {
		t.Errorf("Expected updated title, got %q", updated.Title)
	}
	if len(updated.Sections[0].Items) != 3 {
		t.Errorf("Expected 3 items after update, got %d", len(updated.Sections[0].Items))
	}

	// Kind filter on listings
	audits, err := repo.GetAll(models.TemplateKindAudit)
	if err != nil {
		t.Fatalf("Failed to list audit templates: %v", err)
	}
	for _, tpl := range audits {
		if tpl.Kind != models.TemplateKindAudit {
			t.Errorf("Expected only audit templates, got kind %q", tpl.Kind)
		}
	}

	all, err := repo.GetAll("")
	if err != nil {
		t.Fatalf("Failed to list templates: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 templates including fixtures, got %d", len(all))
	}

	// Templates without submissions report false
	inUse, err := repo.HasSubmissions(template.ID)
	if err != nil {
		t.Fatalf("Failed to check submissions: %v", err)
	}
	if inUse {
		t.Error("Expected template without submissions to report false")
	}

	submissionRepo := repository.NewSubmissionRepository(containers.DB)
	submission := &models.Submission{
		TemplateID: template.ID,
		UserID:     fixtures.RegularUser.ID,
		Status:     models.StatusDraft,
	}
	if err := submissionRepo.Create(submission); err != nil {
		t.Fatalf("Failed to create submission: %v", err)
	}

	inUse, err = repo.HasSubmissions(template.ID)
	if err != nil {
		t.Fatalf("Failed to check submissions: %v", err)
	}
	if !inUse {
		t.Error("Expected template with a submission to report true")
	}

	missing, err := repo.GetByID(99999)
	if err != nil {
		t.Fatalf("Unexpected error for missing template: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing template, got %+v", missing)
	}
}
