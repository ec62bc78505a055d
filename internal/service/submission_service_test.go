package service

import (
	"errors"
	"strings"
	"testing"

	"complyflow/internal/evaluator"
	"complyflow/internal/models"
)

func newSubmissionFixture(t *testing.T, template *models.ChecklistTemplate) (*SubmissionService, *fakeSubmissionStore, *models.Submission) {
	t.Helper()
	templates := newFakeTemplateStore()
	if err := templates.Create(template); err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}

	submissions := newFakeSubmissionStore()
	svc := NewSubmissionService(submissions, templates, &fakeFiles{}, nil)

	submission, err := svc.Start(template.ID, 1)
	if err != nil {
		t.Fatalf("Failed to start submission: %v", err)
	}
	return svc, submissions, submission
}

func TestStartRejectsDuplicate(t *testing.T) {
	svc, _, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	))

	if _, err := svc.Start(submission.TemplateID, 1); !errors.Is(err, ErrSubmissionExists) {
		t.Errorf("Expected ErrSubmissionExists, got %v", err)
	}
	if _, err := svc.Start(submission.TemplateID, 2); err != nil {
		t.Errorf("Another user may submit against the same template, got %v", err)
	}
}

func TestStartUnknownTemplate(t *testing.T) {
	svc := NewSubmissionService(newFakeSubmissionStore(), newFakeTemplateStore(), &fakeFiles{}, nil)

	if _, err := svc.Start(99, 1); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}

func TestSaveDraftMovesToInProgress(t *testing.T) {
	svc, store, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	))

	updated, err := svc.SaveDraft(submission.ID, 1, filledRecord("Warehouse 4", map[string]string{"i1": models.AnswerYes}))
	if err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	if updated.Status != models.StatusInProgress {
		t.Errorf("Expected in_progress, got %q", updated.Status)
	}
	if updated.Title != "Warehouse 4" {
		t.Errorf("Expected title from location, got %q", updated.Title)
	}

	stored, _ := store.GetByID(submission.ID)
	if stored.Responses.Answers["i1"].Value != models.AnswerYes {
		t.Error("Draft answers were not persisted")
	}
}

func TestSaveDraftOwnershipEnforced(t *testing.T) {
	svc, _, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	))

	_, err := svc.SaveDraft(submission.ID, 2, filledRecord("Warehouse 4", nil))
	if !errors.Is(err, ErrNotSubmissionOwner) {
		t.Errorf("Expected ErrNotSubmissionOwner, got %v", err)
	}
}

func TestFinalizeValidationFailure(t *testing.T) {
	svc, _, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
	))

	_, err := svc.Finalize(submission.ID, 1)

	var validationErrs evaluator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		t.Fatalf("Expected validation errors, got %v", err)
	}
	if len(validationErrs) != 3 {
		t.Errorf("Expected 3 validation errors, got %d", len(validationErrs))
	}
}

func TestFinalizePassCompletes(t *testing.T) {
	svc, store, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	))

	if _, err := svc.SaveDraft(submission.ID, 1, filledRecord("Warehouse 4", map[string]string{"i1": models.AnswerYes})); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	finalized, err := svc.Finalize(submission.ID, 1)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if finalized.Result != models.ResultPass {
		t.Errorf("Expected pass, got %q", finalized.Result)
	}
	if finalized.Status != models.StatusCompleted {
		t.Errorf("Expected completed, got %q", finalized.Status)
	}

	// Finalizing twice is refused.
	if _, err := svc.Finalize(submission.ID, 1); !errors.Is(err, ErrSubmissionFinalized) {
		t.Errorf("Expected ErrSubmissionFinalized, got %v", err)
	}

	stored, _ := store.GetByID(submission.ID)
	if stored.Status != models.StatusCompleted {
		t.Errorf("Finalization not persisted, status %q", stored.Status)
	}
}

func TestFinalizeFailGoesPending(t *testing.T) {
	svc, _, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	))

	if _, err := svc.SaveDraft(submission.ID, 1, filledRecord("Warehouse 4", map[string]string{"i1": models.AnswerNo})); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	finalized, err := svc.Finalize(submission.ID, 1)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if finalized.Result != models.ResultFail {
		t.Errorf("Expected fail, got %q", finalized.Result)
	}
	if finalized.Status != models.StatusPending {
		t.Errorf("Expected pending, got %q", finalized.Status)
	}
}

func TestFinalizeAuditComputesMarks(t *testing.T) {
	svc, _, submission := newSubmissionFixture(t, auditTemplateFixture())

	record := filledRecord("Plant 2", map[string]string{
		"w1": models.AnswerYes,
		"c1": "good",
	})
	if _, err := svc.SaveDraft(submission.ID, 1, record); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	finalized, err := svc.Finalize(submission.ID, 1)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if finalized.Marks != 6 {
		t.Errorf("Expected 1+5 = 6 marks, got %v", finalized.Marks)
	}
	if finalized.Percentage != 100 {
		t.Errorf("Expected 100%%, got %v", finalized.Percentage)
	}
}

func TestProgressDelegatesToEvaluator(t *testing.T) {
	svc, _, submission := newSubmissionFixture(t, checklistTemplate(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	))

	if _, err := svc.SaveDraft(submission.ID, 1, filledRecord("Warehouse 4", nil)); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}

	progress, err := svc.Progress(submission.ID, 1, false)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if progress.Completed != 1 || progress.Total != 2 {
		t.Errorf("Expected 1/2, got %d/%d", progress.Completed, progress.Total)
	}
}

func TestAttachDocument(t *testing.T) {
	files := &fakeFiles{}
	templates := newFakeTemplateStore()
	template := checklistTemplate(models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument})
	if err := templates.Create(template); err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}
	svc := NewSubmissionService(newFakeSubmissionStore(), templates, files, nil)

	submission, err := svc.Start(template.ID, 1)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	updated, err := svc.AttachDocument(submission.ID, 1, "d1", "permit.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("AttachDocument failed: %v", err)
	}

	doc := updated.Responses.Answers["d1"].Document
	if doc == nil || doc.FilePath == "" || doc.IsTemporary {
		t.Errorf("Expected stored document answer, got %+v", doc)
	}
	if doc.FileSize != int64(len("content")) {
		t.Errorf("Expected size recorded, got %d", doc.FileSize)
	}
	if len(files.saved) != 1 {
		t.Errorf("Expected one stored file, got %d", len(files.saved))
	}

	// Attaching to a non-document item is refused.
	if _, err := svc.AttachDocument(submission.ID, 1, "nope", "x.pdf", strings.NewReader("x")); !errors.Is(err, ErrNotDocumentItem) {
		t.Errorf("Expected ErrNotDocumentItem, got %v", err)
	}
}
