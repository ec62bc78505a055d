package evaluator

import (
	"testing"
	"time"

	"complyflow/internal/models"
)

func checklist(items ...models.Item) *models.ChecklistTemplate {
	return &models.ChecklistTemplate{
		Kind:  models.TemplateKindChecklist,
		Title: "Fire Safety Walkthrough",
		Sections: models.Sections{
			{ID: "s1", Name: "General", Items: items},
		},
	}
}

func record(locationTitle string) *models.ResponseRecord {
	return &models.ResponseRecord{
		LocationTitle: locationTitle,
		Answers:       map[string]models.Answer{},
	}
}

func answerYes(r *models.ResponseRecord, itemID string) {
	r.Answers[itemID] = models.Answer{Value: models.AnswerYes}
}

func answerNo(r *models.ResponseRecord, itemID string) {
	r.Answers[itemID] = models.Answer{Value: models.AnswerNo}
}

func answerStoredDocument(r *models.ResponseRecord, itemID string) {
	now := time.Now()
	r.Answers[itemID] = models.Answer{Document: &models.DocumentAnswer{
		FileName:   "permit.pdf",
		FilePath:   "submissions/1/permit.pdf",
		FileSize:   2048,
		UploadedAt: &now,
	}}
}

func answerTemporaryDocument(r *models.ResponseRecord, itemID string) {
	r.Answers[itemID] = models.Answer{Document: &models.DocumentAnswer{
		FileName:    "permit.pdf",
		FileSize:    2048,
		IsTemporary: true,
	}}
}

func TestComputeProgressEmptyRecord(t *testing.T) {
	template := checklist(
		models.Item{ID: "i1", Name: "Extinguisher serviced", Kind: models.ItemKindYesNo},
		models.Item{ID: "i2", Name: "Service report", Kind: models.ItemKindDocument},
	)

	progress := ComputeProgress(template, record(""))

	if progress.Total != 3 {
		t.Errorf("Expected total 3 (2 items + location title), got %d", progress.Total)
	}
	if progress.Completed != 0 {
		t.Errorf("Expected 0 completed, got %d", progress.Completed)
	}
	if progress.Percentage != 0 {
		t.Errorf("Expected 0%%, got %d%%", progress.Percentage)
	}
}

func TestComputeProgressNilRecord(t *testing.T) {
	template := checklist(models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo})

	progress := ComputeProgress(template, nil)

	if progress.Completed != 0 || progress.Percentage != 0 {
		t.Errorf("Nil record should compute as empty, got %+v", progress)
	}
}

func TestComputeProgressNoAnswerDoesNotCount(t *testing.T) {
	// An answered "no" is present but not satisfied: progress tracks
	// satisfied, not answered.
	template := checklist(models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo})
	rec := record("Warehouse 4")
	answerNo(rec, "i1")

	progress := ComputeProgress(template, rec)

	if progress.Completed != 1 {
		t.Errorf("Expected only the location title to count, got %d completed", progress.Completed)
	}
	if progress.Percentage != 50 {
		t.Errorf("Expected 50%%, got %d%%", progress.Percentage)
	}
}

func TestComputeProgressTemporaryDocumentCounts(t *testing.T) {
	// A selected-but-unsynced file counts toward progress display.
	template := checklist(
		models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
		models.Item{ID: "d2", Name: "Insurance certificate", Kind: models.ItemKindDocument},
	)
	rec := record("Warehouse 4")
	answerTemporaryDocument(rec, "d1")

	progress := ComputeProgress(template, rec)

	if progress.Completed != 2 {
		t.Errorf("Expected temporary document + title to count, got %d completed", progress.Completed)
	}
	if progress.Percentage != 67 {
		t.Errorf("Expected round(2/3) = 67%%, got %d%%", progress.Percentage)
	}
}

func TestComputeProgressIdempotent(t *testing.T) {
	template := checklist(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
	)
	rec := record("Warehouse 4")
	answerYes(rec, "i1")

	first := ComputeProgress(template, rec)
	second := ComputeProgress(template, rec)

	if first != second {
		t.Errorf("ComputeProgress is not idempotent: %+v vs %+v", first, second)
	}
}

func TestComputeProgressFullySatisfied(t *testing.T) {
	template := checklist(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
	)
	rec := record("Warehouse 4")
	answerYes(rec, "i1")
	answerStoredDocument(rec, "d1")

	progress := ComputeProgress(template, rec)

	if progress.Percentage != 100 {
		t.Errorf("Expected 100%%, got %d%%", progress.Percentage)
	}
	if progress.Completed != progress.Total {
		t.Errorf("Expected completed == total, got %d/%d", progress.Completed, progress.Total)
	}
}

func TestComputeProgressUnknownKindExcluded(t *testing.T) {
	template := checklist(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "x1", Name: "Legacy field", Kind: "signature"},
	)
	rec := record("Warehouse 4")
	answerYes(rec, "i1")

	progress := ComputeProgress(template, rec)

	if progress.Total != 2 {
		t.Errorf("Unknown kind should not count toward total, got %d", progress.Total)
	}
	if progress.Percentage != 100 {
		t.Errorf("Expected 100%%, got %d%%", progress.Percentage)
	}
}

func TestValidateForFinalizationReturnsAllProblems(t *testing.T) {
	template := checklist(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
	)

	errs := ValidateForFinalization(template, record("   "))

	if len(errs) != 3 {
		t.Fatalf("Expected 3 validation errors (title + 2 items), got %d: %v", len(errs), errs)
	}
}

func TestValidateForFinalizationNoSatisfiesValidation(t *testing.T) {
	// "no" is a present answer: it blocks neither validation nor
	// finalization, even though it fails the result.
	template := checklist(models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo})
	rec := record("Warehouse 4")
	answerNo(rec, "i1")

	if errs := ValidateForFinalization(template, rec); len(errs) != 0 {
		t.Errorf("Answered 'no' should satisfy validation, got %v", errs)
	}
}

func TestValidateForFinalizationTemporaryDocumentBlocked(t *testing.T) {
	template := checklist(models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument})
	rec := record("Warehouse 4")
	answerTemporaryDocument(rec, "d1")

	errs := ValidateForFinalization(template, rec)

	if len(errs) != 1 {
		t.Fatalf("A temporary-only document must block finalization, got %v", errs)
	}
	if errs[0].ItemID != "d1" {
		t.Errorf("Expected error on d1, got %+v", errs[0])
	}
}

func TestDetermineResultAutoFailShortCircuits(t *testing.T) {
	// An unsatisfied auto-fail item fails regardless of all other answers.
	template := checklist(
		models.Item{ID: "i1", Name: "Sprinklers operational", Kind: models.ItemKindYesNo, AutoFail: true},
		models.Item{ID: "i2", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
	)
	rec := record("Warehouse 4")
	answerNo(rec, "i1")
	answerYes(rec, "i2")

	if result := DetermineResult(template, rec); result != models.ResultFail {
		t.Errorf("Expected fail on auto-fail 'no', got %q", result)
	}
}

func TestDetermineResultAutoFailUnansweredDocument(t *testing.T) {
	// Scenario: an auto-fail document item with no answer fails
	// immediately, independent of the title state.
	template := checklist(models.Item{ID: "d1", Name: "Operating permit", Kind: models.ItemKindDocument, AutoFail: true})

	if result := DetermineResult(template, record("")); result != models.ResultFail {
		t.Errorf("Expected fail, got %q", result)
	}
	if result := DetermineResult(template, record("Warehouse 4")); result != models.ResultFail {
		t.Errorf("Expected fail regardless of title, got %q", result)
	}
}

func TestDetermineResultNoAnswerFails(t *testing.T) {
	template := checklist(models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo})
	rec := record("Warehouse 4")
	answerNo(rec, "i1")

	if result := DetermineResult(template, rec); result != models.ResultFail {
		t.Errorf("Expected fail on 'no', got %q", result)
	}
	if status := DetermineStatus(models.ResultFail); status != models.StatusPending {
		t.Errorf("Expected pending for fail, got %q", status)
	}
}

func TestDetermineResultTemporaryDocumentFails(t *testing.T) {
	// Finalization is strict: a temporary-only document does not satisfy
	// the result predicate even though progress counts it.
	template := checklist(models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument})
	rec := record("Warehouse 4")
	answerTemporaryDocument(rec, "d1")

	if result := DetermineResult(template, rec); result != models.ResultFail {
		t.Errorf("Expected fail for temporary-only document, got %q", result)
	}
}

func TestDetermineResultAllSatisfiedPasses(t *testing.T) {
	template := checklist(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "i2", Name: "Sprinklers operational", Kind: models.ItemKindYesNo, AutoFail: true},
		models.Item{ID: "d1", Name: "Inspection report", Kind: models.ItemKindDocument},
	)
	rec := record("Warehouse 4")
	answerYes(rec, "i1")
	answerYes(rec, "i2")
	answerStoredDocument(rec, "d1")

	if result := DetermineResult(template, rec); result != models.ResultPass {
		t.Errorf("Expected pass, got %q", result)
	}
	if status := DetermineStatus(models.ResultPass); status != models.StatusCompleted {
		t.Errorf("Expected completed for pass, got %q", status)
	}
	if progress := ComputeProgress(template, rec); progress.Percentage != 100 {
		t.Errorf("Result and progress must agree when everything is satisfied, got %d%%", progress.Percentage)
	}
}

func TestDetermineResultChoiceItemsDoNotGate(t *testing.T) {
	// Choice items are scored, not gating: they never fail a submission.
	template := checklist(
		models.Item{ID: "i1", Name: "Exit signs lit", Kind: models.ItemKindYesNo},
		models.Item{ID: "c1", Name: "Housekeeping standard", Kind: models.ItemKindChoice, Options: []models.ChoiceOption{
			{Label: "poor", Points: 0},
			{Label: "good", Points: 5},
		}},
	)
	rec := record("Warehouse 4")
	answerYes(rec, "i1")

	if result := DetermineResult(template, rec); result != models.ResultPass {
		t.Errorf("Unanswered choice item should not gate the result, got %q", result)
	}
}
