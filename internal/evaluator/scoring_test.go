package evaluator

import (
	"testing"

	"complyflow/internal/models"
)

func auditTemplate() *models.ChecklistTemplate {
	weight := 3.0
	return &models.ChecklistTemplate{
		Kind:  models.TemplateKindAudit,
		Title: "Quarterly Site Audit",
		Sections: models.Sections{
			{ID: "s1", Name: "Scored", Items: []models.Item{
				{ID: "c1", Name: "Housekeeping standard", Kind: models.ItemKindChoice, Options: []models.ChoiceOption{
					{Label: "poor", Points: 0},
					{Label: "acceptable", Points: 2},
					{Label: "good", Points: 5},
				}},
				{ID: "w1", Name: "Waste segregation", Kind: models.ItemKindYesNo, Weight: &weight},
				{ID: "p1", Name: "Signage in place", Kind: models.ItemKindYesNo},
			}},
		},
	}
}

func TestRecomputeMarksOptionPoints(t *testing.T) {
	template := auditTemplate()
	rec := record("Plant 2")
	rec.Answers["c1"] = models.Answer{Value: "acceptable"}

	breakdown := RecomputeMarks(template, rec)

	if len(breakdown) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(breakdown))
	}
	if breakdown[0].Marks != 2 {
		t.Errorf("Expected 2 marks for selected option, got %v", breakdown[0].Marks)
	}
	if breakdown[0].MaxMarks != 5 {
		t.Errorf("Expected max 5 marks, got %v", breakdown[0].MaxMarks)
	}
}

func TestRecomputeMarksUnknownOptionScoresZero(t *testing.T) {
	template := auditTemplate()
	rec := record("Plant 2")
	rec.Answers["c1"] = models.Answer{Value: "excellent"}

	breakdown := RecomputeMarks(template, rec)

	if breakdown[0].Marks != 0 {
		t.Errorf("Unknown option label must score 0, got %v", breakdown[0].Marks)
	}
	if !breakdown[0].Answered {
		t.Error("Field with an unknown option is still answered")
	}
}

func TestRecomputeMarksWeightedField(t *testing.T) {
	template := auditTemplate()
	rec := record("Plant 2")
	rec.Answers["w1"] = models.Answer{Value: models.AnswerNo}

	breakdown := RecomputeMarks(template, rec)

	// A weighted field earns its weight when answered, regardless of the
	// answer; the pass/fail gate is DetermineResult's job.
	if breakdown[1].Marks != 3 {
		t.Errorf("Expected weight 3 for answered field, got %v", breakdown[1].Marks)
	}
}

func TestRecomputeMarksDefaultsToOnePerAnswered(t *testing.T) {
	template := auditTemplate()
	rec := record("Plant 2")
	rec.Answers["p1"] = models.Answer{Value: models.AnswerYes}

	breakdown := RecomputeMarks(template, rec)

	if breakdown[2].Marks != 1 || breakdown[2].MaxMarks != 1 {
		t.Errorf("Expected 1/1 for plain answered field, got %v/%v", breakdown[2].Marks, breakdown[2].MaxMarks)
	}
}

func TestRecomputeMarksUnansweredScoresZero(t *testing.T) {
	breakdown := RecomputeMarks(auditTemplate(), record("Plant 2"))

	for _, field := range breakdown {
		if field.Marks != 0 {
			t.Errorf("Unanswered field %s must score 0, got %v", field.ItemID, field.Marks)
		}
		if field.Answered {
			t.Errorf("Field %s should not be answered", field.ItemID)
		}
	}
}

func TestTotalMarks(t *testing.T) {
	template := auditTemplate()
	rec := record("Plant 2")
	rec.Answers["c1"] = models.Answer{Value: "good"}
	rec.Answers["w1"] = models.Answer{Value: models.AnswerYes}
	rec.Answers["p1"] = models.Answer{Value: models.AnswerYes}

	marks, maxMarks := TotalMarks(RecomputeMarks(template, rec))

	if marks != 9 {
		t.Errorf("Expected 5+3+1 = 9 marks, got %v", marks)
	}
	if maxMarks != 9 {
		t.Errorf("Expected max 9 marks, got %v", maxMarks)
	}
}
