package evaluator

import (
	"complyflow/internal/models"
)

// RecomputeMarks re-derives the per-field score breakdown of an audit
// submission from its raw answers and item metadata, for reporting. The
// persisted percentage remains authoritative; this recomputation only
// reconstructs a consistent per-field view.
//
// Marks per item: the points of the selected option when the item carries
// an option-points mapping, the item weight when one is set and the item is
// answered, otherwise one mark per answered item.
func RecomputeMarks(template *models.ChecklistTemplate, record *models.ResponseRecord) []models.FieldMarks {
	if record == nil {
		record = &models.ResponseRecord{}
	}

	var breakdown []models.FieldMarks
	for _, item := range template.Items() {
		if !models.KnownItemKind(item.Kind) {
			continue
		}
		answer := record.Answer(item.ID)
		field := models.FieldMarks{
			ItemID:   item.ID,
			ItemName: item.Name,
			Answered: answered(item, answer),
		}

		switch {
		case len(item.Options) > 0:
			field.MaxMarks = maxOptionPoints(item.Options)
			if field.Answered {
				field.Marks = optionPoints(item.Options, answer.Value)
			}
		case item.Weight != nil:
			field.MaxMarks = *item.Weight
			if field.Answered {
				field.Marks = *item.Weight
			}
		default:
			field.MaxMarks = 1
			if field.Answered {
				field.Marks = 1
			}
		}

		breakdown = append(breakdown, field)
	}

	return breakdown
}

// TotalMarks sums a breakdown into achieved and maximum marks.
func TotalMarks(breakdown []models.FieldMarks) (marks, maxMarks float64) {
	for _, field := range breakdown {
		marks += field.Marks
		maxMarks += field.MaxMarks
	}
	return marks, maxMarks
}

// optionPoints returns the points of the selected option, or 0 when the
// selected label is not part of the mapping.
func optionPoints(options []models.ChoiceOption, selected string) float64 {
	for _, option := range options {
		if option.Label == selected {
			return option.Points
		}
	}
	return 0
}

func maxOptionPoints(options []models.ChoiceOption) float64 {
	var max float64
	for _, option := range options {
		if option.Points > max {
			max = option.Points
		}
	}
	return max
}
