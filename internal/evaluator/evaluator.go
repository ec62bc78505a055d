// Package evaluator turns an item template plus a set of submitted answers
// into completion progress, finalization validation and a pass/fail result.
// All functions are pure: no storage, no logging, no shared state.
package evaluator

import (
	"math"
	"strings"

	"complyflow/internal/models"
)

// ValidationError describes one reason a response record cannot be
// finalized. ItemID and ItemName are empty for record-level problems such
// as a missing location title.
type ValidationError struct {
	ItemID   string `json:"item_id,omitempty"`
	ItemName string `json:"item_name,omitempty"`
	Reason   string `json:"reason"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.ItemName != "" {
		return e.ItemName + ": " + e.Reason
	}
	return e.Reason
}

// ValidationErrors is the full list of finalization problems, returned
// whole rather than failing fast so a caller can show all of them at once.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	reasons := make([]string, len(e))
	for i, v := range e {
		reasons[i] = v.Error()
	}
	return strings.Join(reasons, "; ")
}

// strictness selects which satisfaction predicate applies. Progress display
// is optimistic: a document that has been selected client-side but not yet
// uploaded counts. Finalization and result determination are strict: only a
// durably stored file counts.
type strictness int

const (
	optimistic strictness = iota
	strict
)

// itemSatisfied is the single satisfaction predicate shared by
// ComputeProgress, ValidateForFinalization and DetermineResult. A yes/no
// item is satisfied only by "yes": answering "no" is a valid answer but
// does not satisfy the item. Unknown kinds are never satisfied.
func itemSatisfied(item models.Item, answer *models.Answer, mode strictness) bool {
	if answer == nil {
		return false
	}
	switch item.Kind {
	case models.ItemKindDocument:
		if answer.Document == nil {
			return false
		}
		if answer.Document.FilePath != "" {
			return true
		}
		return mode == optimistic && answer.Document.IsTemporary
	case models.ItemKindYesNo:
		return answer.Value == models.AnswerYes
	case models.ItemKindChoice:
		return answer.Value != ""
	}
	return false
}

// answered reports whether an item has any present answer, regardless of
// whether that answer satisfies it.
func answered(item models.Item, answer *models.Answer) bool {
	if answer == nil {
		return false
	}
	if item.Kind == models.ItemKindDocument {
		return answer.Document != nil
	}
	return answer.Value != ""
}

// gatesResult reports whether an item participates in pass/fail
// determination. Choice items are scored, not gating; unknown kinds are
// excluded entirely.
func gatesResult(item models.Item) bool {
	return item.Kind == models.ItemKindDocument || item.Kind == models.ItemKindYesNo
}

// ComputeProgress computes completion progress for display. The location
// title counts as one extra completion unit; items of unknown kind
// contribute nothing. Safe to call repeatedly and on partial or empty
// records; the percentage is always within [0, 100].
func ComputeProgress(template *models.ChecklistTemplate, record *models.ResponseRecord) models.Progress {
	if record == nil {
		record = &models.ResponseRecord{}
	}

	completed, total := 0, 0
	for _, item := range template.Items() {
		if !models.KnownItemKind(item.Kind) {
			continue
		}
		total++
		if itemSatisfied(item, record.Answer(item.ID), optimistic) {
			completed++
		}
	}

	total++
	if strings.TrimSpace(record.LocationTitle) != "" {
		completed++
	}

	if total == 0 {
		return models.Progress{}
	}

	percentage := int(math.Round(100 * float64(completed) / float64(total)))
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	return models.Progress{
		Completed:  completed,
		Total:      total,
		Percentage: percentage,
	}
}

// ValidateForFinalization checks a response record before it leaves the
// Draft/InProgress states. It returns every problem rather than the first:
// a missing location title, any document item without a durably stored
// file, and any unanswered yes/no or choice item. Answering "no" satisfies
// this check even though it does not count toward progress. A non-empty
// result means the caller must refuse finalization.
func ValidateForFinalization(template *models.ChecklistTemplate, record *models.ResponseRecord) ValidationErrors {
	if record == nil {
		record = &models.ResponseRecord{}
	}

	var errs ValidationErrors
	if strings.TrimSpace(record.LocationTitle) == "" {
		errs = append(errs, ValidationError{Reason: "location title is required"})
	}

	for _, item := range template.Items() {
		if !models.KnownItemKind(item.Kind) {
			continue
		}
		answer := record.Answer(item.ID)
		switch item.Kind {
		case models.ItemKindDocument:
			if !itemSatisfied(item, answer, strict) {
				errs = append(errs, ValidationError{
					ItemID:   item.ID,
					ItemName: item.Name,
					Reason:   "requires an uploaded document",
				})
			}
		case models.ItemKindYesNo, models.ItemKindChoice:
			if !answered(item, answer) {
				errs = append(errs, ValidationError{
					ItemID:   item.ID,
					ItemName: item.Name,
					Reason:   "must be answered",
				})
			}
		}
	}

	return errs
}

// DetermineResult evaluates a response record to a pass/fail outcome. An
// unsatisfied auto-fail item fails the submission immediately, regardless
// of all other items. Otherwise every document and yes/no item must be
// satisfied in the strict sense to pass.
func DetermineResult(template *models.ChecklistTemplate, record *models.ResponseRecord) models.Result {
	if record == nil {
		record = &models.ResponseRecord{}
	}
	items := template.Items()

	for _, item := range items {
		if !gatesResult(item) || !item.AutoFail {
			continue
		}
		if !itemSatisfied(item, record.Answer(item.ID), strict) {
			return models.ResultFail
		}
	}

	for _, item := range items {
		if !gatesResult(item) {
			continue
		}
		if !itemSatisfied(item, record.Answer(item.ID), strict) {
			return models.ResultFail
		}
	}

	return models.ResultPass
}

// DetermineStatus maps an evaluation result to the submission status it
// produces: Pass yields Completed, Fail yields Pending. Draft and
// InProgress are caller-managed and never produced here.
func DetermineStatus(result models.Result) models.SubmissionStatus {
	if result == models.ResultPass {
		return models.StatusCompleted
	}
	return models.StatusPending
}
