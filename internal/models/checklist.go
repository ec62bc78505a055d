package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ItemKind identifies how an item is answered and evaluated.
type ItemKind string

const (
	ItemKindDocument ItemKind = "document"
	ItemKindYesNo    ItemKind = "yesno"
	ItemKindChoice   ItemKind = "choice"
)

// KnownItemKind reports whether kind is one of the supported item kinds.
// Templates with any other kind are rejected at parse time.
func KnownItemKind(kind ItemKind) bool {
	switch kind {
	case ItemKindDocument, ItemKindYesNo, ItemKindChoice:
		return true
	}
	return false
}

// ChoiceOption is one selectable option of a choice item, carrying the
// points awarded when it is selected.
type ChoiceOption struct {
	Label  string  `json:"label"`
	Points float64 `json:"points"`
}

// Item is one answerable requirement inside a template. Every item is
// required; there is no optional-item concept.
type Item struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Kind     ItemKind       `json:"kind"`
	AutoFail bool           `json:"autoFail,omitempty"`
	Options  []ChoiceOption `json:"options,omitempty"`
	Weight   *float64       `json:"weight,omitempty"`
}

// Section is a named, ordered group of items. It is purely organizational
// and carries no evaluation semantics of its own.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Sections is the ordered section list of a template, stored as JSONB.
type Sections []Section

// Value implements driver.Valuer for JSONB storage.
func (s Sections) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB storage.
func (s *Sections) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for sections", value)
	}
	return json.Unmarshal(b, s)
}

// TemplateKind distinguishes plain checklists from scored audit forms.
type TemplateKind string

const (
	TemplateKindChecklist TemplateKind = "checklist"
	TemplateKindAudit     TemplateKind = "audit"
)

// ChecklistTemplate is the immutable definition of sections and items a
// submission must answer. Once a submission references a template, edits to
// it are refused so past submissions keep their semantics.
type ChecklistTemplate struct {
	ID          uint         `json:"id" db:"id"`
	Kind        TemplateKind `json:"kind" db:"kind"`
	Title       string       `json:"title" db:"title"`
	Description *string      `json:"description,omitempty" db:"description"`
	Sections    Sections     `json:"sections" db:"sections"`
	CreatedBy   *uint        `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Items returns all items across all sections in template order.
func (t *ChecklistTemplate) Items() []Item {
	var items []Item
	for _, section := range t.Sections {
		items = append(items, section.Items...)
	}
	return items
}

// Yes/no answer literals.
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// DocumentAnswer is the answer to a document item. FilePath is set once the
// file is durably stored; IsTemporary marks a file that has been selected
// client-side but not yet uploaded.
type DocumentAnswer struct {
	FileName    string     `json:"fileName"`
	FilePath    string     `json:"filePath,omitempty"`
	FileSize    int64      `json:"fileSize"`
	UploadedAt  *time.Time `json:"uploadedAt,omitempty"`
	IsTemporary bool       `json:"isTemporary,omitempty"`
}

// Answer is the tagged union of answer shapes. Exactly one of Document and
// Value is meaningful: document items carry Document, yes/no and choice
// items carry the literal string in Value.
type Answer struct {
	Value    string
	Document *DocumentAnswer
}

// UnmarshalJSON accepts either a bare string ("yes", "no", an option label)
// or a document answer object.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Value)
	}
	a.Document = &DocumentAnswer{}
	return json.Unmarshal(data, a.Document)
}

// MarshalJSON writes the same wire shape UnmarshalJSON accepts.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Document != nil {
		return json.Marshal(a.Document)
	}
	return json.Marshal(a.Value)
}

// ResponseRecord is the set of answers submitted against a template, keyed
// by item id. Keys need not cover every item; an absent key means
// unanswered. The wire format is a flat JSON object in which the key
// "locationTitle" is reserved for the free-text location field that counts
// as one extra completion unit.
type ResponseRecord struct {
	LocationTitle string
	Answers       map[string]Answer
}

// LocationTitleKey is the reserved key the location title occupies in the
// flat answer object.
const LocationTitleKey = "locationTitle"

// UnmarshalJSON reads the flat object form described in the type comment.
func (r *ResponseRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if lt, ok := raw[LocationTitleKey]; ok {
		if err := json.Unmarshal(lt, &r.LocationTitle); err != nil {
			return fmt.Errorf("invalid locationTitle: %w", err)
		}
		delete(raw, LocationTitleKey)
	}
	r.Answers = make(map[string]Answer, len(raw))
	for itemID, msg := range raw {
		var answer Answer
		if err := json.Unmarshal(msg, &answer); err != nil {
			return fmt.Errorf("invalid answer for item %q: %w", itemID, err)
		}
		r.Answers[itemID] = answer
	}
	return nil
}

// MarshalJSON writes the flat object form described in the type comment.
func (r ResponseRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Answers)+1)
	out[LocationTitleKey] = r.LocationTitle
	for itemID, answer := range r.Answers {
		out[itemID] = answer
	}
	return json.Marshal(out)
}

// Value implements driver.Valuer for JSONB storage.
func (r ResponseRecord) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB storage.
func (r *ResponseRecord) Scan(value interface{}) error {
	if value == nil {
		*r = ResponseRecord{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type %T for response record", value)
	}
	return json.Unmarshal(b, r)
}

// Answer returns the answer for an item id, or nil if the item is
// unanswered.
func (r *ResponseRecord) Answer(itemID string) *Answer {
	if r.Answers == nil {
		return nil
	}
	answer, ok := r.Answers[itemID]
	if !ok {
		return nil
	}
	return &answer
}

// SubmissionStatus is the lifecycle state of a submission. Draft and
// InProgress are caller-managed states prior to finalization; Completed and
// Pending are produced by evaluation.
type SubmissionStatus string

const (
	StatusDraft      SubmissionStatus = "draft"
	StatusInProgress SubmissionStatus = "in_progress"
	StatusCompleted  SubmissionStatus = "completed"
	StatusPending    SubmissionStatus = "pending"
)

// Result is the pass/fail outcome of evaluation. The canonical fail literal
// is "fail".
type Result string

const (
	ResultUnset Result = ""
	ResultPass  Result = "pass"
	ResultFail  Result = "fail"
)

// VerificationStatus is the reviewer state of an audit submission. The
// zero value means unreviewed and is persisted as NULL.
type VerificationStatus string

const (
	VerificationUnreviewed VerificationStatus = ""
	VerificationPending    VerificationStatus = "pending"
	VerificationAccepted   VerificationStatus = "accepted"
	VerificationRejected   VerificationStatus = "rejected"
)

// Progress is the completion progress of a submission, used for UI display.
// Percentage is always within [0, 100].
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Submission is the persisted entity produced by evaluating a response
// record against a template. One submission exists per (template, user)
// pair, enforced by a database unique constraint.
type Submission struct {
	ID         uint             `json:"id" db:"id"`
	TemplateID uint             `json:"template_id" db:"template_id"`
	UserID     uint             `json:"user_id" db:"user_id"`
	Title      string           `json:"title" db:"title"`
	Responses  ResponseRecord   `json:"responses" db:"responses"`
	Status     SubmissionStatus `json:"status" db:"status"`
	Result     Result           `json:"result,omitempty" db:"result"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	LastEditAt time.Time        `json:"last_edit_at" db:"last_edit_at"`
}

// AuditSubmission is a submission against an audit template, carrying
// scoring and verification fields. RowVersion backs the optimistic lock on
// verification transitions.
type AuditSubmission struct {
	Submission
	Marks              float64            `json:"marks" db:"marks"`
	Percentage         float64            `json:"percentage" db:"percentage"`
	Comments           string             `json:"comments,omitempty" db:"comments"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty" db:"verification_status"`
	VerifiedBy         *uint              `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt         *time.Time         `json:"verified_at,omitempty" db:"verified_at"`
	CorrectiveAction   *string            `json:"corrective_action,omitempty" db:"corrective_action"`
	RowVersion         int64              `json:"-" db:"row_version"`
}

// SubmissionWithDetails extends Submission with user and template info for
// listings.
type SubmissionWithDetails struct {
	Submission
	UserEmail     string `json:"user_email,omitempty"`
	UserName      string `json:"user_name,omitempty"`
	TemplateTitle string `json:"template_title,omitempty"`
	TemplateKind  string `json:"template_kind,omitempty"`
}

// FieldMarks is the recomputed per-field score breakdown of an audit
// submission, used for reporting. The authoritative total percentage is the
// one persisted at submission time.
type FieldMarks struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	Answered bool    `json:"answered"`
	Marks    float64 `json:"marks"`
	MaxMarks float64 `json:"max_marks"`
}
