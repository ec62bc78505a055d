package service

import (
	"io"
	"time"

	"complyflow/internal/models"
	"complyflow/internal/repository"
)

type fakeTemplateStore struct {
	templates      map[uint]*models.ChecklistTemplate
	nextID         uint
	hasSubmissions map[uint]bool
}

func newFakeTemplateStore() *fakeTemplateStore {
	return &fakeTemplateStore{
		templates:      map[uint]*models.ChecklistTemplate{},
		hasSubmissions: map[uint]bool{},
	}
}

func (f *fakeTemplateStore) Create(template *models.ChecklistTemplate) error {
	f.nextID++
	template.ID = f.nextID
	copied := *template
	f.templates[template.ID] = &copied
	return nil
}

func (f *fakeTemplateStore) GetByID(id uint) (*models.ChecklistTemplate, error) {
	template, ok := f.templates[id]
	if !ok {
		return nil, nil
	}
	copied := *template
	return &copied, nil
}

func (f *fakeTemplateStore) GetAll(kind models.TemplateKind) ([]models.ChecklistTemplate, error) {
	var out []models.ChecklistTemplate
	for _, template := range f.templates {
		if kind == "" || template.Kind == kind {
			out = append(out, *template)
		}
	}
	return out, nil
}

func (f *fakeTemplateStore) Update(template *models.ChecklistTemplate) error {
	copied := *template
	f.templates[template.ID] = &copied
	return nil
}

func (f *fakeTemplateStore) Delete(id uint) error {
	delete(f.templates, id)
	return nil
}

func (f *fakeTemplateStore) HasSubmissions(templateID uint) (bool, error) {
	return f.hasSubmissions[templateID], nil
}

type fakeSubmissionStore struct {
	submissions map[uint]*models.AuditSubmission
	nextID      uint
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{submissions: map[uint]*models.AuditSubmission{}}
}

func (f *fakeSubmissionStore) Create(submission *models.Submission) error {
	for _, existing := range f.submissions {
		if existing.TemplateID == submission.TemplateID && existing.UserID == submission.UserID {
			return repository.ErrSubmissionExists
		}
	}
	f.nextID++
	submission.ID = f.nextID
	submission.CreatedAt = time.Now()
	submission.LastEditAt = submission.CreatedAt
	f.submissions[submission.ID] = &models.AuditSubmission{Submission: *submission, RowVersion: 1}
	return nil
}

func (f *fakeSubmissionStore) GetByID(id uint) (*models.AuditSubmission, error) {
	submission, ok := f.submissions[id]
	if !ok {
		return nil, nil
	}
	copied := *submission
	return &copied, nil
}

func (f *fakeSubmissionStore) GetByTemplateAndUser(templateID, userID uint) (*models.AuditSubmission, error) {
	for _, submission := range f.submissions {
		if submission.TemplateID == templateID && submission.UserID == userID {
			copied := *submission
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSubmissionStore) GetByUserID(userID uint) ([]models.SubmissionWithDetails, error) {
	var out []models.SubmissionWithDetails
	for _, submission := range f.submissions {
		if submission.UserID == userID {
			out = append(out, models.SubmissionWithDetails{Submission: submission.Submission})
		}
	}
	return out, nil
}

func (f *fakeSubmissionStore) GetAll(status models.SubmissionStatus, kind models.TemplateKind) ([]models.SubmissionWithDetails, error) {
	var out []models.SubmissionWithDetails
	for _, submission := range f.submissions {
		if status == "" || submission.Status == status {
			out = append(out, models.SubmissionWithDetails{Submission: submission.Submission})
		}
	}
	return out, nil
}

func (f *fakeSubmissionStore) UpdateDraft(submission *models.Submission) error {
	stored, ok := f.submissions[submission.ID]
	if !ok {
		return repository.ErrSubmissionNotFound
	}
	stored.Title = submission.Title
	stored.Responses = submission.Responses
	stored.Status = submission.Status
	stored.LastEditAt = time.Now()
	stored.RowVersion++
	return nil
}

func (f *fakeSubmissionStore) UpdateEvaluation(submission *models.AuditSubmission) error {
	stored, ok := f.submissions[submission.ID]
	if !ok {
		return repository.ErrSubmissionNotFound
	}
	stored.Title = submission.Title
	stored.Responses = submission.Responses
	stored.Status = submission.Status
	stored.Result = submission.Result
	stored.Marks = submission.Marks
	stored.Percentage = submission.Percentage
	stored.Comments = submission.Comments
	stored.LastEditAt = time.Now()
	stored.RowVersion++
	return nil
}

func (f *fakeSubmissionStore) UpdateVerification(
	id uint,
	expectedVersion int64,
	status models.VerificationStatus,
	verifiedBy *uint,
	verifiedAt *time.Time,
	correctiveAction *string,
) error {
	stored, ok := f.submissions[id]
	if !ok {
		return repository.ErrSubmissionNotFound
	}
	if stored.RowVersion != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.VerificationStatus = status
	stored.VerifiedBy = verifiedBy
	stored.VerifiedAt = verifiedAt
	stored.CorrectiveAction = correctiveAction
	stored.RowVersion++
	return nil
}

func (f *fakeSubmissionStore) Delete(id uint) error {
	delete(f.submissions, id)
	return nil
}

type fakeUserStore struct {
	users map[uint]*models.User
}

func (f *fakeUserStore) GetByID(id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

type fakeNotifier struct {
	accepted []uint
	rejected []uint
	lastCorrectiveAction string
}

func (f *fakeNotifier) SendAuditAccepted(to, userName, submissionTitle string, submissionID uint) error {
	f.accepted = append(f.accepted, submissionID)
	return nil
}

func (f *fakeNotifier) SendAuditRejected(to, userName, submissionTitle, correctiveAction string, submissionID uint) error {
	f.rejected = append(f.rejected, submissionID)
	f.lastCorrectiveAction = correctiveAction
	return nil
}

type fakeFiles struct {
	saved []string
}

func (f *fakeFiles) Save(subdir, fileName string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	path := subdir + "/" + fileName
	f.saved = append(f.saved, path)
	return path, int64(len(data)), nil
}

func (f *fakeFiles) PublicURL(path string) string {
	return "http://localhost/documents/" + path
}

func (f *fakeFiles) Remove(path string) error {
	for i, p := range f.saved {
		if p == path {
			f.saved = append(f.saved[:i], f.saved[i+1:]...)
			break
		}
	}
	return nil
}

func checklistTemplate(items ...models.Item) *models.ChecklistTemplate {
	return &models.ChecklistTemplate{
		Kind:  models.TemplateKindChecklist,
		Title: "Fire Safety Walkthrough",
		Sections: models.Sections{
			{ID: "s1", Name: "General", Items: items},
		},
	}
}

func auditTemplateFixture() *models.ChecklistTemplate {
	return &models.ChecklistTemplate{
		Kind:  models.TemplateKindAudit,
		Title: "Quarterly Site Audit",
		Sections: models.Sections{
			{ID: "s1", Name: "Scored", Items: []models.Item{
				{ID: "w1", Name: "Waste segregation", Kind: models.ItemKindYesNo},
				{ID: "c1", Name: "Housekeeping standard", Kind: models.ItemKindChoice, Options: []models.ChoiceOption{
					{Label: "poor", Points: 0},
					{Label: "good", Points: 5},
				}},
			}},
		},
	}
}

func filledRecord(title string, answers map[string]string) models.ResponseRecord {
	record := models.ResponseRecord{LocationTitle: title, Answers: map[string]models.Answer{}}
	for id, value := range answers {
		record.Answers[id] = models.Answer{Value: value}
	}
	return record
}
