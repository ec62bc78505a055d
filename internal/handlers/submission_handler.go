package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"complyflow/internal/evaluator"
	"complyflow/internal/middleware"
	"complyflow/internal/models"
	"complyflow/internal/repository"
	"complyflow/internal/service"
)

// SubmissionHandler handles submission HTTP requests
type SubmissionHandler struct {
	submissionService *service.SubmissionService
	roleRepo          *repository.RoleRepository
	maxUploadSize     int64
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *service.SubmissionService, roleRepo *repository.RoleRepository, maxUploadSize int64) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		roleRepo:          roleRepo,
		maxUploadSize:     maxUploadSize,
	}
}

// canViewAll reports whether the caller may see other users' submissions
func (h *SubmissionHandler) canViewAll(userID uint) bool {
	for _, role := range []string{RoleManager, RoleAdmin} {
		if has, err := h.roleRepo.UserHasRole(userID, role); err == nil && has {
			return true
		}
	}
	return false
}

// Start creates a draft submission for a template
// @Summary Start submission
// @Tags Submissions
// @Security BearerAuth
// @Param templateId path int true "Template ID"
// @Success 201 {object} models.Submission
// @Failure 409 {object} map[string]string "Submission exists"
// @Router /templates/{templateId}/submissions [post]
func (h *SubmissionHandler) Start(w http.ResponseWriter, r *http.Request) {
	templateID, err := parseID(r, "templateId")
	if err != nil {
		http.Error(w, ErrMsgInvalidTemplateID, http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, ErrMsgUserIDNotFound, http.StatusUnauthorized)
		return
	}

	submission, err := h.submissionService.Start(templateID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			http.Error(w, ErrMsgNotFound, http.StatusNotFound)
		case errors.Is(err, service.ErrSubmissionExists):
			http.Error(w, "A submission for this template already exists", http.StatusConflict)
		default:
			slog.Error("Failed to start submission", "error", err, "template_id", templateID, "user_id", userID)
			http.Error(w, "Failed to start submission", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, submission)
}

// GetMy returns the caller's submissions
// @Summary List own submissions
// @Tags Submissions
// @Security BearerAuth
// @Success 200 {array} models.SubmissionWithDetails
// @Router /submissions/my [get]
func (h *SubmissionHandler) GetMy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, ErrMsgUserIDNotFound, http.StatusUnauthorized)
		return
	}

	submissions, err := h.submissionService.ListForUser(userID)
	if err != nil {
		slog.Error("Failed to list submissions", "error", err, "user_id", userID)
		http.Error(w, "Failed to list submissions", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, submissions)
}

// List returns submissions across users, for reviewers
// @Summary List submissions
// @Tags Submissions
// @Security BearerAuth
// @Param status query string false "Submission status"
// @Param kind query string false "Template kind"
// @Success 200 {array} models.SubmissionWithDetails
// @Router /submissions [get]
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	kind := models.TemplateKind(r.URL.Query().Get("kind"))

	submissions, err := h.submissionService.ListAll(status, kind)
	if err != nil {
		slog.Error("Failed to list submissions", "error", err)
		http.Error(w, "Failed to list submissions", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, submissions)
}

// Get returns a submission by ID
// @Summary Get submission
// @Tags Submissions
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} models.AuditSubmission
// @Failure 403 {object} map[string]string "Not the owner"
// @Failure 404 {object} map[string]string "Not found"
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}

	submission, err := h.submissionService.Get(id, userID, h.canViewAll(userID))
	if err != nil {
		h.respondSubmissionError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

// SaveDraft replaces the response record of an unfinalized submission
// @Summary Save draft
// @Tags Submissions
// @Security BearerAuth
// @Accept json
// @Param id path int true "Submission ID"
// @Param request body models.ResponseRecord true "Flat answer object"
// @Success 200 {object} models.AuditSubmission
// @Failure 409 {object} map[string]string "Already finalized"
// @Router /submissions/{id} [put]
func (h *SubmissionHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}

	var record models.ResponseRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	submission, err := h.submissionService.SaveDraft(id, userID, record)
	if err != nil {
		h.respondSubmissionError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

// Progress returns the completion progress of a submission
// @Summary Submission progress
// @Tags Submissions
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} models.Progress
// @Router /submissions/{id}/progress [get]
func (h *SubmissionHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}

	progress, err := h.submissionService.Progress(id, userID, h.canViewAll(userID))
	if err != nil {
		h.respondSubmissionError(w, err, id)
		return
	}

	JSONResponse(w, progress)
}

// Finalize validates and evaluates a submission
// @Summary Finalize submission
// @Tags Submissions
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} models.AuditSubmission
// @Failure 422 {object} evaluator.ValidationErrors "Validation failed"
// @Router /submissions/{id}/finalize [post]
func (h *SubmissionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}

	submission, err := h.submissionService.Finalize(id, userID)
	if err != nil {
		var validationErrs evaluator.ValidationErrors
		if errors.As(err, &validationErrs) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{"validation_errors": validationErrs})
			return
		}
		h.respondSubmissionError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

// ScoreBreakdown returns the recomputed per-field marks of a submission
// @Summary Score breakdown
// @Tags Submissions
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {array} models.FieldMarks
// @Router /submissions/{id}/scores [get]
func (h *SubmissionHandler) ScoreBreakdown(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}

	breakdown, err := h.submissionService.ScoreBreakdown(id, userID, h.canViewAll(userID))
	if err != nil {
		h.respondSubmissionError(w, err, id)
		return
	}

	JSONResponse(w, breakdown)
}

// AttachDocument uploads a file as the answer of a document item
// @Summary Attach document
// @Tags Submissions
// @Security BearerAuth
// @Accept multipart/form-data
// @Param id path int true "Submission ID"
// @Param itemId path string true "Item ID"
// @Param file formData file true "Document"
// @Success 200 {object} models.AuditSubmission
// @Failure 400 {object} map[string]string "Not a document item"
// @Router /submissions/{id}/items/{itemId}/document [post]
func (h *SubmissionHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("itemId")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		http.Error(w, "Upload too large or malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	submission, err := h.submissionService.AttachDocument(id, userID, itemID, header.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrNotDocumentItem) {
			http.Error(w, "Item does not accept document answers", http.StatusBadRequest)
			return
		}
		h.respondSubmissionError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

// Delete removes a submission
// @Summary Delete submission
// @Tags Submissions
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 204
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.submissionRequest(w, r)
	if !ok {
		return
	}

	isAdmin, _ := h.roleRepo.UserHasRole(userID, RoleAdmin)
	if err := h.submissionService.Delete(id, userID, isAdmin); err != nil {
		h.respondSubmissionError(w, err, id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// submissionRequest parses the submission ID and authenticated user
func (h *SubmissionHandler) submissionRequest(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, ErrMsgInvalidSubmissionID, http.StatusBadRequest)
		return 0, 0, false
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, ErrMsgUserIDNotFound, http.StatusUnauthorized)
		return 0, 0, false
	}

	return id, userID, true
}

func (h *SubmissionHandler) respondSubmissionError(w http.ResponseWriter, err error, id uint) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound), errors.Is(err, service.ErrTemplateNotFound):
		http.Error(w, ErrMsgNotFound, http.StatusNotFound)
	case errors.Is(err, service.ErrNotSubmissionOwner):
		http.Error(w, ErrMsgPermissionDenied, http.StatusForbidden)
	case errors.Is(err, service.ErrSubmissionFinalized):
		http.Error(w, "Submission is already finalized", http.StatusConflict)
	default:
		slog.Error("Submission operation failed", "error", err, "submission_id", id)
		http.Error(w, "Submission operation failed", http.StatusInternalServerError)
	}
}
