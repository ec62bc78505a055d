package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"complyflow/internal/middleware"
	"complyflow/internal/repository"
	"complyflow/internal/service"
	"complyflow/internal/verification"
)

// VerificationHandler handles reviewer decisions on audit submissions. It
// resolves whether the caller holds a reviewing role and passes that to the
// service, which owns the actual permission decision.
type VerificationHandler struct {
	verificationService *service.VerificationService
	roleRepo            *repository.RoleRepository
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(verificationService *service.VerificationService, roleRepo *repository.RoleRepository) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		roleRepo:            roleRepo,
	}
}

type rejectRequest struct {
	CorrectiveAction string `json:"corrective_action"`
}

func (h *VerificationHandler) isReviewer(userID uint) bool {
	for _, role := range []string{RoleManager, RoleAdmin} {
		if has, err := h.roleRepo.UserHasRole(userID, role); err == nil && has {
			return true
		}
	}
	return false
}

// Approve accepts an audit submission
// @Summary Approve audit
// @Tags Verification
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} models.AuditSubmission
// @Failure 403 {object} map[string]string "Not a reviewer"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Router /submissions/{id}/verification/approve [post]
func (h *VerificationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.verificationRequest(w, r)
	if !ok {
		return
	}

	submission, err := h.verificationService.Approve(id, userID, h.isReviewer(userID))
	if err != nil {
		h.respondVerificationError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

// Reject rejects an audit submission with a corrective action
// @Summary Reject audit
// @Tags Verification
// @Security BearerAuth
// @Accept json
// @Param id path int true "Submission ID"
// @Param request body rejectRequest true "Corrective action"
// @Success 200 {object} models.AuditSubmission
// @Failure 400 {object} map[string]string "Missing corrective action"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Router /submissions/{id}/verification/reject [post]
func (h *VerificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.verificationRequest(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	submission, err := h.verificationService.Reject(id, userID, req.CorrectiveAction, h.isReviewer(userID))
	if err != nil {
		h.respondVerificationError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

// Reset clears the verification state of an audit submission
// @Summary Reset verification
// @Tags Verification
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} models.AuditSubmission
// @Failure 403 {object} map[string]string "Not a reviewer"
// @Router /submissions/{id}/verification [delete]
func (h *VerificationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.verificationRequest(w, r)
	if !ok {
		return
	}

	submission, err := h.verificationService.Reset(id, userID, h.isReviewer(userID))
	if err != nil {
		h.respondVerificationError(w, err, id)
		return
	}

	JSONResponse(w, submission)
}

func (h *VerificationHandler) verificationRequest(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
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

func (h *VerificationHandler) respondVerificationError(w http.ResponseWriter, err error, id uint) {
	var validationErr *verification.ValidationError
	switch {
	case errors.Is(err, verification.ErrPermissionDenied):
		http.Error(w, ErrMsgPermissionDenied, http.StatusForbidden)
	case errors.Is(err, verification.ErrNotFound):
		http.Error(w, ErrMsgNotFound, http.StatusNotFound)
	case errors.Is(err, verification.ErrConflict):
		http.Error(w, "Submission was modified concurrently, reload and retry", http.StatusConflict)
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Reason, http.StatusBadRequest)
	default:
		slog.Error("Verification operation failed", "error", err, "submission_id", id)
		http.Error(w, "Verification operation failed", http.StatusInternalServerError)
	}
}
