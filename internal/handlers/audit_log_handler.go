package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"complyflow/internal/service"
)

// AuditLogHandler exposes the audit trail to administrators
type AuditLogHandler struct {
	auditService *service.AuditService
}

// NewAuditLogHandler creates a new audit log handler
func NewAuditLogHandler(auditService *service.AuditService) *AuditLogHandler {
	return &AuditLogHandler{auditService: auditService}
}

// List returns audit log entries, newest first
// @Summary List audit log entries
// @Tags Audit
// @Security BearerAuth
// @Param user_id query int false "Filter by user"
// @Param action query string false "Filter by action"
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {array} models.AuditLog
// @Router /admin/audit-logs [get]
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	var userID uint
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "Invalid user_id", http.StatusBadRequest)
			return
		}
		userID = uint(parsed)
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.auditService.List(userID, r.URL.Query().Get("action"), limit)
	if err != nil {
		slog.Error("Failed to list audit logs", "error", err)
		http.Error(w, "Failed to list audit logs", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, entries)
}
