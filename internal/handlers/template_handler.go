package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"complyflow/internal/middleware"
	"complyflow/internal/models"
	"complyflow/internal/service"
)

// TemplateHandler handles checklist template HTTP requests
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// Create creates a checklist or audit template
// @Summary Create template
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Param request body models.ChecklistTemplate true "Template definition"
// @Success 201 {object} models.ChecklistTemplate
// @Failure 400 {object} map[string]string "Invalid template"
// @Router /templates [post]
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var template models.ChecklistTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if userID, ok := middleware.GetUserID(r); ok {
		template.CreatedBy = &userID
	}

	if err := h.templateService.Create(&template); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, template)
}

// List returns all templates, optionally filtered by kind
// @Summary List templates
// @Tags Templates
// @Security BearerAuth
// @Param kind query string false "Template kind (checklist or audit)"
// @Success 200 {array} models.ChecklistTemplate
// @Router /templates [get]
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := models.TemplateKind(r.URL.Query().Get("kind"))

	templates, err := h.templateService.List(kind)
	if err != nil {
		slog.Error("Failed to list templates", "error", err)
		http.Error(w, "Failed to list templates", http.StatusInternalServerError)
		return
	}

	JSONResponse(w, templates)
}

// Get returns a template by ID
// @Summary Get template
// @Tags Templates
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 200 {object} models.ChecklistTemplate
// @Failure 404 {object} map[string]string "Not found"
// @Router /templates/{id} [get]
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, ErrMsgInvalidTemplateID, http.StatusBadRequest)
		return
	}

	template, err := h.templateService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			http.Error(w, ErrMsgNotFound, http.StatusNotFound)
		} else {
			slog.Error("Failed to get template", "error", err, "template_id", id)
			http.Error(w, "Failed to get template", http.StatusInternalServerError)
		}
		return
	}

	JSONResponse(w, template)
}

// Update edits a template that has no submissions yet
// @Summary Update template
// @Tags Templates
// @Security BearerAuth
// @Accept json
// @Param id path int true "Template ID"
// @Param request body models.ChecklistTemplate true "Template definition"
// @Success 200 {object} models.ChecklistTemplate
// @Failure 409 {object} map[string]string "Template in use"
// @Router /templates/{id} [put]
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, ErrMsgInvalidTemplateID, http.StatusBadRequest)
		return
	}

	var template models.ChecklistTemplate
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		http.Error(w, ErrMsgInvalidRequestBody, http.StatusBadRequest)
		return
	}
	template.ID = id

	if err := h.templateService.Update(&template); err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			http.Error(w, ErrMsgNotFound, http.StatusNotFound)
		case errors.Is(err, service.ErrTemplateInUse):
			http.Error(w, "Template has submissions and cannot be edited", http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	JSONResponse(w, template)
}

// Delete removes a template that has no submissions
// @Summary Delete template
// @Tags Templates
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 204
// @Failure 409 {object} map[string]string "Template in use"
// @Router /templates/{id} [delete]
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		http.Error(w, ErrMsgInvalidTemplateID, http.StatusBadRequest)
		return
	}

	if err := h.templateService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			http.Error(w, ErrMsgNotFound, http.StatusNotFound)
		case errors.Is(err, service.ErrTemplateInUse):
			http.Error(w, "Template has submissions and cannot be deleted", http.StatusConflict)
		default:
			slog.Error("Failed to delete template", "error", err, "template_id", id)
			http.Error(w, "Failed to delete template", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseID parses a uint path parameter
func parseID(r *http.Request, name string) (uint, error) {
	value, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
