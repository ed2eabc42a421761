package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// БИБЛИОТЕКА НАХОДОК
//

func (h *Handlers) ListVulnerabilityTemplates(c *gin.Context) {
	dbq := h.db.Order("title asc")
	if sev := c.Query("severity"); sev != "" {
		dbq = dbq.Where("severity = ?", sev)
	}
	var list []models.VulnerabilityTemplate
	if err := dbq.Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, list)
}

func (h *Handlers) ShowVulnerabilityTemplate(c *gin.Context) {
	showByID[models.VulnerabilityTemplate](c, h.db)
}

func (h *Handlers) CreateVulnerabilityTemplate(c *gin.Context) {
	var in service.VulnerabilityTemplateInput
	if !bind(c, &in) {
		return
	}
	t, err := h.svc.CreateVulnerabilityTemplate(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, t)
}

func (h *Handlers) UpdateVulnerabilityTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.VulnerabilityTemplateInput
	if !bind(c, &in) {
		return
	}
	t, err := h.svc.UpdateVulnerabilityTemplate(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, t)
}

func (h *Handlers) DeleteVulnerabilityTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteVulnerabilityTemplate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}

type fromTemplateRequest struct {
	ProjectID uuid.UUID `json:"project_id" binding:"required"`
}

// CreateVulnerabilityFromTemplate заводит находку в проекте по шаблону.
func (h *Handlers) CreateVulnerabilityFromTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req fromTemplateRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.CreateVulnerabilityFromTemplate(c.Request.Context(), currentActor(c), id, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, v)
}
