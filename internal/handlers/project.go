package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// СПИСОК ПРОЕКТОВ
//

// Список проектов + фильтры
func (h *Handlers) ListProjects(c *gin.Context) {
	companyID, ok := queryID(c, "company_id")
	if !ok {
		return
	}
	statusStr := c.Query("status")

	dbq := h.db.Preload("Company").Order("created_at desc")
	if companyID != nil {
		dbq = dbq.Where("company_id = ?", *companyID)
	}
	if statusStr != "" {
		dbq = dbq.Where("status = ?", statusStr)
	}

	var projects []models.Project
	if err := dbq.Find(&projects).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, projects)
}

func (h *Handlers) ShowProject(c *gin.Context) {
	showByID[models.Project](c, h.db, "Company", "Assets.Asset", "Vulnerabilities")
}

func (h *Handlers) CreateProject(c *gin.Context) {
	var in service.ProjectInput
	if !bind(c, &in) {
		return
	}
	project, err := h.svc.CreateProject(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, project)
}

func (h *Handlers) UpdateProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ProjectInput
	if !bind(c, &in) {
		return
	}
	project, err := h.svc.UpdateProject(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, project)
}

func (h *Handlers) DeleteProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProject(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}

//
// ОБЪЕКТЫ ПРОЕКТА
//

type attachAssetRequest struct {
	AssetID uuid.UUID `json:"asset_id" binding:"required"`
}

func (h *Handlers) AttachProjectAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req attachAssetRequest
	if !bind(c, &req) {
		return
	}
	link, err := h.svc.AttachAsset(c.Request.Context(), currentActor(c), id, req.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, link)
}

func (h *Handlers) DetachProjectAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	assetID, ok := paramID(c, "asset_id")
	if !ok {
		return
	}
	if err := h.svc.DetachAsset(c.Request.Context(), id, assetID); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}

func (h *Handlers) AttachAllProjectAssets(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	added, err := h.svc.AttachAllAssets(c.Request.Context(), currentActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"attached": added})
}

func (h *Handlers) DetachAllProjectAssets(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	removed, err := h.svc.DetachAllAssets(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"detached": removed})
}
