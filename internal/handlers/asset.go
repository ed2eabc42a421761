package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
)

// СПИСОК ОБЪЕКТОВ

func (h *Handlers) ListAssets(c *gin.Context) {
	companyID, ok := queryID(c, "company_id")
	if !ok {
		return
	}
	dbq := h.db.Order("company_id asc, name asc")
	if companyID != nil {
		dbq = dbq.Where("company_id = ?", *companyID)
	}

	var assets []models.Asset
	if err := dbq.Find(&assets).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, assets)
}

func (h *Handlers) ShowAsset(c *gin.Context) {
	showByID[models.Asset](c, h.db, "Company")
}

// СОЗДАНИЕ / РЕДАКТИРОВАНИЕ

func (h *Handlers) CreateAsset(c *gin.Context) {
	var in service.AssetInput
	if !bind(c, &in) {
		return
	}
	asset, err := h.svc.CreateAsset(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, asset)
}

func (h *Handlers) UpdateAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.AssetInput
	if !bind(c, &in) {
		return
	}
	asset, err := h.svc.UpdateAsset(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, asset)
}

func (h *Handlers) DeleteAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAsset(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
