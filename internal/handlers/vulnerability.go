package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// УЯЗВИМОСТИ
//

func (h *Handlers) ListVulnerabilities(c *gin.Context) {
	projectID, ok := queryID(c, "project_id")
	if !ok {
		return
	}
	dbq := h.db.Order("created_at desc")
	if projectID != nil {
		dbq = dbq.Where("project_id = ?", *projectID)
	}
	if sev := c.Query("severity"); sev != "" {
		dbq = dbq.Where("severity = ?", sev)
	}
	if st := c.Query("status"); st != "" {
		dbq = dbq.Where("status = ?", st)
	}

	var vulns []models.Vulnerability
	if err := dbq.Find(&vulns).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, vulns)
}

func (h *Handlers) ShowVulnerability(c *gin.Context) {
	showByID[models.Vulnerability](c, h.db, "Assets.Asset", "Retests")
}

func (h *Handlers) CreateVulnerability(c *gin.Context) {
	var in service.VulnerabilityInput
	if !bind(c, &in) {
		return
	}
	v, err := h.svc.CreateVulnerability(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, v)
}

func (h *Handlers) UpdateVulnerability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.VulnerabilityInput
	if !bind(c, &in) {
		return
	}
	v, err := h.svc.UpdateVulnerability(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, v)
}

func (h *Handlers) DeleteVulnerability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteVulnerability(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}

//
// СМЕНА СТАТУСА
//

type changeStatusRequest struct {
	Status models.VulnStatus `json:"status" binding:"required"`
}

func (h *Handlers) ChangeVulnerabilityStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req changeStatusRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.ChangeVulnerabilityStatus(c.Request.Context(), currentActor(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, v)
}

//
// ЗАТРОНУТЫЕ ОБЪЕКТЫ
//

type linkAssetRequest struct {
	AssetID uuid.UUID `json:"asset_id" binding:"required"`
	NotesMD string    `json:"notes_md"`
}

func (h *Handlers) LinkVulnerabilityAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req linkAssetRequest
	if !bind(c, &req) {
		return
	}
	link, err := h.svc.LinkAsset(c.Request.Context(), currentActor(c), id, req.AssetID, req.NotesMD)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, link)
}

func (h *Handlers) UnlinkVulnerabilityAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	assetID, ok := paramID(c, "asset_id")
	if !ok {
		return
	}
	if err := h.svc.UnlinkAsset(c.Request.Context(), currentActor(c), id, assetID); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
