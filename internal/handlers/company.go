package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
)

//
// КОМПАНИИ
//

func (h *Handlers) ListCompanies(c *gin.Context) {
	var companies []models.Company
	if err := h.db.Order("name asc").Find(&companies).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, companies)
}

func (h *Handlers) CreateCompany(c *gin.Context) {
	var in service.CompanyInput
	if !bind(c, &in) {
		return
	}
	company, err := h.svc.CreateCompany(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, company)
}

func (h *Handlers) UpdateCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.CompanyInput
	if !bind(c, &in) {
		return
	}
	company, err := h.svc.UpdateCompany(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, company)
}

func (h *Handlers) DeleteCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCompany(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
