package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handlers) ShowCompany(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var company models.Company
	// Грузим компанию сразу с объектами и проектами
	err := h.db.
		Preload("Assets", func(db *gorm.DB) *gorm.DB { return db.Order("name asc") }).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		First(&company, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("%w: company %s", service.ErrNotFound, id)
		}
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, company)
}
