package handlers

import (
	"net/http"
	"time"

	"vulnsphere/internal/database"
	"vulnsphere/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Dashboard — сводка по компаниям, доступным пользователю. Админ видит все.
func (h *Handlers) Dashboard(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var companyIDs []uuid.UUID
	if user.Role != models.RoleAdmin {
		err := h.db.Table("user_companies").
			Where("user_id = ?", user.ID).
			Pluck("company_id", &companyIDs).Error
		if err != nil {
			respondError(c, err)
			return
		}
		if companyIDs == nil {
			companyIDs = []uuid.UUID{}
		}
	}

	overview, err := database.DashboardOverviewFor(h.db.WithContext(c.Request.Context()), companyIDs, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, overview)
}
