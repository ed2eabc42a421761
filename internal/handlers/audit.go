package handlers

import (
	"net/http"
	"strconv"

	"vulnsphere/internal/database"

	"github.com/gin-gonic/gin"
)

// ListActivityLogs — журнал действий, новые сверху.
func (h *Handlers) ListActivityLogs(c *gin.Context) {
	companyID, ok := queryID(c, "company_id")
	if !ok {
		return
	}
	entityID, ok := queryID(c, "entity_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := database.ListActivityLogs(h.db, database.ActivityFilter{
		CompanyID:  companyID,
		EntityType: c.Query("entity_type"),
		EntityID:   entityID,
		Limit:      limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, logs)
}
