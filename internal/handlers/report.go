package handlers

import (
	"fmt"
	"net/http"

	"vulnsphere/internal/reports"

	"github.com/gin-gonic/gin"
)

// GenerateReport: 201 с отчётом; при ошибке рендера — 500 с сохранённой
// записью о неудаче.
func (h *Handlers) GenerateReport(c *gin.Context) {
	var req reports.Request
	if !bind(c, &req) {
		return
	}

	report, err := h.reports.Generate(c.Request.Context(), currentActor(c), req)
	if err != nil {
		if report != nil && report.IsFailed {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":  report.ErrorMessage,
				"report": report,
			})
			return
		}
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, report)
}

func (h *Handlers) ListReports(c *gin.Context) {
	projectID, ok := queryID(c, "project_id")
	if !ok {
		return
	}
	companyID, ok := queryID(c, "company_id")
	if !ok {
		return
	}
	list, err := h.reports.List(c.Request.Context(), reports.ListFilter{ProjectID: projectID, CompanyID: companyID})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, list)
}

func (h *Handlers) ShowReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, report)
}

func (h *Handlers) DownloadReport(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, rc, err := h.reports.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, report.Format.ContentType(), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, report.FileName()),
	})
}
