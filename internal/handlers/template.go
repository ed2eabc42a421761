package handlers

import (
	"fmt"
	"net/http"

	"vulnsphere/internal/reports"

	"github.com/gin-gonic/gin"
)

// UploadTemplate принимает multipart-форму: name, description, file.
func (h *Handlers) UploadTemplate(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if fh.Size > reports.MaxTemplateBytes {
		badRequest(c, "template file is too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	tmpl, err := h.templates.Upload(c.Request.Context(), reports.TemplateUpload{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		FileName:    fh.Filename,
		Body:        f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, tmpl)
}

func (h *Handlers) ListTemplates(c *gin.Context) {
	list, err := h.templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, list)
}

func (h *Handlers) ShowTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tmpl, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, tmpl)
}

func (h *Handlers) DownloadTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tmpl, rc, err := h.templates.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, tmpl.Format().ContentType(), rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, tmpl.FileName),
	})
}

func (h *Handlers) DeleteTemplate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
