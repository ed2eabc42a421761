package handlers

import (
	"fmt"
	"net/http"

	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
)

//
// ВЛОЖЕНИЯ
//

// UploadAttachment принимает multipart-форму: project_id или
// vulnerability_id, description, file.
func (h *Handlers) UploadAttachment(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if fh.Size > service.MaxAttachmentBytes {
		badRequest(c, "attachment is too large")
		return
	}
	projectID, ok := formID(c, "project_id")
	if !ok {
		return
	}
	vulnID, ok := formID(c, "vulnerability_id")
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	att, err := h.attachments.Upload(c.Request.Context(), currentActor(c), service.AttachmentUpload{
		ProjectID:       projectID,
		VulnerabilityID: vulnID,
		FileName:        fh.Filename,
		Description:     c.PostForm("description"),
		Body:            f,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, att)
}

func (h *Handlers) ListAttachments(c *gin.Context) {
	projectID, ok := queryID(c, "project_id")
	if !ok {
		return
	}
	vulnID, ok := queryID(c, "vulnerability_id")
	if !ok {
		return
	}
	list, err := h.attachments.List(c.Request.Context(), service.AttachmentFilter{
		ProjectID:       projectID,
		VulnerabilityID: vulnID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, list)
}

func (h *Handlers) ShowAttachment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	att, err := h.attachments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, att)
}

func (h *Handlers) DownloadAttachment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	att, rc, err := h.attachments.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, att.Size, att.ContentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, att.FileName),
	})
}

func (h *Handlers) DeleteAttachment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
