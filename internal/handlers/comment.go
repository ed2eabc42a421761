package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListComments(c *gin.Context) {
	vulnID, ok := queryID(c, "vulnerability_id")
	if !ok {
		return
	}
	projectID, ok := queryID(c, "project_id")
	if !ok {
		return
	}

	dbq := h.db.Preload("Author").Order("created_at asc")
	if vulnID != nil {
		dbq = dbq.Where("vulnerability_id = ?", *vulnID)
	}
	if projectID != nil {
		dbq = dbq.Where("project_id = ?", *projectID)
	}
	// внутренние комментарии клиенту не показываем
	if u := currentUser(c); u != nil && u.Role == models.RoleClient {
		dbq = dbq.Where("is_internal = ?", false)
	}

	var comments []models.Comment
	if err := dbq.Find(&comments).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, comments)
}

func (h *Handlers) CreateComment(c *gin.Context) {
	var in service.CommentInput
	if !bind(c, &in) {
		return
	}
	if u := currentUser(c); u != nil && u.Role == models.RoleClient {
		internal := false
		in.IsInternal = &internal
	}
	comment, err := h.svc.CreateComment(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, comment)
}

func (h *Handlers) UpdateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.CommentInput
	if !bind(c, &in) {
		return
	}
	comment, err := h.svc.UpdateComment(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, comment)
}

func (h *Handlers) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
