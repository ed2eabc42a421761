package handlers

import (
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Preload("Companies").Order("username asc").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, users)
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var in service.UserInput
	if !bind(c, &in) {
		return
	}
	u, err := h.svc.CreateUser(c.Request.Context(), currentActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, u)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.UserInput
	if !bind(c, &in) {
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, u)
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if u := currentUser(c); u != nil && u.ID == id {
		badRequest(c, "cannot delete yourself")
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), currentActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusNoContent, nil)
}
