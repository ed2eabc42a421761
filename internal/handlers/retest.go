package handlers

import (
	"net/http"

	"vulnsphere/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) CreateRetest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.RetestInput
	if !bind(c, &in) {
		return
	}
	r, err := h.svc.CreateRetest(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, r)
}

func (h *Handlers) UpdateRetest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.RetestInput
	if !bind(c, &in) {
		return
	}
	r, err := h.svc.UpdateRetest(c.Request.Context(), currentActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, r)
}

type retestRequest struct {
	Notes string `json:"notes"`
}

// RequestRetest — клиент просит перепроверить уязвимость.
func (h *Handlers) RequestRetest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req retestRequest
	if !bind(c, &req) {
		return
	}
	r, err := h.svc.RequestRetest(c.Request.Context(), currentActor(c), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, r)
}
