package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"vulnsphere/internal/models"
	"vulnsphere/internal/renderer"
	"vulnsphere/internal/reports"
	"vulnsphere/internal/service"
	"vulnsphere/internal/signals"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// render — единая точка ответа, как и раньше, только JSON.
func render(c *gin.Context, status int, data any) {
	if data == nil {
		c.Status(status)
		return
	}
	c.JSON(status, data)
}

// statusFor сопоставляет ошибку сервиса HTTP-статусу.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, reports.ErrInvalidScope),
		errors.Is(err, renderer.ErrTemplateFileMissing),
		errors.Is(err, renderer.ErrScopeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusConflict {
		msg = "record already exists"
	}
	if status == http.StatusInternalServerError && !isRenderFailure(err) {
		slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func isRenderFailure(err error) bool {
	var syn *renderer.SyntaxError
	var rerr *renderer.RenderError
	return errors.As(err, &syn) || errors.As(err, &rerr)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// currentUser — пользователь, которого положил middleware.InjectUser.
func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get("CurrentUser"); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func currentActor(c *gin.Context) *signals.Actor {
	return signals.ActorFromUser(currentUser(c))
}

func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryID разбирает необязательный uuid из query; пустое значение — nil.
func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// formID — то же для поля multipart-формы.
func formID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.PostForm(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// showByID отдаёт одну запись по :id; отсутствие — 404.
func showByID[T any](c *gin.Context, db *gorm.DB, preload ...string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var v T
	q := db
	for _, p := range preload {
		q = q.Preload(p)
	}
	if err := q.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = fmt.Errorf("%w: %s", service.ErrNotFound, id)
		}
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, v)
}
