package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"vulnsphere/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserHeader несёт id пользователя, проверенного шлюзом перед сервисом.
const UserHeader = "X-User-ID"

// InjectUser кладёт *models.User в контекст под ключом "CurrentUser".
// Без заголовка запрос идёт дальше анонимно.
func InjectUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserHeader)
		if raw == "" {
			c.Next()
			return
		}

		uid, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid " + UserHeader})
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", uid).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				slog.Error("failed to load current user", "user_id", uid, "error", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user is inactive"})
			return
		}

		c.Set("CurrentUser", &user)
		c.Next()
	}
}
