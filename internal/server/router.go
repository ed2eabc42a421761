package server

import (
	"log/slog"
	"net/http"

	"vulnsphere/internal/handlers"
	"vulnsphere/internal/middleware"
	"vulnsphere/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Handlers *handlers.Handlers
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// MediaRoot отдаётся как есть по MediaURL, пусто — не отдаётся.
	MediaRoot string
	MediaURL  string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	if d.MediaRoot != "" && d.MediaURL != "" {
		r.Static(d.MediaURL, d.MediaRoot)
	}

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		if sqlDB, err := d.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	h := d.Handlers
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleTester)
	admin := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	api.Use(middleware.InjectUser(d.DB), middleware.RequireAuth())

	// КОМПАНИИ
	api.GET("/companies", h.ListCompanies)
	api.GET("/companies/:id", h.ShowCompany)
	api.POST("/companies", admin, h.CreateCompany)
	api.PUT("/companies/:id", admin, h.UpdateCompany)
	api.DELETE("/companies/:id", admin, h.DeleteCompany)

	// ОБЪЕКТЫ
	api.GET("/assets", h.ListAssets)
	api.GET("/assets/:id", h.ShowAsset)
	api.POST("/assets", staff, h.CreateAsset)
	api.PUT("/assets/:id", staff, h.UpdateAsset)
	api.DELETE("/assets/:id", staff, h.DeleteAsset)

	// ПРОЕКТЫ
	api.GET("/projects", h.ListProjects)
	api.GET("/projects/:id", h.ShowProject)
	api.POST("/projects", staff, h.CreateProject)
	api.PUT("/projects/:id", staff, h.UpdateProject)
	api.DELETE("/projects/:id", staff, h.DeleteProject)

	api.POST("/projects/:id/assets", staff, h.AttachProjectAsset)
	api.POST("/projects/:id/assets/attach-all", staff, h.AttachAllProjectAssets)
	api.DELETE("/projects/:id/assets", staff, h.DetachAllProjectAssets)
	api.DELETE("/projects/:id/assets/:asset_id", staff, h.DetachProjectAsset)

	// УЯЗВИМОСТИ
	api.GET("/vulnerabilities", h.ListVulnerabilities)
	api.GET("/vulnerabilities/:id", h.ShowVulnerability)
	api.POST("/vulnerabilities", staff, h.CreateVulnerability)
	api.PUT("/vulnerabilities/:id", staff, h.UpdateVulnerability)
	api.DELETE("/vulnerabilities/:id", staff, h.DeleteVulnerability)
	api.POST("/vulnerabilities/:id/status", staff, h.ChangeVulnerabilityStatus)
	api.POST("/vulnerabilities/:id/assets", staff, h.LinkVulnerabilityAsset)
	api.DELETE("/vulnerabilities/:id/assets/:asset_id", staff, h.UnlinkVulnerabilityAsset)

	// БИБЛИОТЕКА НАХОДОК
	api.GET("/vulnerability-templates", staff, h.ListVulnerabilityTemplates)
	api.GET("/vulnerability-templates/:id", staff, h.ShowVulnerabilityTemplate)
	api.POST("/vulnerability-templates", staff, h.CreateVulnerabilityTemplate)
	api.PUT("/vulnerability-templates/:id", staff, h.UpdateVulnerabilityTemplate)
	api.DELETE("/vulnerability-templates/:id", staff, h.DeleteVulnerabilityTemplate)
	api.POST("/vulnerability-templates/:id/create-vulnerability", staff, h.CreateVulnerabilityFromTemplate)

	// ВЛОЖЕНИЯ
	api.GET("/attachments", h.ListAttachments)
	api.GET("/attachments/:id", h.ShowAttachment)
	api.GET("/attachments/:id/download", h.DownloadAttachment)
	api.POST("/attachments", staff, h.UploadAttachment)
	api.DELETE("/attachments/:id", staff, h.DeleteAttachment)

	// РЕТЕСТЫ
	api.POST("/vulnerabilities/:id/retests", staff, h.CreateRetest)
	api.POST("/vulnerabilities/:id/request-retest", h.RequestRetest)
	api.PUT("/retests/:id", staff, h.UpdateRetest)

	// КОММЕНТАРИИ
	api.GET("/comments", h.ListComments)
	api.POST("/comments", h.CreateComment)
	api.PUT("/comments/:id", staff, h.UpdateComment)
	api.DELETE("/comments/:id", staff, h.DeleteComment)

	// ПОЛЬЗОВАТЕЛИ
	api.GET("/users", admin, h.ListUsers)
	api.POST("/users", admin, h.CreateUser)
	api.PUT("/users/:id", admin, h.UpdateUser)
	api.DELETE("/users/:id", admin, h.DeleteUser)

	// ШАБЛОНЫ И ОТЧЁТЫ
	api.GET("/templates", h.ListTemplates)
	api.GET("/templates/:id", h.ShowTemplate)
	api.GET("/templates/:id/download", staff, h.DownloadTemplate)
	api.POST("/templates", staff, h.UploadTemplate)
	api.DELETE("/templates/:id", admin, h.DeleteTemplate)

	api.POST("/reports/generate", staff, h.GenerateReport)
	api.GET("/reports", h.ListReports)
	api.GET("/reports/:id", h.ShowReport)
	api.GET("/reports/:id/download", h.DownloadReport)

	// ДАШБОРД
	api.GET("/dashboard", h.Dashboard)

	// АУДИТ
	api.GET("/activity", staff, h.ListActivityLogs)

	return r
}
