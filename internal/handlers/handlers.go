// Package handlers is the JSON HTTP surface over the service layer.
package handlers

import (
	"vulnsphere/internal/reports"
	"vulnsphere/internal/service"

	"gorm.io/gorm"
)

type Handlers struct {
	db          *gorm.DB
	svc         *service.Service
	attachments *service.Attachments
	reports     *reports.Generator
	templates   *reports.Templates
}

func New(db *gorm.DB, svc *service.Service, attachments *service.Attachments, gen *reports.Generator, templates *reports.Templates) *Handlers {
	return &Handlers{db: db, svc: svc, attachments: attachments, reports: gen, templates: templates}
}
