// Package reports turns a generation request into a stored report: it
// validates the request, builds the report context and hands it to the
// renderer.
package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"vulnsphere/internal/database"
	"vulnsphere/internal/models"
	"vulnsphere/internal/renderer"
	"vulnsphere/internal/reportctx"
	"vulnsphere/internal/service"
	"vulnsphere/internal/signals"
	"vulnsphere/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidScope = errors.New("exactly one of project_id or company_id is required")

type Request struct {
	TemplateID uuid.UUID  `json:"template_id"`
	ProjectID  *uuid.UUID `json:"project_id"`
	CompanyID  *uuid.UUID `json:"company_id"`
}

func (r Request) Validate() error {
	if r.TemplateID == uuid.Nil {
		return fmt.Errorf("%w: template_id is required", service.ErrValidation)
	}
	if (r.ProjectID == nil) == (r.CompanyID == nil) {
		return ErrInvalidScope
	}
	return nil
}

type Generator struct {
	db       *gorm.DB
	store    storage.ObjectStorage
	builder  *reportctx.Builder
	renderer *renderer.Renderer
	logger   *slog.Logger
}

func NewGenerator(db *gorm.DB, store storage.ObjectStorage, b *reportctx.Builder, r *renderer.Renderer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{db: db, store: store, builder: b, renderer: r, logger: logger.With("component", "reports")}
}

func notFound(what string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s: %w", service.ErrNotFound, what, id, err)
	}
	return err
}

// Generate renders one report. Invalid requests are rejected before any row
// is written. Once the report row exists, failures are recorded on it and
// the returned report is non-nil alongside the error.
func (g *Generator) Generate(ctx context.Context, actor *signals.Actor, req Request) (*models.GeneratedReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	db := g.db.WithContext(ctx)

	var tmpl models.ReportTemplate
	if err := db.First(&tmpl, "id = ?", req.TemplateID).Error; err != nil {
		return nil, notFound("template", req.TemplateID, err)
	}
	if tmpl.FileKey == "" {
		return nil, renderer.ErrTemplateFileMissing
	}
	ok, err := g.store.Exists(ctx, tmpl.FileKey)
	if err != nil {
		return nil, fmt.Errorf("check template file: %w", err)
	}
	if !ok {
		return nil, renderer.ErrTemplateFileMissing
	}

	format := tmpl.Format()
	load := g.projectContext
	scopeID := req.ProjectID
	if req.CompanyID != nil {
		load = g.companyContext
		scopeID = req.CompanyID
	}

	// the entity must exist before a report row is created for it
	data, err := load(db, *scopeID, format == models.FormatHTML)
	if err != nil {
		return nil, err
	}

	report := &models.GeneratedReport{
		TemplateID: tmpl.ID,
		ProjectID:  req.ProjectID,
		CompanyID:  req.CompanyID,
		Format:     format,
	}
	if actor != nil {
		id := actor.ID
		report.CreatedByID = &id
	}
	if err := db.Create(report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	if err := g.renderer.Render(ctx, &tmpl, report, data); err != nil {
		return report, err
	}
	return report, nil
}

func (g *Generator) projectContext(db *gorm.DB, id uuid.UUID, embed bool) (reportctx.Context, error) {
	p, err := database.LoadProjectForReport(db, id)
	if err != nil {
		return nil, notFound("project", id, err)
	}
	return g.builder.BuildProjectContext(p, embed), nil
}

func (g *Generator) companyContext(db *gorm.DB, id uuid.UUID, embed bool) (reportctx.Context, error) {
	c, err := database.LoadCompanyForReport(db, id)
	if err != nil {
		return nil, notFound("company", id, err)
	}
	return g.builder.BuildCompanyContext(c, embed), nil
}

type ListFilter struct {
	ProjectID *uuid.UUID
	CompanyID *uuid.UUID
}

func (g *Generator) List(ctx context.Context, f ListFilter) ([]models.GeneratedReport, error) {
	q := g.db.WithContext(ctx).Model(&models.GeneratedReport{})
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.CompanyID != nil {
		q = q.Where("company_id = ?", *f.CompanyID)
	}
	var out []models.GeneratedReport
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

func (g *Generator) Get(ctx context.Context, id uuid.UUID) (*models.GeneratedReport, error) {
	var r models.GeneratedReport
	if err := g.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound("report", id, err)
	}
	return &r, nil
}

// Open returns the stored output of a successful report.
func (g *Generator) Open(ctx context.Context, id uuid.UUID) (*models.GeneratedReport, io.ReadCloser, error) {
	r, err := g.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if r.IsFailed || r.FileKey == "" {
		return r, nil, fmt.Errorf("%w: report %s has no file", service.ErrNotFound, id)
	}
	rc, err := g.store.Get(ctx, r.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return r, nil, fmt.Errorf("%w: %w", service.ErrNotFound, err)
		}
		return r, nil, err
	}
	return r, rc, nil
}
