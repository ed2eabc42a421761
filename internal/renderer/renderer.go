// Package renderer evaluates uploaded report templates against a report
// context and stores the result.
//
// HTML templates use html/template with contextual escaping. DOCX templates
// are Word documents whose text holds {{ ... }} actions; see renderDOCX.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vulnsphere/internal/metrics"
	"vulnsphere/internal/models"
	"vulnsphere/internal/reportctx"
	"vulnsphere/internal/storage"

	"gorm.io/gorm"
)

type MarkdownRenderer interface {
	Render(text string, embedImages bool) string
}

type Renderer struct {
	db      *gorm.DB
	store   storage.ObjectStorage
	md      MarkdownRenderer
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Renderer)

func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Renderer) { r.metrics = m }
}

func New(db *gorm.DB, store storage.ObjectStorage, md MarkdownRenderer, opts ...Option) *Renderer {
	r := &Renderer{
		db:     db,
		store:  store,
		md:     md,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	r.logger = r.logger.With("component", "renderer")
	return r
}

// Render evaluates tmpl against data and stores the output for report.
//
// On failure the report row is marked failed with the error message and
// saved before the same error is returned. No output object is left behind.
func (r *Renderer) Render(ctx context.Context, tmpl *models.ReportTemplate, report *models.GeneratedReport, data reportctx.Context) error {
	started := time.Now()
	err := r.render(ctx, tmpl, report, data)
	r.metrics.ReportRendered(string(report.Format), err != nil, time.Since(started))

	if err != nil {
		r.markFailed(report, err)
		return err
	}
	return nil
}

func (r *Renderer) render(ctx context.Context, tmpl *models.ReportTemplate, report *models.GeneratedReport, data reportctx.Context) error {
	if tmpl == nil || tmpl.FileKey == "" {
		return ErrTemplateFileMissing
	}
	if err := checkScope(report, data); err != nil {
		return err
	}

	src, err := storage.ReadAll(ctx, r.store, tmpl.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrTemplateFileMissing
		}
		return fmt.Errorf("read template: %w", err)
	}

	vars := reportctx.SanitizeContext(data)
	vars["today"] = reportctx.String(r.now().Format(reportctx.DateLayout))

	var out []byte
	switch report.Format {
	case models.FormatHTML:
		out, err = renderHTML(src, vars.Native(), htmlFuncMap(r.md))
	default:
		report.Format = models.FormatDOCX
		out, err = renderDOCX(src, vars.Native(), docxFuncMap(r.md))
	}
	if err != nil {
		return err
	}

	key := storage.ReportsPrefix + report.FileName()
	meta := storage.ObjectMetadata{ContentType: report.Format.ContentType(), ContentLength: int64(len(out))}
	if err := r.store.Put(ctx, key, bytes.NewReader(out), meta); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	report.FileKey = key
	report.IsFailed = false
	report.ErrorMessage = ""
	if err := r.db.Save(report).Error; err != nil {
		if derr := r.store.Delete(ctx, key); derr != nil {
			r.logger.Error("failed to remove orphaned report file", "key", key, "error", derr)
		}
		report.FileKey = ""
		return fmt.Errorf("save report: %w", err)
	}

	r.logger.Info("report generated", "report_id", report.ID, "format", report.Format, "key", key)
	return nil
}

func (r *Renderer) markFailed(report *models.GeneratedReport, cause error) {
	report.IsFailed = true
	report.ErrorMessage = cause.Error()
	report.FileKey = ""
	if err := r.db.Save(report).Error; err != nil {
		r.logger.Error("failed to persist report failure", "report_id", report.ID, "error", err, "cause", cause)
		return
	}
	r.logger.Warn("report generation failed", "report_id", report.ID, "error", cause)
}

// checkScope: a project report renders a project context, a company report
// a company context, and the ids must agree.
func checkScope(report *models.GeneratedReport, data reportctx.Context) error {
	switch {
	case report.ProjectID != nil && report.CompanyID == nil:
		if data["project"].Get("id").Str() != report.ProjectID.String() {
			return ErrScopeMismatch
		}
	case report.CompanyID != nil && report.ProjectID == nil:
		if data["company"].Get("id").Str() != report.CompanyID.String() {
			return ErrScopeMismatch
		}
	default:
		return ErrScopeMismatch
	}
	return nil
}
