package renderer

import (
	"errors"

	"vulnsphere/internal/models"
)

var (
	ErrTemplateFileMissing = errors.New("template file not found")
	ErrScopeMismatch       = errors.New("report scope does not match the context")
)

// SyntaxError reports a template that does not parse.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string { return "template syntax error: " + e.Err.Error() }
func (e *SyntaxError) Unwrap() error { return e.Err }

// RenderError is any failure while evaluating or packaging a template.
type RenderError struct {
	Format models.ReportFormat
	Err    error
}

func (e *RenderError) Error() string {
	return "error generating " + string(e.Format) + " report: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }
