package models

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

type ReportFormat string

const (
	FormatHTML ReportFormat = "HTML"
	FormatDOCX ReportFormat = "DOCX"
)

// FormatForFile: ".html" — HTML, всё остальное — DOCX.
func FormatForFile(name string) ReportFormat {
	if strings.EqualFold(path.Ext(name), ".html") {
		return FormatHTML
	}
	return FormatDOCX
}

func (f ReportFormat) Ext() string {
	if f == FormatHTML {
		return "html"
	}
	return "docx"
}

func (f ReportFormat) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// ReportTemplate — загруженный шаблон. Структура файла не проверяется.
type ReportTemplate struct {
	Base
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	FileName    string `gorm:"size:255" json:"file_name"`
	FileKey     string `gorm:"size:512" json:"file_key"` // ключ в хранилище, пусто — файла нет
}

func (t ReportTemplate) Format() ReportFormat {
	return FormatForFile(t.FileName)
}

// GeneratedReport — ровно одна из областей: проект или компания.
type GeneratedReport struct {
	Base
	TemplateID uuid.UUID  `gorm:"type:uuid;index;not null" json:"template_id"`
	ProjectID  *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	CompanyID  *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`

	Format       ReportFormat `gorm:"type:varchar(10);not null" json:"format"`
	FileKey      string       `gorm:"size:512" json:"file_key"`
	IsFailed     bool         `gorm:"not null" json:"is_failed"`
	ErrorMessage string       `gorm:"type:text" json:"error_message"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
}

func (r GeneratedReport) FileName() string {
	return "report_" + r.ID.String() + "." + r.Format.Ext()
}
