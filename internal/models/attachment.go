package models

import "github.com/google/uuid"

// Attachment — файл к проекту или уязвимости. Лежит в media root под
// attachments/, поэтому на него можно сослаться из Markdown.
type Attachment struct {
	Base
	ProjectID       *uuid.UUID     `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Project         *Project       `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	VulnerabilityID *uuid.UUID     `gorm:"type:uuid;index" json:"vulnerability_id,omitempty"`
	Vulnerability   *Vulnerability `gorm:"constraint:OnDelete:CASCADE;" json:"-"`

	FileKey     string `gorm:"size:512;not null" json:"file_key"`
	FileName    string `gorm:"size:255;not null" json:"file_name"`
	ContentType string `gorm:"size:255" json:"content_type"`
	Size        int64  `json:"size"`
	Description string `gorm:"type:text" json:"description"`

	UploadedByID *uuid.UUID `gorm:"type:uuid" json:"uploaded_by_id,omitempty"`
	UploadedBy   *User      `gorm:"constraint:OnDelete:SET NULL;" json:"-"`

	URL string `gorm:"-" json:"url"`
}
