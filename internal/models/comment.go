package models

import "github.com/google/uuid"

type Comment struct {
	Base
	CompanyID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"company_id"`
	ProjectID       *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	VulnerabilityID *uuid.UUID `gorm:"type:uuid;index" json:"vulnerability_id,omitempty"`
	RetestID        *uuid.UUID `gorm:"type:uuid" json:"retest_id,omitempty"`

	AuthorID   *uuid.UUID `gorm:"type:uuid" json:"author_id,omitempty"`
	Author     *User      `gorm:"constraint:OnDelete:SET NULL;" json:"author,omitempty"`
	BodyMD     string     `gorm:"type:text;not null" json:"body_md"`
	IsInternal bool       `json:"is_internal"`
}
