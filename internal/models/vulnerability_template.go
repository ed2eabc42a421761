package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VulnerabilityTemplate — библиотека типовых находок, из которой тестер
// заводит уязвимость в проекте.
type VulnerabilityTemplate struct {
	Base
	Title      string                      `gorm:"size:255;not null" json:"title"`
	Severity   Severity                    `gorm:"type:varchar(20);not null;index" json:"severity"`
	CVSSScore  *float64                    `gorm:"type:decimal(3,1)" json:"cvss_score"`
	CVSSVector string                      `gorm:"size:255" json:"cvss_vector"`
	DetailsMD  string                      `gorm:"type:text" json:"details_md"`
	References datatypes.JSONSlice[string] `json:"references"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`
}
