package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectDraft    ProjectStatus = "DRAFT"
	ProjectInReview ProjectStatus = "IN_REVIEW"
	ProjectFinal    ProjectStatus = "FINAL"
	ProjectArchived ProjectStatus = "ARCHIVED"
)

var projectStatusLabels = map[ProjectStatus]string{
	ProjectDraft:    "Draft",
	ProjectInReview: "In Review",
	ProjectFinal:    "Final",
	ProjectArchived: "Archived",
}

func (s ProjectStatus) Valid() bool {
	_, ok := projectStatusLabels[s]
	return ok
}

func (s ProjectStatus) Label() string {
	if l, ok := projectStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Project struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;index;not null" json:"company_id"`
	Company   *Company  `gorm:"constraint:OnDelete:CASCADE;" json:"company,omitempty"`

	Title            string        `gorm:"size:255;not null" json:"title"`
	EngagementType   string        `gorm:"size:100" json:"engagement_type"` // Web App Pentest, External Network...
	StartDate        *time.Time    `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"`
	Status           ProjectStatus `gorm:"type:varchar(20);not null" json:"status"`
	Summary          string        `gorm:"type:text" json:"summary"`           // markdown
	ScopeDescription string        `gorm:"type:text" json:"scope_description"` // markdown

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`

	Assets          []ProjectAsset  `gorm:"constraint:OnDelete:CASCADE;" json:"assets,omitempty"`
	Vulnerabilities []Vulnerability `gorm:"constraint:OnDelete:CASCADE;" json:"vulnerabilities,omitempty"`
}

// ProjectAsset — привязка объекта к проекту. Пара (project, asset) уникальна
// на уровне БД, на этом держится get-or-create при авто-привязке.
type ProjectAsset struct {
	Base
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_asset" json:"project_id"`
	AssetID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_asset" json:"asset_id"`
	Asset     *Asset    `gorm:"constraint:OnDelete:CASCADE;" json:"asset,omitempty"`

	AutoAttached bool       `gorm:"not null" json:"auto_attached"`
	AttachedAt   time.Time  `json:"attached_at"`
	AttachedByID *uuid.UUID `gorm:"type:uuid" json:"attached_by_id,omitempty"`
}
