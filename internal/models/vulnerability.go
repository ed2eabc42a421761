package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Severity string

const (
	SeverityCritical     Severity = "CRITICAL"
	SeverityHigh         Severity = "HIGH"
	SeverityMedium       Severity = "MEDIUM"
	SeverityLow          Severity = "LOW"
	SeverityInfo         Severity = "INFO"
	SeverityUnclassified Severity = "UNCLASSIFIED"
)

var severityLabels = map[Severity]string{
	SeverityCritical:     "Critical",
	SeverityHigh:         "High",
	SeverityMedium:       "Medium",
	SeverityLow:          "Low",
	SeverityInfo:         "Informational",
	SeverityUnclassified: "Unclassified",
}

func (s Severity) Valid() bool {
	_, ok := severityLabels[s]
	return ok
}

func (s Severity) Label() string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return string(s)
}

type VulnStatus string

const (
	VulnOpen          VulnStatus = "OPEN"
	VulnInProgress    VulnStatus = "IN_PROGRESS"
	VulnResolved      VulnStatus = "RESOLVED"
	VulnAcceptedRisk  VulnStatus = "ACCEPTED_RISK"
	VulnFalsePositive VulnStatus = "FALSE_POSITIVE"
	VulnRetestPending VulnStatus = "RETEST_PENDING"
	VulnRetestFailed  VulnStatus = "RETEST_FAILED"
)

// VulnStatuses in workflow order.
var VulnStatuses = []VulnStatus{
	VulnOpen, VulnInProgress, VulnRetestPending, VulnRetestFailed,
	VulnResolved, VulnAcceptedRisk, VulnFalsePositive,
}

var vulnStatusLabels = map[VulnStatus]string{
	VulnOpen:          "Open",
	VulnInProgress:    "In Progress",
	VulnResolved:      "Resolved",
	VulnAcceptedRisk:  "Accepted Risk",
	VulnFalsePositive: "False Positive",
	VulnRetestPending: "Retest Pending",
	VulnRetestFailed:  "Retest Failed",
}

func (s VulnStatus) Valid() bool {
	_, ok := vulnStatusLabels[s]
	return ok
}

func (s VulnStatus) Label() string {
	if l, ok := vulnStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Vulnerability struct {
	Base
	ProjectID uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	Project   *Project  `gorm:"constraint:OnDelete:CASCADE;" json:"project,omitempty"`

	Title      string                      `gorm:"size:255;not null" json:"title"`
	Severity   Severity                    `gorm:"type:varchar(20);not null" json:"severity"`
	Status     VulnStatus                  `gorm:"type:varchar(20);not null" json:"status"`
	CVSSScore  *float64                    `gorm:"type:decimal(3,1)" json:"cvss_score"`
	CVSSVector string                      `gorm:"size:255" json:"cvss_vector"`
	DetailsMD  string                      `gorm:"type:text" json:"details_md"`
	References datatypes.JSONSlice[string] `json:"references"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`

	Assets  []VulnerabilityAsset `gorm:"constraint:OnDelete:CASCADE;" json:"assets,omitempty"`
	Retests []Retest             `gorm:"constraint:OnDelete:CASCADE;" json:"retests,omitempty"`
}

// VulnerabilityAsset — уязвимость на конкретном объекте (+ заметки по нему).
type VulnerabilityAsset struct {
	Base
	VulnerabilityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vuln_asset" json:"vulnerability_id"`
	AssetID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vuln_asset" json:"asset_id"`
	Asset           *Asset    `gorm:"constraint:OnDelete:CASCADE;" json:"asset,omitempty"`
	NotesMD         string    `gorm:"type:text" json:"notes_md"`
}
