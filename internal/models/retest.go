package models

import (
	"time"

	"github.com/google/uuid"
)

type RetestRequestType string

const (
	RetestInitial RetestRequestType = "INITIAL"
	RetestRequest RetestRequestType = "REQUEST"
	RetestRetest  RetestRequestType = "RETEST"
)

var retestTypeLabels = map[RetestRequestType]string{
	RetestInitial: "Initial Finding",
	RetestRequest: "Retest Requested",
	RetestRetest:  "Retest Completed",
}

func (t RetestRequestType) Valid() bool {
	_, ok := retestTypeLabels[t]
	return ok
}

func (t RetestRequestType) Label() string {
	if l, ok := retestTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

type RetestStatus string

const (
	RetestPassed  RetestStatus = "PASSED"
	RetestFailed  RetestStatus = "FAILED"
	RetestPartial RetestStatus = "PARTIAL"
)

var retestStatusLabels = map[RetestStatus]string{
	RetestPassed:  "Passed (Fixed)",
	RetestFailed:  "Failed (Still Vulnerable)",
	RetestPartial: "Partial",
}

func (s RetestStatus) Valid() bool {
	_, ok := retestStatusLabels[s]
	return ok
}

func (s RetestStatus) Label() string {
	if l, ok := retestStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Retest struct {
	Base
	VulnerabilityID uuid.UUID      `gorm:"type:uuid;index;not null" json:"vulnerability_id"`
	Vulnerability   *Vulnerability `gorm:"constraint:OnDelete:CASCADE;" json:"vulnerability,omitempty"`

	RequestType RetestRequestType `gorm:"type:varchar(20);not null" json:"request_type"`
	Status      *RetestStatus     `gorm:"type:varchar(20)" json:"status"` // пусто, пока ретест не проведён
	RetestDate  *time.Time        `json:"retest_date"`
	NotesMD     string            `gorm:"type:text" json:"notes_md"`

	PerformedByID *uuid.UUID `gorm:"type:uuid" json:"performed_by_id,omitempty"`
	PerformedBy   *User      `gorm:"constraint:OnDelete:SET NULL;" json:"performed_by,omitempty"`
	RequestedByID *uuid.UUID `gorm:"type:uuid" json:"requested_by_id,omitempty"`
	RequestedBy   *User      `gorm:"constraint:OnDelete:SET NULL;" json:"requested_by,omitempty"`
}

// Terminal — проведённый ретест с итогом PASSED/FAILED, от которого зависит статус уязвимости.
func (r Retest) Terminal() bool {
	if r.RequestType != RetestRetest || r.Status == nil {
		return false
	}
	return *r.Status == RetestPassed || *r.Status == RetestFailed
}
