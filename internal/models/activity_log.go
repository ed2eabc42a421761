package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActionCreated       = "CREATED"
	ActionUpdated       = "UPDATED"
	ActionDeleted       = "DELETED"
	ActionStatusChanged = "STATUS_CHANGED"
)

// коды сущностей в журнале; фронтенд раскрашивает записи по ним
const (
	EntityCompany            = "COMPANY"
	EntityProject            = "PROJECT"
	EntityVulnerability      = "VULNERABILITY"
	EntityAsset              = "ASSET"
	EntityComment            = "COMMENT"
	EntityUser               = "USER"
	EntityVulnerabilityAsset = "VULNERABILITY_ASSET"
)

// ActivityLog — журнал аудита. Только вставка, без внешних ключей:
// записи об удалённых сущностях должны оставаться читаемыми.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"` // nil — system
	UserName  string     `gorm:"size:255" json:"user_name"`

	EntityType string            `gorm:"size:50;not null" json:"entity_type"` // EntityVulnerability, EntityProject, ...
	EntityID   uuid.UUID         `gorm:"type:uuid;index" json:"entity_id"`
	Action     string            `gorm:"size:50;not null" json:"action"`
	Metadata   datatypes.JSONMap `json:"metadata"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
