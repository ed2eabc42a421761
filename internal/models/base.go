package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base — общий первичный ключ (UUID) и временные метки.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UUID генерим сами, чтобы postgres и sqlite вели себя одинаково
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
