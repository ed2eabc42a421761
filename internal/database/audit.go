package database

import (
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityFilter struct {
	CompanyID  *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
}

// выборка журнала аудита, новые сверху
func ListActivityLogs(db *gorm.DB, f ActivityFilter) ([]models.ActivityLog, error) {
	q := db.Model(&models.ActivityLog{})
	if f.CompanyID != nil {
		q = q.Where("company_id = ?", *f.CompanyID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	var logs []models.ActivityLog
	err := q.Order("created_at desc").Order("id").Limit(limit).Find(&logs).Error
	return logs, err
}
