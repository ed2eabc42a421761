package database

import (
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoadProjectForReport подгружает проект со всем, что нужно для контекста отчёта.
func LoadProjectForReport(db *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	err := db.
		Preload("Company").
		Preload("Assets.Asset").
		Preload("Vulnerabilities.Assets.Asset").
		Preload("Vulnerabilities.Retests.PerformedBy").
		Preload("Vulnerabilities.Retests.RequestedBy").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadCompanyForReport — компания с проектами и уязвимостями (для счётчиков).
func LoadCompanyForReport(db *gorm.DB, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := db.
		Preload("Projects.Vulnerabilities").
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
