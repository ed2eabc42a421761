package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Service) projectAndAsset(tx *gorm.DB, projectID, assetID uuid.UUID) (*models.Project, *models.Asset, error) {
	p, err := find[models.Project](tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	a, err := find[models.Asset](tx, assetID)
	if err != nil {
		return nil, nil, err
	}
	if a.CompanyID != p.CompanyID {
		return nil, nil, invalid("asset belongs to another company")
	}
	return p, a, nil
}

// AttachAsset attaches an asset to a project by hand. An existing automatic
// attachment is confirmed as manual.
func (s *Service) AttachAsset(ctx context.Context, actor *signals.Actor, projectID, assetID uuid.UUID) (*models.ProjectAsset, error) {
	var link models.ProjectAsset
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if _, _, err := s.projectAndAsset(tx, projectID, assetID); err != nil {
			return err
		}

		err := tx.Where("project_id = ? AND asset_id = ?", projectID, assetID).First(&link).Error
		switch {
		case err == nil:
			if !link.AutoAttached {
				return nil
			}
			link.AutoAttached = false
			link.AttachedByID = actorID(actor)
			return tx.Save(&link).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			link = models.ProjectAsset{
				ProjectID:    projectID,
				AssetID:      assetID,
				AttachedAt:   time.Now(),
				AttachedByID: actorID(actor),
			}
			return tx.Create(&link).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("asset attached to project", "project_id", projectID, "asset_id", assetID)
	return &link, nil
}

func (s *Service) DetachAsset(ctx context.Context, projectID, assetID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("project_id = ? AND asset_id = ?", projectID, assetID).
		Delete(&models.ProjectAsset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: asset %s is not attached to project %s", ErrNotFound, assetID, projectID)
	}
	return nil
}

// AttachAllAssets attaches every company asset not yet on the project and
// returns how many were added.
func (s *Service) AttachAllAssets(ctx context.Context, actor *signals.Actor, projectID uuid.UUID) (int, error) {
	added := 0
	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := find[models.Project](tx, projectID)
		if err != nil {
			return err
		}

		var assets []models.Asset
		err = tx.Where("company_id = ?", p.CompanyID).
			Where("id NOT IN (?)", tx.Model(&models.ProjectAsset{}).Select("asset_id").Where("project_id = ?", projectID)).
			Order("name").
			Find(&assets).Error
		if err != nil {
			return err
		}

		now := time.Now()
		for _, a := range assets {
			link := models.ProjectAsset{ProjectID: projectID, AssetID: a.ID, AttachedAt: now, AttachedByID: actorID(actor)}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *Service) DetachAllAssets(ctx context.Context, projectID uuid.UUID) (int64, error) {
	if _, err := find[models.Project](s.db.WithContext(ctx), projectID); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&models.ProjectAsset{})
	return res.RowsAffected, res.Error
}
