package service

import (
	"context"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetInput struct {
	CompanyID   *uuid.UUID        `json:"company_id"`
	Name        *string           `json:"name"`
	Type        *models.AssetType `json:"type"`
	Identifier  *string           `json:"identifier"`
	Description *string           `json:"description"`
	IsActive    *bool             `json:"is_active"`
}

func (in AssetInput) apply(a *models.Asset) error {
	setString(&a.Name, in.Name)
	setString(&a.Identifier, in.Identifier)
	setString(&a.Description, in.Description)
	if in.Type != nil {
		if !in.Type.Valid() {
			return invalid("unknown asset type %q", *in.Type)
		}
		a.Type = *in.Type
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	return required("name", a.Name)
}

func (s *Service) CreateAsset(ctx context.Context, actor *signals.Actor, in AssetInput) (*models.Asset, error) {
	if in.CompanyID == nil {
		return nil, invalid("company_id is required")
	}
	a := &models.Asset{CompanyID: *in.CompanyID, Type: models.AssetOther, IsActive: true}
	if err := in.apply(a); err != nil {
		return nil, err
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		if _, err := find[models.Company](tx, a.CompanyID); err != nil {
			return err
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: a, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateAsset(ctx context.Context, actor *signals.Actor, id uuid.UUID, in AssetInput) (*models.Asset, error) {
	var a *models.Asset
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if a, err = find[models.Asset](tx, id); err != nil {
			return err
		}
		if in.CompanyID != nil && *in.CompanyID != a.CompanyID {
			return invalid("company_id cannot be changed")
		}
		before := *a
		if err := in.apply(a); err != nil {
			return err
		}
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpUpdate, Entity: a, Before: &before, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAsset(ctx context.Context, actor *signals.Actor, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		a, err := find[models.Asset](tx, id)
		if err != nil {
			return err
		}
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpDelete, Entity: a, Actor: actor}); err != nil {
			return err
		}
		return tx.Delete(a).Error
	})
}
