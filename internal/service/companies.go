package service

import (
	"context"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyInput struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	ContactEmail *string `json:"contact_email"`
	Address      *string `json:"address"`
	Notes        *string `json:"notes"`
	IsActive     *bool   `json:"is_active"`
}

func (in CompanyInput) apply(c *models.Company) {
	setString(&c.Name, in.Name)
	setString(&c.Slug, in.Slug)
	setString(&c.ContactEmail, in.ContactEmail)
	setString(&c.Address, in.Address)
	setString(&c.Notes, in.Notes)
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func (s *Service) CreateCompany(ctx context.Context, actor *signals.Actor, in CompanyInput) (*models.Company, error) {
	c := &models.Company{IsActive: true}
	in.apply(c)
	if err := required("name", c.Name); err != nil {
		return nil, err
	}
	if c.Slug == "" {
		c.Slug = slugify(c.Name)
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: c, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCompany(ctx context.Context, actor *signals.Actor, id uuid.UUID, in CompanyInput) (*models.Company, error) {
	var c *models.Company
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if c, err = find[models.Company](tx, id); err != nil {
			return err
		}
		before := *c
		in.apply(c)
		if err := required("name", c.Name); err != nil {
			return err
		}
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpUpdate, Entity: c, Before: &before, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCompany(ctx context.Context, actor *signals.Actor, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		c, err := find[models.Company](tx, id)
		if err != nil {
			return err
		}
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpDelete, Entity: c, Actor: actor}); err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
}
