package service

import (
	"context"
	"time"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectInput struct {
	CompanyID        *uuid.UUID            `json:"company_id"`
	Title            *string               `json:"title"`
	EngagementType   *string               `json:"engagement_type"`
	StartDate        *time.Time            `json:"start_date"`
	EndDate          *time.Time            `json:"end_date"`
	Status           *models.ProjectStatus `json:"status"`
	Summary          *string               `json:"summary"`
	ScopeDescription *string               `json:"scope_description"`
}

func (in ProjectInput) apply(p *models.Project) error {
	setString(&p.Title, in.Title)
	setString(&p.EngagementType, in.EngagementType)
	setString(&p.Summary, in.Summary)
	setString(&p.ScopeDescription, in.ScopeDescription)
	if in.StartDate != nil {
		p.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return invalid("unknown project status %q", *in.Status)
		}
		p.Status = *in.Status
	}
	if err := required("title", p.Title); err != nil {
		return err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return invalid("end_date is before start_date")
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, actor *signals.Actor, in ProjectInput) (*models.Project, error) {
	if in.CompanyID == nil {
		return nil, invalid("company_id is required")
	}
	p := &models.Project{CompanyID: *in.CompanyID, Status: models.ProjectDraft, CreatedByID: actorID(actor)}
	if err := in.apply(p); err != nil {
		return nil, err
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		if _, err := find[models.Company](tx, p.CompanyID); err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: p, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProject cannot move a project to another company.
func (s *Service) UpdateProject(ctx context.Context, actor *signals.Actor, id uuid.UUID, in ProjectInput) (*models.Project, error) {
	var p *models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if p, err = find[models.Project](tx, id); err != nil {
			return err
		}
		if in.CompanyID != nil && *in.CompanyID != p.CompanyID {
			return invalid("company_id cannot be changed")
		}
		before := *p
		if err := in.apply(p); err != nil {
			return err
		}
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpUpdate, Entity: p, Before: &before, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, actor *signals.Actor, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		p, err := find[models.Project](tx, id)
		if err != nil {
			return err
		}
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpDelete, Entity: p, Actor: actor}); err != nil {
			return err
		}
		return tx.Delete(p).Error
	})
}
