package service

import (
	"context"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentInput struct {
	CompanyID       *uuid.UUID `json:"company_id"`
	ProjectID       *uuid.UUID `json:"project_id"`
	VulnerabilityID *uuid.UUID `json:"vulnerability_id"`
	RetestID        *uuid.UUID `json:"retest_id"`
	BodyMD          *string    `json:"body_md"`
	IsInternal      *bool      `json:"is_internal"`
}

// resolveScope fills company and project from the most specific target.
func resolveScope(tx *gorm.DB, c *models.Comment) error {
	if c.VulnerabilityID != nil {
		v, err := find[models.Vulnerability](tx, *c.VulnerabilityID, "Project")
		if err != nil {
			return err
		}
		c.ProjectID = &v.ProjectID
		c.CompanyID = v.Project.CompanyID
		return nil
	}
	if c.ProjectID != nil {
		p, err := find[models.Project](tx, *c.ProjectID)
		if err != nil {
			return err
		}
		c.CompanyID = p.CompanyID
		return nil
	}
	if c.CompanyID == uuid.Nil {
		return invalid("company_id, project_id or vulnerability_id is required")
	}
	_, err := find[models.Company](tx, c.CompanyID)
	return err
}

func (s *Service) CreateComment(ctx context.Context, actor *signals.Actor, in CommentInput) (*models.Comment, error) {
	c := &models.Comment{
		ProjectID:       in.ProjectID,
		VulnerabilityID: in.VulnerabilityID,
		RetestID:        in.RetestID,
		AuthorID:        actorID(actor),
	}
	if in.CompanyID != nil {
		c.CompanyID = *in.CompanyID
	}
	if in.BodyMD != nil {
		c.BodyMD = *in.BodyMD
	}
	if in.IsInternal != nil {
		c.IsInternal = *in.IsInternal
	}
	if err := required("body_md", c.BodyMD); err != nil {
		return nil, err
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := resolveScope(tx, c); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: c, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateComment changes the body and visibility; the target is fixed.
func (s *Service) UpdateComment(ctx context.Context, actor *signals.Actor, id uuid.UUID, in CommentInput) (*models.Comment, error) {
	var c *models.Comment
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if c, err = find[models.Comment](tx, id); err != nil {
			return err
		}
		before := *c
		if in.BodyMD != nil {
			c.BodyMD = *in.BodyMD
		}
		if in.IsInternal != nil {
			c.IsInternal = *in.IsInternal
		}
		if err := required("body_md", c.BodyMD); err != nil {
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

func (s *Service) DeleteComment(ctx context.Context, actor *signals.Actor, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		c, err := find[models.Comment](tx, id)
		if err != nil {
			return err
		}
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpDelete, Entity: c, Actor: actor}); err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
}
