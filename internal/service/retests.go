package service

import (
	"context"
	"time"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RetestInput struct {
	RequestType   *models.RetestRequestType `json:"request_type"`
	Status        *models.RetestStatus      `json:"status"`
	RetestDate    *time.Time                `json:"retest_date"`
	NotesMD       *string                   `json:"notes_md"`
	PerformedByID *uuid.UUID                `json:"performed_by_id"`
}

func (in RetestInput) apply(r *models.Retest) error {
	if in.RequestType != nil {
		if !in.RequestType.Valid() {
			return invalid("unknown retest request type %q", *in.RequestType)
		}
		r.RequestType = *in.RequestType
	}
	if in.Status != nil {
		switch st := *in.Status; {
		case st == "":
			r.Status = nil
		case !st.Valid():
			return invalid("unknown retest status %q", st)
		default:
			r.Status = &st
		}
	}
	if in.RetestDate != nil {
		r.RetestDate = in.RetestDate
	}
	if in.NotesMD != nil {
		r.NotesMD = *in.NotesMD
	}
	if in.PerformedByID != nil {
		r.PerformedByID = in.PerformedByID
	}
	return nil
}

// CreateRetest records a retest. A RETEST that PASSED or FAILED rewrites the
// vulnerability status in the same transaction.
func (s *Service) CreateRetest(ctx context.Context, actor *signals.Actor, vulnID uuid.UUID, in RetestInput) (*models.Retest, error) {
	now := time.Now()
	r := &models.Retest{
		VulnerabilityID: vulnID,
		RequestType:     models.RetestRetest,
		RetestDate:      &now,
		PerformedByID:   actorID(actor),
	}
	if err := in.apply(r); err != nil {
		return nil, err
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		v, err := find[models.Vulnerability](tx, vulnID, "Project")
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return err
		}
		r.Vulnerability = v
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: r, Actor: actor, CompanyID: v.Project.CompanyID})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRetest re-applies the retest rule with the new result.
func (s *Service) UpdateRetest(ctx context.Context, actor *signals.Actor, id uuid.UUID, in RetestInput) (*models.Retest, error) {
	var r *models.Retest
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if r, err = find[models.Retest](tx, id, "Vulnerability.Project"); err != nil {
			return err
		}
		before := *r
		if err := in.apply(r); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(r).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{
			Op:        signals.OpUpdate,
			Entity:    r,
			Before:    &before,
			Actor:     actor,
			CompanyID: r.Vulnerability.Project.CompanyID,
		})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

const retestNotesPreview = 200

// RequestRetest is the client side: it files a REQUEST retest and moves the
// vulnerability back to RETEST_PENDING.
func (s *Service) RequestRetest(ctx context.Context, actor *signals.Actor, vulnID uuid.UUID, notes string) (*models.Retest, error) {
	now := time.Now()
	r := &models.Retest{
		VulnerabilityID: vulnID,
		RequestType:     models.RetestRequest,
		RetestDate:      &now,
		NotesMD:         notes,
		RequestedByID:   actorID(actor),
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		v, err := find[models.Vulnerability](tx, vulnID, "Project")
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(r).Error; err != nil {
			return err
		}
		r.Vulnerability = v
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: r, Actor: actor, CompanyID: v.Project.CompanyID}); err != nil {
			return err
		}

		preview := []rune(notes)
		if len(preview) > retestNotesPreview {
			preview = preview[:retestNotesPreview]
		}
		return s.changeStatus(tx, actor, v, models.VulnRetestPending, map[string]any{
			"retest_id": r.ID.String(),
			"notes":     string(preview),
		})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
