package service

import (
	"context"
	"errors"
	"fmt"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VulnerabilityInput struct {
	ProjectID  *uuid.UUID         `json:"project_id"`
	Title      *string            `json:"title"`
	Severity   *models.Severity   `json:"severity"`
	Status     *models.VulnStatus `json:"status"`
	CVSSScore  *float64           `json:"cvss_score"`
	CVSSVector *string            `json:"cvss_vector"`
	DetailsMD  *string            `json:"details_md"`
	References *[]string          `json:"references"`
}

func (in VulnerabilityInput) apply(v *models.Vulnerability) error {
	setString(&v.Title, in.Title)
	setString(&v.CVSSVector, in.CVSSVector)
	if in.DetailsMD != nil {
		v.DetailsMD = *in.DetailsMD
	}
	if in.Severity != nil {
		if !in.Severity.Valid() {
			return invalid("unknown severity %q", *in.Severity)
		}
		v.Severity = *in.Severity
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return invalid("unknown vulnerability status %q", *in.Status)
		}
		v.Status = *in.Status
	}
	if in.CVSSScore != nil {
		if *in.CVSSScore < 0 || *in.CVSSScore > 10 {
			return invalid("cvss_score must be between 0 and 10")
		}
		score := *in.CVSSScore
		v.CVSSScore = &score
	}
	if in.References != nil {
		v.References = datatypes.JSONSlice[string](*in.References)
	}
	return required("title", v.Title)
}

func (s *Service) CreateVulnerability(ctx context.Context, actor *signals.Actor, in VulnerabilityInput) (*models.Vulnerability, error) {
	if in.ProjectID == nil {
		return nil, invalid("project_id is required")
	}
	v := &models.Vulnerability{
		ProjectID:   *in.ProjectID,
		Severity:    models.SeverityUnclassified,
		Status:      models.VulnOpen,
		CreatedByID: actorID(actor),
	}
	if err := in.apply(v); err != nil {
		return nil, err
	}

	err := s.tx(ctx, func(tx *gorm.DB) error {
		p, err := find[models.Project](tx, v.ProjectID)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return err
		}
		v.Project = p
		return s.graph.Fire(tx, signals.Event{Op: signals.OpCreate, Entity: v, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateVulnerability is a generic update: it is logged as UPDATED even when
// the status changes. Use ChangeVulnerabilityStatus for a STATUS_CHANGED record.
func (s *Service) UpdateVulnerability(ctx context.Context, actor *signals.Actor, id uuid.UUID, in VulnerabilityInput) (*models.Vulnerability, error) {
	var v *models.Vulnerability
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if v, err = find[models.Vulnerability](tx, id, "Project"); err != nil {
			return err
		}
		if in.ProjectID != nil && *in.ProjectID != v.ProjectID {
			return invalid("project_id cannot be changed")
		}
		before := *v
		if err := in.apply(v); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(v).Error; err != nil {
			return err
		}
		return s.graph.Fire(tx, signals.Event{Op: signals.OpUpdate, Entity: v, Before: &before, Actor: actor})
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) DeleteVulnerability(ctx context.Context, actor *signals.Actor, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		v, err := find[models.Vulnerability](tx, id, "Project")
		if err != nil {
			return err
		}
		if err := s.graph.Fire(tx, signals.Event{Op: signals.OpDelete, Entity: v, Actor: actor}); err != nil {
			return err
		}
		return tx.Delete(v).Error
	})
}

func (s *Service) ChangeVulnerabilityStatus(ctx context.Context, actor *signals.Actor, id uuid.UUID, status models.VulnStatus) (*models.Vulnerability, error) {
	if !status.Valid() {
		return nil, invalid("unknown vulnerability status %q", status)
	}
	var v *models.Vulnerability
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if v, err = find[models.Vulnerability](tx, id, "Project"); err != nil {
			return err
		}
		return s.changeStatus(tx, actor, v, status, nil)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) changeStatus(tx *gorm.DB, actor *signals.Actor, v *models.Vulnerability, status models.VulnStatus, meta map[string]any) error {
	before := *v
	if err := tx.Model(v).Update("status", status).Error; err != nil {
		return err
	}
	v.Status = status
	return s.graph.Fire(tx, signals.Event{
		Op:     signals.OpUpdate,
		Entity: v,
		Before: &before,
		Actor:  actor,
		Reason: signals.ReasonStatusChange,
		Meta:   meta,
	})
}

// LinkAsset marks an asset as affected by a vulnerability. The asset is
// attached to the project as a side effect.
func (s *Service) LinkAsset(ctx context.Context, actor *signals.Actor, vulnID, assetID uuid.UUID, notes string) (*models.VulnerabilityAsset, error) {
	va := &models.VulnerabilityAsset{VulnerabilityID: vulnID, AssetID: assetID, NotesMD: notes}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		v, err := find[models.Vulnerability](tx, vulnID, "Project")
		if err != nil {
			return err
		}
		a, err := find[models.Asset](tx, assetID)
		if err != nil {
			return err
		}
		if a.CompanyID != v.Project.CompanyID {
			return invalid("asset belongs to another company")
		}

		var existing models.VulnerabilityAsset
		err = tx.Where("vulnerability_id = ? AND asset_id = ?", vulnID, assetID).First(&existing).Error
		if err == nil {
			return errAlreadyLinked
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := createLink(tx, va); err != nil {
			return err
		}
		va.Asset = a
		return s.graph.Fire(tx, signals.Event{
			Op:        signals.OpCreate,
			Entity:    va,
			Actor:     actor,
			ProjectID: v.ProjectID,
			CompanyID: v.Project.CompanyID,
		})
	})
	if err != nil {
		return nil, err
	}
	return va, nil
}

var errAlreadyLinked = invalid("asset is already linked to this vulnerability")

// createLink inserts va. A concurrent insert of the same pair loses on
// idx_vuln_asset and is reported like the pre-checked duplicate.
func createLink(tx *gorm.DB, va *models.VulnerabilityAsset) error {
	err := tx.Omit(clause.Associations).Create(va).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errAlreadyLinked
	}
	return err
}

// UnlinkAsset removes the vulnerability link only; the project attachment stays.
func (s *Service) UnlinkAsset(ctx context.Context, actor *signals.Actor, vulnID, assetID uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		v, err := find[models.Vulnerability](tx, vulnID, "Project")
		if err != nil {
			return err
		}
		var va models.VulnerabilityAsset
		if err := tx.Where("vulnerability_id = ? AND asset_id = ?", vulnID, assetID).First(&va).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: asset link: %w", ErrNotFound, err)
			}
			return err
		}
		err = s.graph.Fire(tx, signals.Event{
			Op:        signals.OpDelete,
			Entity:    &va,
			Actor:     actor,
			ProjectID: v.ProjectID,
			CompanyID: v.Project.CompanyID,
		})
		if err != nil {
			return err
		}
		return tx.Delete(&va).Error
	})
}
