package service

import (
	"context"

	"vulnsphere/internal/models"
	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VulnerabilityTemplateInput mirrors VulnerabilityInput without the project
// and workflow fields.
type VulnerabilityTemplateInput struct {
	Title      *string          `json:"title"`
	Severity   *models.Severity `json:"severity"`
	CVSSScore  *float64         `json:"cvss_score"`
	CVSSVector *string          `json:"cvss_vector"`
	DetailsMD  *string          `json:"details_md"`
	References *[]string        `json:"references"`
}

func (in VulnerabilityTemplateInput) apply(t *models.VulnerabilityTemplate) error {
	// validation is shared with vulnerabilities
	v := models.Vulnerability{
		Title:      t.Title,
		Severity:   t.Severity,
		CVSSScore:  t.CVSSScore,
		CVSSVector: t.CVSSVector,
		DetailsMD:  t.DetailsMD,
		References: t.References,
	}
	err := VulnerabilityInput{
		Title:      in.Title,
		Severity:   in.Severity,
		CVSSScore:  in.CVSSScore,
		CVSSVector: in.CVSSVector,
		DetailsMD:  in.DetailsMD,
		References: in.References,
	}.apply(&v)
	if err != nil {
		return err
	}
	t.Title, t.Severity, t.CVSSScore = v.Title, v.Severity, v.CVSSScore
	t.CVSSVector, t.DetailsMD, t.References = v.CVSSVector, v.DetailsMD, v.References
	return nil
}

func (s *Service) CreateVulnerabilityTemplate(ctx context.Context, actor *signals.Actor, in VulnerabilityTemplateInput) (*models.VulnerabilityTemplate, error) {
	t := &models.VulnerabilityTemplate{Severity: models.SeverityUnclassified, CreatedByID: actorID(actor)}
	if err := in.apply(t); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) UpdateVulnerabilityTemplate(ctx context.Context, id uuid.UUID, in VulnerabilityTemplateInput) (*models.VulnerabilityTemplate, error) {
	var t *models.VulnerabilityTemplate
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var err error
		if t, err = find[models.VulnerabilityTemplate](tx, id); err != nil {
			return err
		}
		if err := in.apply(t); err != nil {
			return err
		}
		return tx.Save(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) DeleteVulnerabilityTemplate(ctx context.Context, id uuid.UUID) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		t, err := find[models.VulnerabilityTemplate](tx, id)
		if err != nil {
			return err
		}
		return tx.Delete(t).Error
	})
}

// CreateVulnerabilityFromTemplate copies a library entry into the project as
// a new OPEN finding. The audit record carries the template id.
func (s *Service) CreateVulnerabilityFromTemplate(ctx context.Context, actor *signals.Actor, templateID, projectID uuid.UUID) (*models.Vulnerability, error) {
	var v *models.Vulnerability
	err := s.tx(ctx, func(tx *gorm.DB) error {
		t, err := find[models.VulnerabilityTemplate](tx, templateID)
		if err != nil {
			return err
		}
		p, err := find[models.Project](tx, projectID)
		if err != nil {
			return err
		}

		v = &models.Vulnerability{
			ProjectID:   p.ID,
			Title:       t.Title,
			Severity:    t.Severity,
			Status:      models.VulnOpen,
			CVSSVector:  t.CVSSVector,
			DetailsMD:   t.DetailsMD,
			References:  append(datatypes.JSONSlice[string](nil), t.References...),
			CreatedByID: actorID(actor),
		}
		if t.CVSSScore != nil {
			score := *t.CVSSScore
			v.CVSSScore = &score
		}
		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return err
		}
		v.Project = p
		return s.graph.Fire(tx, signals.Event{
			Op:     signals.OpCreate,
			Entity: v,
			Actor:  actor,
			Meta:   map[string]any{"template_id": t.ID.String()},
		})
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
