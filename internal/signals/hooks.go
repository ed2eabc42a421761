package signals

import (
	"fmt"
	"time"

	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttachAsset get-or-creates the (project, asset) link as auto-attached.
// An existing link, manual or not, is left untouched.
type AttachAsset struct {
	ProjectID uuid.UUID
	AssetID   uuid.UUID
	ActorID   *uuid.UUID
}

func (w AttachAsset) apply(tx *gorm.DB, g *Graph) error {
	link := models.ProjectAsset{
		ProjectID:    w.ProjectID,
		AssetID:      w.AssetID,
		AutoAttached: true,
		AttachedAt:   time.Now(),
		AttachedByID: w.ActorID,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "asset_id"}},
		DoNothing: true,
	}).Create(&link)
	if res.Error != nil {
		return fmt.Errorf("auto-attach asset %s to project %s: %w", w.AssetID, w.ProjectID, res.Error)
	}

	if res.RowsAffected > 0 {
		g.metrics.AutoAttach("created")
		g.logger.Info("asset auto-attached to project", "project_id", w.ProjectID, "asset_id", w.AssetID)
	} else {
		g.metrics.AutoAttach("exists")
	}
	return nil
}

// RewriteStatus sets a vulnerability status and records the change. Both
// are required: if the log cannot be written the status is not changed.
type RewriteStatus struct {
	VulnerabilityID uuid.UUID
	Status          models.VulnStatus
	Log             models.ActivityLog
}

func (w RewriteStatus) apply(tx *gorm.DB, g *Graph) error {
	res := tx.Model(&models.Vulnerability{}).
		Where("id = ?", w.VulnerabilityID).
		Update("status", w.Status)
	if res.Error != nil {
		return fmt.Errorf("update vulnerability status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("vulnerability %s: %w", w.VulnerabilityID, gorm.ErrRecordNotFound)
	}

	l := w.Log
	if err := tx.Create(&l).Error; err != nil {
		return fmt.Errorf("record status change: %w", err)
	}
	return nil
}

// AutoAttachAsset: linking an asset to a vulnerability attaches the asset
// to the vulnerability's project.
func AutoAttachAsset(ev Event) Outcome {
	if ev.Op != OpCreate {
		return Outcome{}
	}
	va, ok := ev.Entity.(*models.VulnerabilityAsset)
	if !ok || ev.ProjectID == uuid.Nil {
		return Outcome{}
	}

	w := AttachAsset{ProjectID: ev.ProjectID, AssetID: va.AssetID}
	if ev.Actor != nil {
		id := ev.Actor.ID
		w.ActorID = &id
	}
	return Outcome{Writes: []Write{w}}
}

// retestOutcomes maps a completed retest result to the vulnerability status.
var retestOutcomes = map[models.RetestStatus]models.VulnStatus{
	models.RetestPassed: models.VulnResolved,
	models.RetestFailed: models.VulnRetestFailed,
}

// RetestStatus: a RETEST with a PASSED or FAILED result rewrites the parent
// vulnerability status. PARTIAL or pending results change nothing, and so
// does an update that keeps an already terminal result.
func RetestStatus(ev Event) Outcome {
	if ev.Op == OpDelete {
		return Outcome{}
	}
	r, ok := ev.Entity.(*models.Retest)
	if !ok || !r.Terminal() {
		return Outcome{}
	}
	if before, ok := ev.Before.(*models.Retest); ok && before != nil && before.Terminal() && *before.Status == *r.Status {
		return Outcome{}
	}
	newStatus := retestOutcomes[*r.Status]

	l := newLog(ev, models.EntityVulnerability, r.VulnerabilityID, models.ActionStatusChanged, map[string]any{
		"new_status":    string(newStatus),
		"retest_id":     r.ID.String(),
		"retest_status": string(*r.Status),
	})
	if v := r.Vulnerability; v != nil {
		l.Metadata["title"] = v.Title
		l.Metadata["old_status"] = string(v.Status)
		if v.Project != nil {
			l.CompanyID = uuidPtr(v.Project.CompanyID)
		}
	}

	return Outcome{Writes: []Write{RewriteStatus{
		VulnerabilityID: r.VulnerabilityID,
		Status:          newStatus,
		Log:             l,
	}}}
}
