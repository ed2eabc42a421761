package signals

import (
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func uuidPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func newLog(ev Event, entityType string, entityID uuid.UUID, action string, meta map[string]any) models.ActivityLog {
	md := datatypes.JSONMap{}
	for k, v := range meta {
		md[k] = v
	}
	for k, v := range ev.Meta {
		md[k] = v
	}

	l := models.ActivityLog{
		CompanyID:  uuidPtr(ev.CompanyID),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Metadata:   md,
	}
	if ev.Actor != nil {
		l.UserID = uuidPtr(ev.Actor.ID)
		l.UserName = ev.Actor.Name
	}
	return l
}

func verb(op Op) string {
	switch op {
	case OpCreate:
		return models.ActionCreated
	case OpDelete:
		return models.ActionDeleted
	}
	return models.ActionUpdated
}

func single(l models.ActivityLog) Outcome {
	return Outcome{Logs: []models.ActivityLog{l}}
}

// AuditLog writes one activity record per event; user events fan out to
// one record per company the user belongs to.
func AuditLog(ev Event) Outcome {
	switch e := ev.Entity.(type) {
	case *models.Company:
		ev.CompanyID = e.ID
		return single(newLog(ev, models.EntityCompany, e.ID, verb(ev.Op), map[string]any{"name": e.Name}))

	case *models.Project:
		ev.CompanyID = e.CompanyID
		meta := map[string]any{"title": e.Title}
		if ev.Op != OpDelete {
			meta["status"] = string(e.Status)
		}
		return single(newLog(ev, models.EntityProject, e.ID, verb(ev.Op), meta))

	case *models.Vulnerability:
		return vulnerabilityLog(ev, e)

	case *models.Asset:
		ev.CompanyID = e.CompanyID
		meta := map[string]any{"name": e.Name}
		if ev.Op != OpDelete {
			meta["type"] = string(e.Type)
		}
		return single(newLog(ev, models.EntityAsset, e.ID, verb(ev.Op), meta))

	case *models.Comment:
		ev.CompanyID = e.CompanyID
		meta := map[string]any{"author_id": idString(e.AuthorID)}
		if ev.Op != OpDelete {
			meta["project_id"] = idString(e.ProjectID)
			meta["vulnerability_id"] = idString(e.VulnerabilityID)
		}
		return single(newLog(ev, models.EntityComment, e.ID, verb(ev.Op), meta))

	case *models.User:
		var out Outcome
		for _, c := range e.Companies {
			ev.CompanyID = c.ID
			out.Logs = append(out.Logs, newLog(ev, models.EntityUser, e.ID, verb(ev.Op), map[string]any{
				"username": e.Username,
				"role":     string(e.Role),
			}))
		}
		return out

	case *models.VulnerabilityAsset:
		if ev.Op == OpUpdate {
			return Outcome{}
		}
		return single(newLog(ev, models.EntityVulnerabilityAsset, e.ID, verb(ev.Op), map[string]any{
			"vulnerability_id": e.VulnerabilityID.String(),
			"asset_id":         e.AssetID.String(),
		}))
	}
	return Outcome{}
}

func vulnerabilityLog(ev Event, v *models.Vulnerability) Outcome {
	if v.Project != nil {
		ev.CompanyID = v.Project.CompanyID
	}

	if ev.Op == OpUpdate && ev.Reason == ReasonStatusChange {
		meta := map[string]any{
			"title":      v.Title,
			"new_status": string(v.Status),
		}
		if before, ok := ev.Before.(*models.Vulnerability); ok && before != nil {
			meta["old_status"] = string(before.Status)
		}
		return single(newLog(ev, models.EntityVulnerability, v.ID, models.ActionStatusChanged, meta))
	}

	meta := map[string]any{
		"title":      v.Title,
		"project_id": v.ProjectID.String(),
	}
	if ev.Op != OpDelete {
		meta["severity"] = string(v.Severity)
		meta["status"] = string(v.Status)
	}
	return single(newLog(ev, models.EntityVulnerability, v.ID, verb(ev.Op), meta))
}

func idString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
