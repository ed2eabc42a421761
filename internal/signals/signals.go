// Package signals derives side effects from entity mutations: project asset
// auto-attachment, retest driven status changes, and the activity log.
//
// Hooks are pure functions from an Event to an Outcome. The Graph applies
// the outcome inside the caller's transaction.
package signals

import (
	"fmt"
	"log/slog"

	"vulnsphere/internal/metrics"
	"vulnsphere/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Reason string

// ReasonStatusChange marks updates made by the dedicated status change
// operation; they are logged as STATUS_CHANGED instead of UPDATED.
const ReasonStatusChange Reason = "status_change"

// Actor is the user a mutation is attributed to. nil means the system.
type Actor struct {
	ID   uuid.UUID
	Name string
}

func ActorFromUser(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Name: u.DisplayName()}
}

type Event struct {
	Op     Op
	Entity any // pointer to the model, as it is after the mutation (before, for deletes)
	Before any // previous state on updates, optional
	Actor  *Actor
	Reason Reason
	Meta   map[string]any // merged into the log metadata

	// Scope for entities that do not carry it themselves.
	CompanyID uuid.UUID
	ProjectID uuid.UUID
}

// Write is a derived change that must commit together with the mutation.
type Write interface {
	apply(tx *gorm.DB, g *Graph) error
}

type Outcome struct {
	Logs   []models.ActivityLog // best effort
	Writes []Write              // required
}

type Hook func(Event) Outcome

type Graph struct {
	hooks   []Hook
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewGraph(logger *slog.Logger, m *metrics.Metrics, hooks ...Hook) *Graph {
	if logger == nil {
		logger = slog.Default()
	}
	return &Graph{hooks: hooks, logger: logger.With("component", "signals"), metrics: m}
}

// Default wires the standard hooks in their fixed order.
func Default(logger *slog.Logger, m *metrics.Metrics) *Graph {
	return NewGraph(logger, m,
		AutoAttachAsset,
		RetestStatus,
		AuditLog,
	)
}

// Fire runs every hook for ev. It must be called inside a transaction: a
// failed derived write aborts the mutation; a failed log insert does not.
func (g *Graph) Fire(tx *gorm.DB, ev Event) error {
	for _, h := range g.hooks {
		out := h(ev)
		for _, w := range out.Writes {
			if err := w.apply(tx, g); err != nil {
				return fmt.Errorf("derived write: %w", err)
			}
		}
		for _, l := range out.Logs {
			g.appendLog(tx, l)
		}
	}
	return nil
}

const logSavepoint = "activity_log"

func (g *Graph) appendLog(tx *gorm.DB, l models.ActivityLog) {
	if err := tx.SavePoint(logSavepoint).Error; err != nil {
		g.logFailure(l, err)
		return
	}
	if err := tx.Create(&l).Error; err != nil {
		if rbErr := tx.RollbackTo(logSavepoint).Error; rbErr != nil {
			g.logger.Error("failed to roll back activity log savepoint", "error", rbErr)
		}
		g.logFailure(l, err)
	}
}

func (g *Graph) logFailure(l models.ActivityLog, err error) {
	g.metrics.ActivityLogFailed(l.EntityType)
	g.logger.Warn("failed to write activity log",
		"entity_type", l.EntityType,
		"entity_id", l.EntityID,
		"action", l.Action,
		"error", err)
}
