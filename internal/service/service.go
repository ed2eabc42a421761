// Package service holds every mutation of the domain entities. Each
// operation runs in one transaction and fires the signal graph inside it,
// so derived state and the audit trail commit together with the change.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"vulnsphere/internal/signals"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type Service struct {
	db     *gorm.DB
	graph  *signals.Graph
	logger *slog.Logger
}

func New(db *gorm.DB, graph *signals.Graph, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, graph: graph, logger: logger.With("component", "service")}
}

func (s *Service) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// find loads one row by id; a missing row wraps ErrNotFound.
func find[T any](tx *gorm.DB, id uuid.UUID, preload ...string) (*T, error) {
	var v T
	q := tx
	for _, p := range preload {
		q = q.Preload(p)
	}
	if err := q.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %T %s: %w", ErrNotFound, v, id, err)
		}
		return nil, err
	}
	return &v, nil
}

func actorID(a *signals.Actor) *uuid.UUID {
	if a == nil {
		return nil
	}
	id := a.ID
	return &id
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid("%s is required", field)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
