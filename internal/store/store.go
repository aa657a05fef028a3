package store

import (
	"context"

	"github.com/nhle/planner/internal/model"
)

// Store defines the session-scoped local persistence. Every row belongs to
// the session that wrote it; rows from other sessions are never returned.
type Store interface {
	// Session returns the id rows written by this store are tagged with.
	Session() string

	// === Schedule cache ===

	GetSchedule(ctx context.Context, projectID int64) (*model.ScheduleResult, error)
	PutSchedule(ctx context.Context, projectID int64, res model.ScheduleResult) error

	// === Workspace view preference ===

	GetView(ctx context.Context, projectID int64) (string, error)
	SetView(ctx context.Context, projectID int64, view string) error

	// === Session lifecycle ===

	PurgeOtherSessions(ctx context.Context) (int64, error)
	ClearSession(ctx context.Context) error

	Close() error
}
