package audit

import (
	"context"
	"log/slog"
	"time"

	"crm-platform/internal/authz"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit entries.
//
// It MUST be append-only; the contract carries no update or delete methods.
// List and the aggregate methods serve the query service; Append serves the
// recorder.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filter) (entries []Entry, total int, err error)
	ActionCounts(ctx context.Context, entityType string, since time.Time) (map[authz.Action]int, error)
	ActorCounts(ctx context.Context, entityType string, since time.Time, limit int) ([]ActorCount, error)
}

// Options carries the optional parts of an audit record.
type Options struct {
	EntityName string
	Before     map[string]any
	After      map[string]any
	Metadata   Metadata

	// Redact names fields whose values must be masked in the persisted diff.
	// A redacted field still shows up as changed, without its values.
	Redact []string
}

// Recorder writes audit entries after the primary operation has committed.
//
// Failure policy: persistence errors are logged and swallowed. Availability of
// the primary action is prioritized over completeness of the audit trail, so
// Record never returns an error and never panics into the caller's path.
type Recorder struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewRecorder(repo Repository, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{repo: repo, log: log, clock: time.Now}
}

// Record persists one audit entry. Call it only after the primary operation is
// known to have succeeded; a failed write here does not undo or retry it.
func (r *Recorder) Record(ctx context.Context, actorID string, action authz.Action, entityType, entityID string, opts Options) {
	if r.repo == nil {
		r.log.Warn("audit repository not configured, dropping entry",
			"action", action, "entity_type", entityType, "entity_id", entityID)
		return
	}

	diff := ComputeDiff(opts.Before, opts.After)
	if diff != nil && len(opts.Redact) > 0 {
		diff = diff.redacted(opts.Redact)
	}

	e := Entry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		EntityName: opts.EntityName,
		Diff:       diff,
		Metadata:   opts.Metadata,
		CreatedAt:  r.clock().UTC(),
	}

	if err := r.repo.Append(ctx, e); err != nil {
		r.log.Error("audit append failed",
			"err", err, "action", action, "entity_type", entityType, "entity_id", entityID)
	}
}
