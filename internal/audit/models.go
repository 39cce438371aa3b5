package audit

import (
	"time"

	"crm-platform/internal/authz"
)

// Entry is an immutable, append-only audit log record.
//
// Invariants:
// - Entries are never updated or deleted; the repository contract has no
//   update or delete methods.
// - Actor, IP, and user-agent capture are best-effort; recording must never
//   block or fail the primary operation.
//
// Storage recommendation (Postgres):
// - Table audit_logs with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Entry struct {
	ID string `json:"id" db:"id"`

	// ActorID is the authenticated user who performed the action.
	ActorID string `json:"actorId" db:"actor_id"`

	Action     authz.Action `json:"action" db:"action"`
	EntityType string       `json:"entityType" db:"entity_type"`
	EntityID   string       `json:"entityId" db:"entity_id"`

	// EntityName is a display label captured at write time; the entity itself
	// may later be renamed or deleted.
	EntityName string `json:"entityName,omitempty" db:"entity_name"`

	Diff *Diff `json:"diff,omitempty" db:"diff"`

	Metadata Metadata `json:"metadata" db:"metadata"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Diff is the shallow before/after comparison persisted with update entries.
type Diff struct {
	Before  map[string]any `json:"before,omitempty"`
	After   map[string]any `json:"after,omitempty"`
	Changes []FieldChange  `json:"changes"`
}

// ChangedFields returns the changed field names in change order.
func (d *Diff) ChangedFields() []string {
	out := make([]string, len(d.Changes))
	for i, c := range d.Changes {
		out[i] = c.Field
	}
	return out
}

type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue,omitempty"`
	NewValue any    `json:"newValue,omitempty"`
}

// Metadata captures request provenance for an entry.
type Metadata struct {
	UserAgent string `json:"userAgent,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	Source    string `json:"source,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}
