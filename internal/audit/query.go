package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crm-platform/internal/authz"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidFilter = errors.New("audit: invalid filter")

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Filter selects audit entries. All provided fields match exactly; the date
// range is inclusive on both ends. Zero values mean "not filtered".
type Filter struct {
	ActorID    string
	EntityType string
	EntityID   string
	Action     authz.Action

	Start *time.Time
	End   *time.Time

	Page  int
	Limit int
}

func (f Filter) normalized() (Filter, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	if f.Action != "" && !authz.ValidAction(f.Action) {
		return Filter{}, fmt.Errorf("%w: unknown action %q", ErrInvalidFilter, f.Action)
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return Filter{}, fmt.Errorf("%w: end date before start date", ErrInvalidFilter)
	}
	return f, nil
}

// Matches reports whether e satisfies the filter (ignoring pagination).
// Repositories without native filtering reuse it.
func (f Filter) Matches(e Entry) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Start != nil && e.CreatedAt.Before(*f.Start) {
		return false
	}
	if f.End != nil && e.CreatedAt.After(*f.End) {
		return false
	}
	return true
}

// Page is the paginated query envelope.
type Page struct {
	Logs       []Entry `json:"logs"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"totalPages"`
}

type ActorCount struct {
	ActorID string `json:"actorId"`
	Count   int    `json:"count"`
}

// Stats aggregates activity over a trailing window.
type Stats struct {
	TotalEvents int                  `json:"totalEvents"`
	ByAction    map[authz.Action]int `json:"byAction"`
	TopActors   []ActorCount         `json:"topActors"`
	Days        int                  `json:"days"`
	EntityType  string               `json:"entityType,omitempty"`
}

// Query serves paginated retrieval and aggregates over the audit log. Reads go
// to the repository; stats are cached in redis for a short TTL when a client
// is configured. A nil redis client degrades to uncached reads.
type Query struct {
	repo  Repository
	rec   *Recorder
	rdb   *redis.Client
	log   *slog.Logger
	clock func() time.Time

	statsTTL time.Duration
}

// NewQuery builds the query/export service. rec records exports as audit
// entries of their own; pass nil only in tests that do not exercise Export.
func NewQuery(repo Repository, rec *Recorder, rdb *redis.Client, log *slog.Logger, statsTTL time.Duration) *Query {
	if log == nil {
		log = slog.Default()
	}
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &Query{repo: repo, rec: rec, rdb: rdb, log: log, clock: time.Now, statsTTL: statsTTL}
}

// GetLogs returns one page of entries, newest first.
func (q *Query) GetLogs(ctx context.Context, f Filter) (Page, error) {
	f, err := f.normalized()
	if err != nil {
		return Page{}, err
	}
	if q.repo == nil {
		return Page{}, errors.New("audit: repository not configured")
	}

	entries, total, err := q.repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}
	if entries == nil {
		entries = []Entry{}
	}
	return Page{
		Logs:       entries,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetStats aggregates counts for the trailing window of the given days.
// entityType narrows the scope; empty means all entity types.
func (q *Query) GetStats(ctx context.Context, entityType string, days int) (Stats, error) {
	if days <= 0 {
		return Stats{}, fmt.Errorf("%w: days must be positive", ErrInvalidFilter)
	}
	if q.repo == nil {
		return Stats{}, errors.New("audit: repository not configured")
	}

	cacheKey := fmt.Sprintf("audit:stats:%s:%d", entityType, days)
	if q.rdb != nil {
		if raw, err := q.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached Stats
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	since := q.clock().UTC().AddDate(0, 0, -days)

	byAction, err := q.repo.ActionCounts(ctx, entityType, since)
	if err != nil {
		return Stats{}, err
	}
	top, err := q.repo.ActorCounts(ctx, entityType, since, 10)
	if err != nil {
		return Stats{}, err
	}

	out := Stats{ByAction: byAction, TopActors: top, Days: days, EntityType: entityType}
	for _, n := range byAction {
		out.TotalEvents += n
	}

	if q.rdb != nil {
		if raw, err := json.Marshal(out); err == nil {
			if err := q.rdb.Set(ctx, cacheKey, raw, q.statsTTL).Err(); err != nil {
				q.log.Debug("audit stats cache write failed", "err", err)
			}
		}
	}
	return out, nil
}
