package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"crm-platform/internal/authz"
)

// MemoryRepo is an in-memory append-only repository for tests and local runs.
// It mirrors the postgres repo's ordering and filtering semantics.
type MemoryRepo struct {
	mu      sync.Mutex
	entries []Entry

	// FailAppend forces Append to return this error; used to exercise the
	// recorder's swallow-and-log failure policy.
	FailAppend error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAppend != nil {
		return r.FailAppend
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Entry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	// Newest first; ties keep insertion order reversed for stability.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := (f.Page - 1) * f.Limit
	if offset >= total {
		return []Entry{}, total, nil
	}
	end := offset + f.Limit
	if end > total {
		end = total
	}
	page := make([]Entry, end-offset)
	copy(page, matched[offset:end])
	return page, total, nil
}

func (r *MemoryRepo) ActionCounts(ctx context.Context, entityType string, since time.Time) (map[authz.Action]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[authz.Action]int)
	for _, e := range r.entries {
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		if e.CreatedAt.Before(since) {
			continue
		}
		out[e.Action]++
	}
	return out, nil
}

func (r *MemoryRepo) ActorCounts(ctx context.Context, entityType string, since time.Time, limit int) ([]ActorCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, e := range r.entries {
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		if e.CreatedAt.Before(since) {
			continue
		}
		counts[e.ActorID]++
	}

	out := make([]ActorCount, 0, len(counts))
	for actor, n := range counts {
		out = append(out, ActorCount{ActorID: actor, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ActorID < out[j].ActorID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Entries returns a copy of everything appended, oldest first.
func (r *MemoryRepo) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
