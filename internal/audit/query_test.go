package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"crm-platform/internal/authz"
)

func seedRepo(t *testing.T, n int) (*MemoryRepo, time.Time) {
	t.Helper()
	repo := NewMemoryRepo()
	base := time.Unix(1700000000, 0).UTC()
	for i := 0; i < n; i++ {
		e := Entry{
			ID:         fmt.Sprintf("e%d", i),
			ActorID:    fmt.Sprintf("u%d", i%3),
			Action:     authz.ActionUpdate,
			EntityType: "accounts",
			EntityID:   fmt.Sprintf("a%d", i%5),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if i%4 == 0 {
			e.Action = authz.ActionCreate
		}
		if err := repo.Append(context.Background(), e); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return repo, base
}

func TestGetLogs_NewestFirstWithPagination(t *testing.T) {
	repo, _ := seedRepo(t, 25)
	q := NewQuery(repo, nil, nil, testLogger(), 0)

	page, err := q.GetLogs(context.Background(), Filter{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if page.Total != 25 || page.TotalPages != 3 || page.Page != 1 || page.Limit != 10 {
		t.Fatalf("unexpected envelope: %+v", page)
	}
	if len(page.Logs) != 10 {
		t.Fatalf("expected 10 logs, got %d", len(page.Logs))
	}
	if page.Logs[0].ID != "e24" {
		t.Fatalf("expected newest first, got %s", page.Logs[0].ID)
	}
	for i := 1; i < len(page.Logs); i++ {
		if page.Logs[i].CreatedAt.After(page.Logs[i-1].CreatedAt) {
			t.Fatalf("ordering violated at %d", i)
		}
	}

	last, err := q.GetLogs(context.Background(), Filter{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("get last page: %v", err)
	}
	if len(last.Logs) != 5 {
		t.Fatalf("expected 5 logs on last page, got %d", len(last.Logs))
	}

	beyond, err := q.GetLogs(context.Background(), Filter{Page: 9, Limit: 10})
	if err != nil {
		t.Fatalf("get beyond page: %v", err)
	}
	if len(beyond.Logs) != 0 || beyond.Total != 25 {
		t.Fatalf("expected empty page with total, got %+v", beyond)
	}
}

func TestGetLogs_ExactMatchFilters(t *testing.T) {
	repo, _ := seedRepo(t, 12)
	q := NewQuery(repo, nil, nil, testLogger(), 0)

	page, err := q.GetLogs(context.Background(), Filter{ActorID: "u1"})
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	for _, e := range page.Logs {
		if e.ActorID != "u1" {
			t.Fatalf("filter leak: %+v", e)
		}
	}

	page, err = q.GetLogs(context.Background(), Filter{Action: authz.ActionCreate})
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("expected 3 create entries, got %d", page.Total)
	}
}

func TestGetLogs_InclusiveDateRange(t *testing.T) {
	repo, base := seedRepo(t, 10)
	q := NewQuery(repo, nil, nil, testLogger(), 0)

	start := base.Add(2 * time.Minute)
	end := base.Add(5 * time.Minute)
	page, err := q.GetLogs(context.Background(), Filter{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	// Minutes 2..5 inclusive.
	if page.Total != 4 {
		t.Fatalf("expected 4 entries in range, got %d", page.Total)
	}
}

func TestGetLogs_RejectsBadFilter(t *testing.T) {
	repo, base := seedRepo(t, 3)
	q := NewQuery(repo, nil, nil, testLogger(), 0)

	start := base.Add(time.Hour)
	end := base
	if _, err := q.GetLogs(context.Background(), Filter{Start: &start, End: &end}); err == nil {
		t.Fatalf("expected error for inverted range")
	}
	if _, err := q.GetLogs(context.Background(), Filter{Action: "obliterate"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestGetStats_Aggregates(t *testing.T) {
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	for i, actor := range []string{"u1", "u1", "u1", "u2", "u2", "u3"} {
		_ = repo.Append(context.Background(), Entry{
			ID:         fmt.Sprintf("e%d", i),
			ActorID:    actor,
			Action:     authz.ActionUpdate,
			EntityType: "deals",
			CreatedAt:  now.Add(-time.Duration(i) * time.Hour),
		})
	}
	// Outside the window.
	_ = repo.Append(context.Background(), Entry{
		ID: "old", ActorID: "u9", Action: authz.ActionDelete, EntityType: "deals",
		CreatedAt: now.AddDate(0, 0, -40),
	})

	q := NewQuery(repo, nil, nil, testLogger(), 0)
	stats, err := q.GetStats(context.Background(), "deals", 30)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEvents != 6 {
		t.Fatalf("expected 6 events in window, got %d", stats.TotalEvents)
	}
	if stats.ByAction[authz.ActionUpdate] != 6 {
		t.Fatalf("unexpected action breakdown: %+v", stats.ByAction)
	}
	if len(stats.TopActors) != 3 || stats.TopActors[0].ActorID != "u1" || stats.TopActors[0].Count != 3 {
		t.Fatalf("unexpected top actors: %+v", stats.TopActors)
	}

	if _, err := q.GetStats(context.Background(), "deals", 0); err == nil {
		t.Fatalf("expected error for non-positive days")
	}
}
