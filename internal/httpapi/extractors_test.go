package httpapi

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"crm-platform/internal/audit"
	"crm-platform/internal/authz"
	"crm-platform/internal/fields"

	"github.com/gin-gonic/gin"
)

func ginContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func testHandlers(store *MemoryEntityStore) Handlers {
	policy := authz.DefaultPolicy()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := audit.NewMemoryRepo()
	rec := audit.NewRecorder(repo, log)
	return Handlers{
		Policy:     policy,
		Fields:     fields.NewResolver(policy),
		Entities:   store,
		Recorder:   rec,
		AuditQuery: audit.NewQuery(repo, rec, nil, log, 0),
	}
}

func TestEntityContext_CopiesOwnershipFacts(t *testing.T) {
	store := NewMemoryEntityStore()
	store.Put("deals", "d1", map[string]any{
		"id": "d1", "owner_id": "u1", "assigned_to": "u2", "created_by": "u3", "team_id": "t1",
	})
	h := testHandlers(store)

	c := ginContext(t, "/v1/deals/d1")
	c.Params = gin.Params{{Key: "id", Value: "d1"}}

	pctx, err := h.EntityContext("deals")(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := authz.Context{EntityID: "d1", OwnerID: "u1", AssignedTo: "u2", CreatedBy: "u3", TeamID: "t1"}
	if pctx != want {
		t.Fatalf("got %+v, want %+v", pctx, want)
	}
}

func TestEntityContext_MissingRecordFailsClosed(t *testing.T) {
	h := testHandlers(NewMemoryEntityStore())

	c := ginContext(t, "/v1/deals/ghost")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	pctx, err := h.EntityContext("deals")(c)
	if err != nil {
		t.Fatalf("missing record must not surface an error: %v", err)
	}
	if pctx.OwnerID != "" || pctx.AssignedTo != "" || pctx.TeamID != "" {
		t.Fatalf("missing record must yield empty facts: %+v", pctx)
	}
	// Empty facts deny every conditioned grant without revealing existence.
	pctx.UserID = "u1"
	pctx.UserRole = authz.RoleAgent
	if h.Policy.Evaluate(authz.RoleAgent, authz.ResourceDeals, authz.ActionRead, pctx) {
		t.Fatal("agent must be denied on a record with unknown facts")
	}
}

func TestEntityContext_TeamUsesOwnID(t *testing.T) {
	store := NewMemoryEntityStore()
	store.Put("teams", "t1", map[string]any{"id": "t1", "name": "Sales"})
	h := testHandlers(store)

	c := ginContext(t, "/v1/teams/t1")
	c.Params = gin.Params{{Key: "id", Value: "t1"}}

	pctx, err := h.EntityContext(authz.ResourceTeams)(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pctx.TeamID != "t1" {
		t.Fatalf("team record should scope to its own id, got %+v", pctx)
	}
}

func TestPublicReportsContext(t *testing.T) {
	c := ginContext(t, "/v1/reports?public=true")
	pctx, err := PublicReportsContext()(c)
	if err != nil || !pctx.IsPublicReport {
		t.Fatalf("public=true should mark the context public: %+v err=%v", pctx, err)
	}

	c = ginContext(t, "/v1/reports")
	pctx, _ = PublicReportsContext()(c)
	if pctx.IsPublicReport {
		t.Fatal("absent public param must not mark the context public")
	}
}
