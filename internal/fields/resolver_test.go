package fields

import (
	"reflect"
	"testing"

	"crm-platform/internal/authz"
)

func sampleAccount() map[string]any {
	return map[string]any{
		"id":             "a1",
		"name":           "Acme",
		"industry":       "manufacturing",
		"annual_revenue": 1200000,
		"credit_limit":   50000,
		"owner_id":       "u1",
		"team_id":        "t1",
		"created_at":     "2026-01-01T00:00:00Z",
	}
}

func TestProject_RedactsHiddenFields(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())

	got := r.Project(sampleAccount(), authz.RoleAgent, authz.ResourceAccounts)
	if _, ok := got["annual_revenue"]; ok {
		t.Fatalf("agent should not see annual_revenue")
	}
	if _, ok := got["credit_limit"]; ok {
		t.Fatalf("agent should not see credit_limit")
	}
	if got["name"] != "Acme" {
		t.Fatalf("visible field lost")
	}

	// Projected key set must be a subset of the allowlist.
	visible, all := r.VisibleFields(authz.RoleAgent, authz.ResourceAccounts)
	if all {
		t.Fatalf("agent accounts visibility should not be wildcard")
	}
	allowed := make(map[string]struct{}, len(visible))
	for _, f := range visible {
		allowed[f] = struct{}{}
	}
	for k := range got {
		if _, ok := allowed[k]; !ok {
			t.Fatalf("projected key %q not in allowlist", k)
		}
	}
}

func TestProject_WildcardReturnsAllFields(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	entity := sampleAccount()

	got := r.Project(entity, authz.RoleAdmin, authz.ResourceAccounts)
	if !reflect.DeepEqual(got, entity) {
		t.Fatalf("admin projection should be unchanged")
	}

	// Must be a copy, not the same map.
	got["name"] = "mutated"
	if entity["name"] != "Acme" {
		t.Fatalf("projection must not alias the input")
	}
}

func TestProject_Idempotent(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	once := r.Project(sampleAccount(), authz.RoleViewer, authz.ResourceAccounts)
	twice := r.Project(once, authz.RoleViewer, authz.ResourceAccounts)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("projection not idempotent: %v vs %v", once, twice)
	}
}

func TestProject_NeverAddsKeys(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	partial := map[string]any{"name": "Acme"}
	got := r.Project(partial, authz.RoleViewer, authz.ResourceAccounts)
	if len(got) != 1 || got["name"] != "Acme" {
		t.Fatalf("projection added or dropped keys: %v", got)
	}
}

func TestProjectAll(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	entities := []map[string]any{sampleAccount(), sampleAccount()}
	got := r.ProjectAll(entities, authz.RoleViewer, authz.ResourceAccounts)
	if len(got) != 2 {
		t.Fatalf("expected 2 projected entities")
	}
	for _, e := range got {
		if _, ok := e["owner_id"]; ok {
			t.Fatalf("viewer should not see owner_id")
		}
	}
}

func TestCanView(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	if !r.CanView(authz.RoleAdmin, authz.ResourceUsers, "password_hash") {
		t.Fatalf("admin wildcard should see every field")
	}
	if r.CanView(authz.RoleManager, authz.ResourceUsers, "password_hash") {
		t.Fatalf("manager should not see password_hash")
	}
	if r.CanView(authz.RoleViewer, authz.ResourceAccounts, "annual_revenue") {
		t.Fatalf("viewer should not see annual_revenue")
	}
}

func TestAccessPolicy_EditableImpliesVisible(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	for _, role := range authz.Roles() {
		for _, entityType := range []string{
			authz.ResourceAccounts, authz.ResourceContacts, authz.ResourceDeals,
			authz.ResourceTickets, authz.ResourceUsers, authz.ResourceTeams, authz.ResourceReports,
		} {
			for field, access := range r.AccessPolicy(role, entityType) {
				if access.Editable && !access.Visible {
					t.Fatalf("%s/%s/%s editable without visible", role, entityType, field)
				}
			}
		}
	}
}

func TestAccessPolicy_RoleRestrictions(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())

	// Viewers edit nothing.
	for field, access := range r.AccessPolicy(authz.RoleViewer, authz.ResourceAccounts) {
		if access.Editable {
			t.Fatalf("viewer can edit %s", field)
		}
	}

	// Managers cannot reassign ownership fields.
	mgr := r.AccessPolicy(authz.RoleManager, authz.ResourceAccounts)
	if mgr["owner_id"].Editable {
		t.Fatalf("manager can edit owner_id")
	}
	if !mgr["name"].Editable {
		t.Fatalf("manager cannot edit name")
	}

	// Agents cannot edit financial fields.
	agent := r.AccessPolicy(authz.RoleAgent, authz.ResourceDeals)
	if agent["amount"].Editable {
		t.Fatalf("agent can edit amount")
	}
	if !agent["title"].Editable {
		t.Fatalf("agent cannot edit title")
	}

	// System fields are admin-only.
	if r.AccessPolicy(authz.RoleManager, authz.ResourceAccounts)["created_at"].Editable {
		t.Fatalf("manager can edit created_at")
	}
	if !r.AccessPolicy(authz.RoleAdmin, authz.ResourceAccounts)["created_at"].Editable {
		t.Fatalf("admin cannot edit created_at")
	}
}

func TestAccessPolicy_RequiredIndependentOfRole(t *testing.T) {
	r := NewResolver(authz.DefaultPolicy())
	for _, role := range authz.Roles() {
		access := r.AccessPolicy(role, authz.ResourceDeals)
		if !access["title"].Required || !access["stage"].Required {
			t.Fatalf("%s: required fields wrong: %+v", role, access)
		}
		if access["amount"].Required {
			t.Fatalf("%s: amount should not be required", role)
		}
	}
}
