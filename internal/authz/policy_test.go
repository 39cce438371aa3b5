package authz

import "testing"

func allResources() []string {
	return []string{
		ResourceAccounts, ResourceContacts, ResourceDeals, ResourceTickets,
		ResourceUsers, ResourceTeams, ResourceReports, ResourceAuditLogs,
	}
}

func allActions() []Action {
	return []Action{
		ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport,
		ActionManage, ActionAssign, ActionApprove, ActionEscalate,
	}
}

func TestEvaluate_AdminWildcardAllowsEverything(t *testing.T) {
	p := DefaultPolicy()
	for _, res := range allResources() {
		for _, act := range allActions() {
			if !p.Evaluate(RoleAdmin, res, act, Context{}) {
				t.Fatalf("admin denied %s on %s", act, res)
			}
		}
	}
}

func TestEvaluate_UnmatchedResourceDenies(t *testing.T) {
	p := DefaultPolicy()
	for _, role := range []Role{RoleManager, RoleAgent, RoleViewer} {
		if p.Evaluate(role, "integrations", ActionRead, Context{}) {
			t.Fatalf("%s allowed on unmatched resource", role)
		}
	}
	// No wildcard matching for non-admin roles either.
	if p.Evaluate(RoleViewer, ResourceAll, ActionRead, Context{}) {
		t.Fatalf("viewer allowed on wildcard resource")
	}
}

func TestEvaluate_ActionOutsideGrantDenies(t *testing.T) {
	p := DefaultPolicy()
	if p.Evaluate(RoleViewer, ResourceAccounts, ActionDelete, Context{UserTeamID: "t1", TeamID: "t1"}) {
		t.Fatalf("viewer allowed to delete accounts")
	}
	if p.Evaluate(RoleAgent, ResourceDeals, ActionApprove, Context{UserID: "u1", OwnerID: "u1"}) {
		t.Fatalf("agent allowed to approve deals")
	}
}

func TestEvaluate_ViewerAccountsTeamScope(t *testing.T) {
	p := DefaultPolicy()

	sameTeam := Context{UserID: "u1", UserTeamID: "t1", TeamID: "t1"}
	if !p.Evaluate(RoleViewer, ResourceAccounts, ActionRead, sameTeam) {
		t.Fatalf("viewer denied read on own-team account")
	}

	otherTeam := Context{UserID: "u1", UserTeamID: "t1", TeamID: "t2"}
	if p.Evaluate(RoleViewer, ResourceAccounts, ActionRead, otherTeam) {
		t.Fatalf("viewer allowed read on other-team account")
	}
}

func TestEvaluate_AgentDealsAssignedOnly(t *testing.T) {
	p := DefaultPolicy()

	owned := Context{UserID: "u1", OwnerID: "u1"}
	if !p.Evaluate(RoleAgent, ResourceDeals, ActionUpdate, owned) {
		t.Fatalf("agent denied update on own deal")
	}

	foreign := Context{UserID: "u1", OwnerID: "u2", AssignedTo: "u3"}
	if p.Evaluate(RoleAgent, ResourceDeals, ActionUpdate, foreign) {
		t.Fatalf("agent allowed update on foreign deal")
	}
}

func TestEvaluate_AgentContactsUnconditioned(t *testing.T) {
	p := DefaultPolicy()
	// Deliberately broader than the assignedOnly siblings.
	if !p.Evaluate(RoleAgent, ResourceContacts, ActionUpdate, Context{UserID: "u1", OwnerID: "u2"}) {
		t.Fatalf("agent denied update on contacts")
	}
}

func TestEvaluate_UnknownConditionFailsClosed(t *testing.T) {
	p := &Policy{grants: map[Role][]Permission{
		RoleAgent: {
			{Resource: ResourceContacts, Actions: []Action{ActionRead}, Conditions: []Condition{"superUser"}},
		},
	}}
	if p.Evaluate(RoleAgent, ResourceContacts, ActionRead, Context{UserID: "u1"}) {
		t.Fatalf("unknown condition predicate must deny")
	}
}

func TestEvaluate_ConditionConjunction(t *testing.T) {
	p := &Policy{grants: map[Role][]Permission{
		RoleAgent: {
			{Resource: ResourceDeals, Actions: []Action{ActionRead}, Conditions: []Condition{CondAssignedOnly, CondTeamScope}},
		},
	}}

	both := Context{UserID: "u1", OwnerID: "u1", UserTeamID: "t1", TeamID: "t1"}
	if !p.Evaluate(RoleAgent, ResourceDeals, ActionRead, both) {
		t.Fatalf("expected allow when all conditions hold")
	}

	onlyOne := Context{UserID: "u1", OwnerID: "u1", UserTeamID: "t1", TeamID: "t2"}
	if p.Evaluate(RoleAgent, ResourceDeals, ActionRead, onlyOne) {
		t.Fatalf("expected deny when a condition fails")
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	p := DefaultPolicy()
	ctx := Context{UserID: "u1", UserTeamID: "t1", TeamID: "t1"}
	first := p.Evaluate(RoleViewer, ResourceAccounts, ActionRead, ctx)
	for i := 0; i < 10; i++ {
		if p.Evaluate(RoleViewer, ResourceAccounts, ActionRead, ctx) != first {
			t.Fatalf("evaluation not deterministic")
		}
	}
}

func TestVisibleFields_MissingRoleIsEmpty(t *testing.T) {
	p := DefaultPolicy()
	fs := p.VisibleFields(Role("ghost"), ResourceAccounts)
	if fs.All || len(fs.Fields) != 0 {
		t.Fatalf("unknown role must see nothing, got %+v", fs)
	}
}
