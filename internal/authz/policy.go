package authz

// Permission grants a set of actions on one resource, optionally narrowed by
// condition predicates (conjunction: all must hold).
type Permission struct {
	Resource   string
	Actions    []Action
	Conditions []Condition
}

// FieldSet is the per-role, per-entity-type visibility allowlist. All=true is
// the "all fields" sentinel used by admin. Absence of a field always means
// hidden; there is no deny-list.
type FieldSet struct {
	All    bool
	Fields []string
}

// Policy is the immutable policy store: the role->permission matrix and the
// role->entity-type field visibility map. It is built once at process start
// (DefaultPolicy or LoadPolicyFile) and passed by reference into the evaluator,
// the field resolver, and the middleware. Nothing mutates it afterwards, so
// concurrent requests share it without locking.
type Policy struct {
	grants     map[Role][]Permission
	visibility map[Role]map[string]FieldSet
}

// Evaluate decides whether role may perform action on resource in the given
// context. It is deterministic and side-effect-free.
//
// Order of checks:
//  1. wildcard manage grant short-circuits (admin)
//  2. exact resource match; unmatched resource denies
//  3. action membership
//  4. conjunction of condition predicates; unknown names deny
func (p *Policy) Evaluate(role Role, resource string, action Action, ctx Context) bool {
	perms, ok := p.grants[role]
	if !ok {
		return false
	}

	for _, perm := range perms {
		if perm.Resource == ResourceAll && hasAction(perm.Actions, ActionManage) {
			return true
		}
	}

	for _, perm := range perms {
		if perm.Resource != resource {
			continue
		}
		if !hasAction(perm.Actions, action) {
			return false
		}
		for _, cond := range perm.Conditions {
			if !ValidCondition(cond) {
				return false
			}
			if !cond.Eval(ctx) {
				return false
			}
		}
		return true
	}
	return false
}

// VisibleFields returns the visibility allowlist for role on entityType.
// A missing entry is an empty set: nothing visible.
func (p *Policy) VisibleFields(role Role, entityType string) FieldSet {
	byType, ok := p.visibility[role]
	if !ok {
		return FieldSet{}
	}
	return byType[entityType]
}

// Grants returns the permission entries for a role. The returned slice must be
// treated as read-only.
func (p *Policy) Grants(role Role) []Permission {
	return p.grants[role]
}

func hasAction(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}

func allFields() FieldSet { return FieldSet{All: true} }

func fields(names ...string) FieldSet { return FieldSet{Fields: names} }

// DefaultPolicy builds the built-in permission matrix and visibility map.
//
// Notes on scope:
//   - admin holds only the wildcard manage grant; everything else short-circuits.
//   - agent/contacts intentionally carries no condition (broader grant than the
//     assignedOnly siblings).
//   - viewer/reports requires limitedScope: only public reports.
func DefaultPolicy() *Policy {
	grants := map[Role][]Permission{
		RoleAdmin: {
			{Resource: ResourceAll, Actions: []Action{ActionManage}},
		},
		RoleManager: {
			{Resource: ResourceAccounts, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport, ActionAssign}},
			{Resource: ResourceContacts, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport, ActionAssign}},
			{Resource: ResourceDeals, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport, ActionAssign, ActionApprove}},
			{Resource: ResourceTickets, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAssign, ActionEscalate}},
			{Resource: ResourceUsers, Actions: []Action{ActionRead}},
			{Resource: ResourceTeams, Actions: []Action{ActionRead, ActionUpdate}, Conditions: []Condition{CondOwnTeam}},
			{Resource: ResourceReports, Actions: []Action{ActionCreate, ActionRead, ActionExport}},
			{Resource: ResourceAuditLogs, Actions: []Action{ActionRead}},
		},
		RoleAgent: {
			{Resource: ResourceAccounts, Actions: []Action{ActionRead, ActionUpdate}, Conditions: []Condition{CondAssignedOnly}},
			{Resource: ResourceContacts, Actions: []Action{ActionCreate, ActionRead, ActionUpdate}},
			{Resource: ResourceDeals, Actions: []Action{ActionCreate, ActionRead, ActionUpdate}, Conditions: []Condition{CondAssignedOnly}},
			{Resource: ResourceTickets, Actions: []Action{ActionCreate, ActionRead, ActionUpdate, ActionEscalate}, Conditions: []Condition{CondAssignedOnly}},
			{Resource: ResourceUsers, Actions: []Action{ActionRead, ActionUpdate}, Conditions: []Condition{CondSelfOnly}},
			{Resource: ResourceReports, Actions: []Action{ActionRead}, Conditions: []Condition{CondOwnDataOnly}},
		},
		RoleViewer: {
			{Resource: ResourceAccounts, Actions: []Action{ActionRead}, Conditions: []Condition{CondTeamScope}},
			{Resource: ResourceContacts, Actions: []Action{ActionRead}, Conditions: []Condition{CondTeamScope}},
			{Resource: ResourceDeals, Actions: []Action{ActionRead}, Conditions: []Condition{CondTeamScope}},
			{Resource: ResourceTickets, Actions: []Action{ActionRead}, Conditions: []Condition{CondTeamScope}},
			{Resource: ResourceReports, Actions: []Action{ActionRead}, Conditions: []Condition{CondLimitedScope}},
		},
	}

	visibility := map[Role]map[string]FieldSet{
		RoleAdmin: {
			ResourceAccounts: allFields(),
			ResourceContacts: allFields(),
			ResourceDeals:    allFields(),
			ResourceTickets:  allFields(),
			ResourceUsers:    allFields(),
			ResourceTeams:    allFields(),
			ResourceReports:  allFields(),
		},
		RoleManager: {
			ResourceAccounts: allFields(),
			ResourceContacts: allFields(),
			ResourceDeals:    allFields(),
			ResourceTickets:  allFields(),
			ResourceUsers:    fields("id", "name", "email", "role", "team_id", "created_at"),
			ResourceTeams:    allFields(),
			ResourceReports:  allFields(),
		},
		RoleAgent: {
			ResourceAccounts: fields("id", "name", "industry", "website", "phone", "status", "owner_id", "team_id", "created_at"),
			ResourceContacts: fields("id", "first_name", "last_name", "email", "phone", "title", "account_id", "owner_id", "created_at"),
			ResourceDeals:    fields("id", "title", "stage", "amount", "account_id", "owner_id", "assigned_to", "close_date", "created_at"),
			ResourceTickets:  fields("id", "subject", "status", "priority", "account_id", "assigned_to", "created_by", "created_at"),
			ResourceUsers:    fields("id", "name", "email"),
			ResourceTeams:    fields("id", "name"),
			ResourceReports:  fields("id", "title", "type", "created_by", "created_at"),
		},
		RoleViewer: {
			ResourceAccounts: fields("id", "name", "industry", "status"),
			ResourceContacts: fields("id", "first_name", "last_name", "account_id"),
			ResourceDeals:    fields("id", "title", "stage", "close_date"),
			ResourceTickets:  fields("id", "subject", "status", "priority"),
			ResourceReports:  fields("id", "title", "type", "created_at"),
		},
	}

	return &Policy{grants: grants, visibility: visibility}
}
