package authz

// Role names. Keep these stable; they are part of auth and audit contracts.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
	RoleViewer  Role = "viewer"
)

// Roles lists every known role. Grants are enumerated per role; there is no
// hierarchy inference between them. Admin holds the wildcard grant instead.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleAgent, RoleViewer}
}

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleViewer:
		return true
	default:
		return false
	}
}

func IsAdmin(r Role) bool { return r == RoleAdmin }

// Action is an operation verb checked against a permission entry.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionExport   Action = "export"
	ActionManage   Action = "manage"
	ActionAssign   Action = "assign"
	ActionApprove  Action = "approve"
	ActionEscalate Action = "escalate"
)

func ValidAction(a Action) bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionExport,
		ActionManage, ActionAssign, ActionApprove, ActionEscalate:
		return true
	default:
		return false
	}
}

// Resource names. These identify entity collections, not individual records.
const (
	ResourceAccounts  = "accounts"
	ResourceContacts  = "contacts"
	ResourceDeals     = "deals"
	ResourceTickets   = "tickets"
	ResourceUsers     = "users"
	ResourceTeams     = "teams"
	ResourceReports   = "reports"
	ResourceAuditLogs = "audit_logs"

	// ResourceAll combined with ActionManage is the admin escape hatch.
	ResourceAll = "*"
)
