package authz

// Condition is a named predicate over the permission context. The set is
// closed: evaluating a condition outside this set denies, never allows.
// Policy correctness is a security boundary, so a typo in a policy file must
// fail closed rather than silently widen a grant.
type Condition string

const (
	// CondAssignedOnly holds when the caller is the record's assignee or owner.
	CondAssignedOnly Condition = "assignedOnly"
	// CondTeamScope holds when the record belongs to the caller's team.
	CondTeamScope Condition = "teamScope"
	// CondOwnTeam is an alias of teamScope kept for policy-file compatibility.
	CondOwnTeam Condition = "ownTeam"
	// CondSelfOnly holds when the target record is the caller themselves.
	CondSelfOnly Condition = "selfOnly"
	// CondOwnDataOnly holds when the caller owns or created the record.
	CondOwnDataOnly Condition = "ownDataOnly"
	// CondLimitedScope restricts viewers to public reports; other roles pass.
	CondLimitedScope Condition = "limitedScope"
)

func ValidCondition(c Condition) bool {
	switch c {
	case CondAssignedOnly, CondTeamScope, CondOwnTeam, CondSelfOnly, CondOwnDataOnly, CondLimitedScope:
		return true
	default:
		return false
	}
}

// Eval evaluates the predicate against ctx. Unknown condition names return
// false.
func (c Condition) Eval(ctx Context) bool {
	switch c {
	case CondAssignedOnly:
		return (ctx.AssignedTo != "" && ctx.AssignedTo == ctx.UserID) ||
			(ctx.OwnerID != "" && ctx.OwnerID == ctx.UserID)
	case CondTeamScope, CondOwnTeam:
		return ctx.TeamID != "" && ctx.TeamID == ctx.UserTeamID
	case CondSelfOnly:
		return ctx.EntityID != "" && ctx.EntityID == ctx.UserID
	case CondOwnDataOnly:
		return (ctx.OwnerID != "" && ctx.OwnerID == ctx.UserID) ||
			(ctx.CreatedBy != "" && ctx.CreatedBy == ctx.UserID)
	case CondLimitedScope:
		if ctx.UserRole == RoleViewer {
			return ctx.IsPublicReport
		}
		return true
	default:
		return false
	}
}
