package authz

// Context carries the per-request facts that condition predicates evaluate
// against. It is built once per request from the authenticated principal plus
// whatever the handler can extract about the target record, and is never
// persisted.
type Context struct {
	UserID     string
	UserRole   Role
	UserTeamID string

	// Target record facts. Zero values mean "unknown"; predicates that need a
	// fact treat unknown as non-matching (fail closed).
	EntityID   string
	OwnerID    string
	AssignedTo string
	CreatedBy  string
	TeamID     string

	IsPublicReport bool
}
