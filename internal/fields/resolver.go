package fields

import "crm-platform/internal/authz"

// Resolver answers field-level visibility questions against an injected
// policy. All methods are pure: they read the immutable policy tables and
// never mutate their inputs.
//
// Visibility is allowlist-only. A field absent from the policy is hidden, so
// dropping a field from the visibility table redacts it everywhere without
// touching call sites.
type Resolver struct {
	policy *authz.Policy
}

func NewResolver(policy *authz.Policy) *Resolver {
	return &Resolver{policy: policy}
}

// VisibleFields returns the allowlist for role on entityType. all=true means
// every field is visible (the admin wildcard); the slice is nil in that case.
func (r *Resolver) VisibleFields(role authz.Role, entityType string) (visible []string, all bool) {
	fs := r.policy.VisibleFields(role, entityType)
	if fs.All {
		return nil, true
	}
	return fs.Fields, false
}

// CanView reports whether role may see a single field of entityType.
func (r *Resolver) CanView(role authz.Role, entityType, field string) bool {
	fs := r.policy.VisibleFields(role, entityType)
	if fs.All {
		return true
	}
	for _, f := range fs.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Project returns a copy of entity holding only the keys visible to role.
// It never adds keys; a wildcard allowlist returns a shallow copy unchanged.
// Projecting an already-projected entity is a no-op.
func (r *Resolver) Project(entity map[string]any, role authz.Role, entityType string) map[string]any {
	if entity == nil {
		return nil
	}
	fs := r.policy.VisibleFields(role, entityType)
	if fs.All {
		out := make(map[string]any, len(entity))
		for k, v := range entity {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(fs.Fields))
	for _, f := range fs.Fields {
		if v, ok := entity[f]; ok {
			out[f] = v
		}
	}
	return out
}

// ProjectAll applies Project element-wise.
func (r *Resolver) ProjectAll(entities []map[string]any, role authz.Role, entityType string) []map[string]any {
	if entities == nil {
		return nil
	}
	out := make([]map[string]any, len(entities))
	for i, e := range entities {
		out[i] = r.Project(e, role, entityType)
	}
	return out
}

// FieldAccess is the per-field contract consumed by form-driving UIs: hide
// what is not visible, disable what is not editable, mark what is required.
type FieldAccess struct {
	Visible  bool `json:"visible"`
	Editable bool `json:"editable"`
	Required bool `json:"required"`
}

// AccessPolicy computes the access entry for every known field of entityType.
// Editability is never granted without visibility, and is further withheld for
// system fields (non-admin) and role-restricted fields. Required is a property
// of the entity type, independent of role.
func (r *Resolver) AccessPolicy(role authz.Role, entityType string) map[string]FieldAccess {
	known := KnownFields(entityType)
	out := make(map[string]FieldAccess, len(known))
	for _, f := range known {
		visible := r.CanView(role, entityType, f)
		editable := visible &&
			!(isSystemField(f) && role != authz.RoleAdmin) &&
			!roleRestricted(role, entityType, f)
		out[f] = FieldAccess{
			Visible:  visible,
			Editable: editable,
			Required: isRequired(entityType, f),
		}
	}
	return out
}
