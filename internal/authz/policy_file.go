package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy file format (YAML). A file replaces the built-in matrix for the roles
// it names and leaves the other roles at their defaults, so deployments can
// tighten or widen a single role without restating the whole matrix.
//
//	grants:
//	  agent:
//	    - resource: contacts
//	      actions: [create, read, update]
//	    - resource: deals
//	      actions: [read]
//	      conditions: [assignedOnly]
//	visibility:
//	  agent:
//	    contacts: [id, first_name, last_name]
//	    accounts: "*"

type policyFile struct {
	Grants     map[string][]permissionEntry `yaml:"grants"`
	Visibility map[string]map[string]any    `yaml:"visibility"`
}

type permissionEntry struct {
	Resource   string   `yaml:"resource"`
	Actions    []string `yaml:"actions"`
	Conditions []string `yaml:"conditions"`
}

// LoadPolicyFile reads a YAML override file and merges it over DefaultPolicy.
// Unknown roles, actions, or condition names are load errors: a malformed
// policy must refuse to start rather than silently widen or drop grants.
func LoadPolicyFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("authz: read policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("authz: parse policy file: %w", err)
	}

	p := DefaultPolicy()

	for roleName, entries := range pf.Grants {
		role := Role(roleName)
		if !ValidRole(role) {
			return nil, fmt.Errorf("authz: policy file: unknown role %q", roleName)
		}
		perms := make([]Permission, 0, len(entries))
		for _, e := range entries {
			if e.Resource == "" {
				return nil, fmt.Errorf("authz: policy file: role %q has an entry without a resource", roleName)
			}
			perm := Permission{Resource: e.Resource}
			for _, a := range e.Actions {
				action := Action(a)
				if !ValidAction(action) {
					return nil, fmt.Errorf("authz: policy file: role %q resource %q: unknown action %q", roleName, e.Resource, a)
				}
				perm.Actions = append(perm.Actions, action)
			}
			for _, c := range e.Conditions {
				cond := Condition(c)
				if !ValidCondition(cond) {
					return nil, fmt.Errorf("authz: policy file: role %q resource %q: unknown condition %q", roleName, e.Resource, c)
				}
				perm.Conditions = append(perm.Conditions, cond)
			}
			perms = append(perms, perm)
		}
		p.grants[role] = perms
	}

	for roleName, byType := range pf.Visibility {
		role := Role(roleName)
		if !ValidRole(role) {
			return nil, fmt.Errorf("authz: policy file: unknown role %q in visibility", roleName)
		}
		if p.visibility[role] == nil {
			p.visibility[role] = make(map[string]FieldSet)
		}
		for entityType, v := range byType {
			fs, err := parseFieldSet(v)
			if err != nil {
				return nil, fmt.Errorf("authz: policy file: role %q entity %q: %w", roleName, entityType, err)
			}
			p.visibility[role][entityType] = fs
		}
	}

	return p, nil
}

func parseFieldSet(v any) (FieldSet, error) {
	switch t := v.(type) {
	case string:
		if t == ResourceAll {
			return FieldSet{All: true}, nil
		}
		return FieldSet{}, fmt.Errorf("expected %q or a field list, got %q", ResourceAll, t)
	case []any:
		fs := FieldSet{Fields: make([]string, 0, len(t))}
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return FieldSet{}, fmt.Errorf("field names must be strings, got %T", item)
			}
			fs.Fields = append(fs.Fields, s)
		}
		return fs, nil
	default:
		return FieldSet{}, fmt.Errorf("unsupported visibility value of type %T", v)
	}
}
