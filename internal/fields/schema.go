package fields

import "crm-platform/internal/authz"

// Entity schema registry: the known fields and required fields per entity
// type. The access policy is computed over this set, so a field missing here
// simply does not exist as far as the UI contract is concerned.

var entityFields = map[string][]string{
	authz.ResourceAccounts: {
		"id", "name", "industry", "website", "phone", "status",
		"annual_revenue", "credit_limit", "billing_address",
		"owner_id", "team_id", "created_by", "created_at", "updated_at",
	},
	authz.ResourceContacts: {
		"id", "first_name", "last_name", "email", "phone", "title",
		"account_id", "owner_id", "created_by", "created_at", "updated_at",
	},
	authz.ResourceDeals: {
		"id", "title", "stage", "amount", "margin", "commission",
		"account_id", "owner_id", "assigned_to", "close_date",
		"created_by", "created_at", "updated_at",
	},
	authz.ResourceTickets: {
		"id", "subject", "description", "status", "priority",
		"account_id", "assigned_to", "created_by", "created_at", "updated_at",
	},
	authz.ResourceUsers: {
		"id", "name", "email", "role", "team_id", "password_hash",
		"created_at", "updated_at",
	},
	authz.ResourceTeams: {
		"id", "name", "manager_id", "created_at", "updated_at",
	},
	authz.ResourceReports: {
		"id", "title", "type", "is_public", "definition",
		"created_by", "created_at", "updated_at",
	},
}

var requiredFields = map[string][]string{
	authz.ResourceAccounts: {"name"},
	authz.ResourceContacts: {"first_name", "last_name"},
	authz.ResourceDeals:    {"title", "stage", "account_id"},
	authz.ResourceTickets:  {"subject", "status", "priority"},
	authz.ResourceUsers:    {"name", "email", "role"},
	authz.ResourceTeams:    {"name"},
	authz.ResourceReports:  {"title", "type"},
}

// System fields are identity/timestamp fields; only admin edits them.
var systemFields = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
	"created_by": {},
}

// Ownership fields that managers may not reassign. Admin only.
var ownershipFields = map[string]struct{}{
	"owner_id":    {},
	"assigned_to": {},
	"team_id":     {},
	"manager_id":  {},
}

// Financial fields that agents may not edit.
var financialFields = map[string]struct{}{
	"annual_revenue": {},
	"credit_limit":   {},
	"amount":         {},
	"margin":         {},
	"commission":     {},
}

// Secret fields hold credential material and must never leave the request
// path in the clear, including inside audit snapshots.
var secretFields = map[string]struct{}{
	"password_hash": {},
}

// SecretFields lists the registered fields of entityType whose values must be
// masked before recording or logging.
func SecretFields(entityType string) []string {
	var out []string
	for _, f := range entityFields[entityType] {
		if _, ok := secretFields[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// KnownFields returns the registered field list for an entity type, or nil for
// an unknown type.
func KnownFields(entityType string) []string {
	return entityFields[entityType]
}

func isRequired(entityType, field string) bool {
	for _, f := range requiredFields[entityType] {
		if f == field {
			return true
		}
	}
	return false
}

func isSystemField(field string) bool {
	_, ok := systemFields[field]
	return ok
}

// roleRestricted encodes per-role write limits beyond visibility:
//   - viewers edit nothing
//   - agents cannot touch financial, ownership, or user-management fields
//   - managers cannot reassign ownership fields and cannot manage users
//   - admin has no restrictions here (system fields are handled separately)
func roleRestricted(role authz.Role, entityType, field string) bool {
	switch role {
	case authz.RoleAdmin:
		return false
	case authz.RoleViewer:
		return true
	case authz.RoleAgent:
		if entityType == authz.ResourceUsers && field != "name" && field != "email" {
			return true
		}
		if _, ok := financialFields[field]; ok {
			return true
		}
		if _, ok := ownershipFields[field]; ok {
			return true
		}
		return false
	case authz.RoleManager:
		if entityType == authz.ResourceUsers && (field == "role" || field == "password_hash") {
			return true
		}
		if _, ok := ownershipFields[field]; ok {
			return true
		}
		return false
	default:
		return true
	}
}
