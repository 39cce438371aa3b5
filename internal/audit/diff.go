package audit

import (
	"reflect"
	"sort"
)

// ComputeDiff compares before and after over the union of their top-level
// keys. Values are compared as opaque wholes: a change inside a nested object
// is reported only as "this key changed", not which sub-field changed.
// Changes are ordered by field name so the result is deterministic.
//
// Returns nil when both maps are nil (nothing to diff).
func ComputeDiff(before, after map[string]any) *Diff {
	if before == nil && after == nil {
		return nil
	}

	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	d := &Diff{Before: before, After: after, Changes: []FieldChange{}}
	for _, k := range ordered {
		oldV, hadOld := before[k]
		newV, hasNew := after[k]
		if hadOld && hasNew && reflect.DeepEqual(oldV, newV) {
			continue
		}
		if !hadOld && !hasNew {
			continue
		}
		d.Changes = append(d.Changes, FieldChange{Field: k, OldValue: oldV, NewValue: newV})
	}
	return d
}

// redactedValue replaces secret values in persisted snapshots. The field still
// appears in Changes when it changed; only the values are withheld.
const redactedValue = "[REDACTED]"

// redacted returns a copy of the diff with the named fields' values masked in
// the snapshots and in the change list. The input diff and the caller's maps
// are left untouched.
func (d *Diff) redacted(fields []string) *Diff {
	mask := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		mask[f] = struct{}{}
	}

	out := &Diff{
		Before:  maskSnapshot(d.Before, mask),
		After:   maskSnapshot(d.After, mask),
		Changes: make([]FieldChange, len(d.Changes)),
	}
	for i, c := range d.Changes {
		if _, ok := mask[c.Field]; ok {
			if c.OldValue != nil {
				c.OldValue = redactedValue
			}
			if c.NewValue != nil {
				c.NewValue = redactedValue
			}
		}
		out.Changes[i] = c
	}
	return out
}

func maskSnapshot(m map[string]any, mask map[string]struct{}) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := mask[k]; ok {
			out[k] = redactedValue
		} else {
			out[k] = v
		}
	}
	return out
}
