package fields

import "sort"

// ResolveAll prepares a caller-supplied field map for a create or
// update call: nil-valued entries are dropped, canonical keys are
// resolved to field references, and each value is coerced to the
// field's type.
//
// The second return value lists resolved references that are not native
// to the given work item type. It is advisory only — every entry is
// still present in the returned map, because process customizations
// routinely add fields the static catalog doesn't know about.
func ResolveAll(in map[string]any, workItemType string) (map[string]any, []string) {
	resolved := make(map[string]any, len(in))
	var offType []string

	for name, value := range in {
		if value == nil {
			continue
		}
		ref := Resolve(name)
		resolved[ref] = Coerce(ref, value)
		if !IsValidFor(ref, workItemType) {
			offType = append(offType, ref)
		}
	}
	sort.Strings(offType)
	return resolved, offType
}

// MissingRequired reports which of the type's required fields are
// absent from an already-resolved field map. The title is supplied
// separately on creation, so callers typically pass excludeTitle=true.
func MissingRequired(resolved map[string]any, workItemType string, excludeTitle bool) []string {
	var missing []string
	for _, ref := range RequiredFields(workItemType) {
		if excludeTitle && ref == RefTitle {
			continue
		}
		if _, ok := resolved[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	return missing
}
