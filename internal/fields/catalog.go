// Package fields maps between short canonical field names and Azure
// DevOps fully-qualified field reference names, and coerces field
// values to the type the backend expects.
//
// The whole package is a set of pure functions over immutable tables
// built at init. Lookups are deliberately permissive: an unknown name
// passes through unchanged, a value that can't be coerced is returned
// as-is. Callers that need to know whether a name was recognized use
// Lookup instead of Resolve.
package fields

import (
	"sort"
	"strings"
)

// FieldType tags a field reference with its backend value type.
type FieldType string

const (
	TypeInteger   FieldType = "integer"
	TypeDouble    FieldType = "double"
	TypeString    FieldType = "string"
	TypePlainText FieldType = "plaintext"
	TypeHTML      FieldType = "html"
	TypeDateTime  FieldType = "datetime"
	TypeIdentity  FieldType = "identity"
	TypeTreePath  FieldType = "treepath"
)

// Frequently referenced field names.
const (
	RefTitle         = "System.Title"
	RefDescription   = "System.Description"
	RefState         = "System.State"
	RefWorkItemType  = "System.WorkItemType"
	RefAssignedTo    = "System.AssignedTo"
	RefCreatedBy     = "System.CreatedBy"
	RefChangedBy     = "System.ChangedBy"
	RefCreatedDate   = "System.CreatedDate"
	RefChangedDate   = "System.ChangedDate"
	RefAreaPath      = "System.AreaPath"
	RefIterationPath = "System.IterationPath"
	RefTags          = "System.Tags"
	RefPriority      = "Microsoft.VSTS.Common.Priority"
	RefStoryPoints   = "Microsoft.VSTS.Scheduling.StoryPoints"
	RefRemainingWork = "Microsoft.VSTS.Scheduling.RemainingWork"
	RefCompletedWork = "Microsoft.VSTS.Scheduling.CompletedWork"
	RefReproSteps    = "Microsoft.VSTS.TCM.ReproSteps"
	RefTestSteps     = "Microsoft.VSTS.TCM.Steps"
)

// canonical maps short lowercase names to reference names. This is the
// vocabulary the MCP tools expose to callers; it stays stable across
// backend versions.
var canonical = map[string]string{
	// System fields
	"id":                  "System.Id",
	"title":               RefTitle,
	"description":         RefDescription,
	"state":               RefState,
	"reason":              "System.Reason",
	"assigned_to":         RefAssignedTo,
	"created_by":          RefCreatedBy,
	"changed_by":          RefChangedBy,
	"created_date":        RefCreatedDate,
	"changed_date":        RefChangedDate,
	"work_item_type":      RefWorkItemType,
	"area_path":           RefAreaPath,
	"iteration_path":      RefIterationPath,
	"tags":                RefTags,
	"history":             "System.History",
	"rev":                 "System.Rev",
	"authorized_date":     "System.AuthorizedDate",
	"watermark":           "System.Watermark",
	"comment_count":       "System.CommentCount",
	"hyperlink_count":     "System.HyperLinkCount",
	"attachment_count":    "System.AttachedFileCount",
	"external_link_count": "System.ExternalLinkCount",
	"related_link_count":  "System.RelatedLinkCount",
	"node_name":           "System.NodeName",
	"area_id":             "System.AreaId",
	"area_level1":         "System.AreaLevel1",
	"area_level2":         "System.AreaLevel2",
	"area_level3":         "System.AreaLevel3",
	"area_level4":         "System.AreaLevel4",
	"iteration_id":        "System.IterationId",
	"iteration_level1":    "System.IterationLevel1",
	"iteration_level2":    "System.IterationLevel2",
	"iteration_level3":    "System.IterationLevel3",
	"iteration_level4":    "System.IterationLevel4",

	// Microsoft.VSTS.Common
	"priority":            RefPriority,
	"severity":            "Microsoft.VSTS.Common.Severity",
	"value_area":          "Microsoft.VSTS.Common.ValueArea",
	"risk":                "Microsoft.VSTS.Common.Risk",
	"stack_rank":          "Microsoft.VSTS.Common.StackRank",
	"business_value":      "Microsoft.VSTS.Common.BusinessValue",
	"time_criticality":    "Microsoft.VSTS.Common.TimeCriticality",
	"triage":              "Microsoft.VSTS.Common.Triage",
	"acceptance_criteria": "Microsoft.VSTS.Common.AcceptanceCriteria",
	"activity":            "Microsoft.VSTS.Common.Activity",
	"discipline":          "Microsoft.VSTS.Common.Discipline",
	"resolution":          "Microsoft.VSTS.Common.Resolution",
	"state_change_date":   "Microsoft.VSTS.Common.StateChangeDate",
	"activated_date":      "Microsoft.VSTS.Common.ActivatedDate",
	"activated_by":        "Microsoft.VSTS.Common.ActivatedBy",
	"resolved_date":       "Microsoft.VSTS.Common.ResolvedDate",
	"resolved_by":         "Microsoft.VSTS.Common.ResolvedBy",
	"resolved_reason":     "Microsoft.VSTS.Common.ResolvedReason",
	"closed_date":         "Microsoft.VSTS.Common.ClosedDate",
	"closed_by":           "Microsoft.VSTS.Common.ClosedBy",
	"rating":              "Microsoft.VSTS.Common.Rating",

	// Microsoft.VSTS.Scheduling
	"story_points":      RefStoryPoints,
	"effort":            "Microsoft.VSTS.Scheduling.Effort",
	"original_estimate": "Microsoft.VSTS.Scheduling.OriginalEstimate",
	"remaining_work":    RefRemainingWork,
	"completed_work":    RefCompletedWork,
	"start_date":        "Microsoft.VSTS.Scheduling.StartDate",
	"finish_date":       "Microsoft.VSTS.Scheduling.FinishDate",
	"due_date":          "Microsoft.VSTS.Scheduling.DueDate",
	"target_date":       "Microsoft.VSTS.Scheduling.TargetDate",
	"baseline_work":     "Microsoft.VSTS.Scheduling.BaselineWork",
	"size":              "Microsoft.VSTS.Scheduling.Size",

	// Microsoft.VSTS.Build
	"integration_build": "Microsoft.VSTS.Build.IntegrationBuild",
	"found_in":          "Microsoft.VSTS.Build.FoundIn",

	// Microsoft.VSTS.TCM
	"test_suite_type":        "Microsoft.VSTS.TCM.TestSuiteType",
	"test_suite_type_id":     "Microsoft.VSTS.TCM.TestSuiteTypeId",
	"query_text":             "Microsoft.VSTS.TCM.QueryText",
	"parameters":             "Microsoft.VSTS.TCM.Parameters",
	"local_data_source":      "Microsoft.VSTS.TCM.LocalDataSource",
	"automated_test_name":    "Microsoft.VSTS.TCM.AutomatedTestName",
	"automated_test_storage": "Microsoft.VSTS.TCM.AutomatedTestStorage",
	"automated_test_id":      "Microsoft.VSTS.TCM.AutomatedTestId",
	"automated_test_type":    "Microsoft.VSTS.TCM.AutomatedTestType",
	"steps":                  RefTestSteps,
	"repro_steps":            RefReproSteps,
	"system_info":            "Microsoft.VSTS.TCM.SystemInfo",
}

// display is the reverse of canonical. A reference name reached by more
// than one canonical key resolves to the alphabetically first key, so
// the preferred alias is deterministic.
var display = buildDisplay()

func buildDisplay() map[string]string {
	keys := make([]string, 0, len(canonical))
	for k := range canonical {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rev := make(map[string]string, len(keys))
	for _, k := range keys {
		ref := canonical[k]
		if _, exists := rev[ref]; !exists {
			rev[ref] = k
		}
	}
	return rev
}

// fieldTypes tags references with their backend value type. Anything
// not listed is treated as a plain string.
var fieldTypes = map[string]FieldType{
	"System.Id":          TypeInteger,
	RefTitle:             TypeString,
	RefDescription:       TypeHTML,
	RefState:             TypeString,
	RefAssignedTo:        TypeIdentity,
	RefCreatedBy:         TypeIdentity,
	RefChangedBy:         TypeIdentity,
	RefCreatedDate:       TypeDateTime,
	RefChangedDate:       TypeDateTime,
	RefWorkItemType:      TypeString,
	RefAreaPath:          TypeTreePath,
	RefIterationPath:     TypeTreePath,
	RefTags:              TypePlainText,
	RefPriority:          TypeInteger,
	"Microsoft.VSTS.Common.Severity":             TypeString,
	RefStoryPoints:                               TypeDouble,
	"Microsoft.VSTS.Scheduling.Effort":           TypeDouble,
	"Microsoft.VSTS.Scheduling.OriginalEstimate": TypeDouble,
	RefRemainingWork:                             TypeDouble,
	RefCompletedWork:                             TypeDouble,
	"Microsoft.VSTS.Scheduling.StartDate":        TypeDateTime,
	"Microsoft.VSTS.Scheduling.FinishDate":       TypeDateTime,
	"Microsoft.VSTS.Scheduling.DueDate":          TypeDateTime,
	"Microsoft.VSTS.Scheduling.TargetDate":       TypeDateTime,
	"Microsoft.VSTS.Common.AcceptanceCriteria":   TypeHTML,
	RefReproSteps:                                TypeHTML,
	RefTestSteps:                                 TypeHTML,
	"Microsoft.VSTS.Common.BusinessValue":        TypeInteger,
	"Microsoft.VSTS.Common.TimeCriticality":      TypeDouble,
	"Microsoft.VSTS.Common.StackRank":            TypeDouble,
}

// nativeFields lists the non-System fields that belong to each work
// item type out of the box. Advisory only — see IsValidFor.
var nativeFields = map[string][]string{
	"Bug": {
		RefReproSteps,
		"Microsoft.VSTS.TCM.SystemInfo",
		"Microsoft.VSTS.Common.Severity",
		RefPriority,
		"Microsoft.VSTS.Build.FoundIn",
		"Microsoft.VSTS.Build.IntegrationBuild",
	},
	"Task": {
		RefRemainingWork,
		RefCompletedWork,
		"Microsoft.VSTS.Scheduling.OriginalEstimate",
		"Microsoft.VSTS.Common.Activity",
		"Microsoft.VSTS.Common.Discipline",
	},
	"User Story": {
		RefStoryPoints,
		"Microsoft.VSTS.Common.AcceptanceCriteria",
		RefPriority,
		"Microsoft.VSTS.Common.ValueArea",
		"Microsoft.VSTS.Common.Risk",
		"Microsoft.VSTS.Common.BusinessValue",
	},
	"Feature": {
		"Microsoft.VSTS.Scheduling.Effort",
		"Microsoft.VSTS.Common.BusinessValue",
		"Microsoft.VSTS.Common.TimeCriticality",
		"Microsoft.VSTS.Scheduling.TargetDate",
		"Microsoft.VSTS.Common.ValueArea",
	},
	"Epic": {
		"Microsoft.VSTS.Scheduling.Effort",
		"Microsoft.VSTS.Common.BusinessValue",
		"Microsoft.VSTS.Scheduling.StartDate",
		"Microsoft.VSTS.Scheduling.TargetDate",
		"Microsoft.VSTS.Common.ValueArea",
	},
	"Test Case": {
		RefTestSteps,
		"Microsoft.VSTS.TCM.Parameters",
		"Microsoft.VSTS.TCM.LocalDataSource",
		"Microsoft.VSTS.TCM.AutomatedTestName",
		"Microsoft.VSTS.TCM.AutomatedTestStorage",
		"Microsoft.VSTS.TCM.AutomatedTestType",
		RefPriority,
	},
}

// WorkItemTypes returns the work item types with a native field set,
// sorted for stable output.
func WorkItemTypes() []string {
	types := make([]string, 0, len(nativeFields))
	for t := range nativeFields {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Resolve maps a canonical name to its field reference. The lookup is
// case-insensitive. Unknown names come back unchanged, which lets
// callers pass reference names ("System.Title") straight through.
func Resolve(name string) string {
	ref, _ := Lookup(name)
	return ref
}

// Lookup is Resolve plus a flag reporting whether the input was a known
// canonical name (true) or passed through as-is (false).
func Lookup(name string) (string, bool) {
	if ref, ok := canonical[strings.ToLower(name)]; ok {
		return ref, true
	}
	return name, false
}

// DisplayKey maps a field reference back to its preferred canonical
// name. References without an alias come back unchanged.
func DisplayKey(ref string) string {
	if key, ok := display[ref]; ok {
		return key
	}
	return ref
}

// TypeOf returns the value type for a field reference, defaulting to
// string for unknown references.
func TypeOf(ref string) FieldType {
	if t, ok := fieldTypes[ref]; ok {
		return t
	}
	return TypeString
}

// NativeFields returns the type-specific field references for a work
// item type, or nil for unrecognized types.
func NativeFields(workItemType string) []string {
	refs := nativeFields[workItemType]
	if refs == nil {
		return nil
	}
	out := make([]string, len(refs))
	copy(out, refs)
	return out
}

// IsValidFor reports whether a field applies to a work item type.
// System fields apply everywhere; everything else is a membership test
// against the type's native set. The result is advisory — callers are
// free to send the field anyway and let the backend decide.
func IsValidFor(ref, workItemType string) bool {
	if strings.HasPrefix(ref, "System.") {
		return true
	}
	for _, f := range nativeFields[workItemType] {
		if f == ref {
			return true
		}
	}
	return false
}

// RequiredFields returns the fields that must be supplied when creating
// a work item of the given type. Title is always required; Bug and Test
// Case each add one type-specific field.
func RequiredFields(workItemType string) []string {
	required := []string{RefTitle}
	switch workItemType {
	case "Bug":
		required = append(required, RefReproSteps)
	case "Test Case":
		required = append(required, RefTestSteps)
	}
	return required
}
