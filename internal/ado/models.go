package ado

import (
	"strings"
	"time"
)

// User is an Azure DevOps identity reference.
type User struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	UniqueName  string `json:"uniqueName,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Project is an Azure DevOps team project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	State       string `json:"state,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// Team is a team within a project.
type Team struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
}

// WorkItem is a work item with its raw field map plus the handful of
// fields every caller wants promoted to struct members. Fields keeps
// the complete backend payload keyed by reference name, so nothing is
// lost for callers that need the long tail.
type WorkItem struct {
	ID            int            `json:"id"`
	Rev           int            `json:"rev,omitempty"`
	URL           string         `json:"url,omitempty"`
	Title         string         `json:"title"`
	WorkItemType  string         `json:"work_item_type"`
	State         string         `json:"state"`
	AssignedTo    *User          `json:"assigned_to,omitempty"`
	CreatedBy     *User          `json:"created_by,omitempty"`
	CreatedDate   *time.Time     `json:"created_date,omitempty"`
	ChangedDate   *time.Time     `json:"changed_date,omitempty"`
	AreaPath      string         `json:"area_path,omitempty"`
	IterationPath string         `json:"iteration_path,omitempty"`
	Description   string         `json:"description,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
}

// workItemEnvelope is the raw REST shape before field promotion.
type workItemEnvelope struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	URL    string         `json:"url"`
	Fields map[string]any `json:"fields"`
}

func (e workItemEnvelope) toWorkItem() WorkItem {
	wi := WorkItem{
		ID:     e.ID,
		Rev:    e.Rev,
		URL:    e.URL,
		Fields: e.Fields,
	}
	f := e.Fields
	wi.Title, _ = f["System.Title"].(string)
	wi.WorkItemType, _ = f["System.WorkItemType"].(string)
	wi.State, _ = f["System.State"].(string)
	wi.AreaPath, _ = f["System.AreaPath"].(string)
	wi.IterationPath, _ = f["System.IterationPath"].(string)
	wi.Description, _ = f["System.Description"].(string)
	wi.AssignedTo = identityField(f["System.AssignedTo"])
	wi.CreatedBy = identityField(f["System.CreatedBy"])
	wi.CreatedDate = dateField(f["System.CreatedDate"])
	wi.ChangedDate = dateField(f["System.ChangedDate"])
	if tags, ok := f["System.Tags"].(string); ok {
		wi.Tags = splitTags(tags)
	}
	return wi
}

// identityField decodes the map shape the REST API uses for identity
// fields. Non-map values (rare, from older process templates) are
// treated as a bare display name.
func identityField(v any) *User {
	switch id := v.(type) {
	case map[string]any:
		u := &User{}
		u.ID, _ = id["id"].(string)
		u.DisplayName, _ = id["displayName"].(string)
		u.UniqueName, _ = id["uniqueName"].(string)
		u.ImageURL, _ = id["imageUrl"].(string)
		return u
	case string:
		if id == "" {
			return nil
		}
		return &User{DisplayName: id}
	}
	return nil
}

// dateField parses an RFC 3339 timestamp, returning nil on anything it
// can't parse — field promotion must never fail a fetch.
func dateField(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &ts
}

// splitTags splits the backend's "a; b; c" tag string.
func splitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ";") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// FloatField returns a numeric raw field as float64 (0 when absent or
// non-numeric). Rollup tools use this for story points and work fields.
func (w WorkItem) FloatField(ref string) float64 {
	switch v := w.Fields[ref].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

// QueryResult is the outcome of a WIQL query: the hydrated items plus
// the query text that produced them.
type QueryResult struct {
	WorkItems []WorkItem    `json:"work_items"`
	Count     int           `json:"count"`
	Query     string        `json:"query,omitempty"`
	Elapsed   time.Duration `json:"-"`
}

// ClassificationNode is a node in the area or iteration tree.
type ClassificationNode struct {
	ID         int                  `json:"id"`
	Name       string               `json:"name"`
	Attributes map[string]any       `json:"attributes,omitempty"`
	Children   []ClassificationNode `json:"children,omitempty"`
}

// PathEntry is a flattened classification node with its full path.
type PathEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	HasChildren bool   `json:"has_children"`
	StartDate   string `json:"start_date,omitempty"`
	FinishDate  string `json:"finish_date,omitempty"`
}

// Flatten walks the tree depth-first, producing backslash-joined paths
// the way WIQL UNDER clauses expect them.
func (n ClassificationNode) Flatten(parentPath string) []PathEntry {
	path := n.Name
	if parentPath != "" {
		path = parentPath + `\` + n.Name
	}
	entry := PathEntry{
		ID:          n.ID,
		Name:        n.Name,
		Path:        path,
		HasChildren: len(n.Children) > 0,
	}
	if s, ok := n.Attributes["startDate"].(string); ok {
		entry.StartDate = s
	}
	if s, ok := n.Attributes["finishDate"].(string); ok {
		entry.FinishDate = s
	}
	entries := []PathEntry{entry}
	for _, child := range n.Children {
		entries = append(entries, child.Flatten(path)...)
	}
	return entries
}

// WorkItemTypeInfo describes a work item type available in a project.
type WorkItemTypeInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	IsDisabled  bool   `json:"isDisabled,omitempty"`
}

// FieldInfo describes a field definition in a project.
type FieldInfo struct {
	Name          string `json:"name"`
	ReferenceName string `json:"referenceName"`
	Description   string `json:"description,omitempty"`
	Type          string `json:"type,omitempty"`
	Usage         string `json:"usage,omitempty"`
	ReadOnly      bool   `json:"readOnly,omitempty"`
	IsQueryable   bool   `json:"isQueryable,omitempty"`
}

// Comment is a work item discussion comment.
type Comment struct {
	ID           int    `json:"id"`
	Text         string `json:"text"`
	CreatedBy    *User  `json:"createdBy,omitempty"`
	CreatedDate  string `json:"createdDate,omitempty"`
	ModifiedBy   *User  `json:"modifiedBy,omitempty"`
	ModifiedDate string `json:"modifiedDate,omitempty"`
}

// Revision is a compact view of one entry in a work item's history.
type Revision struct {
	Rev         int    `json:"rev"`
	Title       string `json:"title,omitempty"`
	State       string `json:"state,omitempty"`
	ChangedBy   string `json:"changed_by,omitempty"`
	ChangedDate string `json:"changed_date,omitempty"`
}
