// Package ado is a minimal Azure DevOps REST client covering the
// project and work item tracking APIs the MCP tools need.
//
// Authentication uses a Personal Access Token over HTTP basic auth.
// The client is stateless apart from its configuration and is safe for
// concurrent use.
package ado

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiVersion = "7.1"

// Sentinel errors for the backend failure classes callers care to
// distinguish. Wrapped with request detail; test with errors.Is.
var (
	ErrUnauthorized = errors.New("authentication failed, check the personal access token")
	ErrForbidden    = errors.New("access denied, check permissions")
	ErrNotFound     = errors.New("resource not found")
)

// ErrNoProject is returned when an operation needs a project and
// neither the call nor the client configuration supplies one.
var ErrNoProject = errors.New("project must be specified")

// Client talks to one Azure DevOps organization.
type Client struct {
	baseURL string
	pat     string
	project string
	http    *http.Client
}

// NewClient creates a client for an organization. org may be a full
// URL or a bare organization name (expanded to dev.azure.com/<org>).
// project is the default project for operations that don't name one.
func NewClient(org, pat, project string) *Client {
	base := strings.TrimRight(org, "/")
	if !strings.Contains(base, "://") {
		base = "https://dev.azure.com/" + base
	}
	return &Client{
		baseURL: base,
		pat:     pat,
		project: project,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// DefaultProject returns the project the client falls back to.
func (c *Client) DefaultProject() string { return c.project }

// resolveProject applies the default-project fallback.
func (c *Client) resolveProject(project string) (string, error) {
	if project != "" {
		return project, nil
	}
	if c.project != "" {
		return c.project, nil
	}
	return "", ErrNoProject
}

// apiURL builds <base>[/<project>]/_apis/<path>?<query>&api-version=…
func (c *Client) apiURL(project, path string, query url.Values) string {
	var sb strings.Builder
	sb.WriteString(c.baseURL)
	if project != "" {
		sb.WriteString("/")
		sb.WriteString(url.PathEscape(project))
	}
	sb.WriteString("/_apis/")
	sb.WriteString(path)
	if query == nil {
		query = url.Values{}
	}
	if query.Get("api-version") == "" {
		query.Set("api-version", apiVersion)
	}
	sb.WriteString("?")
	sb.WriteString(query.Encode())
	return sb.String()
}

// do issues one request and decodes the JSON response into out (unless
// out is nil). Backend failure classes map to the sentinel errors.
func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(":" + c.pat))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNonAuthoritativeInfo:
		// ADO answers 203 with a sign-in page when the PAT is invalid.
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// valueList is the {count, value: [...]} wrapper most list endpoints use.
type valueList[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

// ─── Projects ────────────────────────────────────────────────────────────────

// ListProjects returns all projects in the organization.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var list valueList[Project]
	if err := c.do(ctx, http.MethodGet, c.apiURL("", "projects", nil), "", nil, &list); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return list.Value, nil
}

// GetProject fetches one project by name or id.
func (c *Client) GetProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodGet, c.apiURL("", "projects/"+url.PathEscape(name), nil), "", nil, &p); err != nil {
		return nil, fmt.Errorf("getting project %q: %w", name, err)
	}
	return &p, nil
}

// GetTeams returns the teams of a project.
func (c *Client) GetTeams(ctx context.Context, project string) ([]Team, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var list valueList[Team]
	u := c.apiURL("", "projects/"+url.PathEscape(project)+"/teams", nil)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &list); err != nil {
		return nil, fmt.Errorf("getting teams for %q: %w", project, err)
	}
	return list.Value, nil
}

// GetAreaPaths returns the flattened area path tree of a project.
func (c *Client) GetAreaPaths(ctx context.Context, project string) ([]PathEntry, error) {
	return c.classificationPaths(ctx, project, "areas")
}

// GetIterationPaths returns the flattened iteration path tree of a
// project, with sprint start/finish dates where configured.
func (c *Client) GetIterationPaths(ctx context.Context, project string) ([]PathEntry, error) {
	return c.classificationPaths(ctx, project, "iterations")
}

func (c *Client) classificationPaths(ctx context.Context, project, group string) ([]PathEntry, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var root ClassificationNode
	q := url.Values{"$depth": {"10"}}
	u := c.apiURL(project, "wit/classificationnodes/"+group, q)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &root); err != nil {
		return nil, fmt.Errorf("getting %s for %q: %w", group, project, err)
	}
	return root.Flatten(""), nil
}

// GetWorkItemTypes returns the work item types available in a project.
func (c *Client) GetWorkItemTypes(ctx context.Context, project string) ([]WorkItemTypeInfo, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var list valueList[WorkItemTypeInfo]
	if err := c.do(ctx, http.MethodGet, c.apiURL(project, "wit/workitemtypes", nil), "", nil, &list); err != nil {
		return nil, fmt.Errorf("getting work item types for %q: %w", project, err)
	}
	return list.Value, nil
}

// GetFields returns the field definitions of a project.
func (c *Client) GetFields(ctx context.Context, project string) ([]FieldInfo, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var list valueList[FieldInfo]
	if err := c.do(ctx, http.MethodGet, c.apiURL(project, "wit/fields", nil), "", nil, &list); err != nil {
		return nil, fmt.Errorf("getting fields for %q: %w", project, err)
	}
	return list.Value, nil
}

// TestConnection verifies credentials by listing projects.
func (c *Client) TestConnection(ctx context.Context) (int, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return 0, err
	}
	return len(projects), nil
}

// ─── Work items ──────────────────────────────────────────────────────────────

// GetWorkItem fetches a single work item by id.
func (c *Client) GetWorkItem(ctx context.Context, id int, project string) (*WorkItem, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var env workItemEnvelope
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id), nil)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &env); err != nil {
		return nil, fmt.Errorf("getting work item %d: %w", id, err)
	}
	wi := env.toWorkItem()
	return &wi, nil
}

// GetWorkItems fetches multiple work items in one batch request.
func (c *Client) GetWorkItems(ctx context.Context, ids []int, project string) ([]WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	q := url.Values{"ids": {strings.Join(parts, ",")}}

	var list valueList[workItemEnvelope]
	if err := c.do(ctx, http.MethodGet, c.apiURL(project, "wit/workitems", q), "", nil, &list); err != nil {
		return nil, fmt.Errorf("getting work items %v: %w", ids, err)
	}

	items := make([]WorkItem, len(list.Value))
	for i, env := range list.Value {
		items[i] = env.toWorkItem()
	}
	return items, nil
}

// wiqlResponse is the reference list a WIQL POST returns; items are
// hydrated with a follow-up batch fetch.
type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

// QueryWorkItems executes a WIQL query and hydrates up to top results.
func (c *Client) QueryWorkItems(ctx context.Context, wiqlText, project string, top int) (*QueryResult, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	if top <= 0 {
		top = 100
	}

	start := time.Now()
	var refs wiqlResponse
	body := map[string]string{"query": wiqlText}
	u := c.apiURL(project, "wit/wiql", nil)
	if err := c.do(ctx, http.MethodPost, u, "", body, &refs); err != nil {
		return nil, fmt.Errorf("executing wiql query: %w", err)
	}

	if len(refs.WorkItems) == 0 {
		return &QueryResult{Query: wiqlText, Elapsed: time.Since(start)}, nil
	}
	if len(refs.WorkItems) > top {
		refs.WorkItems = refs.WorkItems[:top]
	}

	ids := make([]int, len(refs.WorkItems))
	for i, ref := range refs.WorkItems {
		ids[i] = ref.ID
	}
	items, err := c.GetWorkItems(ctx, ids, project)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		WorkItems: items,
		Count:     len(items),
		Query:     wiqlText,
		Elapsed:   time.Since(start),
	}, nil
}

// patchOp is one entry in a JSON Patch document.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

const patchContentType = "application/json-patch+json"

// CreateWorkItem creates a work item of the given type. fields must
// already be keyed by reference name (see fields.ResolveAll).
func (c *Client) CreateWorkItem(ctx context.Context, workItemType, title string, fieldValues map[string]any, project string) (*WorkItem, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}

	doc := []patchOp{{Op: "add", Path: "/fields/System.Title", Value: title}}
	for ref, value := range fieldValues {
		if ref == "System.Title" {
			continue
		}
		doc = append(doc, patchOp{Op: "add", Path: "/fields/" + ref, Value: value})
	}

	var env workItemEnvelope
	u := c.apiURL(project, "wit/workitems/$"+url.PathEscape(workItemType), nil)
	if err := c.do(ctx, http.MethodPost, u, patchContentType, doc, &env); err != nil {
		return nil, fmt.Errorf("creating %s %q: %w", workItemType, title, err)
	}
	wi := env.toWorkItem()
	return &wi, nil
}

// UpdateWorkItem replaces field values on an existing work item.
func (c *Client) UpdateWorkItem(ctx context.Context, id int, fieldValues map[string]any, project string) (*WorkItem, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}

	doc := make([]patchOp, 0, len(fieldValues))
	for ref, value := range fieldValues {
		doc = append(doc, patchOp{Op: "replace", Path: "/fields/" + ref, Value: value})
	}

	var env workItemEnvelope
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id), nil)
	if err := c.do(ctx, http.MethodPatch, u, patchContentType, doc, &env); err != nil {
		return nil, fmt.Errorf("updating work item %d: %w", id, err)
	}
	wi := env.toWorkItem()
	return &wi, nil
}

// DeleteWorkItem moves a work item to the recycle bin.
func (c *Client) DeleteWorkItem(ctx context.Context, id int, project string) error {
	project, err := c.resolveProject(project)
	if err != nil {
		return err
	}
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id), nil)
	if err := c.do(ctx, http.MethodDelete, u, "", nil, nil); err != nil {
		return fmt.Errorf("deleting work item %d: %w", id, err)
	}
	return nil
}

// ─── Comments and history ────────────────────────────────────────────────────

const commentsAPIVersion = "7.1-preview.3"

// GetComments returns the discussion comments of a work item.
func (c *Client) GetComments(ctx context.Context, id int, project string) ([]Comment, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Comments []Comment `json:"comments"`
	}
	q := url.Values{"api-version": {commentsAPIVersion}}
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id)+"/comments", q)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("getting comments for work item %d: %w", id, err)
	}
	return resp.Comments, nil
}

// AddComment appends a comment to a work item's discussion.
func (c *Client) AddComment(ctx context.Context, id int, text, project string) (*Comment, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var comment Comment
	q := url.Values{"api-version": {commentsAPIVersion}}
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id)+"/comments", q)
	if err := c.do(ctx, http.MethodPost, u, "", map[string]string{"text": text}, &comment); err != nil {
		return nil, fmt.Errorf("adding comment to work item %d: %w", id, err)
	}
	return &comment, nil
}

// GetRevisions returns the revision history of a work item, newest last.
func (c *Client) GetRevisions(ctx context.Context, id int, project string) ([]Revision, error) {
	project, err := c.resolveProject(project)
	if err != nil {
		return nil, err
	}
	var list valueList[workItemEnvelope]
	u := c.apiURL(project, "wit/workitems/"+strconv.Itoa(id)+"/revisions", nil)
	if err := c.do(ctx, http.MethodGet, u, "", nil, &list); err != nil {
		return nil, fmt.Errorf("getting revisions for work item %d: %w", id, err)
	}

	revisions := make([]Revision, 0, len(list.Value))
	for _, env := range list.Value {
		wi := env.toWorkItem()
		rev := Revision{
			Rev:   env.Rev,
			Title: wi.Title,
			State: wi.State,
		}
		if wi.ChangedDate != nil {
			rev.ChangedDate = wi.ChangedDate.Format(time.RFC3339)
		}
		if by := identityField(env.Fields["System.ChangedBy"]); by != nil {
			rev.ChangedBy = by.DisplayName
		}
		revisions = append(revisions, rev)
	}
	return revisions, nil
}
