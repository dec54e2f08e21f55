// Package tools implements the MCP tool handlers for Azure DevOps work
// item tracking.
//
// Each tool is a struct that receives its dependencies on construction
// and exposes Definition/Handle for registration. Tools depend on the
// Backend interface rather than the concrete REST client so tests can
// run against a fake.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/ado-mcp/internal/ado"
)

// Backend is the slice of the Azure DevOps client the tools use.
type Backend interface {
	ListProjects(ctx context.Context) ([]ado.Project, error)
	GetProject(ctx context.Context, name string) (*ado.Project, error)
	GetTeams(ctx context.Context, project string) ([]ado.Team, error)
	GetAreaPaths(ctx context.Context, project string) ([]ado.PathEntry, error)
	GetIterationPaths(ctx context.Context, project string) ([]ado.PathEntry, error)
	GetWorkItemTypes(ctx context.Context, project string) ([]ado.WorkItemTypeInfo, error)
	GetFields(ctx context.Context, project string) ([]ado.FieldInfo, error)
	TestConnection(ctx context.Context) (int, error)

	GetWorkItem(ctx context.Context, id int, project string) (*ado.WorkItem, error)
	GetWorkItems(ctx context.Context, ids []int, project string) ([]ado.WorkItem, error)
	QueryWorkItems(ctx context.Context, wiql, project string, top int) (*ado.QueryResult, error)
	CreateWorkItem(ctx context.Context, workItemType, title string, fields map[string]any, project string) (*ado.WorkItem, error)
	UpdateWorkItem(ctx context.Context, id int, fields map[string]any, project string) (*ado.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id int, project string) error

	GetComments(ctx context.Context, id int, project string) ([]ado.Comment, error)
	AddComment(ctx context.Context, id int, text, project string) (*ado.Comment, error)
	GetRevisions(ctx context.Context, id int, project string) ([]ado.Revision, error)
}

// userName renders an identity for display.
func userName(u *ado.User) string {
	if u == nil || u.DisplayName == "" {
		return "Unassigned"
	}
	return u.DisplayName
}

// formatWorkItemLine renders one work item as a compact list entry.
func formatWorkItemLine(wi ado.WorkItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "- **#%d** [%s] %s", wi.ID, wi.WorkItemType, wi.Title)
	if wi.State != "" {
		fmt.Fprintf(&sb, " — %s", wi.State)
	}
	if wi.AssignedTo != nil {
		fmt.Fprintf(&sb, " (%s)", wi.AssignedTo.DisplayName)
	}
	return sb.String()
}

// formatWorkItemList renders a heading plus one line per item.
func formatWorkItemList(heading string, items []ado.WorkItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", heading)
	if len(items) == 0 {
		sb.WriteString("No work items found.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Found %d work item(s):\n\n", len(items))
	for _, wi := range items {
		sb.WriteString(formatWorkItemLine(wi))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatWorkItemDetail renders the full single-item view.
func formatWorkItemDetail(wi *ado.WorkItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Work Item #%d\n\n", wi.ID)
	fmt.Fprintf(&sb, "**Title:** %s\n", wi.Title)
	fmt.Fprintf(&sb, "**Type:** %s\n", wi.WorkItemType)
	fmt.Fprintf(&sb, "**State:** %s\n", wi.State)
	fmt.Fprintf(&sb, "**Assigned To:** %s\n", userName(wi.AssignedTo))
	if wi.AreaPath != "" {
		fmt.Fprintf(&sb, "**Area:** %s\n", wi.AreaPath)
	}
	if wi.IterationPath != "" {
		fmt.Fprintf(&sb, "**Iteration:** %s\n", wi.IterationPath)
	}
	if len(wi.Tags) > 0 {
		fmt.Fprintf(&sb, "**Tags:** %s\n", strings.Join(wi.Tags, ", "))
	}
	if wi.CreatedBy != nil {
		fmt.Fprintf(&sb, "**Created By:** %s\n", wi.CreatedBy.DisplayName)
	}
	if wi.CreatedDate != nil {
		fmt.Fprintf(&sb, "**Created:** %s\n", wi.CreatedDate.Format("2006-01-02 15:04"))
	}
	if wi.ChangedDate != nil {
		fmt.Fprintf(&sb, "**Changed:** %s\n", wi.ChangedDate.Format("2006-01-02 15:04"))
	}
	if wi.Description != "" {
		fmt.Fprintf(&sb, "\n### Description\n\n%s\n", wi.Description)
	}
	return sb.String()
}
