package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ListProjectsTool handles ado_list_projects.
type ListProjectsTool struct {
	backend Backend
}

func NewListProjectsTool(backend Backend) *ListProjectsTool {
	return &ListProjectsTool{backend: backend}
}

func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_list_projects",
		mcp.WithDescription("List all projects in the Azure DevOps organization."),
	)
}

func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.backend.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Projects\n\nFound %d project(s):\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&sb, "- **%s**", p.Name)
		if p.State != "" {
			fmt.Fprintf(&sb, " (%s)", p.State)
		}
		if p.Description != "" {
			fmt.Fprintf(&sb, " — %s", p.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// GetProjectTool handles ado_get_project.
type GetProjectTool struct {
	backend Backend
}

func NewGetProjectTool(backend Backend) *GetProjectTool {
	return &GetProjectTool{backend: backend}
}

func (t *GetProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_get_project",
		mcp.WithDescription("Get details of a single project by name or id."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name or id"),
		),
	)
}

func (t *GetProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("project", ""))
	if name == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	p, err := t.backend.GetProject(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get project %q: %v", name, err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Project: %s\n\n", p.Name)
	fmt.Fprintf(&sb, "**ID:** %s\n", p.ID)
	if p.Description != "" {
		fmt.Fprintf(&sb, "**Description:** %s\n", p.Description)
	}
	if p.State != "" {
		fmt.Fprintf(&sb, "**State:** %s\n", p.State)
	}
	if p.Visibility != "" {
		fmt.Fprintf(&sb, "**Visibility:** %s\n", p.Visibility)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// GetTeamsTool handles ado_get_teams.
type GetTeamsTool struct {
	backend Backend
}

func NewGetTeamsTool(backend Backend) *GetTeamsTool {
	return &GetTeamsTool{backend: backend}
}

func (t *GetTeamsTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_get_teams",
		mcp.WithDescription("List the teams of a project."),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetTeamsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	teams, err := t.backend.GetTeams(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get teams: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Teams\n\nFound %d team(s):\n\n", len(teams))
	for _, team := range teams {
		fmt.Fprintf(&sb, "- **%s**", team.Name)
		if team.Description != "" {
			fmt.Fprintf(&sb, " — %s", team.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// GetAreasTool handles ado_get_areas.
type GetAreasTool struct {
	backend Backend
}

func NewGetAreasTool(backend Backend) *GetAreasTool {
	return &GetAreasTool{backend: backend}
}

func (t *GetAreasTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_get_areas",
		mcp.WithDescription("List the area paths of a project as a flattened tree."),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetAreasTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	areas, err := t.backend.GetAreaPaths(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get area paths: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Area Paths\n\n")
	for _, area := range areas {
		fmt.Fprintf(&sb, "- %s\n", area.Path)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// GetIterationsTool handles ado_get_iterations.
type GetIterationsTool struct {
	backend Backend
}

func NewGetIterationsTool(backend Backend) *GetIterationsTool {
	return &GetIterationsTool{backend: backend}
}

func (t *GetIterationsTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_get_iterations",
		mcp.WithDescription("List the iteration paths (sprints) of a project with start/finish dates where configured."),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetIterationsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	iterations, err := t.backend.GetIterationPaths(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get iteration paths: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Iterations\n\n")
	for _, it := range iterations {
		fmt.Fprintf(&sb, "- %s", it.Path)
		if it.StartDate != "" || it.FinishDate != "" {
			fmt.Fprintf(&sb, " (%s → %s)", shortDate(it.StartDate), shortDate(it.FinishDate))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// shortDate trims an ISO timestamp down to its date part.
func shortDate(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}

// GetWorkItemTypesTool handles ado_get_work_item_types.
type GetWorkItemTypesTool struct {
	backend Backend
}

func NewGetWorkItemTypesTool(backend Backend) *GetWorkItemTypesTool {
	return &GetWorkItemTypesTool{backend: backend}
}

func (t *GetWorkItemTypesTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_get_work_item_types",
		mcp.WithDescription("List the work item types available in a project."),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetWorkItemTypesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	types, err := t.backend.GetWorkItemTypes(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get work item types: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Work Item Types\n\n")
	for _, wit := range types {
		if wit.IsDisabled {
			continue
		}
		fmt.Fprintf(&sb, "- **%s**", wit.Name)
		if wit.Description != "" {
			fmt.Fprintf(&sb, " — %s", wit.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// GetFieldsTool handles ado_get_fields.
type GetFieldsTool struct {
	backend Backend
}

func NewGetFieldsTool(backend Backend) *GetFieldsTool {
	return &GetFieldsTool{backend: backend}
}

func (t *GetFieldsTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_get_fields",
		mcp.WithDescription("List the work item field definitions of a project."),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
		mcp.WithString("filter",
			mcp.Description("Case-insensitive substring to match against field name or reference name"),
		),
	)
}

func (t *GetFieldsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	filter := strings.ToLower(strings.TrimSpace(req.GetString("filter", "")))

	defs, err := t.backend.GetFields(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get fields: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Fields\n\n")
	count := 0
	for _, f := range defs {
		if filter != "" &&
			!strings.Contains(strings.ToLower(f.Name), filter) &&
			!strings.Contains(strings.ToLower(f.ReferenceName), filter) {
			continue
		}
		fmt.Fprintf(&sb, "- **%s** (`%s`, %s)\n", f.Name, f.ReferenceName, f.Type)
		count++
	}
	if count == 0 {
		sb.WriteString("No fields matched.\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// TestConnectionTool handles ado_test_connection.
type TestConnectionTool struct {
	backend Backend
}

func NewTestConnectionTool(backend Backend) *TestConnectionTool {
	return &TestConnectionTool{backend: backend}
}

func (t *TestConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("ado_test_connection",
		mcp.WithDescription("Verify that the configured organization and personal access token work."),
	)
}

func (t *TestConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := t.backend.TestConnection(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("connection failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Connection OK — %d project(s) visible.", count)), nil
}
