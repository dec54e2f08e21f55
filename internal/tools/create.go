package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/ado-mcp/internal/fields"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateWorkItemTool handles wit_create_work_item.
type CreateWorkItemTool struct {
	backend Backend
}

func NewCreateWorkItemTool(backend Backend) *CreateWorkItemTool {
	return &CreateWorkItemTool{backend: backend}
}

func (t *CreateWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_create_work_item",
		mcp.WithDescription("Create a work item. Field names may be friendly keys "+
			"(description, priority, story_points, assigned_to, tags, ...) or full "+
			"reference names. Supported types: "+strings.Join(fields.WorkItemTypes(), ", ")+
			" plus any custom type the project defines."),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Work item type, e.g. Bug, Task, User Story"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Work item title"),
		),
		mcp.WithObject("fields",
			mcp.Description("Additional field values keyed by friendly name or reference name"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *CreateWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workItemType := strings.TrimSpace(req.GetString("type", ""))
	if workItemType == "" {
		return mcp.NewToolResultError("'type' is required"), nil
	}
	title := strings.TrimSpace(req.GetString("title", ""))
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	project := req.GetString("project", "")

	raw, _ := req.GetArguments()["fields"].(map[string]any)
	resolved, offType := fields.ResolveAll(raw, workItemType)

	wi, err := t.backend.CreateWorkItem(ctx, workItemType, title, resolved, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create %s: %v", workItemType, err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Created %s #%d: %s\n", wi.WorkItemType, wi.ID, wi.Title)
	if wi.URL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", wi.URL)
	}

	// Advisory notes: the backend accepted the item either way.
	if missing := fields.MissingRequired(resolved, workItemType, true); len(missing) > 0 {
		fmt.Fprintf(&sb, "\nNote: commonly expected fields not set: %s\n", strings.Join(missing, ", "))
	}
	if len(offType) > 0 {
		fmt.Fprintf(&sb, "\nNote: fields not native to %s (process customizations may still accept them): %s\n",
			workItemType, strings.Join(offType, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
