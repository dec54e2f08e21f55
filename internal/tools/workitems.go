package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/ado-mcp/internal/cache"
	"github.com/HendryAvila/ado-mcp/internal/fields"
	"github.com/mark3labs/mcp-go/mcp"
)

// GetWorkItemTool handles wit_get_work_item.
type GetWorkItemTool struct {
	backend Backend
	recent  *cache.Store
}

// NewGetWorkItemTool creates the tool. recent may be nil when the local
// cache is disabled; views are then simply not recorded.
func NewGetWorkItemTool(backend Backend, recent *cache.Store) *GetWorkItemTool {
	return &GetWorkItemTool{backend: backend, recent: recent}
}

func (t *GetWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_get_work_item",
		mcp.WithDescription("Get a work item by id with its details."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive work item id"), nil
	}
	project := req.GetString("project", "")

	wi, err := t.backend.GetWorkItem(ctx, id, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get work item %d: %v", id, err)), nil
	}

	if t.recent != nil {
		// Best effort: a cache failure never fails the read.
		_ = t.recent.Touch(cache.Entry{
			ID:           wi.ID,
			Project:      project,
			Title:        wi.Title,
			WorkItemType: wi.WorkItemType,
			State:        wi.State,
		})
	}

	return mcp.NewToolResultText(formatWorkItemDetail(wi)), nil
}

// GetWorkItemsTool handles wit_get_work_items (batch fetch).
type GetWorkItemsTool struct {
	backend Backend
}

func NewGetWorkItemsTool(backend Backend) *GetWorkItemsTool {
	return &GetWorkItemsTool{backend: backend}
}

func (t *GetWorkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_get_work_items",
		mcp.WithDescription("Get multiple work items by id in one call."),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated work item ids, e.g. \"101,102,103\""),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetWorkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := parseIDList(req.GetString("ids", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	project := req.GetString("project", "")

	items, err := t.backend.GetWorkItems(ctx, ids, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get work items: %v", err)), nil
	}
	return mcp.NewToolResultText(formatWorkItemList("Work Items", items)), nil
}

// parseIDList parses "101, 102,103" into ids, rejecting garbage.
func parseIDList(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(part, "%d", &id); err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid work item id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("'ids' must contain at least one work item id")
	}
	return ids, nil
}

// UpdateWorkItemTool handles wit_update_work_item.
type UpdateWorkItemTool struct {
	backend Backend
}

func NewUpdateWorkItemTool(backend Backend) *UpdateWorkItemTool {
	return &UpdateWorkItemTool{backend: backend}
}

func (t *UpdateWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_update_work_item",
		mcp.WithDescription("Update fields on a work item. Field names may be friendly keys "+
			"(title, state, priority, story_points, assigned_to, ...) or full reference names."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithObject("fields",
			mcp.Required(),
			mcp.Description("Field name to new value map"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *UpdateWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive work item id"), nil
	}
	raw, ok := req.GetArguments()["fields"].(map[string]any)
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("'fields' must be a non-empty object"), nil
	}
	project := req.GetString("project", "")

	resolved, _ := fields.ResolveAll(raw, "")
	if len(resolved) == 0 {
		return mcp.NewToolResultError("no usable field values after dropping nulls"), nil
	}

	wi, err := t.backend.UpdateWorkItem(ctx, id, resolved, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update work item %d: %v", id, err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Updated work item #%d (rev %d).\n\n", wi.ID, wi.Rev)
	sb.WriteString(formatWorkItemDetail(wi))
	return mcp.NewToolResultText(sb.String()), nil
}

// DeleteWorkItemTool handles wit_delete_work_item.
type DeleteWorkItemTool struct {
	backend Backend
}

func NewDeleteWorkItemTool(backend Backend) *DeleteWorkItemTool {
	return &DeleteWorkItemTool{backend: backend}
}

func (t *DeleteWorkItemTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_delete_work_item",
		mcp.WithDescription("Delete a work item (it moves to the project recycle bin)."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *DeleteWorkItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive work item id"), nil
	}
	project := req.GetString("project", "")

	if err := t.backend.DeleteWorkItem(ctx, id, project); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete work item %d: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted work item #%d (moved to recycle bin).", id)), nil
}

// GetCommentsTool handles wit_get_comments.
type GetCommentsTool struct {
	backend Backend
}

func NewGetCommentsTool(backend Backend) *GetCommentsTool {
	return &GetCommentsTool{backend: backend}
}

func (t *GetCommentsTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_get_comments",
		mcp.WithDescription("Get the discussion comments of a work item."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetCommentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive work item id"), nil
	}
	project := req.GetString("project", "")

	comments, err := t.backend.GetComments(ctx, id, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get comments for %d: %v", id, err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Comments on #%d\n\n", id)
	if len(comments) == 0 {
		sb.WriteString("No comments.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	for _, c := range comments {
		fmt.Fprintf(&sb, "**%s** (%s):\n%s\n\n", userName(c.CreatedBy), shortDate(c.CreatedDate), c.Text)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// AddCommentTool handles wit_add_comment.
type AddCommentTool struct {
	backend Backend
}

func NewAddCommentTool(backend Backend) *AddCommentTool {
	return &AddCommentTool{backend: backend}
}

func (t *AddCommentTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_add_comment",
		mcp.WithDescription("Add a comment to a work item's discussion."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Comment text (markdown supported by the backend)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *AddCommentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive work item id"), nil
	}
	text := strings.TrimSpace(req.GetString("text", ""))
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}
	project := req.GetString("project", "")

	comment, err := t.backend.AddComment(ctx, id, text, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add comment to %d: %v", id, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added comment %d to work item #%d.", comment.ID, id)), nil
}

// GetHistoryTool handles wit_get_history.
type GetHistoryTool struct {
	backend Backend
}

func NewGetHistoryTool(backend Backend) *GetHistoryTool {
	return &GetHistoryTool{backend: backend}
}

func (t *GetHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_get_history",
		mcp.WithDescription("Get the revision history of a work item."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Work item id"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *GetHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("'id' must be a positive work item id"), nil
	}
	project := req.GetString("project", "")

	revisions, err := t.backend.GetRevisions(ctx, id, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get history for %d: %v", id, err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## History of #%d\n\n", id)
	for _, rev := range revisions {
		fmt.Fprintf(&sb, "- rev %d", rev.Rev)
		if rev.State != "" {
			fmt.Fprintf(&sb, " [%s]", rev.State)
		}
		if rev.ChangedBy != "" {
			fmt.Fprintf(&sb, " by %s", rev.ChangedBy)
		}
		if rev.ChangedDate != "" {
			fmt.Fprintf(&sb, " at %s", shortDate(rev.ChangedDate))
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
