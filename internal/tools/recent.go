package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/ado-mcp/internal/cache"
	"github.com/mark3labs/mcp-go/mcp"
)

// RecentlyViewedTool handles wit_recently_viewed, served entirely from
// the local cache populated by wit_get_work_item.
type RecentlyViewedTool struct {
	recent *cache.Store
}

func NewRecentlyViewedTool(recent *cache.Store) *RecentlyViewedTool {
	return &RecentlyViewedTool{recent: recent}
}

func (t *RecentlyViewedTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_recently_viewed",
		mcp.WithDescription("List work items viewed recently through this server. Served from a local cache, no backend call."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of entries (default 20)"),
		),
	)
}

func (t *RecentlyViewedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.recent == nil {
		return mcp.NewToolResultError("the recently-viewed cache is disabled"), nil
	}
	limit := int(req.GetFloat("limit", 20))

	entries, err := t.recent.Recent(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read cache: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Recently Viewed\n\n")
	if len(entries) == 0 {
		sb.WriteString("Nothing viewed yet.\n")
		return mcp.NewToolResultText(sb.String()), nil
	}
	for _, e := range entries {
		fmt.Fprintf(&sb, "- **#%d**", e.ID)
		if e.WorkItemType != "" {
			fmt.Fprintf(&sb, " [%s]", e.WorkItemType)
		}
		fmt.Fprintf(&sb, " %s", e.Title)
		if e.State != "" {
			fmt.Fprintf(&sb, " — %s", e.State)
		}
		fmt.Fprintf(&sb, " (viewed %s)\n", shortDate(e.ViewedAt))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
