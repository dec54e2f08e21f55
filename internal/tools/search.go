package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/ado-mcp/internal/ado"
	"github.com/HendryAvila/ado-mcp/internal/wiql"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles wit_search: natural language in, work items out.
type SearchTool struct {
	backend    Backend
	translator *wiql.Translator
}

func NewSearchTool(backend Backend, translator *wiql.Translator) *SearchTool {
	return &SearchTool{backend: backend, translator: translator}
}

func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_search",
		mcp.WithDescription("Search work items using plain English, e.g. "+
			"\"critical bugs assigned to me\" or \"completed tasks from last week\". "+
			"The query is translated to WIQL and executed."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the work items to find"),
		),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of results (default 100)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	top := int(req.GetFloat("top", 0))
	project := req.GetString("project", "")

	generated := t.translator.Translate(query)

	result, err := t.backend.QueryWorkItems(ctx, generated, project, top)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v\n\nGenerated WIQL:\n%s", err, generated)), nil
	}
	return mcp.NewToolResultText(formatQueryResult(result)), nil
}

// QueryWIQLTool handles wit_query_wiql: raw WIQL passthrough.
type QueryWIQLTool struct {
	backend Backend
}

func NewQueryWIQLTool(backend Backend) *QueryWIQLTool {
	return &QueryWIQLTool{backend: backend}
}

func (t *QueryWIQLTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_query_wiql",
		mcp.WithDescription("Execute a raw WIQL query against the work item store."),
		mcp.WithString("wiql",
			mcp.Required(),
			mcp.Description("Complete WIQL statement (SELECT ... FROM WorkItems WHERE ...)"),
		),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of results (default 100)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *QueryWIQLTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("wiql", ""))
	if query == "" {
		return mcp.NewToolResultError("'wiql' is required"), nil
	}
	top := int(req.GetFloat("top", 0))
	project := req.GetString("project", "")

	result, err := t.backend.QueryWorkItems(ctx, query, project, top)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatQueryResult(result)), nil
}

// QuerySuggestionsTool handles wit_query_suggestions.
type QuerySuggestionsTool struct{}

func NewQuerySuggestionsTool() *QuerySuggestionsTool {
	return &QuerySuggestionsTool{}
}

func (t *QuerySuggestionsTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_query_suggestions",
		mcp.WithDescription("Suggest natural language query phrasings, optionally completing a partial query."),
		mcp.WithString("partial",
			mcp.Description("Partial query text to complete"),
		),
	)
}

func (t *QuerySuggestionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	partial := req.GetString("partial", "")
	suggestions := wiql.Suggestions(partial)

	var sb strings.Builder
	sb.WriteString("## Query Suggestions\n\n")
	for _, s := range suggestions {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatQueryResult renders the query echo plus the item list.
func formatQueryResult(result *ado.QueryResult) string {
	var sb strings.Builder
	sb.WriteString(formatWorkItemList("Query Results", result.WorkItems))
	if result.Query != "" {
		fmt.Fprintf(&sb, "\n### WIQL\n\n```sql\n%s\n```\n", result.Query)
	}
	return sb.String()
}
