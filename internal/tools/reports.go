package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/ado-mcp/internal/fields"
	"github.com/mark3labs/mcp-go/mcp"
)

// MyWorkItemsTool handles wit_my_work_items.
type MyWorkItemsTool struct {
	backend Backend
}

func NewMyWorkItemsTool(backend Backend) *MyWorkItemsTool {
	return &MyWorkItemsTool{backend: backend}
}

func (t *MyWorkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_my_work_items",
		mcp.WithDescription("List work items assigned to the authenticated user, optionally filtered by state."),
		mcp.WithString("state",
			mcp.Description("Filter by state, e.g. Active, New, Done"),
		),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of results (default 100)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *MyWorkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := strings.TrimSpace(req.GetString("state", ""))
	top := int(req.GetFloat("top", 0))
	project := req.GetString("project", "")

	conditions := []string{"[System.AssignedTo] = @Me"}
	if state != "" {
		conditions = append(conditions, fmt.Sprintf("[System.State] = '%s'", escapeWIQL(state)))
	}
	query := buildListQuery(conditions)

	result, err := t.backend.QueryWorkItems(ctx, query, project, top)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatWorkItemList("My Work Items", result.WorkItems)), nil
}

// RecentWorkItemsTool handles wit_recent_work_items.
type RecentWorkItemsTool struct {
	backend Backend
}

func NewRecentWorkItemsTool(backend Backend) *RecentWorkItemsTool {
	return &RecentWorkItemsTool{backend: backend}
}

func (t *RecentWorkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_recent_work_items",
		mcp.WithDescription("List work items changed in the last N days (default 7)."),
		mcp.WithNumber("days",
			mcp.Description("Look-back window in days (default 7)"),
		),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of results (default 100)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *RecentWorkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := int(req.GetFloat("days", 7))
	if days <= 0 {
		days = 7
	}
	top := int(req.GetFloat("top", 0))
	project := req.GetString("project", "")

	query := buildListQuery([]string{
		fmt.Sprintf("[System.ChangedDate] >= @Today - %d", days),
	})

	result, err := t.backend.QueryWorkItems(ctx, query, project, top)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	heading := fmt.Sprintf("Changed in the Last %d Days", days)
	return mcp.NewToolResultText(formatWorkItemList(heading, result.WorkItems)), nil
}

// ItemsByIterationTool handles wit_items_by_iteration.
type ItemsByIterationTool struct {
	backend Backend
}

func NewItemsByIterationTool(backend Backend) *ItemsByIterationTool {
	return &ItemsByIterationTool{backend: backend}
}

func (t *ItemsByIterationTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_items_by_iteration",
		mcp.WithDescription("List work items under an iteration path (sprint)."),
		mcp.WithString("iteration",
			mcp.Required(),
			mcp.Description("Iteration path, e.g. \"Project\\\\Sprint 12\""),
		),
		mcp.WithNumber("top",
			mcp.Description("Maximum number of results (default 100)"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *ItemsByIterationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	iteration := strings.TrimSpace(req.GetString("iteration", ""))
	if iteration == "" {
		return mcp.NewToolResultError("'iteration' is required"), nil
	}
	top := int(req.GetFloat("top", 0))
	project := req.GetString("project", "")

	query := buildListQuery([]string{
		fmt.Sprintf("[System.IterationPath] UNDER '%s'", escapeWIQL(iteration)),
	})

	result, err := t.backend.QueryWorkItems(ctx, query, project, top)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatWorkItemList("Iteration: "+iteration, result.WorkItems)), nil
}

// IterationBurndownTool handles wit_iteration_burndown: a state and
// story point rollup over one sprint's items.
type IterationBurndownTool struct {
	backend Backend
}

func NewIterationBurndownTool(backend Backend) *IterationBurndownTool {
	return &IterationBurndownTool{backend: backend}
}

func (t *IterationBurndownTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_iteration_burndown",
		mcp.WithDescription("Summarize an iteration: item counts by state plus completed and remaining story points."),
		mcp.WithString("iteration",
			mcp.Required(),
			mcp.Description("Iteration path, e.g. \"Project\\\\Sprint 12\""),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

// doneStates are treated as completed when splitting story points.
var doneStates = map[string]bool{
	"Done":     true,
	"Closed":   true,
	"Resolved": true,
	"Removed":  true,
}

func (t *IterationBurndownTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	iteration := strings.TrimSpace(req.GetString("iteration", ""))
	if iteration == "" {
		return mcp.NewToolResultError("'iteration' is required"), nil
	}
	project := req.GetString("project", "")

	query := buildListQuery([]string{
		fmt.Sprintf("[System.IterationPath] UNDER '%s'", escapeWIQL(iteration)),
	})
	result, err := t.backend.QueryWorkItems(ctx, query, project, 500)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	byState := make(map[string]int)
	var donePoints, openPoints float64
	for _, wi := range result.WorkItems {
		byState[wi.State]++
		points := wi.FloatField(fields.RefStoryPoints)
		if doneStates[wi.State] {
			donePoints += points
		} else {
			openPoints += points
		}
	}

	states := make([]string, 0, len(byState))
	for state := range byState {
		states = append(states, state)
	}
	sort.Strings(states)

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Burndown: %s\n\n", iteration)
	fmt.Fprintf(&sb, "**Total items:** %d\n\n", len(result.WorkItems))
	for _, state := range states {
		fmt.Fprintf(&sb, "- %s: %d\n", state, byState[state])
	}
	fmt.Fprintf(&sb, "\n**Story points:** %.1f done, %.1f remaining\n", donePoints, openPoints)
	return mcp.NewToolResultText(sb.String()), nil
}

// TeamVelocityTool handles wit_team_velocity: completed story points
// per sprint over the most recent dated iterations.
type TeamVelocityTool struct {
	backend Backend
}

func NewTeamVelocityTool(backend Backend) *TeamVelocityTool {
	return &TeamVelocityTool{backend: backend}
}

func (t *TeamVelocityTool) Definition() mcp.Tool {
	return mcp.NewTool("wit_team_velocity",
		mcp.WithDescription("Report completed story points per iteration over the last N iterations, with the average velocity."),
		mcp.WithNumber("iterations",
			mcp.Description("Number of recent iterations to analyze (default 5)"),
		),
		mcp.WithString("team",
			mcp.Description("Team name, used in the report heading"),
		),
		mcp.WithString("project",
			mcp.Description("Project name (default: the configured project)"),
		),
	)
}

func (t *TeamVelocityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count := int(req.GetFloat("iterations", 5))
	if count <= 0 {
		count = 5
	}
	team := strings.TrimSpace(req.GetString("team", ""))
	project := req.GetString("project", "")

	paths, err := t.backend.GetIterationPaths(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list iterations: %v", err)), nil
	}

	// Only iterations with a start date are real sprints.
	var dated []string
	for _, p := range paths {
		if p.StartDate != "" {
			dated = append(dated, p.Path)
		}
	}
	if len(dated) == 0 {
		return mcp.NewToolResultError("no dated iterations found; set sprint dates in the project settings"), nil
	}
	if len(dated) > count {
		dated = dated[len(dated)-count:]
	}

	type sprintVelocity struct {
		iteration   string
		done, total float64
	}
	var sprints []sprintVelocity
	var sumDone float64
	for _, iteration := range dated {
		query := buildListQuery([]string{
			fmt.Sprintf("[System.IterationPath] UNDER '%s'", escapeWIQL(iteration)),
		})
		result, err := t.backend.QueryWorkItems(ctx, query, project, 500)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed for iteration %q: %v", iteration, err)), nil
		}

		var v sprintVelocity
		v.iteration = iteration
		for _, wi := range result.WorkItems {
			points := wi.FloatField(fields.RefStoryPoints)
			v.total += points
			if doneStates[wi.State] {
				v.done += points
			}
		}
		sprints = append(sprints, v)
		sumDone += v.done
	}

	heading := "Team Velocity"
	if team != "" {
		heading = "Team Velocity: " + team
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", heading)
	for _, v := range sprints {
		fmt.Fprintf(&sb, "- %s: %.1f of %.1f story points completed\n", v.iteration, v.done, v.total)
	}
	fmt.Fprintf(&sb, "\n**Average velocity:** %.1f story points over %d iteration(s)\n",
		sumDone/float64(len(sprints)), len(sprints))
	return mcp.NewToolResultText(sb.String()), nil
}

// buildListQuery assembles the standard SELECT with the given WHERE
// conditions, newest change first.
func buildListQuery(conditions []string) string {
	return "SELECT [System.Id], [System.Title], [System.WorkItemType], [System.State], " +
		"[System.AssignedTo], [System.CreatedDate], [System.ChangedDate] FROM WorkItems WHERE " +
		strings.Join(conditions, " AND ") +
		" ORDER BY [System.ChangedDate] DESC"
}

// escapeWIQL doubles single quotes inside a WIQL string literal.
func escapeWIQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
