package tools

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/ado-mcp/internal/ado"
	"github.com/HendryAvila/ado-mcp/internal/cache"
	"github.com/HendryAvila/ado-mcp/internal/wiql"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

// fakeBackend implements Backend with per-call hooks. Unset hooks
// return errNotStubbed so a test failing on an unexpected call is
// obvious from the error text.
type fakeBackend struct {
	listProjects   func(ctx context.Context) ([]ado.Project, error)
	getProject     func(ctx context.Context, name string) (*ado.Project, error)
	getTeams       func(ctx context.Context, project string) ([]ado.Team, error)
	getAreas       func(ctx context.Context, project string) ([]ado.PathEntry, error)
	getIterations  func(ctx context.Context, project string) ([]ado.PathEntry, error)
	getTypes       func(ctx context.Context, project string) ([]ado.WorkItemTypeInfo, error)
	getFields      func(ctx context.Context, project string) ([]ado.FieldInfo, error)
	testConnection func(ctx context.Context) (int, error)
	getWorkItem    func(ctx context.Context, id int, project string) (*ado.WorkItem, error)
	getWorkItems   func(ctx context.Context, ids []int, project string) ([]ado.WorkItem, error)
	queryWorkItems func(ctx context.Context, wiql, project string, top int) (*ado.QueryResult, error)
	createWorkItem func(ctx context.Context, wit, title string, fields map[string]any, project string) (*ado.WorkItem, error)
	updateWorkItem func(ctx context.Context, id int, fields map[string]any, project string) (*ado.WorkItem, error)
	deleteWorkItem func(ctx context.Context, id int, project string) error
	getComments    func(ctx context.Context, id int, project string) ([]ado.Comment, error)
	addComment     func(ctx context.Context, id int, text, project string) (*ado.Comment, error)
	getRevisions   func(ctx context.Context, id int, project string) ([]ado.Revision, error)
}

var errNotStubbed = errors.New("not stubbed")

func (f *fakeBackend) ListProjects(ctx context.Context) ([]ado.Project, error) {
	if f.listProjects == nil {
		return nil, errNotStubbed
	}
	return f.listProjects(ctx)
}

func (f *fakeBackend) GetProject(ctx context.Context, name string) (*ado.Project, error) {
	if f.getProject == nil {
		return nil, errNotStubbed
	}
	return f.getProject(ctx, name)
}

func (f *fakeBackend) GetTeams(ctx context.Context, project string) ([]ado.Team, error) {
	if f.getTeams == nil {
		return nil, errNotStubbed
	}
	return f.getTeams(ctx, project)
}

func (f *fakeBackend) GetAreaPaths(ctx context.Context, project string) ([]ado.PathEntry, error) {
	if f.getAreas == nil {
		return nil, errNotStubbed
	}
	return f.getAreas(ctx, project)
}

func (f *fakeBackend) GetIterationPaths(ctx context.Context, project string) ([]ado.PathEntry, error) {
	if f.getIterations == nil {
		return nil, errNotStubbed
	}
	return f.getIterations(ctx, project)
}

func (f *fakeBackend) GetWorkItemTypes(ctx context.Context, project string) ([]ado.WorkItemTypeInfo, error) {
	if f.getTypes == nil {
		return nil, errNotStubbed
	}
	return f.getTypes(ctx, project)
}

func (f *fakeBackend) GetFields(ctx context.Context, project string) ([]ado.FieldInfo, error) {
	if f.getFields == nil {
		return nil, errNotStubbed
	}
	return f.getFields(ctx, project)
}

func (f *fakeBackend) TestConnection(ctx context.Context) (int, error) {
	if f.testConnection == nil {
		return 0, errNotStubbed
	}
	return f.testConnection(ctx)
}

func (f *fakeBackend) GetWorkItem(ctx context.Context, id int, project string) (*ado.WorkItem, error) {
	if f.getWorkItem == nil {
		return nil, errNotStubbed
	}
	return f.getWorkItem(ctx, id, project)
}

func (f *fakeBackend) GetWorkItems(ctx context.Context, ids []int, project string) ([]ado.WorkItem, error) {
	if f.getWorkItems == nil {
		return nil, errNotStubbed
	}
	return f.getWorkItems(ctx, ids, project)
}

func (f *fakeBackend) QueryWorkItems(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
	if f.queryWorkItems == nil {
		return nil, errNotStubbed
	}
	return f.queryWorkItems(ctx, wiqlText, project, top)
}

func (f *fakeBackend) CreateWorkItem(ctx context.Context, wit, title string, fields map[string]any, project string) (*ado.WorkItem, error) {
	if f.createWorkItem == nil {
		return nil, errNotStubbed
	}
	return f.createWorkItem(ctx, wit, title, fields, project)
}

func (f *fakeBackend) UpdateWorkItem(ctx context.Context, id int, fields map[string]any, project string) (*ado.WorkItem, error) {
	if f.updateWorkItem == nil {
		return nil, errNotStubbed
	}
	return f.updateWorkItem(ctx, id, fields, project)
}

func (f *fakeBackend) DeleteWorkItem(ctx context.Context, id int, project string) error {
	if f.deleteWorkItem == nil {
		return errNotStubbed
	}
	return f.deleteWorkItem(ctx, id, project)
}

func (f *fakeBackend) GetComments(ctx context.Context, id int, project string) ([]ado.Comment, error) {
	if f.getComments == nil {
		return nil, errNotStubbed
	}
	return f.getComments(ctx, id, project)
}

func (f *fakeBackend) AddComment(ctx context.Context, id int, text, project string) (*ado.Comment, error) {
	if f.addComment == nil {
		return nil, errNotStubbed
	}
	return f.addComment(ctx, id, text, project)
}

func (f *fakeBackend) GetRevisions(ctx context.Context, id int, project string) ([]ado.Revision, error) {
	if f.getRevisions == nil {
		return nil, errNotStubbed
	}
	return f.getRevisions(ctx, id, project)
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.New(filepath.Join(t.TempDir(), "recent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return out
}

// --- GetWorkItemTool ---

func TestGetWorkItem_RendersDetailAndRecordsView(t *testing.T) {
	changed := mustTime(t, "2026-03-01T10:00:00Z")
	backend := &fakeBackend{
		getWorkItem: func(ctx context.Context, id int, project string) (*ado.WorkItem, error) {
			assert.Equal(t, 42, id)
			return &ado.WorkItem{
				ID: 42, Title: "Fix login", WorkItemType: "Bug", State: "Active",
				AssignedTo:  &ado.User{DisplayName: "Jane Doe"},
				Tags:        []string{"auth"},
				ChangedDate: &changed,
			}, nil
		},
	}
	recent := newTestCache(t)
	tool := NewGetWorkItemTool(backend, recent)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"id": 42.0}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	text := getResultText(result)
	assert.Contains(t, text, "Work Item #42")
	assert.Contains(t, text, "Fix login")
	assert.Contains(t, text, "Jane Doe")

	entries, err := recent.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 42, entries[0].ID)
}

func TestGetWorkItem_RejectsBadID(t *testing.T) {
	tool := NewGetWorkItemTool(&fakeBackend{}, nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"id": 0.0}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
}

func TestGetWorkItem_BackendErrorBecomesToolError(t *testing.T) {
	backend := &fakeBackend{
		getWorkItem: func(ctx context.Context, id int, project string) (*ado.WorkItem, error) {
			return nil, ado.ErrNotFound
		},
	}
	tool := NewGetWorkItemTool(backend, nil)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"id": 42.0}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
	assert.Contains(t, getResultText(result), "not found")
}

// --- GetWorkItemsTool ---

func TestGetWorkItems_ParsesIDList(t *testing.T) {
	var gotIDs []int
	backend := &fakeBackend{
		getWorkItems: func(ctx context.Context, ids []int, project string) ([]ado.WorkItem, error) {
			gotIDs = ids
			return []ado.WorkItem{{ID: 1, Title: "One"}, {ID: 2, Title: "Two"}}, nil
		},
	}
	tool := NewGetWorkItemsTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"ids": "1, 2"}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))
	assert.Equal(t, []int{1, 2}, gotIDs)
	assert.Contains(t, getResultText(result), "Found 2 work item(s)")
}

func TestGetWorkItems_RejectsGarbageIDs(t *testing.T) {
	tool := NewGetWorkItemsTool(&fakeBackend{})

	for _, ids := range []string{"", "abc", "1,x"} {
		result, err := tool.Handle(context.Background(), callRequest(map[string]any{"ids": ids}))
		require.NoError(t, err)
		assert.True(t, isErrorResult(result), "ids=%q", ids)
	}
}

// --- CreateWorkItemTool ---

func TestCreateWorkItem_ResolvesFriendlyFields(t *testing.T) {
	var gotFields map[string]any
	backend := &fakeBackend{
		createWorkItem: func(ctx context.Context, wit, title string, fields map[string]any, project string) (*ado.WorkItem, error) {
			gotFields = fields
			return &ado.WorkItem{ID: 101, Title: title, WorkItemType: wit}, nil
		},
	}
	tool := NewCreateWorkItemTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"type":  "Bug",
		"title": "Crash on save",
		"fields": map[string]any{
			"priority":    "1",
			"repro_steps": "open, save, boom",
		},
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	assert.Equal(t, 1, gotFields["Microsoft.VSTS.Common.Priority"])
	assert.Equal(t, "open, save, boom", gotFields["Microsoft.VSTS.TCM.ReproSteps"])
	assert.Contains(t, getResultText(result), "Created Bug #101")
}

func TestCreateWorkItem_WarnsOnMissingExpectedFields(t *testing.T) {
	backend := &fakeBackend{
		createWorkItem: func(ctx context.Context, wit, title string, fields map[string]any, project string) (*ado.WorkItem, error) {
			return &ado.WorkItem{ID: 5, Title: title, WorkItemType: wit}, nil
		},
	}
	tool := NewCreateWorkItemTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"type":  "Bug",
		"title": "No repro",
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))
	assert.Contains(t, getResultText(result), "Microsoft.VSTS.TCM.ReproSteps")
}

func TestCreateWorkItem_FlagsOffTypeFields(t *testing.T) {
	backend := &fakeBackend{
		createWorkItem: func(ctx context.Context, wit, title string, fields map[string]any, project string) (*ado.WorkItem, error) {
			// Off-type fields are still sent to the backend.
			assert.Contains(t, fields, "Microsoft.VSTS.Scheduling.StoryPoints")
			return &ado.WorkItem{ID: 6, Title: title, WorkItemType: wit}, nil
		},
	}
	tool := NewCreateWorkItemTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"type":   "Bug",
		"title":  "Pointy bug",
		"fields": map[string]any{"story_points": 3, "repro_steps": "steps"},
	}))
	require.NoError(t, err)
	assert.Contains(t, getResultText(result), "not native to Bug")
}

func TestCreateWorkItem_RequiresTypeAndTitle(t *testing.T) {
	tool := NewCreateWorkItemTool(&fakeBackend{})

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"title": "x"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))

	result, err = tool.Handle(context.Background(), callRequest(map[string]any{"type": "Bug"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
}

// --- UpdateWorkItemTool ---

func TestUpdateWorkItem_DropsNullsAndResolves(t *testing.T) {
	var gotFields map[string]any
	backend := &fakeBackend{
		updateWorkItem: func(ctx context.Context, id int, fields map[string]any, project string) (*ado.WorkItem, error) {
			gotFields = fields
			return &ado.WorkItem{ID: id, Rev: 2, Title: "After", State: "Done"}, nil
		},
	}
	tool := NewUpdateWorkItemTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"id": 7.0,
		"fields": map[string]any{
			"state":       "Done",
			"description": nil,
		},
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	assert.Equal(t, map[string]any{"System.State": "Done"}, gotFields)
	assert.Contains(t, getResultText(result), "rev 2")
}

func TestUpdateWorkItem_AllNullsIsError(t *testing.T) {
	tool := NewUpdateWorkItemTool(&fakeBackend{})

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"id":     7.0,
		"fields": map[string]any{"state": nil},
	}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
}

// --- SearchTool ---

func TestSearch_TranslatesAndExecutes(t *testing.T) {
	var gotWIQL string
	backend := &fakeBackend{
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			gotWIQL = wiqlText
			return &ado.QueryResult{
				WorkItems: []ado.WorkItem{{ID: 1, Title: "Login bug", WorkItemType: "Bug", State: "Active"}},
				Count:     1,
				Query:     wiqlText,
			}, nil
		},
	}
	tool := NewSearchTool(backend, wiql.New())

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"query": "active bugs assigned to me",
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	assert.Contains(t, gotWIQL, "[System.WorkItemType] = 'Bug'")
	assert.Contains(t, gotWIQL, "[System.AssignedTo] = @Me")

	text := getResultText(result)
	assert.Contains(t, text, "Login bug")
	assert.Contains(t, text, "### WIQL")
}

func TestSearch_EmptyQueryIsError(t *testing.T) {
	tool := NewSearchTool(&fakeBackend{}, wiql.New())

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "  "}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
}

func TestSearch_BackendErrorEchoesWIQL(t *testing.T) {
	backend := &fakeBackend{
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			return nil, errors.New("boom")
		},
	}
	tool := NewSearchTool(backend, wiql.New())

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"query": "bugs"}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
	assert.Contains(t, getResultText(result), "SELECT [System.Id]")
}

// --- QuerySuggestionsTool ---

func TestQuerySuggestions(t *testing.T) {
	tool := NewQuerySuggestionsTool()

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, getResultText(result), "Show all bugs assigned to me")
}

// --- Report tools ---

func TestMyWorkItems_BuildsWIQL(t *testing.T) {
	var gotWIQL string
	backend := &fakeBackend{
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			gotWIQL = wiqlText
			return &ado.QueryResult{}, nil
		},
	}
	tool := NewMyWorkItemsTool(backend)

	_, err := tool.Handle(context.Background(), callRequest(map[string]any{"state": "Active"}))
	require.NoError(t, err)

	assert.Contains(t, gotWIQL, "[System.AssignedTo] = @Me")
	assert.Contains(t, gotWIQL, "[System.State] = 'Active'")
	assert.Contains(t, gotWIQL, "ORDER BY [System.ChangedDate] DESC")
}

func TestRecentWorkItems_DefaultsToSevenDays(t *testing.T) {
	var gotWIQL string
	backend := &fakeBackend{
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			gotWIQL = wiqlText
			return &ado.QueryResult{}, nil
		},
	}
	tool := NewRecentWorkItemsTool(backend)

	_, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, gotWIQL, "[System.ChangedDate] >= @Today - 7")
}

func TestItemsByIteration_EscapesQuotes(t *testing.T) {
	var gotWIQL string
	backend := &fakeBackend{
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			gotWIQL = wiqlText
			return &ado.QueryResult{}, nil
		},
	}
	tool := NewItemsByIterationTool(backend)

	_, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"iteration": `Project\Team O'Neil`,
	}))
	require.NoError(t, err)
	assert.Contains(t, gotWIQL, `[System.IterationPath] UNDER 'Project\Team O''Neil'`)
}

func TestIterationBurndown_RollsUpPoints(t *testing.T) {
	backend := &fakeBackend{
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			return &ado.QueryResult{
				WorkItems: []ado.WorkItem{
					{ID: 1, State: "Done", Fields: map[string]any{"Microsoft.VSTS.Scheduling.StoryPoints": 5.0}},
					{ID: 2, State: "Active", Fields: map[string]any{"Microsoft.VSTS.Scheduling.StoryPoints": 3.0}},
					{ID: 3, State: "Active", Fields: map[string]any{}},
					{ID: 4, State: "New", Fields: map[string]any{"Microsoft.VSTS.Scheduling.StoryPoints": 2.0}},
				},
				Count: 4,
			}, nil
		},
	}
	tool := NewIterationBurndownTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"iteration": `Project\Sprint 12`,
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	text := getResultText(result)
	assert.Contains(t, text, "**Total items:** 4")
	assert.Contains(t, text, "Active: 2")
	assert.Contains(t, text, "Done: 1")
	assert.Contains(t, text, "5.0 done, 5.0 remaining")
}

func TestTeamVelocity_AveragesCompletedPoints(t *testing.T) {
	var queried []string
	backend := &fakeBackend{
		getIterations: func(ctx context.Context, project string) ([]ado.PathEntry, error) {
			return []ado.PathEntry{
				{Path: `Phoenix\Backlog`}, // no dates, skipped
				{Path: `Phoenix\Sprint 10`, StartDate: "2026-01-05T00:00:00Z"},
				{Path: `Phoenix\Sprint 11`, StartDate: "2026-01-19T00:00:00Z"},
				{Path: `Phoenix\Sprint 12`, StartDate: "2026-02-02T00:00:00Z"},
			}, nil
		},
		queryWorkItems: func(ctx context.Context, wiqlText, project string, top int) (*ado.QueryResult, error) {
			queried = append(queried, wiqlText)
			switch {
			case strings.Contains(wiqlText, "Sprint 11"):
				return &ado.QueryResult{WorkItems: []ado.WorkItem{
					{ID: 1, State: "Done", Fields: map[string]any{"Microsoft.VSTS.Scheduling.StoryPoints": 8.0}},
					{ID: 2, State: "Active", Fields: map[string]any{"Microsoft.VSTS.Scheduling.StoryPoints": 3.0}},
				}}, nil
			case strings.Contains(wiqlText, "Sprint 12"):
				return &ado.QueryResult{WorkItems: []ado.WorkItem{
					{ID: 3, State: "Closed", Fields: map[string]any{"Microsoft.VSTS.Scheduling.StoryPoints": 4.0}},
				}}, nil
			default:
				return &ado.QueryResult{}, nil
			}
		},
	}
	tool := NewTeamVelocityTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"iterations": 2.0,
		"team":       "Core",
	}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))

	// Only the last two dated iterations are queried; the undated
	// backlog node and the older sprint are skipped.
	require.Len(t, queried, 2)
	assert.Contains(t, queried[0], "Sprint 11")
	assert.Contains(t, queried[1], "Sprint 12")

	text := getResultText(result)
	assert.Contains(t, text, "Team Velocity: Core")
	assert.Contains(t, text, `Phoenix\Sprint 11: 8.0 of 11.0 story points completed`)
	assert.Contains(t, text, `Phoenix\Sprint 12: 4.0 of 4.0 story points completed`)
	assert.Contains(t, text, "**Average velocity:** 6.0 story points over 2 iteration(s)")
}

func TestTeamVelocity_NoDatedIterationsIsError(t *testing.T) {
	backend := &fakeBackend{
		getIterations: func(ctx context.Context, project string) ([]ado.PathEntry, error) {
			return []ado.PathEntry{{Path: `Phoenix\Backlog`}}, nil
		},
	}
	tool := NewTeamVelocityTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
}

// --- RecentlyViewedTool ---

func TestRecentlyViewed_ListsCacheEntries(t *testing.T) {
	recent := newTestCache(t)
	require.NoError(t, recent.Touch(cache.Entry{ID: 42, Title: "Fix login", WorkItemType: "Bug", State: "Active"}))

	tool := NewRecentlyViewedTool(recent)
	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)

	text := getResultText(result)
	assert.Contains(t, text, "#42")
	assert.Contains(t, text, "Fix login")
}

func TestRecentlyViewed_DisabledCache(t *testing.T) {
	tool := NewRecentlyViewedTool(nil)
	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, isErrorResult(result))
}

// --- Project metadata tools ---

func TestListProjects(t *testing.T) {
	backend := &fakeBackend{
		listProjects: func(ctx context.Context) ([]ado.Project, error) {
			return []ado.Project{{Name: "Phoenix", State: "wellFormed"}}, nil
		},
	}
	tool := NewListProjectsTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, getResultText(result), "**Phoenix** (wellFormed)")
}

func TestGetIterations_ShowsDates(t *testing.T) {
	backend := &fakeBackend{
		getIterations: func(ctx context.Context, project string) ([]ado.PathEntry, error) {
			return []ado.PathEntry{{
				Path:       `Phoenix\Sprint 12`,
				StartDate:  "2026-03-02T00:00:00Z",
				FinishDate: "2026-03-13T00:00:00Z",
			}}, nil
		},
	}
	tool := NewGetIterationsTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, getResultText(result), `Phoenix\Sprint 12 (2026-03-02 → 2026-03-13)`)
}

func TestGetFields_Filter(t *testing.T) {
	backend := &fakeBackend{
		getFields: func(ctx context.Context, project string) ([]ado.FieldInfo, error) {
			return []ado.FieldInfo{
				{Name: "Story Points", ReferenceName: "Microsoft.VSTS.Scheduling.StoryPoints", Type: "double"},
				{Name: "Title", ReferenceName: "System.Title", Type: "string"},
			}, nil
		},
	}
	tool := NewGetFieldsTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"filter": "points"}))
	require.NoError(t, err)

	text := getResultText(result)
	assert.Contains(t, text, "Story Points")
	assert.NotContains(t, text, "System.Title")
}

func TestTestConnection(t *testing.T) {
	backend := &fakeBackend{
		testConnection: func(ctx context.Context) (int, error) { return 3, nil },
	}
	tool := NewTestConnectionTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, getResultText(result), "3 project(s)")
}

// --- Comments and history ---

func TestAddComment(t *testing.T) {
	backend := &fakeBackend{
		addComment: func(ctx context.Context, id int, text, project string) (*ado.Comment, error) {
			assert.Equal(t, "ship it", text)
			return &ado.Comment{ID: 9, Text: text}, nil
		},
	}
	tool := NewAddCommentTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{
		"id": 42.0, "text": "ship it",
	}))
	require.NoError(t, err)
	assert.Contains(t, getResultText(result), "comment 9")
}

func TestGetHistory(t *testing.T) {
	backend := &fakeBackend{
		getRevisions: func(ctx context.Context, id int, project string) ([]ado.Revision, error) {
			return []ado.Revision{
				{Rev: 1, State: "New", ChangedBy: "Jane Doe", ChangedDate: "2026-03-01T10:00:00Z"},
				{Rev: 2, State: "Active", ChangedBy: "Jane Doe", ChangedDate: "2026-03-02T09:00:00Z"},
			}, nil
		},
	}
	tool := NewGetHistoryTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"id": 42.0}))
	require.NoError(t, err)

	text := getResultText(result)
	assert.Contains(t, text, "rev 1 [New]")
	assert.Contains(t, text, "rev 2 [Active]")
}

// --- DeleteWorkItemTool ---

func TestDeleteWorkItem(t *testing.T) {
	deleted := 0
	backend := &fakeBackend{
		deleteWorkItem: func(ctx context.Context, id int, project string) error {
			deleted = id
			return nil
		},
	}
	tool := NewDeleteWorkItemTool(backend)

	result, err := tool.Handle(context.Background(), callRequest(map[string]any{"id": 42.0}))
	require.NoError(t, err)
	require.False(t, isErrorResult(result))
	assert.Equal(t, 42, deleted)
}
