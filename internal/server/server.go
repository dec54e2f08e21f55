// Package server wires all MCP components and creates the server
// instance. This is the composition root: it builds the REST client,
// the query translator and the recently-viewed cache, and injects them
// into the tools. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/HendryAvila/ado-mcp/internal/ado"
	"github.com/HendryAvila/ado-mcp/internal/cache"
	"github.com/HendryAvila/ado-mcp/internal/config"
	"github.com/HendryAvila/ado-mcp/internal/tools"
	"github.com/HendryAvila/ado-mcp/internal/wiql"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the recently-viewed cache and
// must be called on shutdown (typically via defer). It is always
// non-nil and safe to call even when cache init failed.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	client := ado.NewClient(cfg.Organization, cfg.PAT, cfg.Project)
	translator := wiql.New()

	s := server.NewMCPServer(
		"ado-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// The recently-viewed cache is an independent subsystem: if it
	// fails to initialize, every backend tool keeps working. We log a
	// warning and register the read tool anyway (it reports the cache
	// as disabled).
	cleanup := noop
	recent, cacheErr := cache.New(cfg.CachePath)
	if cacheErr != nil {
		log.Printf("WARNING: recently-viewed cache disabled: %v", cacheErr)
		recent = nil
	} else {
		cleanup = func() {
			if err := recent.Close(); err != nil {
				log.Printf("WARNING: cache close: %v", err)
			}
		}
	}

	registerTools(s, client, translator, recent)
	return s, cleanup, nil
}

func noop() {}

// registerTools registers every MCP tool with the server.
func registerTools(s *server.MCPServer, backend tools.Backend, translator *wiql.Translator, recent *cache.Store) {
	// --- Organization and project metadata ---

	listProjects := tools.NewListProjectsTool(backend)
	s.AddTool(listProjects.Definition(), listProjects.Handle)

	getProject := tools.NewGetProjectTool(backend)
	s.AddTool(getProject.Definition(), getProject.Handle)

	getTeams := tools.NewGetTeamsTool(backend)
	s.AddTool(getTeams.Definition(), getTeams.Handle)

	getAreas := tools.NewGetAreasTool(backend)
	s.AddTool(getAreas.Definition(), getAreas.Handle)

	getIterations := tools.NewGetIterationsTool(backend)
	s.AddTool(getIterations.Definition(), getIterations.Handle)

	getTypes := tools.NewGetWorkItemTypesTool(backend)
	s.AddTool(getTypes.Definition(), getTypes.Handle)

	getFields := tools.NewGetFieldsTool(backend)
	s.AddTool(getFields.Definition(), getFields.Handle)

	testConnection := tools.NewTestConnectionTool(backend)
	s.AddTool(testConnection.Definition(), testConnection.Handle)

	// --- Work item CRUD ---

	getWorkItem := tools.NewGetWorkItemTool(backend, recent)
	s.AddTool(getWorkItem.Definition(), getWorkItem.Handle)

	getWorkItems := tools.NewGetWorkItemsTool(backend)
	s.AddTool(getWorkItems.Definition(), getWorkItems.Handle)

	createWorkItem := tools.NewCreateWorkItemTool(backend)
	s.AddTool(createWorkItem.Definition(), createWorkItem.Handle)

	updateWorkItem := tools.NewUpdateWorkItemTool(backend)
	s.AddTool(updateWorkItem.Definition(), updateWorkItem.Handle)

	deleteWorkItem := tools.NewDeleteWorkItemTool(backend)
	s.AddTool(deleteWorkItem.Definition(), deleteWorkItem.Handle)

	// --- Comments and history ---

	getComments := tools.NewGetCommentsTool(backend)
	s.AddTool(getComments.Definition(), getComments.Handle)

	addComment := tools.NewAddCommentTool(backend)
	s.AddTool(addComment.Definition(), addComment.Handle)

	getHistory := tools.NewGetHistoryTool(backend)
	s.AddTool(getHistory.Definition(), getHistory.Handle)

	// --- Search and queries ---

	search := tools.NewSearchTool(backend, translator)
	s.AddTool(search.Definition(), search.Handle)

	queryWIQL := tools.NewQueryWIQLTool(backend)
	s.AddTool(queryWIQL.Definition(), queryWIQL.Handle)

	suggestions := tools.NewQuerySuggestionsTool()
	s.AddTool(suggestions.Definition(), suggestions.Handle)

	// --- Reports ---

	myItems := tools.NewMyWorkItemsTool(backend)
	s.AddTool(myItems.Definition(), myItems.Handle)

	recentItems := tools.NewRecentWorkItemsTool(backend)
	s.AddTool(recentItems.Definition(), recentItems.Handle)

	byIteration := tools.NewItemsByIterationTool(backend)
	s.AddTool(byIteration.Definition(), byIteration.Handle)

	burndown := tools.NewIterationBurndownTool(backend)
	s.AddTool(burndown.Definition(), burndown.Handle)

	velocity := tools.NewTeamVelocityTool(backend)
	s.AddTool(velocity.Definition(), velocity.Handle)

	// --- Local cache ---

	recentlyViewed := tools.NewRecentlyViewedTool(recent)
	s.AddTool(recentlyViewed.Definition(), recentlyViewed.Handle)
}

// serverInstructions tells the AI how to use the server effectively.
func serverInstructions() string {
	return fmt.Sprintf(`You have access to an Azure DevOps work item tracking MCP server.

## Searching

Prefer wit_search for anything the user phrases in plain English:
- "critical bugs assigned to me"
- "completed tasks from last week"
- "user stories tagged frontend in sprint 12"

The query is translated to WIQL automatically. Only reach for
wit_query_wiql when you need a condition the translator doesn't cover
(joins on custom fields, complex boolean nesting). wit_query_suggestions
returns example phrasings if the user is unsure what to ask.

## Reading

- wit_get_work_item / wit_get_work_items for specific ids
- wit_get_comments and wit_get_history for discussion and revisions
- wit_recently_viewed lists items fetched earlier in this or a prior
  session (local cache, no backend call)

## Writing

- wit_create_work_item: pass friendly field keys (description, priority,
  story_points, assigned_to, tags, repro_steps, ...) — they are mapped
  to reference names and coerced to the right types automatically.
- wit_update_work_item: same field handling, replaces values.
- wit_add_comment for discussion, wit_delete_work_item to recycle.

Field notes in create/update responses are advisory: the backend is the
authority on which fields a process accepts.

## Project setup

Use ado_list_projects, ado_get_areas, ado_get_iterations and
ado_get_work_item_types to discover valid paths and types before
creating items. ado_test_connection verifies credentials.

## Reports

- wit_my_work_items: the authenticated user's items
- wit_recent_work_items: changed in the last N days
- wit_items_by_iteration and wit_iteration_burndown for sprint views
- wit_team_velocity: completed story points over recent sprints

Server version %s.`, Version)
}
