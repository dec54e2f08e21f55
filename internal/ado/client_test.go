package ado

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-pat", "Phoenix")
}

func TestNewClient_ExpandsBareOrgName(t *testing.T) {
	c := NewClient("myorg", "pat", "")
	assert.Equal(t, "https://dev.azure.com/myorg", c.baseURL)

	c = NewClient("https://dev.azure.com/other/", "pat", "")
	assert.Equal(t, "https://dev.azure.com/other", c.baseURL)
}

func TestClient_SendsBasicAuth(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"count": 0, "value": []any{}})
	})

	_, err := c.ListProjects(context.Background())
	require.NoError(t, err)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(":test-pat"))
	assert.Equal(t, want, gotAuth)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNonAuthoritativeInfo, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		_, err := c.GetWorkItem(context.Background(), 42, "")
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestClient_DefaultProjectFallback(t *testing.T) {
	c := NewClient("myorg", "pat", "")
	_, err := c.GetTeams(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestGetWorkItem_PromotesFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/Phoenix/_apis/wit/workitems/42")
		json.NewEncoder(w).Encode(map[string]any{
			"id":  42,
			"rev": 3,
			"fields": map[string]any{
				"System.Title":        "Fix login",
				"System.WorkItemType": "Bug",
				"System.State":        "Active",
				"System.Tags":         "auth; urgent",
				"System.AssignedTo":   map[string]any{"displayName": "Jane Doe"},
				"System.ChangedDate":  "2026-03-01T10:00:00Z",
			},
		})
	})

	wi, err := c.GetWorkItem(context.Background(), 42, "")
	require.NoError(t, err)

	assert.Equal(t, 42, wi.ID)
	assert.Equal(t, "Fix login", wi.Title)
	assert.Equal(t, "Bug", wi.WorkItemType)
	assert.Equal(t, []string{"auth", "urgent"}, wi.Tags)
	require.NotNil(t, wi.AssignedTo)
	assert.Equal(t, "Jane Doe", wi.AssignedTo.DisplayName)
	require.NotNil(t, wi.ChangedDate)
}

func TestQueryWorkItems_TwoPhaseFetch(t *testing.T) {
	var wiqlBody map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/Phoenix/_apis/wit/wiql":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&wiqlBody))
			json.NewEncoder(w).Encode(map[string]any{
				"workItems": []map[string]int{{"id": 1}, {"id": 2}, {"id": 3}},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/Phoenix/_apis/wit/workitems":
			assert.Equal(t, "1,2", r.URL.Query().Get("ids"))
			json.NewEncoder(w).Encode(map[string]any{
				"count": 2,
				"value": []map[string]any{
					{"id": 1, "fields": map[string]any{"System.Title": "One"}},
					{"id": 2, "fields": map[string]any{"System.Title": "Two"}},
				},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	result, err := c.QueryWorkItems(context.Background(), "SELECT [System.Id] FROM WorkItems", "", 2)
	require.NoError(t, err)

	assert.Equal(t, "SELECT [System.Id] FROM WorkItems", wiqlBody["query"])
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "One", result.WorkItems[0].Title)
}

func TestQueryWorkItems_EmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"workItems": []any{}})
	})

	result, err := c.QueryWorkItems(context.Background(), "SELECT ...", "", 0)
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.Empty(t, result.WorkItems)
}

func TestCreateWorkItem_PatchDocument(t *testing.T) {
	var gotContentType string
	var doc []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/Phoenix/_apis/wit/workitems/$Bug")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		json.NewEncoder(w).Encode(map[string]any{
			"id": 101, "fields": map[string]any{"System.Title": "Crash", "System.WorkItemType": "Bug"},
		})
	})

	fields := map[string]any{"Microsoft.VSTS.Common.Priority": 1}
	wi, err := c.CreateWorkItem(context.Background(), "Bug", "Crash", fields, "")
	require.NoError(t, err)

	assert.Equal(t, 101, wi.ID)
	assert.Equal(t, "application/json-patch+json", gotContentType)
	require.Len(t, doc, 2)
	assert.Equal(t, "add", doc[0]["op"])
	assert.Equal(t, "/fields/System.Title", doc[0]["path"])
	assert.Equal(t, "Crash", doc[0]["value"])
	assert.Equal(t, "/fields/Microsoft.VSTS.Common.Priority", doc[1]["path"])
}

func TestUpdateWorkItem_UsesReplaceOps(t *testing.T) {
	var doc []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		json.NewEncoder(w).Encode(map[string]any{
			"id": 7, "rev": 4, "fields": map[string]any{"System.State": "Done"},
		})
	})

	wi, err := c.UpdateWorkItem(context.Background(), 7, map[string]any{"System.State": "Done"}, "")
	require.NoError(t, err)

	assert.Equal(t, 4, wi.Rev)
	require.Len(t, doc, 1)
	assert.Equal(t, "replace", doc[0]["op"])
	assert.Equal(t, "/fields/System.State", doc[0]["path"])
}

func TestGetAreaPaths_FlattensTree(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "classificationnodes/areas")
		assert.Equal(t, "10", r.URL.Query().Get("$depth"))
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "name": "Phoenix",
			"children": []map[string]any{
				{"id": 2, "name": "Backend", "children": []map[string]any{
					{"id": 3, "name": "API"},
				}},
				{"id": 4, "name": "Frontend"},
			},
		})
	})

	paths, err := c.GetAreaPaths(context.Background(), "")
	require.NoError(t, err)

	var flat []string
	for _, p := range paths {
		flat = append(flat, p.Path)
	}
	assert.Equal(t, []string{"Phoenix", `Phoenix\Backend`, `Phoenix\Backend\API`, `Phoenix\Frontend`}, flat)
}

func TestAddComment_UsesPreviewAPI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7.1-preview.3", r.URL.Query().Get("api-version"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "looks good", body["text"])
		json.NewEncoder(w).Encode(map[string]any{"id": 9, "text": "looks good"})
	})

	comment, err := c.AddComment(context.Background(), 42, "looks good", "")
	require.NoError(t, err)
	assert.Equal(t, 9, comment.ID)
}

func TestGetWorkItems_EmptyIDs(t *testing.T) {
	c := NewClient("myorg", "pat", "Phoenix")
	items, err := c.GetWorkItems(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Nil(t, items)
}
