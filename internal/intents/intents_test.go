package intents

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warranty-copilot/internal/shared/storage/object"
	local "warranty-copilot/internal/shared/storage/object/local"
)

const catalogYAML = `
common:
  Topics:
    - DisplayName: Door sticks
      TriggerId: door_binding_trigger
      TopicId: cr_doors.topic.door_binding
      ExternalIntentId: door_binding
      SubTopics: [frame]
    - DisplayName: Door warped
      TriggerId: door_warp_trigger
      TopicId: cr_doors.topic.door_warp
      ExternalIntentId: door_warp
      SubTopics: [slab]
    - DisplayName: Hidden
      TriggerId: hidden
      TopicId: cr_doors.topic.hidden
      ExternalIntentId: hidden
      ShowInUncertainOptions: false
      SubTopics: [frame]
    - DisplayName: Roof leak
      TriggerId: roof_leak
      TopicId: cr_roof.topic.roof_leak
      ExternalIntentId: roof_leak
      ShowInUncertainOptions: true
      SubTopics: [shingles]
doors:
  Topics: []
`

func testCatalog(t *testing.T) Catalog {
	t.Helper()
	c, err := Decode([]byte(catalogYAML))
	require.NoError(t, err)
	return c
}

func categories(opts []Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Category)
	}
	return out
}

var scores = []Score{
	{Category: "door_warp", ConfidenceScore: 0.2},
	{Category: "hidden", ConfidenceScore: 0.9},
	{Category: "door_binding", ConfidenceScore: 0.7},
	{Category: "roof_leak", ConfidenceScore: 0.5},
	{Category: "unmapped", ConfidenceScore: 0.95},
}

func TestRankSortsAndHidesIntents(t *testing.T) {
	opts, err := testCatalog(t).Rank(scores, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"door_binding", "roof_leak", "door_warp"}, categories(opts))
	assert.Equal(t, "main", opts[0].TriggerID)
	assert.Equal(t, "cr_doors.topic.door_binding", opts[0].TopicID)
	assert.Equal(t, 0.7, opts[0].ConfidenceScore)
}

func TestRankFiltersSubtopicAndLimit(t *testing.T) {
	c := testCatalog(t)

	opts, err := c.Rank(scores, Query{Subtopic: "frame"})
	require.NoError(t, err)
	assert.Equal(t, []string{"door_binding"}, categories(opts))

	opts, err = c.Rank(scores, Query{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"door_binding", "roof_leak"}, categories(opts))
}

func TestRankUnknownCopilot(t *testing.T) {
	_, err := testCatalog(t).Rank(scores, Query{Copilot: "spaceship"})
	assert.ErrorIs(t, err, ErrUnknownCopilot)

	opts, err := testCatalog(t).Rank(scores, Query{Copilot: "doors"})
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestLoaderReadsFromObjectStore(t *testing.T) {
	store := local.New(t.TempDir())
	_, err := store.Put(context.Background(), "TopicIntents.yaml", "application/yaml", strings.NewReader(catalogYAML))
	require.NoError(t, err)

	c, err := Loader{Store: store, Key: "TopicIntents.yaml"}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, c["common"].Topics, 4)

	_, err = Loader{Store: store, Key: "missing.yaml"}.Load(context.Background())
	assert.ErrorIs(t, err, object.ErrNotFound)
}

type staticSource struct{ c Catalog }

func (s staticSource) Load(context.Context) (Catalog, error) { return s.c, nil }

func TestHandlerRanks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(staticSource{c: testCatalog(t)}).RegisterRoutes(r)

	body, _ := json.Marshal(scores)
	req := httptest.NewRequest(http.MethodPost, "/get_topic_intents?copilot=common&limit=1", bytes.NewReader(body))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var opts []Option
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&opts))
	assert.Equal(t, []string{"door_binding"}, categories(opts))
}

func TestHandlerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(staticSource{c: testCatalog(t)}).RegisterRoutes(r)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "no body", path: "/get_topic_intents", body: "", status: http.StatusBadRequest},
		{name: "bad json", path: "/get_topic_intents", body: "{", status: http.StatusBadRequest},
		{name: "bad limit", path: "/get_topic_intents?limit=x", body: "[]", status: http.StatusBadRequest},
		{name: "unknown copilot", path: "/get_topic_intents?copilot=spaceship", body: "[]", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			assert.Equal(t, tt.status, resp.Code)
		})
	}
}
