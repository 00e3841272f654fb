package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warranty-copilot/internal/llm"
	"warranty-copilot/internal/monitor"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/topics"
)

const intentsYAML = `
doors:
  Topics:
    - DisplayName: Door sticks
      TriggerId: door_binding_trigger
      TopicId: cr_doors.topic.door_binding
      ExternalIntentId: door_binding
      SubTopics: [frame]
`

func localConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TopicIntents.yaml"), []byte(intentsYAML), 0o600))
	return config.Config{
		Env:             "dev",
		BuildEnv:        config.BuildEnvDev,
		LLM:             config.LLMConfig{Provider: "none"},
		TopicStore:      "file",
		TopicDataKey:    "combined_training_data.json",
		IntentsKey:      "TopicIntents.yaml",
		ObjectStoreType: "local",
		LocalStoreDir:   dir,
		RateLimitRPS:    100,
		RateLimitBurst:  100,
	}
}

func TestBuildWiresLocalDefaults(t *testing.T) {
	app, err := Build(context.Background(), localConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	assert.Nil(t, app.DB)
	assert.Nil(t, app.Mongo)
	assert.Nil(t, app.Redis)
	assert.Nil(t, app.LLM)
	assert.IsType(t, &topics.FileStore{}, app.Topics)
	assert.IsType(t, &monitor.MemoryStore{}, app.Flags)
	assert.Empty(t, app.Health.Names())

	cases := []struct {
		method, path, body string
		status             int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/get_topic_intents?copilot=doors&subtopic=frame", `[{"category":"door_binding","confidenceScore":0.9}]`, http.StatusOK},
		{http.MethodGet, "/set_copilot_postman_monitor_flag?topic=doors&env=DEV&error_flagged=1", "", http.StatusOK},
		{http.MethodPost, "/ms_teams_error_messenger", `{"user":{"user_name":"Sam"}}`, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			app.Router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	flagged, ok := app.Flags.(*monitor.MemoryStore).Flag(config.BuildEnvDev, "doors")
	assert.True(t, ok)
	assert.True(t, flagged)
}

func TestBuildRequiresBackingStore(t *testing.T) {
	cfg := localConfig(t)
	cfg.TopicStore = "mongo"
	_, err := Build(context.Background(), cfg)
	require.ErrorContains(t, err, "MONGO_URI")

	cfg.TopicStore = "postgres"
	_, err = Build(context.Background(), cfg)
	require.ErrorContains(t, err, "DATABASE_URL")
}

func TestBuildLLMFallsBackWhenUnconfigured(t *testing.T) {
	client, err := buildLLM(context.Background(), config.LLMConfig{Provider: "azure"})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = buildLLM(context.Background(), config.LLMConfig{
		Provider:        "azure",
		AzureEndpoint:   "https://example.openai.azure.com",
		AzureDeployment: "gpt-4o",
		AzureAPIKey:     "key",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

const trainingJSON = `{
  "doors": {
    "topic_id": "cr_doors",
    "topic": "Doors",
    "issues": [
      {
        "issue_number": 1,
        "observation": "Door binds against the frame",
        "corrective_measure": "Adjust the hinges",
        "associated_copilot_flow": "door_binding",
        "subtopics": ["frame"]
      }
    ]
  }
}`

func TestBuildDegradesWhenProviderCannotConnect(t *testing.T) {
	cfg := localConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.LocalStoreDir, cfg.TopicDataKey), []byte(trainingJSON), 0o600))
	cfg.LLM = config.LLMConfig{
		Provider:        "azure",
		AzureEndpoint:   "https://example.openai.azure.com",
		AzureDeployment: "gpt-4o",
	}

	app, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	disconnected, ok := app.LLM.(llm.Disconnected)
	require.True(t, ok, "expected a disconnected client, got %T", app.LLM)
	assert.Error(t, disconnected.Reason)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/dynamic_qna", strings.NewReader(
		`{"copilot":"doors","subtopic":"frame","user_input":"the door sticks"}`))
	req.Header.Set("Content-Type", "application/json")
	app.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"OK"}`, w.Body.String())
}
