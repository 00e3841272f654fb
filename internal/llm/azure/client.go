package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"warranty-copilot/internal/llm"
)

const (
	provider       = "azure"
	cognitiveScope = "https://cognitiveservices.azure.com/.default"
)

// Config selects the deployment and credentials.
type Config struct {
	Endpoint   string
	Deployment string
	Model      string
	APIVersion string
	// APIKey is sent as the api-key header. When empty, TokenSource must be set.
	APIKey      string
	TokenSource oauth2.TokenSource
	Timeout     time.Duration
	MaxRetries  int
	HTTPClient  *http.Client
}

// Client implements llm.Client against Azure OpenAI chat completions.
type Client struct {
	url        string
	model      string
	apiKey     string
	tokens     oauth2.TokenSource
	maxRetries int
	httpClient *http.Client
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("AZURE_AI_ENDPOINT is required")
	}
	if strings.TrimSpace(cfg.Deployment) == "" {
		return nil, errors.New("AZURE_AI_DEPLOYMENT_NAME is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" && cfg.TokenSource == nil {
		return nil, errors.New("AZURE_AI_API_KEY or client credentials are required")
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-10-21"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	model := cfg.Model
	if model == "" {
		model = cfg.Deployment
	}
	return &Client{
		url: fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			endpoint, url.PathEscape(cfg.Deployment), url.QueryEscape(apiVersion)),
		model:      model,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		tokens:     cfg.TokenSource,
		maxRetries: cfg.MaxRetries,
		httpClient: httpClient,
	}, nil
}

// EntraTokenSource returns a client-credentials token source for the
// Cognitive Services scope.
func EntraTokenSource(ctx context.Context, tenantID, clientID, clientSecret string) oauth2.TokenSource {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     "https://login.microsoftonline.com/" + url.PathEscape(tenantID) + "/oauth2/v2.0/token",
		Scopes:       []string{cognitiveScope},
	}
	return cc.TokenSource(ctx)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Prime sends the system groups without a response format.
func (c *Client) Prime(ctx context.Context, system ...[]string) error {
	req := chatRequest{Messages: toChatMessages(llm.SystemMessages(system))}
	_, err := c.complete(ctx, req, "prime")
	return err
}

// Generate requests a strict json_schema completion and decodes it into out.
func (c *Client) Generate(ctx context.Context, prompt llm.Prompt, out any) error {
	temp := float32(0)
	req := chatRequest{
		Messages:    toChatMessages(prompt.Messages()),
		Temperature: &temp,
	}
	if prompt.Schema.Root != nil {
		req.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   prompt.Schema.Name,
				Strict: true,
				Schema: prompt.Schema.Root.StrictJSON(),
			},
		}
	}
	content, err := c.complete(ctx, req, prompt.Schema.Name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("azure decode %s: %w", prompt.Schema.Name, err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, body chatRequest, schemaName string) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	var parsed chatResponse
	err = llm.WithRetry(ctx, c.maxRetries, func(int) error {
		var callErr error
		parsed, callErr = c.do(ctx, payload)
		return callErr
	})
	if err != nil {
		return "", err
	}
	llm.LogResponse(provider, c.model, schemaName, toUsage(parsed))

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("azure response missing choices: %w", llm.ErrNoResult)
	}
	msg := parsed.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("azure refusal %q: %w", msg.Refusal, llm.ErrNoResult)
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", fmt.Errorf("azure empty content: %w", llm.ErrNoResult)
	}
	return content, nil
}

func (c *Client) do(ctx context.Context, payload []byte) (chatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return chatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	} else {
		token, err := c.tokens.Token()
		if err != nil {
			return chatResponse{}, fmt.Errorf("azure token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chatResponse{}, fmt.Errorf("azure request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return chatResponse{}, fmt.Errorf("azure read body: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= 300 {
			return chatResponse{}, &llm.StatusError{Provider: provider, Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return chatResponse{}, fmt.Errorf("azure response parse: %w", err)
	}
	if resp.StatusCode >= 300 || parsed.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return chatResponse{}, &llm.StatusError{Provider: provider, Status: resp.StatusCode, Message: msg}
	}
	return parsed, nil
}

func toChatMessages(msgs []llm.Message) []chatMessage {
	out := make([]chatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func toUsage(resp chatResponse) *llm.Usage {
	if resp.Usage == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
}

var _ llm.Client = (*Client)(nil)
