package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"warranty-copilot/internal/llm"
)

const provider = "gemini"

// Client implements llm.Client on the Gemini API.
type Client struct {
	models     *genai.Models
	model      string
	maxRetries int
}

// New builds a Gemini client. An empty apiKey lets genai read GEMINI_API_KEY.
func New(ctx context.Context, apiKey, model string, maxRetries int) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("GEMINI_MODEL is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{models: cli.Models, model: model, maxRetries: maxRetries}, nil
}

// Prime sends the system groups as the system instruction with a short user
// turn, since the API requires at least one content.
func (c *Client) Prime(ctx context.Context, system ...[]string) error {
	cfg := &genai.GenerateContentConfig{SystemInstruction: systemInstruction(system)}
	_, err := c.generate(ctx, []*genai.Content{genai.NewContentFromText("ready", genai.RoleUser)}, cfg, "prime")
	if errors.Is(err, llm.ErrNoResult) {
		return nil
	}
	return err
}

// Generate asks for application/json constrained by prompt.Schema.
func (c *Client) Generate(ctx context.Context, prompt llm.Prompt, out any) error {
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(prompt.System),
		Temperature:       &temp,
		ResponseMIMEType:  "application/json",
	}
	if prompt.Schema.Root != nil {
		cfg.ResponseSchema = ToSchema(prompt.Schema.Root)
	}
	contents := []*genai.Content{genai.NewContentFromText(llm.Join(prompt.User), genai.RoleUser)}
	text, err := c.generate(ctx, contents, cfg, prompt.Schema.Name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("gemini decode %s: %w", prompt.Schema.Name, err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig, schemaName string) (string, error) {
	var resp *genai.GenerateContentResponse
	err := llm.WithRetry(ctx, c.maxRetries, func(int) error {
		var callErr error
		resp, callErr = c.models.GenerateContent(ctx, c.model, contents, cfg)
		return toStatusError(callErr)
	})
	if err != nil {
		return "", err
	}
	llm.LogResponse(provider, c.model, schemaName, toUsage(resp))

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini response missing candidates: %w", llm.ErrNoResult)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini empty content: %w", llm.ErrNoResult)
	}
	return text, nil
}

func systemInstruction(groups [][]string) *genai.Content {
	if len(groups) == 0 {
		return nil
	}
	parts := make([]*genai.Part, 0, len(groups))
	for _, msg := range llm.SystemMessages(groups) {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}
	return &genai.Content{Parts: parts}
}

// toStatusError maps API errors onto llm.StatusError so retry decisions are
// shared across providers.
func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: provider, Status: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &llm.StatusError{Provider: provider, Status: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}

func toUsage(resp *genai.GenerateContentResponse) *llm.Usage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}

var _ llm.Client = (*Client)(nil)
