package llm

import "warranty-copilot/internal/shared/telemetry"

// Usage is token accounting reported by a provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LogResponse records one completed provider call.
func LogResponse(provider, model, schema string, usage *Usage) {
	fields := map[string]any{
		"provider": provider,
		"model":    model,
		"schema":   schema,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}
