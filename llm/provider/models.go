package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"quiver/llm"
)

type modelsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		ContextLength int    `json:"context_length"`
		Pricing       struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

// fallbackModels keeps the model picker usable when the catalog endpoint
// is unreachable.
var fallbackModels = []llm.ModelInfo{
	{ID: "anthropic/claude-3-haiku", Name: "Claude 3 Haiku", ContextLength: 200000, Provider: "anthropic"},
	{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", ContextLength: 200000, Provider: "anthropic"},
	{ID: "openai/gpt-4o-mini", Name: "GPT-4o Mini", ContextLength: 128000, Provider: "openai"},
	{ID: "openai/gpt-4o", Name: "GPT-4o", ContextLength: 128000, Provider: "openai"},
	{ID: "google/gemini-flash-1.5", Name: "Gemini Flash 1.5", ContextLength: 1000000, Provider: "google"},
	{ID: "meta-llama/llama-3.1-70b-instruct", Name: "Llama 3.1 70B Instruct", ContextLength: 131072, Provider: "meta-llama"},
}

// GetAvailableModels lists the models the gateway offers. On any failure
// it degrades to a small static list so the UI always has choices.
func (c *Client) GetAvailableModels(ctx context.Context) []llm.ModelInfo {
	body, err := c.send(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		c.logger.Warnf("model catalog unavailable, using fallback list: %v", err)
		return fallbackModels
	}
	defer body.Close()

	var resp modelsResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		c.logger.Warnf("model catalog decode failed, using fallback list: %v", err)
		return fallbackModels
	}
	if len(resp.Data) == 0 {
		return fallbackModels
	}

	models := make([]llm.ModelInfo, 0, len(resp.Data))
	for _, m := range resp.Data {
		provider := m.ID
		if idx := strings.Index(m.ID, "/"); idx > 0 {
			provider = m.ID[:idx]
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, llm.ModelInfo{
			ID:            m.ID,
			Name:          name,
			Description:   m.Description,
			ContextLength: m.ContextLength,
			PromptPrice:   m.Pricing.Prompt,
			CompletePrice: m.Pricing.Completion,
			Provider:      provider,
		})
	}
	return models
}
