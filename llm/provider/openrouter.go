package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quiver/llm"
	"quiver/logging"
)

const (
	// DefaultBaseURL points at the OpenRouter OpenAI-compatible API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	requestTimeout = 120 * time.Second
)

// GenerateOptions tunes a single completion call. Zero values fall back to
// the client defaults.
type GenerateOptions struct {
	Model        string
	SystemPrompt string
	Tools        []llm.ToolDeclaration
	MaxTokens    int
	Temperature  float64
}

// Client talks to an OpenRouter-compatible chat completion endpoint.
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	logger       logging.Logger
}

// NewClient builds a gateway client. baseURL may be empty to use the
// public OpenRouter endpoint.
func NewClient(apiKey, baseURL, defaultModel string, logger logging.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: requestTimeout},
		logger:       logger,
	}
}

type chatRequest struct {
	Model       string                `json:"model"`
	Messages    []llm.Message         `json:"messages"`
	Tools       []llm.ToolDeclaration `json:"tools,omitempty"`
	Stream      bool                  `json:"stream,omitempty"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
	Temperature float64               `json:"temperature,omitempty"`
}

type chatChoice struct {
	Message      llm.Message `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *llm.Usage   `json:"usage"`
}

// GenerateResponse runs one non-streaming completion over the full
// message history, declaring opts.Tools to the model when present.
func (c *Client) GenerateResponse(ctx context.Context, messages []llm.Message, opts GenerateOptions) (*llm.AIResponse, error) {
	req := chatRequest{
		Model:       c.pickModel(opts.Model),
		Messages:    c.withSystemPrompt(messages, opts.SystemPrompt),
		Tools:       opts.Tools,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.NetworkError{Op: "chat completion", Err: fmt.Errorf("response contained no choices")}
	}

	choice := resp.Choices[0]
	return &llm.AIResponse{
		Content:   choice.Message.Content,
		Model:     resp.Model,
		Usage:     resp.Usage,
		ToolCalls: choice.Message.ToolCalls,
	}, nil
}

// GenerateFromPrompt is the single-turn convenience form.
func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := c.GenerateResponse(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

type streamDelta struct {
	Content   string `json:"content"`
	ToolCalls []struct {
		Index    int    `json:"index"`
		ID       string `json:"id"`
		Type     string `json:"type"`
		Function struct {
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		} `json:"function"`
	} `json:"tool_calls"`
}

type streamChunk struct {
	Model   string `json:"model"`
	Choices []struct {
		Delta        streamDelta `json:"delta"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage"`
}

// GenerateStreamingResponse runs a stream:true completion, invoking
// onDelta for every content fragment as it arrives. The accumulated
// response has the same shape GenerateResponse returns. Malformed SSE
// chunks are skipped rather than failing the stream.
func (c *Client) GenerateStreamingResponse(ctx context.Context, messages []llm.Message, opts GenerateOptions, onDelta func(string)) (*llm.AIResponse, error) {
	req := chatRequest{
		Model:       c.pickModel(opts.Model),
		Messages:    c.withSystemPrompt(messages, opts.SystemPrompt),
		Tools:       opts.Tools,
		Stream:      true,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	body, err := c.send(ctx, http.MethodPost, "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	result := &llm.AIResponse{}
	var content strings.Builder
	toolCalls := map[int]*llm.ToolCall{}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.logger.Debugf("skipping malformed stream chunk: %v", err)
			continue
		}
		if chunk.Model != "" {
			result.Model = chunk.Model
		}
		if chunk.Usage != nil {
			result.Usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}
		for _, tc := range delta.ToolCalls {
			call, ok := toolCalls[tc.Index]
			if !ok {
				call = &llm.ToolCall{Type: "function"}
				toolCalls[tc.Index] = call
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Type != "" {
				call.Type = tc.Type
			}
			if tc.Function.Name != "" {
				call.Function.Name = tc.Function.Name
			}
			call.Function.Arguments += tc.Function.Arguments
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &llm.NetworkError{Op: "chat completion stream", Err: err}
	}

	result.Content = content.String()
	for i := 0; i < len(toolCalls); i++ {
		if call, ok := toolCalls[i]; ok {
			result.ToolCalls = append(result.ToolCalls, *call)
		}
	}
	return result, nil
}

// ValidateToken reports whether the configured token is accepted by the
// gateway. It never returns an error: any failure, including an empty
// token checked without a network call, reads as invalid.
func (c *Client) ValidateToken(ctx context.Context) bool {
	if strings.TrimSpace(c.apiKey) == "" {
		return false
	}
	body, err := c.send(ctx, http.MethodGet, "/auth/key", nil)
	if err != nil {
		c.logger.Debugf("token validation failed: %v", err)
		return false
	}
	body.Close()
	return true
}

func (c *Client) pickModel(model string) string {
	if model != "" {
		return model
	}
	return c.defaultModel
}

func (c *Client) withSystemPrompt(messages []llm.Message, system string) []llm.Message {
	if system == "" {
		return messages
	}
	out := make([]llm.Message, 0, len(messages)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: system})
	return append(out, messages...)
}

// send issues one request and returns the raw body on 2xx. Non-2xx is
// turned into a NetworkError carrying the response text.
func (c *Client) send(ctx context.Context, method, path string, payload any) (io.ReadCloser, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &llm.NetworkError{Op: method + " " + path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &llm.NetworkError{Op: method + " " + path, Status: resp.StatusCode, Body: string(data)}
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := c.send(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return &llm.NetworkError{Op: "POST " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
