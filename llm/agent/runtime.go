package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiver/llm"
	"quiver/llm/provider"
	"quiver/logging"
	"quiver/pubsub"
)

// defaultMaxRounds bounds the model/tool round trips for one user turn.
const defaultMaxRounds = 8

const defaultSystemPrompt = `You are a helpful assistant for exploring a vector database of ingested documents.
You can search the selected collection semantically, retrieve full documents by file name, and compute small factorials.
Use tools when they help answer the question; otherwise answer directly. Keep answers concise.`

// Gateway is the slice of the LLM client the runtime drives.
type Gateway interface {
	GenerateResponse(ctx context.Context, messages []llm.Message, opts provider.GenerateOptions) (*llm.AIResponse, error)
}

// ToolExecutor is the slice of the tool registry the runtime drives.
type ToolExecutor interface {
	Declarations(names ...string) []llm.ToolDeclaration
	Execute(ctx context.Context, call llm.ToolCall) (string, error)
}

// Config tunes a Runtime. Zero values get defaults.
type Config struct {
	SystemPrompt string
	MaxRounds    int
	EnabledTools []string
	Model        string
}

// Runtime orchestrates one chat session: it feeds history to the gateway,
// executes requested tools, and publishes the transcript over its broker.
type Runtime struct {
	gateway      Gateway
	tools        ToolExecutor
	store        ConversationStore
	broker       *pubsub.Broker[*llm.ChatMessage]
	logger       logging.Logger
	systemPrompt string
	maxRounds    int
	enabledTools []string
	model        string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRuntime wires a chat runtime over its collaborators.
func NewRuntime(gateway Gateway, tools ToolExecutor, logger logging.Logger, cfg Config) *Runtime {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	return &Runtime{
		gateway:      gateway,
		tools:        tools,
		store:        NewMemoryStore(),
		broker:       pubsub.NewBroker[*llm.ChatMessage](),
		logger:       logger,
		systemPrompt: cfg.SystemPrompt,
		maxRounds:    cfg.MaxRounds,
		enabledTools: cfg.EnabledTools,
		model:        cfg.Model,
	}
}

// Run processes one user turn. It loops model calls and tool executions
// until the model answers without tool calls or the round cap is hit.
// Tool failures become tool-result turns, never gaps in the transcript.
func (r *Runtime) Run(ctx context.Context, userPrompt string) error {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	userMsg := llm.Message{Role: llm.RoleUser, Content: userPrompt}
	if err := r.store.Add(ctx, userMsg); err != nil {
		return fmt.Errorf("store user message: %w", err)
	}
	r.publish(llm.SenderUser, userPrompt, nil)

	decls := r.tools.Declarations(r.enabledTools...)

	for round := 0; round < r.maxRounds; round++ {
		history, err := r.store.List(ctx)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}

		resp, err := r.gateway.GenerateResponse(ctx, history, provider.GenerateOptions{
			Model:        r.model,
			SystemPrompt: r.systemPrompt,
			Tools:        decls,
		})
		if err != nil {
			r.publish(llm.SenderAI, fmt.Sprintf("Sorry, the model request failed: %v", err), nil)
			return err
		}

		assistant := llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		if err := r.store.Add(ctx, assistant); err != nil {
			return fmt.Errorf("store assistant message: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			r.publish(llm.SenderAI, resp.Content, nil)
			return nil
		}
		if resp.Content != "" {
			r.publish(llm.SenderAI, resp.Content, nil)
		}

		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, execErr := r.tools.Execute(ctx, call)
			if execErr != nil {
				r.logger.Warnf("tool %s failed: %v", call.Function.Name, execErr)
				result = fmt.Sprintf("[ERROR] tool %s failed: %v", call.Function.Name, execErr)
			}

			toolMsg := llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			}
			if err := r.store.Add(ctx, toolMsg); err != nil {
				return fmt.Errorf("store tool message: %w", err)
			}
			errText := ""
			if execErr != nil {
				errText = execErr.Error()
			}
			r.publish(llm.SenderTool, result, []llm.ToolInvocation{{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
				Result:    result,
				Err:       errText,
			}})
		}
	}

	capMsg := fmt.Sprintf("Stopped after %d tool rounds without a final answer. Try rephrasing the question.", r.maxRounds)
	if err := r.store.Add(ctx, llm.Message{Role: llm.RoleAssistant, Content: capMsg}); err != nil {
		return fmt.Errorf("store round cap message: %w", err)
	}
	r.publish(llm.SenderAI, capMsg, nil)
	return nil
}

// Cancel aborts the in-flight turn, if any.
func (r *Runtime) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Reset clears the conversation history.
func (r *Runtime) Reset(ctx context.Context) error {
	return r.store.Clear(ctx)
}

// Broker exposes the transcript event stream for UI subscribers.
func (r *Runtime) Broker() *pubsub.Broker[*llm.ChatMessage] {
	return r.broker
}

// Store exposes the conversation store.
func (r *Runtime) Store() ConversationStore {
	return r.store
}

// Close cancels any in-flight turn and shuts the broker down.
func (r *Runtime) Close() {
	r.Cancel()
	r.broker.Shutdown()
}

func (r *Runtime) publish(sender, content string, tool []llm.ToolInvocation) {
	r.broker.Publish(pubsub.CreatedEvent, &llm.ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
		ToolInfo:  tool,
	})
}
