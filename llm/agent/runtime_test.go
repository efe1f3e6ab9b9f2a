package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiver/llm"
	"quiver/llm/provider"
	"quiver/logging"
)

// scriptedGateway returns its responses in order, then errors.
type scriptedGateway struct {
	responses []*llm.AIResponse
	err       error
	histories [][]llm.Message
	gotOpts   []provider.GenerateOptions
}

func (g *scriptedGateway) GenerateResponse(_ context.Context, messages []llm.Message, opts provider.GenerateOptions) (*llm.AIResponse, error) {
	g.histories = append(g.histories, messages)
	g.gotOpts = append(g.gotOpts, opts)
	if g.err != nil {
		return nil, g.err
	}
	if len(g.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

type fakeExecutor struct {
	result string
	err    error
	calls  []llm.ToolCall
}

func (f *fakeExecutor) Declarations(names ...string) []llm.ToolDeclaration {
	return []llm.ToolDeclaration{{Type: "function", Function: llm.FunctionSpec{Name: "vector_search"}}}
}

func (f *fakeExecutor) Execute(_ context.Context, call llm.ToolCall) (string, error) {
	f.calls = append(f.calls, call)
	return f.result, f.err
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{ID: id, Type: "function", Function: llm.FunctionCall{Name: name, Arguments: args}}
}

func TestRunDirectAnswer(t *testing.T) {
	gateway := &scriptedGateway{responses: []*llm.AIResponse{
		{Content: "The answer is four."},
	}}
	rt := NewRuntime(gateway, &fakeExecutor{}, logging.Discard(), Config{Model: "test/model"})
	defer rt.Close()

	require.NoError(t, rt.Run(context.Background(), "what is two plus two?"))

	history, err := rt.Store().List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, llm.RoleUser, history[0].Role)
	assert.Equal(t, llm.RoleAssistant, history[1].Role)
	assert.Equal(t, "The answer is four.", history[1].Content)

	require.Len(t, gateway.gotOpts, 1)
	assert.Equal(t, "test/model", gateway.gotOpts[0].Model)
	assert.NotEmpty(t, gateway.gotOpts[0].SystemPrompt)
	require.Len(t, gateway.gotOpts[0].Tools, 1)
}

func TestRunToolRound(t *testing.T) {
	gateway := &scriptedGateway{responses: []*llm.AIResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "vector_search", `{"query":"chunking"}`)}},
		{Content: "Chunking splits documents into overlapping pieces."},
	}}
	executor := &fakeExecutor{result: "found 3 chunks about chunking"}
	rt := NewRuntime(gateway, executor, logging.Discard(), Config{})
	defer rt.Close()

	require.NoError(t, rt.Run(context.Background(), "what does chunking do?"))

	require.Len(t, executor.calls, 1)
	assert.Equal(t, "vector_search", executor.calls[0].Function.Name)

	history, err := rt.Store().List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, llm.RoleUser, history[0].Role)
	assert.Equal(t, llm.RoleAssistant, history[1].Role)
	require.Len(t, history[1].ToolCalls, 1)
	assert.Equal(t, llm.RoleTool, history[2].Role)
	assert.Equal(t, "call_1", history[2].ToolCallID)
	assert.Equal(t, "found 3 chunks about chunking", history[2].Content)
	assert.Equal(t, llm.RoleAssistant, history[3].Role)

	// Second model call sees the tool result.
	require.Len(t, gateway.histories, 2)
	assert.Len(t, gateway.histories[1], 3)
}

func TestRunToolFailureBecomesResultTurn(t *testing.T) {
	gateway := &scriptedGateway{responses: []*llm.AIResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "vector_search", `{}`)}},
		{Content: "I could not search the collection."},
	}}
	executor := &fakeExecutor{err: errors.New("store unreachable")}
	rt := NewRuntime(gateway, executor, logging.Discard(), Config{})
	defer rt.Close()

	require.NoError(t, rt.Run(context.Background(), "search please"))

	history, err := rt.Store().List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, llm.RoleTool, history[2].Role)
	assert.Contains(t, history[2].Content, "[ERROR] tool vector_search failed")
	assert.Contains(t, history[2].Content, "store unreachable")
}

func TestRunRoundCap(t *testing.T) {
	// Every response demands another tool round; the cap must stop it.
	looping := make([]*llm.AIResponse, 3)
	for i := range looping {
		looping[i] = &llm.AIResponse{ToolCalls: []llm.ToolCall{toolCall("call", "vector_search", `{}`)}}
	}
	gateway := &scriptedGateway{responses: looping}
	rt := NewRuntime(gateway, &fakeExecutor{result: "partial"}, logging.Discard(), Config{MaxRounds: 3})
	defer rt.Close()

	require.NoError(t, rt.Run(context.Background(), "loop forever"))

	assert.Len(t, gateway.histories, 3)

	history, err := rt.Store().List(context.Background())
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, llm.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "Stopped after 3 tool rounds")
}

func TestRunGatewayError(t *testing.T) {
	gateway := &scriptedGateway{err: errors.New("gateway down")}
	rt := NewRuntime(gateway, &fakeExecutor{}, logging.Discard(), Config{})

	sub := rt.Broker().Subscribe(context.Background())
	defer rt.Close()

	err := rt.Run(context.Background(), "hello")
	require.Error(t, err)

	// User message, then the failure notice.
	first := <-sub
	assert.Equal(t, llm.SenderUser, first.Payload.Sender)
	second := <-sub
	assert.Equal(t, llm.SenderAI, second.Payload.Sender)
	assert.Contains(t, second.Payload.Content, "model request failed")
}

func TestRunPublishesTranscript(t *testing.T) {
	gateway := &scriptedGateway{responses: []*llm.AIResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "vector_search", `{"query":"x"}`)}},
		{Content: "done"},
	}}
	rt := NewRuntime(gateway, &fakeExecutor{result: "tool output"}, logging.Discard(), Config{})

	sub := rt.Broker().Subscribe(context.Background())
	defer rt.Close()

	require.NoError(t, rt.Run(context.Background(), "question"))

	var senders []string
	for i := 0; i < 3; i++ {
		ev := <-sub
		senders = append(senders, ev.Payload.Sender)
		if ev.Payload.Sender == llm.SenderTool {
			require.Len(t, ev.Payload.ToolInfo, 1)
			assert.Equal(t, "vector_search", ev.Payload.ToolInfo[0].Name)
			assert.Equal(t, "tool output", ev.Payload.ToolInfo[0].Result)
			assert.Empty(t, ev.Payload.ToolInfo[0].Err)
		}
	}
	assert.Equal(t, []string{llm.SenderUser, llm.SenderTool, llm.SenderAI}, senders)
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gateway := &scriptedGateway{responses: []*llm.AIResponse{
		{ToolCalls: []llm.ToolCall{toolCall("call_1", "vector_search", `{}`)}},
	}}
	executor := &fakeExecutor{result: "never used"}
	rt := NewRuntime(gateway, executor, logging.Discard(), Config{})
	defer rt.Close()

	err := rt.Run(ctx, "doomed")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, executor.calls)
}

func TestReset(t *testing.T) {
	gateway := &scriptedGateway{responses: []*llm.AIResponse{{Content: "hi"}}}
	rt := NewRuntime(gateway, &fakeExecutor{}, logging.Discard(), Config{})
	defer rt.Close()

	require.NoError(t, rt.Run(context.Background(), "hello"))
	require.NoError(t, rt.Reset(context.Background()))

	history, err := rt.Store().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStoreWindow(t *testing.T) {
	store := NewMemoryStore()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.Add(context.Background(), llm.Message{
			Role:    llm.RoleUser,
			Content: strings.Repeat("x", i+1),
		}))
	}

	history, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 20)
	// Oldest five dropped.
	assert.Equal(t, strings.Repeat("x", 6), history[0].Content)
}

func TestMemoryStoreTruncatesToolResults(t *testing.T) {
	store := NewMemoryStore()
	long := strings.Repeat("some sentence. ", 300)
	require.NoError(t, store.Add(context.Background(), llm.Message{Role: llm.RoleTool, Content: long}))

	history, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Less(t, len(history[0].Content), len(long))
	assert.Contains(t, history[0].Content, "[Tool result truncated:")
	// Cut lands on a sentence boundary.
	marker := strings.Index(history[0].Content, "\n\n[Tool result truncated:")
	require.Greater(t, marker, 0)
	assert.True(t, strings.HasSuffix(history[0].Content[:marker], ". "))
}
