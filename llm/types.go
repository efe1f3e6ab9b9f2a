package llm

import "time"

// Collection describes a named set of points in the vector store.
type Collection struct {
	Name         string           `json:"name"`
	VectorsCount int64            `json:"vectors_count"`
	PointsCount  int64            `json:"points_count"`
	Status       string           `json:"status"`
	Config       CollectionConfig `json:"config"`
}

// CollectionConfig mirrors the store's vector configuration block.
type CollectionConfig struct {
	Params struct {
		Vectors VectorParams `json:"vectors"`
	} `json:"params"`
}

// VectorParams holds the dimensionality and distance metric of a collection.
type VectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

// Point is one stored vector plus its payload. The store accepts both
// numeric and string identifiers, so ID stays untyped.
type Point struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SearchResult is a single nearest-neighbor match. Score is similarity in
// [0,1], higher is more similar.
type SearchResult struct {
	ID      any            `json:"id"`
	Score   float32        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
	Vector  []float32      `json:"vector,omitempty"`
}

// SearchOptions bounds a vector search.
type SearchOptions struct {
	Limit          int
	ScoreThreshold float32
}

// ChunkedDocument is the transient output of the chunker.
type ChunkedDocument struct {
	Chunks   []string
	Metadata ChunkMetadata
}

// ChunkMetadata records how a document was split.
type ChunkMetadata struct {
	TotalChunks    int
	OriginalLength int
	ChunkSize      int
	ChunkOverlap   int
}

// ChunkFailure explains why a single chunk was skipped during ingestion.
type ChunkFailure struct {
	ChunkIndex int    `json:"chunkIndex"`
	Reason     string `json:"reason"`
}

// UploadResult summarizes one ingestion run. VectorsCreated may be lower
// than ChunksProcessed; Failures carries the reason for every skipped chunk.
type UploadResult struct {
	Success         bool           `json:"success"`
	ChunksProcessed int            `json:"chunksProcessed"`
	VectorsCreated  int            `json:"vectorsCreated"`
	CollectionName  string         `json:"collectionName"`
	Failures        []ChunkFailure `json:"failures,omitempty"`
}

// ProgressFunc reports ingestion progress. current counts toward total
// (0-100) and stage is a human-readable label.
type ProgressFunc func(current, total int, stage string)

// Message roles on the chat completions wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a chat completions conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its JSON-serialized arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDeclaration is a static tool definition sent to the model.
type ToolDeclaration struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec describes a callable function with a JSON-schema parameter spec.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Usage is token accounting reported by the gateway.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AIResponse is the normalized result of one completion call.
type AIResponse struct {
	Content   string
	Model     string
	Usage     *Usage
	ToolCalls []ToolCall
}

// ModelInfo is one entry of the gateway's model catalog. Prices are the
// gateway's decimal strings, kept verbatim for display.
type ModelInfo struct {
	ID            string
	Name          string
	Description   string
	ContextLength int
	PromptPrice   string
	CompletePrice string
	Provider      string
}

// Chat senders as shown in the console.
const (
	SenderUser = "user"
	SenderAI   = "ai"
	SenderTool = "tool"
)

// ToolInvocation records one executed tool call for display.
type ToolInvocation struct {
	Name      string
	Arguments string
	Result    string
	Err       string
}

// ChatMessage is one console-visible conversation entry. The list is
// append-only and lives only for the session.
type ChatMessage struct {
	ID        string
	Content   string
	Sender    string
	Timestamp time.Time
	ToolInfo  []ToolInvocation
}
