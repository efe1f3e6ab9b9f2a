package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quiver/llm"
)

const VectorSearchToolName = "vector_search"

const defaultSearchLimit = 5

// Embedder is the slice of the embedding client the search tool needs.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the slice of the vector store the search tool needs.
type Searcher interface {
	Search(ctx context.Context, collection string, vector []float32, opts llm.SearchOptions) ([]llm.SearchResult, error)
}

// CollectionSelector reports which collection the user is working in.
// The config provider satisfies it.
type CollectionSelector interface {
	SelectedCollection() string
}

type vectorSearchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// VectorSearchDeclaration describes the semantic search tool.
func VectorSearchDeclaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Type: "function",
		Function: llm.FunctionSpec{
			Name:        VectorSearchToolName,
			Description: "Semantically search the currently selected document collection and return the most relevant text chunks.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Natural language search query.",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of chunks to return (default 5).",
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// NewVectorSearchHandler embeds the query and searches the selected
// collection.
func NewVectorSearchHandler(embedder Embedder, searcher Searcher, selection CollectionSelector) HandlerFunc {
	return func(ctx context.Context, arguments string) (string, error) {
		var params vectorSearchParams
		if err := json.Unmarshal([]byte(arguments), &params); err != nil {
			return Error(fmt.Sprintf("invalid arguments: %v", err))
		}
		if strings.TrimSpace(params.Query) == "" {
			return Error("query must not be empty")
		}

		collection := selection.SelectedCollection()
		if collection == "" {
			return Error("no collection selected; ask the user to select one first")
		}

		limit := params.Limit
		if limit <= 0 {
			limit = defaultSearchLimit
		}

		vectors, err := embedder.EmbedTexts(ctx, []string{params.Query})
		if err != nil {
			return Error(fmt.Sprintf("failed to embed query: %v", err))
		}

		results, err := searcher.Search(ctx, collection, vectors[0], llm.SearchOptions{Limit: limit})
		if err != nil {
			return Error(fmt.Sprintf("search failed: %v", err))
		}
		if len(results) == 0 {
			return Success("No matching chunks found.", &Metadata{Collection: collection})
		}

		var sb strings.Builder
		for i, res := range results {
			text, _ := res.Payload["text"].(string)
			fmt.Fprintf(&sb, "[%d] score=%.4f\n%s\n\n", i+1, res.Score, text)
		}
		return Success(strings.TrimSpace(sb.String()), &Metadata{
			Collection: collection,
			MatchCount: len(results),
		})
	}
}
