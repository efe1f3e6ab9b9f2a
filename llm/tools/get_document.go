package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quiver/llm"
)

const GetDocumentToolName = "get_document"

// DocumentFetcher is the slice of the vector store the document tool needs.
type DocumentFetcher interface {
	GetPointsByFileName(ctx context.Context, collection, fileName string) ([]llm.Point, error)
}

type getDocumentParams struct {
	FileName string `json:"file_name"`
}

// GetDocumentDeclaration describes the full-document retrieval tool.
func GetDocumentDeclaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Type: "function",
		Function: llm.FunctionSpec{
			Name:        GetDocumentToolName,
			Description: "Retrieve the full text of a previously ingested document from the selected collection by its file name.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"file_name": map[string]any{
						"type":        "string",
						"description": "Base name of the ingested file, e.g. notes.md.",
					},
				},
				"required": []string{"file_name"},
			},
		},
	}
}

// NewGetDocumentHandler fetches every chunk of a file, in chunk order,
// and joins them back into the document text.
func NewGetDocumentHandler(fetcher DocumentFetcher, selection CollectionSelector) HandlerFunc {
	return func(ctx context.Context, arguments string) (string, error) {
		var params getDocumentParams
		if err := json.Unmarshal([]byte(arguments), &params); err != nil {
			return Error(fmt.Sprintf("invalid arguments: %v", err))
		}
		if strings.TrimSpace(params.FileName) == "" {
			return Error("file_name must not be empty")
		}

		collection := selection.SelectedCollection()
		if collection == "" {
			return Error("no collection selected; ask the user to select one first")
		}

		points, err := fetcher.GetPointsByFileName(ctx, collection, params.FileName)
		if err != nil {
			return Error(fmt.Sprintf("failed to fetch document: %v", err))
		}
		if len(points) == 0 {
			return Error(fmt.Sprintf("no document named %q in collection %q", params.FileName, collection))
		}

		parts := make([]string, 0, len(points))
		for _, pt := range points {
			if text, ok := pt.Payload["text"].(string); ok && text != "" {
				parts = append(parts, text)
			}
		}
		return Success(strings.Join(parts, "\n"), &Metadata{
			Collection: collection,
			FileName:   params.FileName,
			ChunkCount: len(points),
		})
	}
}
