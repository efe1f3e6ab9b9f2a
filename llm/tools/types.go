package tools

import (
	"fmt"
	"strings"
)

// ResultStatus classifies a tool execution outcome.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusPartial ResultStatus = "partial"
)

// Metadata carries structured facts about a tool run, rendered as a
// trailing attribute block the model can read.
type Metadata struct {
	Collection string `json:"collection,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	MatchCount int    `json:"match_count,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

// ToolResult is the structured response every tool produces.
type ToolResult struct {
	Status   ResultStatus `json:"status"`
	Content  string       `json:"content"`
	Metadata *Metadata    `json:"metadata,omitempty"`
}

// String formats the result for model consumption.
func (r *ToolResult) String() string {
	var sb strings.Builder

	if r.Status == StatusError {
		sb.WriteString("[ERROR] ")
	} else if r.Status == StatusPartial {
		sb.WriteString("[PARTIAL] ")
	}
	sb.WriteString(r.Content)

	if md := r.Metadata; md != nil {
		var attrs []string
		if md.Collection != "" {
			attrs = append(attrs, fmt.Sprintf("collection=%s", md.Collection))
		}
		if md.FileName != "" {
			attrs = append(attrs, fmt.Sprintf("file=%s", md.FileName))
		}
		if md.MatchCount > 0 {
			attrs = append(attrs, fmt.Sprintf("matches=%d", md.MatchCount))
		}
		if md.ChunkCount > 0 {
			attrs = append(attrs, fmt.Sprintf("chunks=%d", md.ChunkCount))
		}
		if len(attrs) > 0 {
			sb.WriteString(fmt.Sprintf("\n\n<metadata %s />", strings.Join(attrs, " ")))
		}
	}

	return sb.String()
}

// Success creates a successful tool result string.
func Success(content string, metadata *Metadata) (string, error) {
	return (&ToolResult{Status: StatusSuccess, Content: content, Metadata: metadata}).String(), nil
}

// Error creates an error tool result string.
func Error(content string) (string, error) {
	return (&ToolResult{Status: StatusError, Content: content}).String(), nil
}

// Partial creates a partial success tool result string.
func Partial(content string, metadata *Metadata) (string, error) {
	return (&ToolResult{Status: StatusPartial, Content: content, Metadata: metadata}).String(), nil
}
