package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`(?m)^#+\s+`)
	linkRe    = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]+\)`)
)

// MarkdownParser handles markdown files. Formatting markers are stripped so
// the embedded text carries prose, not syntax; code blocks are kept.
type MarkdownParser struct{}

func NewMarkdownParser() *MarkdownParser { return &MarkdownParser{} }

func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	return p.document(string(data), ""), nil
}

func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.document(string(data), filePath), nil
}

func (p *MarkdownParser) document(raw, filePath string) *Document {
	metadata, body := splitFrontmatter(raw)
	content := cleanMarkdown(body)

	title := firstLineTitle(body, filePath)
	if t, ok := metadata["title"].(string); ok && t != "" {
		title = t
	}

	metadata["fileSize"] = len(raw)
	metadata["lineCount"] = strings.Count(raw, "\n") + 1

	return &Document{
		Content:  content,
		Title:    title,
		Metadata: metadata,
	}
}

func (p *MarkdownParser) FileType() FileType { return FileTypeMD }

// splitFrontmatter peels a leading YAML frontmatter block off the content.
// Only flat key: value pairs are read; anything else is ignored.
func splitFrontmatter(content string) (map[string]any, string) {
	metadata := make(map[string]any)
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return metadata, content
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			return metadata, strings.Join(lines[i+1:], "\n")
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
			metadata[key] = value
		}
	}
	return metadata, content
}

// cleanMarkdown drops heading markers, emphasis and link syntax while
// keeping the readable text.
func cleanMarkdown(content string) string {
	content = headingRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")

	for _, marker := range []string{"**", "__", "*", "_"} {
		content = strings.ReplaceAll(content, marker, "")
	}

	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n\n")
}
