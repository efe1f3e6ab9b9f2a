package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"quiver/llm"
)

// FileType identifies a supported document format.
type FileType string

const (
	FileTypeTXT     FileType = "txt"
	FileTypeMD      FileType = "md"
	FileTypeHTML    FileType = "html"
	FileTypeUnknown FileType = "unknown"
)

func (ft FileType) String() string { return string(ft) }

// FileTypeFromExt maps a file extension (without the dot) to a FileType.
func FileTypeFromExt(ext string) FileType {
	switch strings.ToLower(ext) {
	case "txt", "text", "log":
		return FileTypeTXT
	case "md", "markdown":
		return FileTypeMD
	case "html", "htm":
		return FileTypeHTML
	default:
		return FileTypeUnknown
	}
}

// Document is the plain-text result of parsing a file, ready for chunking.
type Document struct {
	Content  string
	Title    string
	Metadata map[string]any
}

// Parser extracts plain text from one document format.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*Document, error)
	ParseFile(ctx context.Context, filePath string) (*Document, error)
	FileType() FileType
}

// Registry dispatches files to the parser registered for their extension.
type Registry struct {
	parsers map[FileType]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[FileType]Parser)}
}

// Register adds a parser, replacing any previous one for the same type.
func (r *Registry) Register(p Parser) {
	r.parsers[p.FileType()] = p
}

// ParserForPath picks a parser by the path's extension.
func (r *Registry) ParserForPath(filePath string) (Parser, bool) {
	ext := strings.TrimPrefix(filepath.Ext(filePath), ".")
	p, ok := r.parsers[FileTypeFromExt(ext)]
	return p, ok
}

// ParseFile parses a file with the parser matching its extension.
func (r *Registry) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	p, ok := r.ParserForPath(filePath)
	if !ok {
		return nil, &llm.ValidationError{
			Reason: fmt.Sprintf("unsupported file type %q", filepath.Ext(filePath)),
		}
	}
	return p.ParseFile(ctx, filePath)
}

// DefaultRegistry returns a registry with every built-in parser registered.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewTxtParser())
	reg.Register(NewMarkdownParser())
	reg.Register(NewHTMLParser())
	return reg
}

// firstLineTitle picks a short first non-empty line as a title, falling
// back to the file's base name.
func firstLineTitle(content, filePath string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if line == "" {
			continue
		}
		if len(line) < 100 {
			return line
		}
		break
	}
	if filePath != "" {
		return filepath.Base(filePath)
	}
	return "Untitled"
}
