package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// TxtParser handles plain text files. The content passes through untouched.
type TxtParser struct{}

func NewTxtParser() *TxtParser { return &TxtParser{} }

func (p *TxtParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return p.document(string(data), ""), nil
}

func (p *TxtParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.document(string(data), filePath), nil
}

func (p *TxtParser) document(content, filePath string) *Document {
	return &Document{
		Content: content,
		Title:   firstLineTitle(content, filePath),
		Metadata: map[string]any{
			"fileSize":  len(content),
			"lineCount": strings.Count(content, "\n") + 1,
		},
	}
}

func (p *TxtParser) FileType() FileType { return FileTypeTXT }
