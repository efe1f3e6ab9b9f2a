package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// HTMLParser handles HTML files. Script, style and nav chrome are removed
// and the remaining body is converted to markdown so headings and lists
// survive into the chunker.
type HTMLParser struct {
	converter *md.Converter
}

func NewHTMLParser() *HTMLParser {
	return &HTMLParser{converter: md.NewConverter("", true, nil)}
}

func (p *HTMLParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	return p.parse(r, "")
}

func (p *HTMLParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	defer f.Close()
	return p.parse(f, filePath)
}

func (p *HTMLParser) parse(r io.Reader, filePath string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, noscript, nav, iframe").Remove()

	body := doc.Find("body")
	bodyHTML, err := body.Html()
	if err != nil || strings.TrimSpace(bodyHTML) == "" {
		// No body element, fall back to the whole document.
		bodyHTML, _ = doc.Html()
	}

	content, err := p.converter.ConvertString(bodyHTML)
	if err != nil {
		return nil, fmt.Errorf("convert HTML: %w", err)
	}
	content = collapseBlankLines(content)

	if title == "" {
		title = firstLineTitle(content, filePath)
	}

	return &Document{
		Content: content,
		Title:   title,
		Metadata: map[string]any{
			"fileSize":  len(bodyHTML),
			"linkCount": doc.Find("a").Length(),
		},
	}, nil
}

func (p *HTMLParser) FileType() FileType { return FileTypeHTML }

func collapseBlankLines(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n\n")
}
