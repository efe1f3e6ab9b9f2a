package vector

import (
	"strings"
	"unicode/utf8"

	"quiver/llm"
)

// defaultSeparators is the split preference order: paragraph break, line
// break, word boundary, and finally the bare character boundary.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// MinChunkLength is the trimmed length below which ingestion skips a chunk.
const MinChunkLength = 10

// ChunkText splits text into chunks of at most chunkSize characters.
// Consecutive chunks share up to chunkOverlap characters of trailing
// context, and stripping that shared prefix from every chunk after the
// first reconstructs the input. Parameter misuse is a caller error and is
// rejected up front.
func ChunkText(text string, chunkSize, chunkOverlap int) (*llm.ChunkedDocument, error) {
	if chunkSize <= 0 {
		return nil, &llm.ValidationError{Reason: "chunk size must be positive"}
	}
	if chunkOverlap < 0 {
		return nil, &llm.ValidationError{Reason: "chunk overlap must not be negative"}
	}
	if chunkOverlap >= chunkSize {
		return nil, &llm.ValidationError{Reason: "chunk overlap must be smaller than chunk size"}
	}

	doc := &llm.ChunkedDocument{
		Chunks: []string{},
		Metadata: llm.ChunkMetadata{
			OriginalLength: len(text),
			ChunkSize:      chunkSize,
			ChunkOverlap:   chunkOverlap,
		},
	}
	if text == "" {
		return doc, nil
	}

	splits := splitRecursive(text, defaultSeparators, chunkSize)
	doc.Chunks = mergeSplits(splits, chunkSize, chunkOverlap)
	doc.Metadata.TotalChunks = len(doc.Chunks)
	return doc, nil
}

// splitRecursive cuts text into pieces no longer than size, trying each
// separator in order. Separators stay attached to the preceding piece so
// that concatenating all pieces yields the input unchanged.
func splitRecursive(text string, seps []string, size int) []string {
	if len(text) <= size {
		return []string{text}
	}
	if len(seps) == 0 || seps[0] == "" {
		return forceSplit(text, size)
	}

	parts := strings.SplitAfter(text, seps[0])
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) > size {
			out = append(out, splitRecursive(part, seps[1:], size)...)
		} else {
			out = append(out, part)
		}
	}
	return out
}

// forceSplit cuts text at rune boundaries into pieces of at most size
// bytes, the same unit every other limit uses. Last resort for text with
// no usable separator.
func forceSplit(text string, size int) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		if cur.Len() > 0 && cur.Len()+utf8.RuneLen(r) > size {
			out = append(out, cur.String())
			cur.Reset()
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// mergeSplits packs pieces into chunks of at most size characters, seeding
// each new chunk with the previous chunk's overlap tail.
func mergeSplits(splits []string, size, overlap int) []string {
	var chunks []string
	var cur strings.Builder

	for _, s := range splits {
		if cur.Len() > 0 && cur.Len()+len(s) > size {
			chunk := cur.String()
			chunks = append(chunks, chunk)

			tail := overlapTail(chunk, overlap)
			if len(tail)+len(s) > size {
				// the overlap would push this chunk past size
				tail = ""
			}
			cur.Reset()
			cur.WriteString(tail)
		}
		cur.WriteString(s)
	}

	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// overlapTail returns the last size characters of text, advanced to the
// next word boundary when one exists. The result is always a suffix of
// text.
func overlapTail(text string, size int) string {
	if size <= 0 || text == "" {
		return ""
	}
	if size >= len(text) {
		return text
	}

	tail := text[len(text)-size:]
	if firstSpace := strings.Index(tail, " "); firstSpace > 0 {
		return tail[firstSpace+1:]
	}
	return tail
}

// NormalizeChunk collapses runs of whitespace, including newlines, into
// single spaces before embedding.
func NormalizeChunk(chunk string) string {
	return strings.Join(strings.Fields(chunk), " ")
}
