package vector

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiver/llm"
)

func buildText(chars int) string {
	var sb strings.Builder
	for p := 0; sb.Len() < chars; p++ {
		for s := 0; s < 4; s++ {
			fmt.Fprintf(&sb, "Paragraph %d sentence %d carries some distinct prose for splitting. ", p, s)
		}
		sb.WriteString("\n\n")
	}
	return sb.String()[:chars]
}

func TestChunkTextSizesAndCount(t *testing.T) {
	text := buildText(2500)

	doc, err := ChunkText(text, 1000, 200)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(doc.Chunks), 3)
	assert.LessOrEqual(t, len(doc.Chunks), 5)
	for i, chunk := range doc.Chunks {
		assert.LessOrEqualf(t, len(chunk), 1000, "chunk %d exceeds the size limit", i)
		assert.NotEmpty(t, chunk)
	}

	assert.Equal(t, len(doc.Chunks), doc.Metadata.TotalChunks)
	assert.Equal(t, len(text), doc.Metadata.OriginalLength)
	assert.Equal(t, 1000, doc.Metadata.ChunkSize)
	assert.Equal(t, 200, doc.Metadata.ChunkOverlap)
}

// With zero overlap the chunks are a partition of the input: concatenating
// them reproduces it byte for byte.
func TestChunkTextReconstructionWithoutOverlap(t *testing.T) {
	text := buildText(2500)

	doc, err := ChunkText(text, 1000, 0)
	require.NoError(t, err)

	assert.Equal(t, text, strings.Join(doc.Chunks, ""))
}

// With overlap, every chunk after the first starts with a suffix of its
// predecessor; stripping that shared prefix reconstructs the input.
func TestChunkTextReconstructionWithOverlap(t *testing.T) {
	text := buildText(2500)

	doc, err := ChunkText(text, 1000, 200)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Chunks)

	rebuilt := doc.Chunks[0]
	for i := 1; i < len(doc.Chunks); i++ {
		chunk := doc.Chunks[i]
		shared := 0
		for k := len(chunk); k > 0; k-- {
			if strings.HasSuffix(rebuilt, chunk[:k]) {
				shared = k
				break
			}
		}
		rebuilt += chunk[shared:]
	}
	assert.Equal(t, text, rebuilt)
}

func TestChunkTextValidation(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ChunkText("some text", tc.size, tc.overlap)
			var verr *llm.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	doc, err := ChunkText("", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, doc.Chunks)
	assert.Equal(t, 0, doc.Metadata.TotalChunks)
}

func TestChunkTextShortInput(t *testing.T) {
	doc, err := ChunkText("short", 1000, 200)
	require.NoError(t, err)
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, "short", doc.Chunks[0])
}

func TestChunkTextNoSeparators(t *testing.T) {
	text := strings.Repeat("x", 2500)

	doc, err := ChunkText(text, 1000, 0)
	require.NoError(t, err)
	require.Len(t, doc.Chunks, 3)
	assert.Equal(t, text, strings.Join(doc.Chunks, ""))
}

// Separator-free multibyte text obeys the same byte limit as everything
// else, without ever cutting inside a rune.
func TestChunkTextNoSeparatorsMultibyte(t *testing.T) {
	text := strings.Repeat("界", 500) // 3 bytes per rune

	doc, err := ChunkText(text, 100, 0)
	require.NoError(t, err)

	for i, chunk := range doc.Chunks {
		assert.LessOrEqualf(t, len(chunk), 100, "chunk %d exceeds the byte limit", i)
		assert.Truef(t, utf8.ValidString(chunk), "chunk %d is not valid UTF-8", i)
	}
	assert.Equal(t, text, strings.Join(doc.Chunks, ""))
}

func TestNormalizeChunk(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeChunk("  a\n\nb\t c \n"))
	assert.Equal(t, "", NormalizeChunk("   \n\t "))
	assert.Equal(t, "plain", NormalizeChunk("plain"))
}
