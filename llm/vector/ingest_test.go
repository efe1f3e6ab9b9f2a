package vector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiver/llm"
	"quiver/llm/parser"
	"quiver/logging"
)

type fakeStore struct {
	created  []string
	uploaded []llm.Point
	failUp   error
}

func (f *fakeStore) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	f.created = append(f.created, name)
	return nil
}

func (f *fakeStore) UploadPoints(ctx context.Context, name string, points []llm.Point) error {
	if f.failUp != nil {
		return f.failUp
	}
	f.uploaded = append(f.uploaded, points...)
	return nil
}

type fakeEmbedder struct {
	dim      int
	failText string
	calls    int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failText != "" && strings.Contains(text, f.failText) {
			return nil, &llm.EmbeddingError{Reason: "synthetic failure", Index: i}
		}
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestPipeline(store *fakeStore, embedder *fakeEmbedder) *Pipeline {
	return NewPipeline(store, embedder, parser.DefaultRegistry(), logging.Discard())
}

func TestUploadAndProcessFile(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{dim: 4}
	pipeline := newTestPipeline(store, embedder)

	var content strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&content, "Sentence number %d with enough words to matter for chunking purposes.\n\n", i)
	}
	path := writeTempFile(t, "notes.txt", content.String())

	var stages []string
	result, err := pipeline.UploadAndProcessFile(context.Background(), path, "docs", 400, 50,
		func(current, total int, stage string) {
			stages = append(stages, fmt.Sprintf("%d:%s", current, stage))
		})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "docs", result.CollectionName)
	assert.Greater(t, result.ChunksProcessed, 1)
	assert.Equal(t, result.ChunksProcessed, result.VectorsCreated)
	assert.Empty(t, result.Failures)

	assert.Equal(t, []string{"docs"}, store.created)
	require.Len(t, store.uploaded, result.VectorsCreated)

	first := store.uploaded[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "notes.txt", first.Payload["fileName"])
	assert.Equal(t, 0, first.Payload["chunkIndex"])
	assert.Equal(t, result.ChunksProcessed, first.Payload["totalChunks"])
	assert.Equal(t, "docs", first.Payload["collectionName"])
	assert.NotEmpty(t, first.Payload["timestamp"])
	assert.Len(t, first.Vector, 4)

	require.NotEmpty(t, stages)
	assert.Contains(t, stages[0], "0:Reading file...")
	assert.Equal(t, "100:Complete!", stages[len(stages)-1])
}

// A chunk that fails to embed is recorded and skipped; the rest of the
// file still lands.
func TestUploadAndProcessFileChunkFailure(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{dim: 4, failText: "POISON"}
	pipeline := newTestPipeline(store, embedder)

	content := strings.Repeat("Ordinary sentence about nothing in particular here. ", 10) +
		"\n\nPOISON paragraph that the embedder rejects outright for this test. " +
		strings.Repeat("More poisoned filler text to round out the chunk nicely. ", 5)
	path := writeTempFile(t, "mixed.txt", content)

	result, err := pipeline.UploadAndProcessFile(context.Background(), path, "docs", 500, 0, nil)
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.NotEmpty(t, result.Failures)
	assert.Less(t, result.VectorsCreated, result.ChunksProcessed)
	assert.Equal(t, result.ChunksProcessed-result.VectorsCreated, len(result.Failures))
	for _, f := range result.Failures {
		assert.Contains(t, f.Reason, "synthetic failure")
	}
	assert.Len(t, store.uploaded, result.VectorsCreated)
}

// Chunks that trim below the minimum length are skipped with a reason,
// not embedded.
func TestUploadAndProcessFileSkipsShortChunks(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{dim: 4}
	pipeline := newTestPipeline(store, embedder)

	// the first paragraph fills a chunk almost exactly, leaving "tiny"
	// stranded in a chunk of its own
	content := strings.Repeat("a", 115) + "\n\ntiny"
	path := writeTempFile(t, "short.txt", content)

	result, err := pipeline.UploadAndProcessFile(context.Background(), path, "docs", 120, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ChunksProcessed)
	assert.Equal(t, 1, result.VectorsCreated)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, 1, result.Failures[0].ChunkIndex)
	assert.Equal(t, "chunk too short after trimming", result.Failures[0].Reason)
}

func TestUploadAndProcessFileUnsupportedType(t *testing.T) {
	pipeline := newTestPipeline(&fakeStore{}, &fakeEmbedder{dim: 4})
	path := writeTempFile(t, "image.png", "not really an image")

	_, err := pipeline.UploadAndProcessFile(context.Background(), path, "docs", 400, 0, nil)
	var verr *llm.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUploadAndProcessFileUploadFailure(t *testing.T) {
	store := &fakeStore{failUp: fmt.Errorf("store down")}
	pipeline := newTestPipeline(store, &fakeEmbedder{dim: 4})
	path := writeTempFile(t, "notes.txt", strings.Repeat("Plenty of text to produce at least one chunk here. ", 5))

	_, err := pipeline.UploadAndProcessFile(context.Background(), path, "docs", 400, 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestUploadGlob(t *testing.T) {
	store := &fakeStore{}
	pipeline := newTestPipeline(store, &fakeEmbedder{dim: 4})

	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name),
			[]byte(strings.Repeat("Some document text that chunks into something useful. ", 5)), 0o644))
	}

	results, err := pipeline.UploadGlob(context.Background(), filepath.Join(dir, "*.txt"), "docs", 400, 0, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.NotEmpty(t, store.uploaded)
}

func TestUploadGlobNoMatches(t *testing.T) {
	pipeline := newTestPipeline(&fakeStore{}, &fakeEmbedder{dim: 4})

	_, err := pipeline.UploadGlob(context.Background(), filepath.Join(t.TempDir(), "*.md"), "docs", 400, 0, nil)
	var nf *llm.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestUploadAndProcessFileCancellation(t *testing.T) {
	pipeline := newTestPipeline(&fakeStore{}, &fakeEmbedder{dim: 4})
	path := writeTempFile(t, "notes.txt", strings.Repeat("Text that would otherwise be embedded happily. ", 20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.UploadAndProcessFile(ctx, path, "docs", 400, 0, nil)
	require.ErrorIs(t, err, context.Canceled)
}
