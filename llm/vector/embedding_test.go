package vector

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiver/llm"
	"quiver/logging"
)

func newEmbedServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *EmbeddingClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewEmbeddingClient(srv.URL, 3, logging.Discard())
}

func writeEmbeddings(w http.ResponseWriter, embeddings [][]float64) {
	_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
}

func TestEmbedTexts(t *testing.T) {
	var gotInputs []string
	_, client := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		var req struct {
			Inputs []string `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInputs = req.Inputs
		writeEmbeddings(w, [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}})
	})

	vectors, err := client.EmbedTexts(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, gotInputs)
	require.Len(t, vectors, 2)
	assert.InDelta(t, 0.1, vectors[0][0], 1e-6)
	assert.InDelta(t, 0.6, vectors[1][2], 1e-6)
}

func TestEmbedTextsEmptyInputSkipsNetwork(t *testing.T) {
	called := false
	_, client := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	vectors, err := client.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.False(t, called)
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	_, client := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, [][]float64{{0.1, 0.2, 0.3}})
	})

	_, err := client.EmbedTexts(context.Background(), []string{"one", "two"})
	var eerr *llm.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Reason, "expected 2 embeddings")
}

func TestEmbedTextsWrongDimension(t *testing.T) {
	_, client := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEmbeddings(w, [][]float64{{0.1, 0.2}})
	})

	_, err := client.EmbedTexts(context.Background(), []string{"one"})
	var eerr *llm.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Reason, "dimensions")
	assert.Equal(t, 0, eerr.Index)
}

func TestEmbedTextsNonFiniteValues(t *testing.T) {
	client := NewEmbeddingClient("http://unused", 3, logging.Discard())

	err := client.validate([][]float32{{0.1, float32(math.NaN()), 0.3}}, 1)
	var eerr *llm.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Reason, "NaN or Infinity")
	assert.Equal(t, 0, eerr.Index)

	err = client.validate([][]float32{{0.1, float32(math.Inf(1)), 0.3}}, 1)
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Reason, "NaN or Infinity")
}

func TestEmbedTextsServerError(t *testing.T) {
	_, client := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	_, err := client.EmbedTexts(context.Background(), []string{"one"})
	var eerr *llm.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Contains(t, eerr.Reason, "500")
}

func TestEmbedTextsUnreachable(t *testing.T) {
	client := NewEmbeddingClient("http://127.0.0.1:1", 3, logging.Discard())

	_, err := client.EmbedTexts(context.Background(), []string{"one"})
	var eerr *llm.EmbeddingError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "embedding service unreachable", eerr.Reason)
}
