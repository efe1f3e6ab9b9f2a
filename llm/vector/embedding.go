package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"quiver/llm"
	"quiver/logging"
)

// DefaultEmbeddingDim is the dimensionality the embedding service produces.
const DefaultEmbeddingDim = 1024

// EmbeddingClient converts text into fixed-length vectors via the HTTP
// embedding service.
type EmbeddingClient struct {
	baseURL string
	dim     int
	client  *http.Client
	logger  logging.Logger
}

// NewEmbeddingClient creates a client for the service at baseURL. dim <= 0
// falls back to DefaultEmbeddingDim.
func NewEmbeddingClient(baseURL string, dim int, logger logging.Logger) *EmbeddingClient {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &EmbeddingClient{
		baseURL: baseURL,
		dim:     dim,
		client:  newHTTPClient(60 * time.Second),
		logger:  logger,
	}
}

// Dimension returns the expected vector length.
func (c *EmbeddingClient) Dimension() int { return c.dim }

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedTexts returns one vector per input string, in input order. Empty
// input returns an empty result without touching the network. Any response
// that is not exactly one finite vector of the configured dimension per
// input is an EmbeddingError.
func (c *EmbeddingClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	c.logger.Infof("sending %d texts to embedding API", len(texts))

	body, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &llm.EmbeddingError{Reason: "embedding service unreachable", Index: -1, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &llm.EmbeddingError{
			Reason: fmt.Sprintf("embedding failed: status %d: %s", resp.StatusCode, detail),
			Index:  -1,
		}
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &llm.EmbeddingError{Reason: "unreadable embedding response", Index: -1, Err: err}
	}

	if err := c.validate(parsed.Embeddings, len(texts)); err != nil {
		return nil, err
	}

	c.logger.Infof("generated %d embeddings", len(parsed.Embeddings))
	return parsed.Embeddings, nil
}

func (c *EmbeddingClient) validate(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return &llm.EmbeddingError{
			Reason: fmt.Sprintf("expected %d embeddings, got %d", want, len(vectors)),
			Index:  -1,
		}
	}
	for i, vec := range vectors {
		if len(vec) != c.dim {
			return &llm.EmbeddingError{
				Reason: fmt.Sprintf("expected %d dimensions, got %d", c.dim, len(vec)),
				Index:  i,
			}
		}
		for _, v := range vec {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return &llm.EmbeddingError{Reason: "vector contains NaN or Infinity", Index: i}
			}
		}
	}
	return nil
}
