package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"quiver/llm"
	"quiver/logging"
)

const (
	// browseLimit caps the point list when browsing interactively.
	browseLimit = 1000
	// exportLimit is intentionally huge: export wants every point.
	exportLimit = 100000
	// uploadBatchSize keeps upsert payloads under the store's body limit.
	uploadBatchSize = 100
)

// QdrantClient talks to a Qdrant-compatible vector store over its HTTP API.
// Idempotent reads carry a bounded retry; writes run exactly once.
type QdrantClient struct {
	baseURL string
	client  *http.Client
	logger  logging.Logger
}

// NewQdrantClient creates a client for the store at baseURL.
func NewQdrantClient(baseURL string, logger logging.Logger) *QdrantClient {
	return &QdrantClient{
		baseURL: baseURL,
		client:  newHTTPClient(120 * time.Second),
		logger:  logger,
	}
}

// envelope is the store's standard response wrapper.
type envelope[T any] struct {
	Result T       `json:"result"`
	Status any     `json:"status"`
	Time   float64 `json:"time"`
}

type collectionsResult struct {
	Collections []llm.Collection `json:"collections"`
}

type scrollResult struct {
	Points []llm.Point `json:"points"`
}

type scrollRequest struct {
	Limit       int            `json:"limit"`
	WithPayload bool           `json:"with_payload"`
	WithVectors bool           `json:"with_vectors"`
	Filter      map[string]any `json:"filter,omitempty"`
}

func (c *QdrantClient) collectionURL(name string) string {
	return c.baseURL + "/collections/" + url.PathEscape(name)
}

// FetchCollections lists all collections. An empty store returns an empty
// slice, not an error.
func (c *QdrantClient) FetchCollections(ctx context.Context) ([]llm.Collection, error) {
	c.logger.Infof("fetching collections")

	var out envelope[collectionsResult]
	err := retryRead(ctx, func() error {
		return httpDo(ctx, c.client, "fetch collections", http.MethodGet, c.baseURL+"/collections", nil, &out)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Infof("loaded %d collections", len(out.Result.Collections))
	return out.Result.Collections, nil
}

// CreateCollection creates a cosine-distance collection with the given
// vector size. An already-existing collection counts as success.
func (c *QdrantClient) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	c.logger.Infof("creating collection %s (vector size %d)", name, vectorSize)

	body := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := httpDo(ctx, c.client, "create collection", http.MethodPut, c.collectionURL(name), body, nil)
	if err != nil {
		var ne *llm.NetworkError
		if errors.As(err, &ne) && ne.Status == http.StatusConflict {
			c.logger.Infof("collection %s already exists, continuing", name)
			return nil
		}
		return err
	}
	return nil
}

// DeleteCollection removes a collection. A missing collection is a
// NotFoundError, surfaced to the caller.
func (c *QdrantClient) DeleteCollection(ctx context.Context, name string) error {
	c.logger.Infof("deleting collection %s", name)

	err := httpDo(ctx, c.client, "delete collection", http.MethodDelete, c.collectionURL(name), nil, nil)
	if err != nil {
		var ne *llm.NetworkError
		if errors.As(err, &ne) && ne.Status == http.StatusNotFound {
			return &llm.NotFoundError{Resource: "collection", Name: name}
		}
		return err
	}
	return nil
}

// BrowseCollection scrolls up to browseLimit points including vectors and
// payload.
func (c *QdrantClient) BrowseCollection(ctx context.Context, name string) ([]llm.Point, error) {
	c.logger.Infof("browsing collection %s", name)

	body := scrollRequest{Limit: browseLimit, WithPayload: true, WithVectors: true}
	var out envelope[scrollResult]
	err := retryRead(ctx, func() error {
		return httpDo(ctx, c.client, "browse collection", http.MethodPost, c.collectionURL(name)+"/points/scroll", body, &out)
	})
	if err != nil {
		return nil, err
	}
	return out.Result.Points, nil
}

// ExportCollection scrolls the full point set and writes it to w as
// indented JSON. The caller owns the destination; the client never touches
// the filesystem.
func (c *QdrantClient) ExportCollection(ctx context.Context, name string, w io.Writer) error {
	c.logger.Infof("exporting collection %s", name)

	body := scrollRequest{Limit: exportLimit, WithPayload: true, WithVectors: true}
	var out envelope[scrollResult]
	err := retryRead(ctx, func() error {
		return httpDo(ctx, c.client, "export collection", http.MethodPost, c.collectionURL(name)+"/points/scroll", body, &out)
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out.Result); err != nil {
		return fmt.Errorf("export collection: write: %w", err)
	}

	c.logger.Infof("exported %d points from %s", len(out.Result.Points), name)
	return nil
}

// UploadPoints upserts points in batches of uploadBatchSize. A failing
// batch aborts the call; the error names the batch so the caller can tell
// how far the upload got.
func (c *QdrantClient) UploadPoints(ctx context.Context, name string, points []llm.Point) error {
	if len(points) == 0 {
		c.logger.Infof("no points to upload")
		return nil
	}
	c.logger.Infof("uploading %d points to %s", len(points), name)

	total := (len(points) + uploadBatchSize - 1) / uploadBatchSize
	for i := 0; i < len(points); i += uploadBatchSize {
		end := min(i+uploadBatchSize, len(points))
		batch := i/uploadBatchSize + 1
		c.logger.Debugf("uploading batch %d/%d (%d points)", batch, total, end-i)

		body := map[string]any{"points": points[i:end]}
		err := httpDo(ctx, c.client, "upload points", http.MethodPut, c.collectionURL(name)+"/points", body, nil)
		if err != nil {
			return fmt.Errorf("batch %d/%d failed: %w", batch, total, err)
		}
	}

	c.logger.Infof("uploaded %d points to %s", len(points), name)
	return nil
}

type searchRequest struct {
	Vector         []float32 `json:"vector"`
	Limit          int       `json:"limit"`
	WithPayload    bool      `json:"with_payload"`
	ScoreThreshold float32   `json:"score_threshold,omitempty"`
}

// Search runs a nearest-neighbor query. Results come back ordered by
// descending similarity; ScoreThreshold drops weak matches server-side.
func (c *QdrantClient) Search(ctx context.Context, name string, vector []float32, opts llm.SearchOptions) ([]llm.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	c.logger.Infof("searching %s with vector of length %d", name, len(vector))

	body := searchRequest{
		Vector:         vector,
		Limit:          limit,
		WithPayload:    true,
		ScoreThreshold: opts.ScoreThreshold,
	}
	var out envelope[[]llm.SearchResult]
	err := retryRead(ctx, func() error {
		return httpDo(ctx, c.client, "search", http.MethodPost, c.collectionURL(name)+"/points/search", body, &out)
	})
	if err != nil {
		return nil, err
	}
	return out.Result, nil
}

// GetPointByID fetches one point. Missing points are a NotFoundError.
func (c *QdrantClient) GetPointByID(ctx context.Context, name string, id any) (*llm.Point, error) {
	c.logger.Infof("getting point %v from %s", id, name)

	var out envelope[llm.Point]
	err := retryRead(ctx, func() error {
		return httpDo(ctx, c.client, "get point", http.MethodGet,
			fmt.Sprintf("%s/points/%v", c.collectionURL(name), id), nil, &out)
	})
	if err != nil {
		var ne *llm.NetworkError
		if errors.As(err, &ne) && ne.Status == http.StatusNotFound {
			return nil, &llm.NotFoundError{Resource: "point", Name: fmt.Sprintf("%v", id)}
		}
		return nil, err
	}
	return &out.Result, nil
}

// GetPointsByFileName returns all chunks ingested from fileName, ordered by
// chunkIndex so callers can reassemble the document.
func (c *QdrantClient) GetPointsByFileName(ctx context.Context, name, fileName string) ([]llm.Point, error) {
	c.logger.Infof("getting points for file %s from %s", fileName, name)

	body := scrollRequest{
		Limit:       browseLimit,
		WithPayload: true,
		Filter: map[string]any{
			"must": []map[string]any{
				{"key": "fileName", "match": map[string]any{"value": fileName}},
			},
		},
	}
	var out envelope[scrollResult]
	err := retryRead(ctx, func() error {
		return httpDo(ctx, c.client, "get points by filename", http.MethodPost, c.collectionURL(name)+"/points/scroll", body, &out)
	})
	if err != nil {
		return nil, err
	}

	points := out.Result.Points
	sort.SliceStable(points, func(i, j int) bool {
		return payloadInt(points[i].Payload, "chunkIndex") < payloadInt(points[j].Payload, "chunkIndex")
	})
	return points, nil
}

// payloadInt reads a numeric payload field, tolerating the float64 shape
// JSON decoding produces.
func payloadInt(payload map[string]any, key string) int {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// PayloadString reads a string payload field, returning "" when absent.
func PayloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}
