package vector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"quiver/llm"
	"quiver/llm/parser"
	"quiver/logging"
)

// Store is the slice of the vector store the pipeline writes through.
type Store interface {
	CreateCollection(ctx context.Context, name string, vectorSize int) error
	UploadPoints(ctx context.Context, name string, points []llm.Point) error
}

// Embedder turns text into vectors of a fixed dimensionality.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Pipeline drives file → chunks → embeddings → upsert. Ingestion is best
// effort: a chunk that fails to embed is recorded and skipped, the rest of
// the file still lands.
type Pipeline struct {
	store    Store
	embedder Embedder
	parsers  *parser.Registry
	logger   logging.Logger
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(store Store, embedder Embedder, parsers *parser.Registry, logger logging.Logger) *Pipeline {
	return &Pipeline{
		store:    store,
		embedder: embedder,
		parsers:  parsers,
		logger:   logger,
	}
}

// Dimension reports the vector size ingestion produces.
func (p *Pipeline) Dimension() int {
	return p.embedder.Dimension()
}

// UploadAndProcessFile ingests one file into collection. onProgress (may be
// nil) receives a monotonically increasing 0-100 fraction plus a stage
// label. The returned result reports chunks produced vs vectors actually
// stored; the difference is expected and carried in Failures.
func (p *Pipeline) UploadAndProcessFile(
	ctx context.Context,
	filePath, collection string,
	chunkSize, chunkOverlap int,
	onProgress llm.ProgressFunc,
) (*llm.UploadResult, error) {
	report := func(current int, stage string) {
		if onProgress != nil {
			onProgress(current, 100, stage)
		}
	}

	p.logger.Infof("starting upload of %s into %s", filePath, collection)
	report(0, "Reading file...")

	parsed, err := p.parsers.ParseFile(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	report(10, "Chunking text...")
	doc, err := ChunkText(parsed.Content, chunkSize, chunkOverlap)
	if err != nil {
		return nil, err
	}
	chunks := doc.Chunks
	p.logger.Infof("created %d chunks", len(chunks))

	report(20, "Creating collection...")
	if err := p.store.CreateCollection(ctx, collection, p.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	fileName := filepath.Base(filePath)
	now := time.Now().UTC().Format(time.RFC3339)

	var points []llm.Point
	var failures []llm.ChunkFailure

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report(20+int(float64(i)/float64(len(chunks))*70), fmt.Sprintf("Vectorizing chunk %d/%d", i+1, len(chunks)))

		if len(strings.TrimSpace(chunk)) < MinChunkLength {
			p.logger.Debugf("skipping chunk %d: too short (length %d)", i+1, len(chunk))
			failures = append(failures, llm.ChunkFailure{ChunkIndex: i, Reason: "chunk too short after trimming"})
			continue
		}

		clean := NormalizeChunk(chunk)
		vectors, err := p.embedder.EmbedTexts(ctx, []string{clean})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Errorf("failed to vectorize chunk %d: %v", i+1, err)
			failures = append(failures, llm.ChunkFailure{ChunkIndex: i, Reason: err.Error()})
			continue
		}

		points = append(points, llm.Point{
			ID:     i + 1,
			Vector: vectors[0],
			Payload: map[string]any{
				"text":           clean,
				"chunkIndex":     i,
				"totalChunks":    len(chunks),
				"fileName":       fileName,
				"fileSize":       len(parsed.Content),
				"timestamp":      now,
				"collectionName": collection,
			},
		})
	}

	report(90, "Uploading to database...")
	p.logger.Infof("vectorization complete: %d points from %d chunks", len(points), len(chunks))

	if len(points) > 0 {
		if err := p.store.UploadPoints(ctx, collection, points); err != nil {
			return nil, err
		}
	}

	report(100, "Complete!")
	return &llm.UploadResult{
		Success:         true,
		ChunksProcessed: len(chunks),
		VectorsCreated:  len(points),
		CollectionName:  collection,
		Failures:        failures,
	}, nil
}

// UploadGlob expands a doublestar pattern and ingests every matching file.
// A file that fails outright stops the run; per-chunk failures inside a
// file follow the usual best-effort rule.
func (p *Pipeline) UploadGlob(
	ctx context.Context,
	pattern, collection string,
	chunkSize, chunkOverlap int,
	onProgress llm.ProgressFunc,
) ([]*llm.UploadResult, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, &llm.ValidationError{Reason: fmt.Sprintf("bad glob pattern %q: %v", pattern, err)}
	}
	if len(matches) == 0 {
		return nil, &llm.NotFoundError{Resource: "file matching", Name: pattern}
	}

	results := make([]*llm.UploadResult, 0, len(matches))
	for n, match := range matches {
		prefix := fmt.Sprintf("[%d/%d %s] ", n+1, len(matches), filepath.Base(match))
		var scoped llm.ProgressFunc
		if onProgress != nil {
			scoped = func(current, total int, stage string) {
				onProgress(current, total, prefix+stage)
			}
		}

		res, err := p.UploadAndProcessFile(ctx, match, collection, chunkSize, chunkOverlap, scoped)
		if err != nil {
			return results, fmt.Errorf("ingest %s: %w", match, err)
		}
		results = append(results, res)
	}
	return results, nil
}
