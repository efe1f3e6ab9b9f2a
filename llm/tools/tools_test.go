package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiver/llm"
	"quiver/logging"
)

func TestRegistryExecute(t *testing.T) {
	reg := NewRegistry(logging.Discard())
	reg.Register(FactorialDeclaration(), FactorialHandler)

	out, err := reg.Execute(context.Background(), llm.ToolCall{
		Function: llm.FunctionCall{Name: FactorialToolName, Arguments: `{"n":5}`},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "5! = 120")
}

func TestRegistryUnknownTool(t *testing.T) {
	reg := NewRegistry(logging.Discard())

	_, err := reg.Execute(context.Background(), llm.ToolCall{
		Function: llm.FunctionCall{Name: "no_such_tool"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tool "no_such_tool"`)
}

func TestRegistryDeclarations(t *testing.T) {
	reg := NewRegistry(logging.Discard())
	reg.Register(FactorialDeclaration(), FactorialHandler)
	reg.Register(VectorSearchDeclaration(), nil)
	reg.Register(GetDocumentDeclaration(), nil)

	all := reg.Declarations()
	require.Len(t, all, 3)
	assert.Equal(t, FactorialToolName, all[0].Function.Name)
	assert.Equal(t, VectorSearchToolName, all[1].Function.Name)
	assert.Equal(t, GetDocumentToolName, all[2].Function.Name)

	some := reg.Declarations(GetDocumentToolName, "missing", FactorialToolName)
	require.Len(t, some, 2)
	assert.Equal(t, GetDocumentToolName, some[0].Function.Name)
	assert.Equal(t, FactorialToolName, some[1].Function.Name)
}

func TestFactorialHandler(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{"zero", `{"n":0}`, "0! = 1"},
		{"five", `{"n":5}`, "5! = 120"},
		{"max", `{"n":10}`, "10! = 3628800"},
		{"negative", `{"n":-1}`, "[ERROR]"},
		{"too large", `{"n":11}`, "[ERROR]"},
		{"bad json", `{n:`, "[ERROR]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := FactorialHandler(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestToolResultString(t *testing.T) {
	out, err := Success("found it", &Metadata{Collection: "docs", MatchCount: 3})
	require.NoError(t, err)
	assert.Equal(t, "found it\n\n<metadata collection=docs matches=3 />", out)

	out, err = Error("it broke")
	require.NoError(t, err)
	assert.Equal(t, "[ERROR] it broke", out)

	out, err = Partial("half done", nil)
	require.NoError(t, err)
	assert.Equal(t, "[PARTIAL] half done", out)
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

type fakeSearcher struct {
	results []llm.SearchResult
	err     error
	gotColl string
	gotOpts llm.SearchOptions
}

func (f *fakeSearcher) Search(_ context.Context, collection string, _ []float32, opts llm.SearchOptions) ([]llm.SearchResult, error) {
	f.gotColl = collection
	f.gotOpts = opts
	return f.results, f.err
}

type fakeSelection string

func (f fakeSelection) SelectedCollection() string { return string(f) }

func TestVectorSearchHandler(t *testing.T) {
	searcher := &fakeSearcher{results: []llm.SearchResult{
		{ID: 1, Score: 0.91, Payload: map[string]any{"text": "first chunk"}},
		{ID: 2, Score: 0.73, Payload: map[string]any{"text": "second chunk"}},
	}}
	handler := NewVectorSearchHandler(&fakeEmbedder{vector: []float32{0.1, 0.2}}, searcher, fakeSelection("docs"))

	out, err := handler(context.Background(), `{"query":"chunking strategy"}`)
	require.NoError(t, err)

	assert.Equal(t, "docs", searcher.gotColl)
	assert.Equal(t, defaultSearchLimit, searcher.gotOpts.Limit)
	assert.Contains(t, out, "[1] score=0.9100\nfirst chunk")
	assert.Contains(t, out, "[2] score=0.7300\nsecond chunk")
	assert.Contains(t, out, "<metadata collection=docs matches=2 />")
}

func TestVectorSearchHandlerErrors(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	searcher := &fakeSearcher{}

	tests := []struct {
		name      string
		embedder  Embedder
		searcher  Searcher
		selection CollectionSelector
		args      string
		want      string
	}{
		{"empty query", embedder, searcher, fakeSelection("docs"), `{"query":"  "}`, "query must not be empty"},
		{"no collection", embedder, searcher, fakeSelection(""), `{"query":"x"}`, "no collection selected"},
		{"embed failure", &fakeEmbedder{err: errors.New("boom")}, searcher, fakeSelection("docs"), `{"query":"x"}`, "failed to embed query"},
		{"search failure", embedder, &fakeSearcher{err: errors.New("down")}, fakeSelection("docs"), `{"query":"x"}`, "search failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewVectorSearchHandler(tt.embedder, tt.searcher, tt.selection)
			out, err := handler(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Contains(t, out, "[ERROR]")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestVectorSearchHandlerNoResults(t *testing.T) {
	handler := NewVectorSearchHandler(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearcher{}, fakeSelection("docs"))

	out, err := handler(context.Background(), `{"query":"nothing here"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "No matching chunks found.")
	assert.NotContains(t, out, "[ERROR]")
}

type fakeFetcher struct {
	points []llm.Point
	err    error
}

func (f *fakeFetcher) GetPointsByFileName(_ context.Context, _, _ string) ([]llm.Point, error) {
	return f.points, f.err
}

func TestGetDocumentHandler(t *testing.T) {
	fetcher := &fakeFetcher{points: []llm.Point{
		{ID: 1, Payload: map[string]any{"text": "part one"}},
		{ID: 2, Payload: map[string]any{"text": "part two"}},
		{ID: 3, Payload: map[string]any{"text": "part three"}},
	}}
	handler := NewGetDocumentHandler(fetcher, fakeSelection("docs"))

	out, err := handler(context.Background(), `{"file_name":"notes.md"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "part one\npart two\npart three")
	assert.Contains(t, out, "<metadata collection=docs file=notes.md chunks=3 />")
}

func TestGetDocumentHandlerMissing(t *testing.T) {
	handler := NewGetDocumentHandler(&fakeFetcher{}, fakeSelection("docs"))

	out, err := handler(context.Background(), `{"file_name":"ghost.md"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, fmt.Sprintf("no document named %q", "ghost.md"))
}

func TestGetDocumentHandlerFetchError(t *testing.T) {
	handler := NewGetDocumentHandler(&fakeFetcher{err: errors.New("scroll failed")}, fakeSelection("docs"))

	out, err := handler(context.Background(), `{"file_name":"notes.md"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "[ERROR] failed to fetch document")
}
