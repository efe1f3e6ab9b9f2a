package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"quiver/config"
	"quiver/llm/agent"
	"quiver/llm/parser"
	"quiver/llm/provider"
	"quiver/llm/tools"
	"quiver/llm/vector"
	"quiver/logging"
	"quiver/tui"
)

func init() {
	// Load .env file if exists
	_ = godotenv.Load()
}

func main() {
	logger := newLogger()

	cfg := config.NewProvider("", logger)

	store := vector.NewQdrantClient(cfg.QdrantURL(), logger)
	embedder := vector.NewEmbeddingClient(cfg.EmbeddingURL(), vector.DefaultEmbeddingDim, logger)
	pipeline := vector.NewPipeline(store, embedder, parser.DefaultRegistry(), logger)

	gateway := provider.NewClient(cfg.Token(), "", cfg.SelectedModel(), logger)

	registry := tools.NewRegistry(logger)
	registry.Register(tools.FactorialDeclaration(), tools.FactorialHandler)
	registry.Register(tools.VectorSearchDeclaration(), tools.NewVectorSearchHandler(embedder, store, cfg))
	registry.Register(tools.GetDocumentDeclaration(), tools.NewGetDocumentHandler(store, cfg))

	runtime := agent.NewRuntime(gateway, registry, logger, agent.Config{
		Model: cfg.SelectedModel(),
	})
	defer runtime.Close()

	model := tui.NewModel(store, embedder, pipeline, runtime, cfg)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes to the file named by QUIVER_LOG, or discards logs so
// they never bleed into the alt screen.
func newLogger() logging.Logger {
	path := os.Getenv("QUIVER_LOG")
	if path == "" {
		return logging.Discard()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return logging.Discard()
	}
	return logging.New(f, "quiver", logging.ParseLevel(os.Getenv("LOG_LEVEL")))
}
