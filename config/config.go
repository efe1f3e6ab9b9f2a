// Package config holds the console's connection settings. A Provider is an
// explicitly constructed object passed to clients at construction time;
// there is no process-wide singleton.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"quiver/logging"
)

const (
	// configVersion is bumped whenever the persisted shape changes. A
	// stored file with a different version is discarded.
	configVersion = 1

	configDirName  = "quiver"
	configFileName = "config.json"
)

// Defaults for a fresh installation.
const (
	DefaultQdrantURL    = "http://localhost:6333"
	DefaultEmbeddingURL = "http://localhost:8082"
	DefaultModel        = "anthropic/claude-3-haiku"
	DefaultProvider     = "openrouter"
)

// AppConfig is the full set of connection settings.
type AppConfig struct {
	QdrantURL          string `json:"qdrantUrl"`
	EmbeddingURL       string `json:"embeddingUrl"`
	OpenRouterToken    string `json:"openRouterToken"`
	SelectedModel      string `json:"selectedModel"`
	SelectedProvider   string `json:"selectedProvider"`
	SelectedCollection string `json:"selectedCollection"`
}

// envelope wraps the persisted config with a version marker. The token is
// stored obfuscated, not in the AppConfig field.
type envelope struct {
	Version int       `json:"version"`
	Config  AppConfig `json:"config"`
}

// DefaultConfig returns the fresh-install configuration.
func DefaultConfig() AppConfig {
	return AppConfig{
		QdrantURL:        DefaultQdrantURL,
		EmbeddingURL:     DefaultEmbeddingURL,
		SelectedModel:    DefaultModel,
		SelectedProvider: DefaultProvider,
	}
}

// Validate rejects configs that would leave a client unusable.
func (c AppConfig) Validate() error {
	if !ValidateURL(c.QdrantURL) {
		return fmt.Errorf("invalid vector store URL: %q", c.QdrantURL)
	}
	if !ValidateURL(c.EmbeddingURL) {
		return fmt.Errorf("invalid embedding service URL: %q", c.EmbeddingURL)
	}
	return nil
}

// Provider loads, serves and persists the AppConfig. Reads are served from
// memory; every successful update is validated as a whole and written back
// before it becomes visible.
type Provider struct {
	mu     sync.RWMutex
	config AppConfig
	path   string
	logger logging.Logger
}

// NewProvider loads the persisted config (or defaults) and applies
// environment overrides. path may be empty, in which case the default
// location under the user config dir is used.
func NewProvider(path string, logger logging.Logger) *Provider {
	if path == "" {
		path = defaultPath()
	}
	p := &Provider{path: path, logger: logger}
	p.config = p.load()
	applyEnvOverrides(&p.config)
	return p
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return configFileName
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName, configFileName)
}

// load reads the persisted envelope. Any failure (missing file, bad JSON,
// version mismatch) falls back to defaults instead of erroring: a broken
// config file should never prevent startup.
func (p *Provider) load() AppConfig {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return DefaultConfig()
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		p.logger.Warnf("discarding unreadable config file %s: %v", p.path, err)
		return DefaultConfig()
	}
	if env.Version != configVersion {
		p.logger.Warnf("discarding config file with version %d (want %d)", env.Version, configVersion)
		return DefaultConfig()
	}

	cfg := env.Config
	// The token is stored obfuscated. This is reversible XOR+base64, not
	// encryption: anyone with file access can recover it.
	cfg.OpenRouterToken = DeobfuscateToken(cfg.OpenRouterToken)
	if cfg.QdrantURL == "" {
		cfg.QdrantURL = DefaultQdrantURL
	}
	if cfg.EmbeddingURL == "" {
		cfg.EmbeddingURL = DefaultEmbeddingURL
	}
	if cfg.SelectedModel == "" {
		cfg.SelectedModel = DefaultModel
	}
	if cfg.SelectedProvider == "" {
		cfg.SelectedProvider = DefaultProvider
	}
	return cfg
}

// applyEnvOverrides lets the environment (or a .env file loaded in main)
// win over the persisted file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		cfg.QdrantURL = v
	}
	if v := os.Getenv("EMBEDDING_URL"); v != "" {
		cfg.EmbeddingURL = v
	}
	if v := os.Getenv("OPENROUTER_TOKEN"); v != "" {
		cfg.OpenRouterToken = v
	}
	if v := os.Getenv("MODEL"); v != "" {
		cfg.SelectedModel = v
	}
	if v := os.Getenv("COLLECTION"); v != "" {
		cfg.SelectedCollection = v
	}
}

func (p *Provider) save() error {
	cfg := p.config
	cfg.OpenRouterToken = ObfuscateToken(cfg.OpenRouterToken)

	data, err := json.MarshalIndent(envelope{Version: configVersion, Config: cfg}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Get returns a copy of the current config.
func (p *Provider) Get() AppConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// Update applies fn to a copy of the config, validates the result as a
// whole, persists it, and only then makes it visible. The stored config is
// never partially invalid.
func (p *Provider) Update(fn func(*AppConfig)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.config
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}

	prev := p.config
	p.config = next
	if err := p.save(); err != nil {
		p.config = prev
		return err
	}
	return nil
}

// Convenience accessors mirroring the settings surface.

func (p *Provider) QdrantURL() string    { return p.Get().QdrantURL }
func (p *Provider) EmbeddingURL() string { return p.Get().EmbeddingURL }
func (p *Provider) Token() string        { return p.Get().OpenRouterToken }

func (p *Provider) SelectedModel() string {
	if m := p.Get().SelectedModel; m != "" {
		return m
	}
	return DefaultModel
}

func (p *Provider) SelectedCollection() string { return p.Get().SelectedCollection }

// SetSelectedCollection records the active collection for search and chat
// tools.
func (p *Provider) SetSelectedCollection(name string) error {
	return p.Update(func(c *AppConfig) { c.SelectedCollection = name })
}

// SetSelectedModel records the model used for chat completions.
func (p *Provider) SetSelectedModel(model string) error {
	return p.Update(func(c *AppConfig) { c.SelectedModel = model })
}
