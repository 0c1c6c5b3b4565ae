// Package config provides configuration loading and structs for the icebreaker engine and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the embedding and generation sections.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
	ProviderHash   = "hash"
	ProviderEcho   = "echo"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`

	// Credentials come from the environment only and are never written back.
	Credentials Credentials `yaml:"-"`
}

// Credentials are provider API keys.
type Credentials struct {
	GeminiAPIKey string
	OpenAIAPIKey string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StorageConfig holds the transcript database location. An empty path disables the transcript.
type StorageConfig struct {
	TranscriptPath string `yaml:"transcript_path"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	ModelPath   string        `yaml:"model_path"` // onnx only
	Dimensions  int           `yaml:"dimensions"` // onnx and hash
	MaxTokens   int           `yaml:"max_tokens"` // onnx only
	CacheSize   int           `yaml:"cache_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

// GenerationConfig selects the generation provider, the models offered per
// session and the sampling parameters forwarded to them.
type GenerationConfig struct {
	Provider          string        `yaml:"provider"`
	DefaultModel      string        `yaml:"default_model"`
	Models            []string      `yaml:"models"`
	Temperature       float32       `yaml:"temperature"`
	MaxOutputTokens   int           `yaml:"max_output_tokens"`
	TopP              float32       `yaml:"top_p"`
	TopK              int           `yaml:"top_k"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	RateLimitBackoff  time.Duration `yaml:"rate_limit_backoff"`
}

// ChunkingConfig holds chunk sizing, in words.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig holds retrieval and summary settings.
type RetrievalConfig struct {
	TopK            int   `yaml:"top_k"`
	Facts           int   `yaml:"facts"`
	LexicalFallback *bool `yaml:"lexical_fallback"`
}

// LexicalFallbackOrDefault returns whether keyword fallback is enabled; defaults to true when unset.
func (r *RetrievalConfig) LexicalFallbackOrDefault() bool {
	if r.LexicalFallback != nil {
		return *r.LexicalFallback
	}
	return true
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Storage.TranscriptPath != "" && cfg.Storage.TranscriptPath != ":memory:" {
		cfg.Storage.TranscriptPath = expandPath(cfg.Storage.TranscriptPath, configDir)
	}
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// LoadEnv fills Credentials from the environment. GEMINI_API_KEY takes
// precedence over GOOGLE_API_KEY.
func (c *Config) LoadEnv() {
	c.Credentials.GeminiAPIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	c.Credentials.OpenAIAPIKey = firstEnv("OPENAI_API_KEY")
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// Save writes the config to path. Credentials are not written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
