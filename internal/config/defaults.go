package config

import "time"

// Models offered for generation when none are configured.
var defaultGeminiModels = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-flash", "gemini-1.5-pro"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 5 * time.Minute
	}

	applyEmbeddingDefaults(&cfg.Embedding)
	applyGenerationDefaults(&cfg.Generation)

	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 512
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 50
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Retrieval.Facts == 0 {
		cfg.Retrieval.Facts = 3
	}
	// LexicalFallback defaults to true when unset (nil).
	if cfg.Retrieval.LexicalFallback == nil {
		t := true
		cfg.Retrieval.LexicalFallback = &t
	}
}

func applyEmbeddingDefaults(e *EmbeddingConfig) {
	if e.Provider == "" {
		e.Provider = ProviderGemini
	}
	if e.Model == "" {
		switch e.Provider {
		case ProviderGemini:
			e.Model = "text-embedding-004"
		case ProviderOpenAI:
			e.Model = "text-embedding-3-small"
		}
	}
	if e.Dimensions == 0 {
		e.Dimensions = 384
	}
	if e.MaxTokens == 0 {
		e.MaxTokens = 512
	}
	if e.CacheSize == 0 {
		e.CacheSize = 1000
	}
	if e.Concurrency == 0 {
		e.Concurrency = 4
	}
	if e.Timeout == 0 {
		e.Timeout = 30 * time.Second
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = 3
	}
	if e.RetryDelay == 0 {
		e.RetryDelay = 500 * time.Millisecond
	}
}

func applyGenerationDefaults(g *GenerationConfig) {
	if g.Provider == "" {
		g.Provider = ProviderGemini
	}
	if len(g.Models) == 0 {
		switch g.Provider {
		case ProviderGemini:
			g.Models = append([]string(nil), defaultGeminiModels...)
		case ProviderOpenAI:
			g.Models = []string{"gpt-4o-mini", "gpt-4o"}
		case ProviderEcho:
			g.Models = []string{"echo"}
		}
	}
	if g.DefaultModel == "" && len(g.Models) > 0 {
		g.DefaultModel = g.Models[0]
	}
	if g.Temperature == 0 {
		g.Temperature = 0.7
	}
	if g.MaxOutputTokens == 0 {
		g.MaxOutputTokens = 1024
	}
	if g.TopP == 0 {
		g.TopP = 0.95
	}
	if g.TopK == 0 {
		g.TopK = 40
	}
	if g.Timeout == 0 {
		g.Timeout = 60 * time.Second
	}
	if g.RequestsPerMinute == 0 {
		g.RequestsPerMinute = 15
	}
	if g.Burst == 0 {
		g.Burst = 1
	}
	if g.RateLimitBackoff == 0 {
		g.RateLimitBackoff = 60 * time.Second
	}
}
