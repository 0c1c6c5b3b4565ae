package config

import (
	"errors"
	"fmt"
	"slices"
)

// Validate reports every invalid setting in cfg.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Embedding.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderHash:
	case ProviderONNX:
		if c.Embedding.ModelPath == "" {
			errs = append(errs, errors.New("embedding.model_path is required for the onnx provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("embedding.provider %q is not one of gemini, openai, onnx, hash", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions < 0 || c.Embedding.Concurrency < 0 || c.Embedding.CacheSize < 0 {
		errs = append(errs, errors.New("embedding dimensions, concurrency and cache_size must not be negative"))
	}

	switch c.Generation.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderEcho:
	default:
		errs = append(errs, fmt.Errorf("generation.provider %q is not one of gemini, openai, echo", c.Generation.Provider))
	}
	if len(c.Generation.Models) == 0 {
		errs = append(errs, errors.New("generation.models must list at least one model"))
	} else if !slices.Contains(c.Generation.Models, c.Generation.DefaultModel) {
		errs = append(errs, fmt.Errorf("generation.default_model %q is not in generation.models", c.Generation.DefaultModel))
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		errs = append(errs, fmt.Errorf("generation.temperature %.2f out of range [0, 2]", c.Generation.Temperature))
	}
	if c.Generation.TopP < 0 || c.Generation.TopP > 1 {
		errs = append(errs, fmt.Errorf("generation.top_p %.2f out of range [0, 1]", c.Generation.TopP))
	}
	if c.Generation.MaxOutputTokens < 0 || c.Generation.TopK < 0 {
		errs = append(errs, errors.New("generation max_output_tokens and top_k must not be negative"))
	}

	if c.Chunking.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize))
	} else if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		errs = append(errs, fmt.Errorf("chunking.chunk_overlap must be in [0, %d), got %d", c.Chunking.ChunkSize, c.Chunking.ChunkOverlap))
	}
	if c.Retrieval.TopK < 0 {
		errs = append(errs, fmt.Errorf("retrieval.top_k must not be negative, got %d", c.Retrieval.TopK))
	}
	return errors.Join(errs...)
}

// RequiresKey reports which provider API keys the configuration needs.
func (c *Config) RequiresKey() (gemini, openai bool) {
	gemini = c.Embedding.Provider == ProviderGemini || c.Generation.Provider == ProviderGemini
	openai = c.Embedding.Provider == ProviderOpenAI || c.Generation.Provider == ProviderOpenAI
	return gemini, openai
}
