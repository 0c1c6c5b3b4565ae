package main

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/hyperjump/icebreaker/internal/config"
	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/engine"
	"github.com/hyperjump/icebreaker/internal/llm"
	"github.com/hyperjump/icebreaker/internal/storage"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Embedder   embedding.Embedder
	Registry   *llm.Registry
	Transcript storage.Transcript
	// Store is the SQLite transcript, nil when transcripts are disabled.
	Store  *storage.SQLiteStore
	Engine *engine.Engine

	gemini *genai.Client
}

func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Transcript != nil {
		_ = c.Transcript.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.gemini != nil {
		_ = c.gemini.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	embedder, err := newEmbedder(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c.Embedder = embedder

	gens, err := c.newGenerators(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generators: %w", err)
	}
	c.Registry, err = llm.NewRegistry(cfg.Generation.DefaultModel, gens...)
	if err != nil {
		return nil, err
	}

	c.Transcript = storage.Nop{}
	if path := cfg.Storage.TranscriptPath; path != "" {
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize transcript: %w", err)
		}
		c.Store = store
		c.Transcript = store
	}

	c.Engine, err = engine.New(engineConfig(cfg), c.Embedder, c.Registry,
		engine.WithLogger(logger),
		engine.WithTranscript(c.Transcript))
	if err != nil {
		return nil, err
	}
	logger.Info("components initialized",
		zap.String("embedding", c.Embedder.Name()),
		zap.Strings("models", c.Registry.Names()),
		zap.String("default_model", c.Registry.Default()),
		zap.String("transcript", cfg.Storage.TranscriptPath))
	ok = true
	return c, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (embedding.Embedder, error) {
	ec := cfg.Embedding
	var inner embedding.Embedder
	remote := false
	switch ec.Provider {
	case config.ProviderGemini:
		e, err := embedding.NewGeminiEmbedder(ctx, cfg.Credentials.GeminiAPIKey, ec.Model)
		if err != nil {
			return nil, err
		}
		inner, remote = e, true
	case config.ProviderOpenAI:
		e, err := embedding.NewOpenAIEmbedder(cfg.Credentials.OpenAIAPIKey, ec.Model)
		if err != nil {
			return nil, err
		}
		inner, remote = e, true
	case config.ProviderONNX:
		e, err := embedding.NewONNXEmbedder(ec.ModelPath, ec.Dimensions, ec.MaxTokens)
		if err != nil {
			logger.Warn("onnx embedder unavailable, falling back to hash embedder",
				zap.String("model_path", ec.ModelPath), zap.Error(err))
			inner = embedding.NewHashEmbedder(ec.Dimensions)
		} else {
			inner = e
		}
	case config.ProviderHash:
		inner = embedding.NewHashEmbedder(ec.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}
	if remote {
		inner = embedding.NewRetryingEmbedder(inner, ec.MaxAttempts, ec.RetryDelay, logger)
	}
	return embedding.NewCachedEmbedder(inner, ec.CacheSize), nil
}

// newGenerators builds one generator per configured model. Models of one
// provider share a rate limiter since they draw on the same quota.
func (c *Components) newGenerators(ctx context.Context, cfg *config.Config) ([]llm.Generator, error) {
	gc := cfg.Generation
	limiter := llm.NewRateLimiter(float64(gc.RequestsPerMinute), gc.Burst, gc.RateLimitBackoff)
	gens := make([]llm.Generator, 0, len(gc.Models))
	switch gc.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.Credentials.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		c.gemini = client
		for _, m := range gc.Models {
			gens = append(gens, llm.NewRateLimitedGenerator(llm.NewGeminiGenerator(client, m), limiter))
		}
	case config.ProviderOpenAI:
		for _, m := range gc.Models {
			g, err := llm.NewOpenAIGenerator(cfg.Credentials.OpenAIAPIKey, m)
			if err != nil {
				return nil, err
			}
			gens = append(gens, llm.NewRateLimitedGenerator(g, limiter))
		}
	case config.ProviderEcho:
		for _, m := range gc.Models {
			gens = append(gens, llm.NewEchoGenerator(m))
		}
	default:
		return nil, fmt.Errorf("unknown generation provider %q", gc.Provider)
	}
	return gens, nil
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		ChunkSize:       cfg.Chunking.ChunkSize,
		ChunkOverlap:    cfg.Chunking.ChunkOverlap,
		TopK:            cfg.Retrieval.TopK,
		Facts:           cfg.Retrieval.Facts,
		Concurrency:     cfg.Embedding.Concurrency,
		EmbedTimeout:    cfg.Embedding.Timeout,
		GenerateTimeout: cfg.Generation.Timeout,
		Generation: llm.Options{
			Temperature:     cfg.Generation.Temperature,
			MaxOutputTokens: cfg.Generation.MaxOutputTokens,
			TopP:            cfg.Generation.TopP,
			TopK:            cfg.Generation.TopK,
		},
		LexicalFallback: cfg.Retrieval.LexicalFallbackOrDefault(),
	}
}
