// Package engine ties chunking, indexing, retrieval and synthesis together
// behind the two operations a front end needs: ingest a profile and ask about it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/icebreaker/internal/answer"
	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/indexer"
	"github.com/hyperjump/icebreaker/internal/llm"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/search"
	"github.com/hyperjump/icebreaker/internal/session"
	"github.com/hyperjump/icebreaker/internal/storage"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrNoProfile is returned when Ingest gets no profile at all.
	ErrNoProfile = errors.New("no profile provided")
	// ErrChunkTooLarge is returned by New when chunks could exceed the embedder's input limit.
	ErrChunkTooLarge = errors.New("chunk size exceeds embedding model input limit")
	// ErrUnknownModel is returned when an ingest names a model that is not configured.
	ErrUnknownModel = llm.ErrUnknownModel
)

// Turn kinds recorded in the transcript.
const (
	KindSummary = "summary"
	KindAnswer  = "answer"
)

// Config holds the engine's tuning parameters.
type Config struct {
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	Facts           int
	Concurrency     int
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
	Generation      llm.Options
	// LexicalFallback ranks by keyword match when a query cannot be embedded.
	LexicalFallback bool
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:       512,
		ChunkOverlap:    50,
		TopK:            search.DefaultTopK,
		Facts:           answer.DefaultFacts,
		Concurrency:     4,
		EmbedTimeout:    30 * time.Second,
		GenerateTimeout: 60 * time.Second,
		Generation: llm.Options{
			Temperature:     0.7,
			MaxOutputTokens: 1024,
			TopP:            0.95,
			TopK:            40,
		},
		LexicalFallback: true,
	}
}

// Engine owns the providers and the session store. It has no package-level
// state, so any number of engines can coexist.
type Engine struct {
	cfg          Config
	embedder     embedding.Embedder
	chunker      *indexer.Chunker
	indexer      *indexer.Indexer
	retriever    *search.Retriever
	registry     *llm.Registry
	synthesizers map[string]*answer.Synthesizer
	sessions     *session.Store
	transcript   storage.Transcript
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = utils.OrNop(l) }
}

// WithTranscript records sessions and turns to t.
func WithTranscript(t storage.Transcript) Option {
	return func(e *Engine) {
		if t != nil {
			e.transcript = t
		}
	}
}

// WithSessionStore uses store instead of a fresh one.
func WithSessionStore(store *session.Store) Option {
	return func(e *Engine) {
		if store != nil {
			e.sessions = store
		}
	}
}

// New validates cfg against the embedder and builds one synthesizer per
// registered model. The registry is fixed for the life of the engine.
func New(cfg Config, embedder embedding.Embedder, registry *llm.Registry, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if registry == nil {
		return nil, errors.New("generator registry is required")
	}
	if err := validateChunking(cfg, embedder); err != nil {
		return nil, err
	}
	if cfg.Facts <= 0 {
		cfg.Facts = answer.DefaultFacts
	}

	e := &Engine{
		cfg:        cfg,
		embedder:   embedder,
		sessions:   session.NewStore(),
		transcript: storage.Nop{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.chunker = indexer.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	e.indexer = indexer.NewIndexer(embedder,
		indexer.WithConcurrency(cfg.Concurrency),
		indexer.WithTimeout(cfg.EmbedTimeout),
		indexer.WithLogger(e.logger))
	e.retriever = search.NewRetriever(embedder,
		search.WithDefaultTopK(cfg.TopK),
		search.WithTimeout(cfg.EmbedTimeout),
		search.WithLexicalFallback(cfg.LexicalFallback),
		search.WithLogger(e.logger))
	e.registry = registry
	e.synthesizers = make(map[string]*answer.Synthesizer)
	for _, name := range registry.Names() {
		gen, _ := registry.Get(name)
		e.synthesizers[name] = answer.NewSynthesizer(e.retriever, gen,
			answer.WithOptions(cfg.Generation),
			answer.WithTopK(cfg.TopK),
			answer.WithTimeout(cfg.GenerateTimeout),
			answer.WithLogger(e.logger))
	}
	return e, nil
}

// approxTokensPerWord over-estimates subword tokenization for English prose.
const approxTokensPerWord = 4.0 / 3.0

func validateChunking(cfg Config, embedder embedding.Embedder) error {
	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if limit := embedder.MaxInputTokens(); limit > 0 {
		if est := int(float64(cfg.ChunkSize) * approxTokensPerWord); est > limit {
			return fmt.Errorf("%w: %d words is about %d tokens, %s accepts %d",
				ErrChunkTooLarge, cfg.ChunkSize, est, embedder.Name(), limit)
		}
	}
	return nil
}

// Models returns the configured generation model names.
func (e *Engine) Models() []string { return e.registry.Names() }

// DefaultModel returns the model used when an ingest does not choose one.
func (e *Engine) DefaultModel() string { return e.registry.Default() }

// EmbeddingModel returns the name of the embedding model.
func (e *Engine) EmbeddingModel() string { return e.embedder.Name() }

// Sessions returns the session store.
func (e *Engine) Sessions() *session.Store { return e.sessions }

// Close releases the indices held by all sessions. The engine must not be used afterwards.
func (e *Engine) Close() error {
	var errs []error
	for _, id := range e.sessions.IDs() {
		sess, err := e.sessions.Get(id)
		if err != nil || sess.Index == nil {
			continue
		}
		if err := sess.Index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close index for %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Stats summarizes engine state for status reporting.
type Stats struct {
	Sessions         int      `json:"sessions"`
	Models           []string `json:"models"`
	DefaultModel     string   `json:"default_model"`
	EmbeddingModel   string   `json:"embedding_model"`
	RecordedSessions int64    `json:"recorded_sessions"`
	RecordedTurns    int64    `json:"recorded_turns"`
}

// Stats returns counts for the live store and the transcript.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{
		Sessions:       e.sessions.Len(),
		Models:         e.Models(),
		DefaultModel:   e.DefaultModel(),
		EmbeddingModel: e.EmbeddingModel(),
	}
	var err error
	if s.RecordedSessions, err = e.transcript.CountSessions(ctx); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	if s.RecordedTurns, err = e.transcript.CountTurns(ctx); err != nil {
		return nil, fmt.Errorf("count turns: %w", err)
	}
	return s, nil
}

func newNamespace() string { return uuid.NewString() }

func profileName(p *models.ProfileRecord) string {
	if p == nil {
		return ""
	}
	return p.Clean().FullName
}
