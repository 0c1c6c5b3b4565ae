package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/icebreaker/internal/answer"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/session"
	"go.uber.org/zap"
)

// IngestResult describes a newly created session.
type IngestResult struct {
	SessionID   string
	Summary     string
	Outcome     answer.Outcome
	Model       string
	ProfileName string
	Nodes       int
	Deficient   int // nodes left without a usable embedding
}

type ingestOptions struct {
	model string
}

// IngestOption configures one Ingest call.
type IngestOption func(*ingestOptions)

// WithModel binds the session to a generation model. Empty selects the default.
func WithModel(name string) IngestOption {
	return func(o *ingestOptions) { o.model = name }
}

// Ingest chunks and indexes profile, generates the initial facts and stores a
// new session. Errors are returned only when no session could be created; a
// failed summary still yields a session whose Summary holds the fallback text.
func (e *Engine) Ingest(ctx context.Context, profile *models.ProfileRecord, opts ...IngestOption) (*IngestResult, error) {
	if profile == nil {
		return nil, ErrNoProfile
	}
	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}
	gen, err := e.registry.Get(o.model)
	if err != nil {
		return nil, err
	}
	synth := e.synthesizers[gen.Name()]

	start := time.Now()
	namespace := newNamespace()
	name := profileName(profile)
	nodes, err := e.chunker.Chunk(namespace, profile)
	if err != nil {
		return nil, err
	}
	index, err := e.indexer.BuildIndex(ctx, namespace, nodes)
	if err != nil {
		return nil, err
	}

	facts := synth.Synthesize(ctx, index, answer.Summarize(e.cfg.Facts))
	if err := ctx.Err(); err != nil {
		_ = index.Close()
		return nil, err
	}
	summary := facts.Text
	if facts.Outcome == answer.OK {
		summary = fmt.Sprintf("Profile processed successfully!\n\nHere are %d interesting facts about this person:\n\n%s", e.cfg.Facts, facts.Text)
	}

	id := e.sessions.Create(index, session.Options{Model: gen.Name(), ProfileName: name})
	res := &IngestResult{
		SessionID:   id,
		Summary:     summary,
		Outcome:     facts.Outcome,
		Model:       gen.Name(),
		ProfileName: name,
		Nodes:       index.Size(),
		Deficient:   index.Deficient(),
	}
	e.logger.Info("profile ingested",
		zap.String("session_id", id),
		zap.String("model", res.Model),
		zap.Int("nodes", res.Nodes),
		zap.Int("deficient", res.Deficient),
		zap.Stringer("summary_outcome", facts.Outcome),
		zap.Duration("elapsed", time.Since(start)))

	e.record(ctx, &models.SessionRecord{ID: id, ProfileName: name, Model: res.Model, Nodes: res.Nodes})
	e.recordTurn(ctx, &models.Turn{SessionID: id, Kind: KindSummary, Answer: summary, Outcome: facts.Outcome.String()})
	return res, nil
}

func (e *Engine) record(ctx context.Context, rec *models.SessionRecord) {
	if err := e.transcript.RecordSession(ctx, rec); err != nil {
		e.logger.Warn("transcript session not recorded", zap.String("session_id", rec.ID), zap.Error(err))
	}
}

func (e *Engine) recordTurn(ctx context.Context, turn *models.Turn) {
	if err := e.transcript.RecordTurn(ctx, turn); err != nil {
		e.logger.Warn("transcript turn not recorded", zap.String("session_id", turn.SessionID), zap.Error(err))
	}
}
