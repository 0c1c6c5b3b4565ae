// Package answer builds grounded prompts from retrieved profile context and
// turns generation results, including failures, into displayable text.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/icebreaker/internal/llm"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/search"
	"github.com/hyperjump/icebreaker/internal/vector"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

// DefaultFacts is the number of facts requested by the initial summary.
const DefaultFacts = 3

type taskKind int

const (
	summarizeTask taskKind = iota
	answerTask
)

// Task is either a summary into N facts or an answer to one question.
type Task struct {
	kind     taskKind
	facts    int
	question string
}

// Summarize asks for n facts about the person's career or education.
func Summarize(n int) Task {
	if n <= 0 {
		n = DefaultFacts
	}
	return Task{kind: summarizeTask, facts: n}
}

// Answer asks the given question against the profile.
func Answer(question string) Task {
	return Task{kind: answerTask, question: question}
}

// Query returns the text used for retrieval.
func (t Task) Query() string {
	if t.kind == summarizeTask {
		return SummaryQuery
	}
	return t.question
}

func (t Task) prompt(contextBlock string) string {
	if t.kind == summarizeTask {
		return factsPrompt(contextBlock, t.facts)
	}
	return questionPrompt(contextBlock, t.question)
}

func (t Task) String() string {
	if t.kind == summarizeTask {
		return "summary"
	}
	return "answer"
}

// Synthesizer answers tasks against an index with one fixed generator.
type Synthesizer struct {
	retriever *search.Retriever
	generator llm.Generator
	opts      llm.Options
	topK      int
	timeout   time.Duration
	logger    *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithOptions sets the sampling options forwarded to the generator.
func WithOptions(o llm.Options) Option {
	return func(s *Synthesizer) { s.opts = o }
}

// WithTopK sets how many nodes are retrieved as context. Zero uses the retriever default.
func WithTopK(k int) Option {
	return func(s *Synthesizer) { s.topK = k }
}

// WithTimeout bounds each generation call.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = utils.OrNop(l) }
}

// NewSynthesizer creates a synthesizer bound to generator.
func NewSynthesizer(retriever *search.Retriever, generator llm.Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		retriever: retriever,
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the generation model name.
func (s *Synthesizer) Model() string { return s.generator.Name() }

// Synthesize retrieves context for task, prompts the generator and returns its
// text trimmed of surrounding whitespace. It never returns an error: failures
// come back as a degraded Result with a fallback message.
func (s *Synthesizer) Synthesize(ctx context.Context, index *vector.Index, task Task) Result {
	start := time.Now()
	hits, err := s.retriever.Retrieve(ctx, index, task.Query(), s.topK)
	if err != nil {
		return s.fail(task, fmt.Errorf("retrieve context: %w", err))
	}
	prompt := task.prompt(ContextBlock(hits))

	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	text, err := s.generator.Generate(genCtx, prompt, s.opts)
	if err != nil {
		return s.fail(task, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return s.fail(task, llm.ErrEmptyResponse)
	}

	s.logger.Debug("synthesized",
		zap.String("task", task.String()),
		zap.String("model", s.generator.Name()),
		zap.Int("context_nodes", len(hits)),
		zap.Duration("elapsed", time.Since(start)))
	return ok(text)
}

func (s *Synthesizer) fail(task Task, err error) Result {
	r := degrade(err)
	s.logger.Warn("synthesis degraded",
		zap.String("task", task.String()),
		zap.String("model", s.generator.Name()),
		zap.Stringer("outcome", r.Outcome),
		zap.Error(err))
	return r
}

// ContextBlock joins the node texts in ranked order, separated by blank lines.
func ContextBlock(hits []*models.RankedNode) string {
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Node.Text)
	}
	return strings.Join(texts, "\n\n")
}
