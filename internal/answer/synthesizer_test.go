package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/indexer"
	"github.com/hyperjump/icebreaker/internal/llm"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/search"
	"github.com/hyperjump/icebreaker/internal/vector"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

type recordingGenerator struct {
	text   string
	err    error
	prompt string
	opts   llm.Options
}

func (g *recordingGenerator) Name() string { return "recording" }

func (g *recordingGenerator) Generate(_ context.Context, prompt string, opts llm.Options) (string, error) {
	g.prompt = prompt
	g.opts = opts
	return g.text, g.err
}

func acmeProfile() *models.ProfileRecord {
	return &models.ProfileRecord{
		FullName: "Jane Doe",
		Summary:  "Builds distributed systems and mentors engineers.",
		Experiences: []models.Experience{{
			Title:    "Senior Engineer",
			Company:  "Acme",
			StartsAt: &models.YearMonth{Year: 2020},
		}},
		Education: []models.Education{{School: "State University", Degree: "BSc", FieldOfStudy: "Physics"}},
		Skills:    []string{"Go", "Kubernetes"},
	}
}

func buildIndex(t *testing.T, emb embedding.Embedder) *vector.Index {
	t.Helper()
	nodes, err := indexer.NewChunker(512, 50).Chunk("test", acmeProfile())
	if err != nil {
		t.Fatal(err)
	}
	index, err := indexer.NewIndexer(emb).BuildIndex(context.Background(), "test", nodes)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func TestSynthesize_Answer(t *testing.T) {
	emb := embedding.NewHashEmbedder(1024)
	index := buildIndex(t, emb)
	gen := &recordingGenerator{text: "\n  Senior Engineer at Acme.  \n"}
	opts := llm.Options{Temperature: 0.7, MaxOutputTokens: 1024, TopP: 0.95, TopK: 40}
	s := NewSynthesizer(search.NewRetriever(emb), gen, WithOptions(opts), WithTopK(2))

	r := s.Synthesize(context.Background(), index, Answer("What is this person's current role?"))
	if r.Outcome != OK || r.Err != nil {
		t.Fatalf("outcome = %v, err = %v", r.Outcome, r.Err)
	}
	if r.Text != "Senior Engineer at Acme." {
		t.Errorf("text = %q", r.Text)
	}
	if gen.opts != opts {
		t.Errorf("options = %+v, want %+v", gen.opts, opts)
	}
	for _, want := range []string{
		"answer the question: What is this person's current role?",
		"Jane Doe works as Senior Engineer at Acme",
		InsufficientContext,
		"Answer:\n",
	} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, gen.prompt)
		}
	}
}

func TestSynthesize_Summary(t *testing.T) {
	emb := embedding.NewHashEmbedder(256)
	index := buildIndex(t, emb)
	gen := &recordingGenerator{text: "1. a\n2. b\n3. c"}
	s := NewSynthesizer(search.NewRetriever(emb), gen)

	r := s.Synthesize(context.Background(), index, Summarize(0))
	if r.Outcome != OK {
		t.Fatalf("outcome = %v", r.Outcome)
	}
	for _, want := range []string{"provide three interesting and specific facts", "3. [Third fact]", "Facts:\n"} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(gen.prompt, SummaryQuery) {
		t.Error("canned retrieval query must not appear in the prompt")
	}
}

func TestSynthesize_EchoMentionsRetrievedRole(t *testing.T) {
	emb := embedding.NewHashEmbedder(1024)
	index := buildIndex(t, emb)
	s := NewSynthesizer(search.NewRetriever(emb), llm.NewEchoGenerator(""), WithTopK(3))

	r := s.Synthesize(context.Background(), index, Answer("What is this person's current role?"))
	if r.Outcome != OK {
		t.Fatalf("outcome = %v (%v)", r.Outcome, r.Err)
	}
	if !strings.Contains(r.Text, "Senior Engineer") || !strings.Contains(r.Text, "Acme") {
		t.Errorf("answer %q should mention the current role", r.Text)
	}
}

func TestSynthesize_DegradedOutcomes(t *testing.T) {
	emb := embedding.NewHashEmbedder(128)
	index := buildIndex(t, emb)

	tests := []struct {
		name string
		err  error
		want Outcome
		text string
	}{
		{"truncated sentinel", fmt.Errorf("gemini: %w", llm.ErrTruncated), Truncated, TruncatedMessage},
		{"max tokens text", errors.New("finish reason MAX_TOKENS"), Truncated, TruncatedMessage},
		{"terminated early", errors.New("response terminated early"), Truncated, TruncatedMessage},
		{"rate limited sentinel", fmt.Errorf("gemini: %w", llm.ErrRateLimited), RateLimited, RateLimitedMessage},
		{"googleapi 429", &googleapi.Error{Code: 429, Message: "slow down"}, RateLimited, RateLimitedMessage},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, RateLimited, RateLimitedMessage},
		{"resource exhausted", errors.New("rpc error: RESOURCE_EXHAUSTED"), RateLimited, RateLimitedMessage},
		{"quota", errors.New("Quota exceeded for project"), RateLimited, RateLimitedMessage},
		{"other", errors.New("connection reset"), Failed, "Failed to generate a response. Error: connection reset"},
		{"empty text", nil, Failed, "Failed to generate a response. Error: " + llm.ErrEmptyResponse.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &recordingGenerator{err: tt.err}
			r := NewSynthesizer(search.NewRetriever(emb), gen).Synthesize(context.Background(), index, Answer("role?"))
			if r.Outcome != tt.want {
				t.Errorf("outcome = %v, want %v", r.Outcome, tt.want)
			}
			if r.Text != tt.text {
				t.Errorf("text = %q, want %q", r.Text, tt.text)
			}
			if !r.Outcome.Degraded() || r.Err == nil {
				t.Error("degraded result should carry its cause")
			}
		})
	}
}

func TestSynthesize_RetrievalFailure(t *testing.T) {
	emb := embedding.NewHashEmbedder(64)
	gen := &recordingGenerator{text: "unused"}
	r := NewSynthesizer(search.NewRetriever(emb), gen).Synthesize(context.Background(), nil, Answer("role?"))
	if r.Outcome != Failed {
		t.Fatalf("outcome = %v", r.Outcome)
	}
	if !strings.HasPrefix(r.Text, "Failed to generate a response. Error: retrieve context") {
		t.Errorf("text = %q", r.Text)
	}
	if gen.prompt != "" {
		t.Error("generator should not be called without context")
	}
}

func TestContextBlock(t *testing.T) {
	hits := []*models.RankedNode{
		{Node: &models.Node{Text: "first"}},
		{Node: &models.Node{Text: "second"}},
	}
	if got := ContextBlock(hits); got != "first\n\nsecond" {
		t.Errorf("ContextBlock = %q", got)
	}
	if ContextBlock(nil) != "" {
		t.Error("no hits should give an empty block")
	}
}

func TestOutcomeString(t *testing.T) {
	for o, want := range map[Outcome]string{OK: "ok", Truncated: "truncated", RateLimited: "rate_limited", Failed: "failed"} {
		if o.String() != want {
			t.Errorf("%d.String() = %q", o, o.String())
		}
	}
}
