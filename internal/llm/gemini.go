package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is the generation model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// NewGeminiClient creates a Gemini API client. One client can serve several GeminiGenerators.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("missing GEMINI_API_KEY or GOOGLE_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return client, nil
}

// GeminiGenerator generates text with a Gemini model. It does not own the client.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator returns a generator for model on client.
func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model}
}

// Name returns the model name.
func (g *GeminiGenerator) Name() string { return g.model }

// Generate sends prompt as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	model := g.client.GenerativeModel(g.model)
	if opts.Temperature > 0 {
		model.SetTemperature(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(opts.MaxOutputTokens))
	}
	if opts.TopP > 0 {
		model.SetTopP(opts.TopP)
	}
	if opts.TopK > 0 {
		model.SetTopK(int32(opts.TopK))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	cand := resp.Candidates[0]
	var b strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	text := b.String()
	if cand.FinishReason == genai.FinishReasonMaxTokens {
		return text, fmt.Errorf("gemini %s: %w (MAX_TOKENS)", g.model, ErrTruncated)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini %s: %w (finish reason %s)", g.model, ErrEmptyResponse, cand.FinishReason)
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("gemini: %w: %w", ErrRateLimited, err)
	}
	if strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("gemini: %w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("gemini generate: %w", err)
}
