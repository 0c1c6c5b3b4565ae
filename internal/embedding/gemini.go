package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini embedding defaults.
const (
	DefaultGeminiModel   = "text-embedding-004"
	geminiDimensions     = 768
	geminiMaxInputTokens = 2048
)

// GeminiEmbedder embeds text with a Google Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
}

// NewGeminiEmbedder creates a client for the given model using apiKey.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini embedder: missing API key (set GEMINI_API_KEY or GOOGLE_API_KEY)")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini embedder init: %w", err)
	}
	return &GeminiEmbedder{client: client, model: client.EmbeddingModel(model), name: model}, nil
}

// Name returns the embedding model name.
func (e *GeminiEmbedder) Name() string { return e.name }

// Embed returns the embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classifyGoogleError("gemini", err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyEmbedding)
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds texts in a single batch request.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batch := e.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, classifyGoogleError("gemini", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini batch: %w", ErrEmptyEmbedding)
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini batch item %d: %w", i, ErrEmptyEmbedding)
		}
		out[i] = emb.Values
	}
	return out, nil
}

// Dimensions returns the model's vector length.
func (e *GeminiEmbedder) Dimensions() int { return geminiDimensions }

// MaxInputTokens returns the model's input limit.
func (e *GeminiEmbedder) MaxInputTokens() int { return geminiMaxInputTokens }

// Close releases the underlying client.
func (e *GeminiEmbedder) Close() error { return e.client.Close() }

// classifyGoogleError marks throttling, server and transport errors as ErrUnavailable.
// Other API errors (bad request, permission) are permanent.
func classifyGoogleError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return unavailable(provider, err)
		}
		return fmt.Errorf("%s: %w", provider, err)
	}
	return unavailable(provider, err)
}
