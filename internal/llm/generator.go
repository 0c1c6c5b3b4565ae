// Package llm wraps text generation providers behind a single Generator interface.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrTruncated means the model stopped at the output token limit.
	ErrTruncated = errors.New("generation stopped at the output token limit")
	// ErrRateLimited means the provider refused the call for rate or quota reasons.
	ErrRateLimited = errors.New("generation rate limited")
	// ErrEmptyResponse means the provider returned no text.
	ErrEmptyResponse = errors.New("generation returned no text")
	// ErrUnknownModel is returned for a model name that is not registered.
	ErrUnknownModel = errors.New("unknown generation model")
)

// ContextDelimiter fences the retrieved context inside prompts.
const ContextDelimiter = "---------------------"

// Options are sampling parameters forwarded to the provider unchanged.
// Zero values leave the provider default in place.
type Options struct {
	Temperature     float32 `json:"temperature" yaml:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens" yaml:"max_output_tokens"`
	TopP            float32 `json:"top_p" yaml:"top_p"`
	TopK            int     `json:"top_k" yaml:"top_k"`
}

// Generator maps a prompt to generated text.
type Generator interface {
	// Name is the model identifier used for registry lookups.
	Name() string
	// Generate returns the model's text. When the output was cut off, the
	// partial text is returned together with an error wrapping ErrTruncated.
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}
