package llm

import (
	"context"
	"strings"
)

// EchoGenerator answers with the context section of the prompt, the text
// between the first pair of ContextDelimiter lines. Without delimiters it
// returns the whole prompt. It needs no provider and serves offline runs.
type EchoGenerator struct {
	name string
}

// NewEchoGenerator returns an EchoGenerator registered under name ("echo" when empty).
func NewEchoGenerator(name string) *EchoGenerator {
	if name == "" {
		name = "echo"
	}
	return &EchoGenerator{name: name}
}

// Name returns the registered name.
func (e *EchoGenerator) Name() string { return e.name }

// Generate returns the prompt's context section.
func (e *EchoGenerator) Generate(ctx context.Context, prompt string, _ Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(ExtractContext(prompt)), nil
}

// ExtractContext returns the text between the first two ContextDelimiter lines of prompt,
// or prompt itself when it has fewer than two.
func ExtractContext(prompt string) string {
	_, rest, ok := strings.Cut(prompt, ContextDelimiter)
	if !ok {
		return prompt
	}
	inner, _, ok := strings.Cut(rest, ContextDelimiter)
	if !ok {
		return prompt
	}
	return inner
}
