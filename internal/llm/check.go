package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const checkPrompt = "Say 'hello' in one word."

// Check sends a one-line prompt to g and returns its reply, verifying that
// credentials and model name are accepted. A truncated reply still passes.
func Check(ctx context.Context, g Generator) (string, error) {
	text, err := g.Generate(ctx, checkPrompt, Options{MaxOutputTokens: 64})
	if err != nil && !errors.Is(err, ErrTruncated) {
		return "", fmt.Errorf("check %s: %w", g.Name(), err)
	}
	return strings.TrimSpace(text), nil
}
