package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

const maxRetryDelay = 5 * time.Second

// RetryingEmbedder retries Embed calls that fail with ErrUnavailable, using
// exponential backoff from baseDelay capped at five seconds. Other errors and
// context cancellation are returned immediately.
type RetryingEmbedder struct {
	Embedder
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// NewRetryingEmbedder wraps inner. maxAttempts below 1 is treated as 1.
func NewRetryingEmbedder(inner Embedder, maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *RetryingEmbedder {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingEmbedder{
		Embedder:    inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      utils.OrNop(logger),
	}
}

// Embed calls the wrapped embedder until it succeeds, fails permanently, or attempts run out.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := retryDelay(r.baseDelay, attempt-1)
			r.logger.Debug("retrying embedding",
				zap.String("model", r.Name()),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		emb, err := r.Embedder.Embed(ctx, text)
		if err == nil {
			return emb, nil
		}
		if !errors.Is(err, ErrUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// EmbedBatch calls Embed for each text.
func (r *RetryingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, r, texts)
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << attempt
	if d > maxRetryDelay || d <= 0 {
		d = maxRetryDelay
	}
	return d
}
