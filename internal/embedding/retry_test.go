package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type flakyEmbedder struct {
	*HashEmbedder
	failures int
	err      error
	calls    int
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.HashEmbedder.Embed(ctx, text)
}

func TestRetryingEmbedder_RetriesUnavailable(t *testing.T) {
	inner := &flakyEmbedder{
		HashEmbedder: NewHashEmbedder(8),
		failures:     2,
		err:          fmt.Errorf("dial: %w", ErrUnavailable),
	}
	r := NewRetryingEmbedder(inner, 3, time.Millisecond, nil)
	v, err := r.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 8 || inner.calls != 3 {
		t.Errorf("len=%d calls=%d", len(v), inner.calls)
	}
}

func TestRetryingEmbedder_GivesUp(t *testing.T) {
	inner := &flakyEmbedder{
		HashEmbedder: NewHashEmbedder(8),
		failures:     10,
		err:          fmt.Errorf("dial: %w", ErrUnavailable),
	}
	r := NewRetryingEmbedder(inner, 2, time.Millisecond, nil)
	if _, err := r.Embed(context.Background(), "hello"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
}

func TestRetryingEmbedder_PermanentNotRetried(t *testing.T) {
	inner := &flakyEmbedder{
		HashEmbedder: NewHashEmbedder(8),
		failures:     10,
		err:          ErrEmptyEmbedding,
	}
	r := NewRetryingEmbedder(inner, 5, time.Millisecond, nil)
	if _, err := r.Embed(context.Background(), "hello"); !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("err = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryDelay(t *testing.T) {
	if retryDelay(100*time.Millisecond, 0) != 100*time.Millisecond {
		t.Error("first delay should equal base")
	}
	if retryDelay(100*time.Millisecond, 2) != 400*time.Millisecond {
		t.Error("delay should double per attempt")
	}
	if retryDelay(time.Second, 10) != maxRetryDelay {
		t.Error("delay should be capped")
	}
	if retryDelay(0, 3) != 0 {
		t.Error("zero base means no delay")
	}
}
