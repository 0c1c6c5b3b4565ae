package answer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hyperjump/icebreaker/internal/llm"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// Outcome tags how a synthesis ended.
type Outcome int

const (
	OK Outcome = iota
	Truncated
	RateLimited
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Truncated:
		return "truncated"
	case RateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// Degraded reports whether the text is a fallback message rather than model output.
func (o Outcome) Degraded() bool { return o != OK }

// User-facing fallback messages.
const (
	TruncatedMessage   = "Profile processed successfully, but the response was cut off. Try asking a narrower question."
	RateLimitedMessage = "Rate limit exceeded. Please wait a moment and try again."
	failedPrefix       = "Failed to generate a response. Error: "
)

// Result is the tagged outcome of one synthesis. Text is always displayable.
type Result struct {
	Text    string
	Outcome Outcome
	// Err is the underlying failure for degraded outcomes, kept for logging.
	Err error
}

func ok(text string) Result {
	return Result{Text: text, Outcome: OK}
}

// degrade maps err to the matching fallback result.
func degrade(err error) Result {
	switch classify(err) {
	case Truncated:
		return Result{Text: TruncatedMessage, Outcome: Truncated, Err: err}
	case RateLimited:
		return Result{Text: RateLimitedMessage, Outcome: RateLimited, Err: err}
	}
	return Result{Text: failedPrefix + err.Error(), Outcome: Failed, Err: err}
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, llm.ErrTruncated):
		return Truncated
	case errors.Is(err, llm.ErrRateLimited):
		return RateLimited
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Failed
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return RateLimited
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return RateLimited
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "MAX_TOKENS"), strings.Contains(msg, "terminated early"):
		return Truncated
	case strings.Contains(msg, "RATE_LIMIT"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"),
		strings.Contains(msg, "429"),
		strings.Contains(strings.ToLower(msg), "quota"):
		return RateLimited
	}
	return Failed
}
