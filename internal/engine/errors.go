package engine

import (
	"context"
	"errors"

	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/indexer"
)

// DescribeIngestError renders an Ingest error as a message for the user.
// Empty profiles, unreachable providers and unusable provider output each get
// their own wording.
func DescribeIngestError(err error) string {
	var emptyErr *indexer.EmptyProfileError
	var buildErr *indexer.IndexBuildError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoProfile):
		return "No profile data provided. Please load a profile and try again."
	case errors.As(err, &emptyErr):
		return "The profile has no content to index. Add a summary, experience, education or skills and try again."
	case errors.As(err, &buildErr) && errors.Is(err, embedding.ErrUnavailable):
		return "Failed to create vector database: the embedding service could not be reached. Check your connection and API key, then try again."
	case errors.As(err, &buildErr):
		return "Failed to create vector database: the embedding service returned unusable data for this profile."
	case errors.Is(err, ErrUnknownModel):
		return "The selected model is not available. " + err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Processing was cancelled or timed out before the profile was indexed."
	}
	return "Error: " + err.Error()
}
