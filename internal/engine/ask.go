package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/icebreaker/internal/answer"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/session"
	"github.com/hyperjump/icebreaker/internal/storage"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

var (
	// ErrNoSession is the Reply error when Ask gets an empty session id.
	ErrNoSession = errors.New("no session id")
	// ErrEmptyQuestion is the Reply error for a blank question.
	ErrEmptyQuestion = errors.New("empty question")
)

// Messages shown instead of an answer.
const (
	NoSessionMessage      = "No profile loaded. Please process a profile first."
	SessionExpiredMessage = "Session expired or not found. Please process the profile again."
	EmptyQuestionMessage  = "Please enter a question about the profile."
)

// Reply is the result of one chat turn. Text is always displayable.
type Reply struct {
	SessionID string
	Text      string
	Outcome   answer.Outcome
	// Err is set for every degraded reply: ErrNoSession, session.ErrSessionNotFound,
	// ErrEmptyQuestion or the synthesis failure.
	Err error
}

// Ask answers question against the session's profile. It never fails: every
// problem, including an unknown session, becomes a Reply with a fallback text.
func (e *Engine) Ask(ctx context.Context, sessionID, question string) Reply {
	if sessionID == "" {
		return Reply{Text: NoSessionMessage, Outcome: answer.Failed, Err: ErrNoSession}
	}
	sess, err := e.sessions.Get(sessionID)
	if err != nil {
		e.logger.Debug("ask on unknown session", zap.String("session_id", sessionID))
		return Reply{SessionID: sessionID, Text: SessionExpiredMessage, Outcome: answer.Failed, Err: err}
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{SessionID: sessionID, Text: EmptyQuestionMessage, Outcome: answer.Failed, Err: ErrEmptyQuestion}
	}

	synth, ok := e.synthesizers[sess.Model]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownModel, sess.Model)
		return Reply{SessionID: sessionID, Text: "Failed to generate a response. Error: " + err.Error(), Outcome: answer.Failed, Err: err}
	}
	r := synth.Synthesize(ctx, sess.Index, answer.Answer(question))
	e.logger.Info("question answered",
		zap.String("session_id", sessionID),
		zap.String("question", utils.Truncate(question, 80)),
		zap.Stringer("outcome", r.Outcome))

	e.recordTurn(ctx, &models.Turn{
		SessionID: sessionID,
		Kind:      KindAnswer,
		Question:  question,
		Answer:    r.Text,
		Outcome:   r.Outcome.String(),
	})
	return Reply{SessionID: sessionID, Text: r.Text, Outcome: r.Outcome, Err: r.Err}
}

// History returns the recorded turns of a session, oldest first. A session
// known to neither the live store nor the transcript is session.ErrSessionNotFound.
func (e *Engine) History(ctx context.Context, sessionID string, offset, limit int) ([]*models.Turn, error) {
	if _, err := e.sessions.Get(sessionID); err != nil {
		if _, terr := e.transcript.GetSession(ctx, sessionID); terr != nil {
			if errors.Is(terr, storage.ErrSessionNotRecorded) {
				return nil, session.ErrSessionNotFound
			}
			return nil, terr
		}
	}
	turns, err := e.transcript.ListTurns(ctx, sessionID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}
