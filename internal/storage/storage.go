// Package storage records session transcripts: which profiles were ingested
// and every summary and chat turn produced for them.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/icebreaker/internal/models"
)

// ErrSessionNotRecorded is returned when a transcript lookup finds no session.
var ErrSessionNotRecorded = errors.New("session not recorded")

// Transcript persists session headers and turns. Indices are never stored.
type Transcript interface {
	RecordSession(ctx context.Context, rec *models.SessionRecord) error
	GetSession(ctx context.Context, id string) (*models.SessionRecord, error)
	RecordTurn(ctx context.Context, turn *models.Turn) error
	// ListTurns returns a session's turns oldest first.
	ListTurns(ctx context.Context, sessionID string, offset, limit int) ([]*models.Turn, error)

	CountSessions(ctx context.Context) (int64, error)
	CountTurns(ctx context.Context) (int64, error)

	Close() error
}

// Nop discards everything. It is used when no transcript path is configured.
type Nop struct{}

var _ Transcript = Nop{}

func (Nop) RecordSession(context.Context, *models.SessionRecord) error { return nil }

func (Nop) GetSession(context.Context, string) (*models.SessionRecord, error) {
	return nil, ErrSessionNotRecorded
}

func (Nop) RecordTurn(context.Context, *models.Turn) error { return nil }

func (Nop) ListTurns(context.Context, string, int, int) ([]*models.Turn, error) { return nil, nil }

func (Nop) CountSessions(context.Context) (int64, error) { return 0, nil }

func (Nop) CountTurns(context.Context) (int64, error) { return 0, nil }

func (Nop) Close() error { return nil }
