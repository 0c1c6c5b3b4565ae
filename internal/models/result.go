package models

import "time"

// IngestResponse is returned after a profile has been indexed.
type IngestResponse struct {
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
	Outcome   string `json:"outcome"`
	Nodes     int    `json:"nodes"`
	Model     string `json:"model"`
}

// AskResponse is the reply to a chat turn. Answer is always displayable.
type AskResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Outcome   string `json:"outcome"`
}

// Turn is one recorded exchange in a session transcript.
type Turn struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Kind      string    `json:"kind" db:"kind"` // "summary" or "answer"
	Question  string    `json:"question,omitempty" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Outcome   string    `json:"outcome" db:"outcome"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SessionRecord is the transcript header for a session.
type SessionRecord struct {
	ID          string    `json:"id" db:"id"`
	ProfileName string    `json:"profile_name" db:"profile_name"`
	Model       string    `json:"model" db:"model"`
	Nodes       int       `json:"nodes" db:"nodes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
