package models

import (
	"fmt"
	"strings"
)

// IngestRequest asks for a profile to be indexed into a new session.
type IngestRequest struct {
	Profile *ProfileRecord `json:"profile,omitempty"`
	Mock    bool           `json:"mock,omitempty"`  // use the built-in sample profile
	Model   string         `json:"model,omitempty"` // generation model for the session; empty selects the default
}

// Validate ensures exactly one profile source is given.
func (r *IngestRequest) Validate() error {
	if r.Profile == nil && !r.Mock {
		return fmt.Errorf("profile is required unless mock is set")
	}
	if r.Profile != nil && r.Mock {
		return fmt.Errorf("profile and mock are mutually exclusive")
	}
	r.Model = strings.TrimSpace(r.Model)
	return nil
}

// AskRequest is one chat turn against an existing session.
type AskRequest struct {
	Question string `json:"question"`
}

// Validate trims the question. Blank questions are accepted here and answered
// with a prompt to ask something, so no error is returned for them.
func (r *AskRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	return nil
}
