package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/icebreaker/internal/models"
)

// client talks to a running icebreaker server.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(serverURL string) *client {
	return &client{
		baseURL: strings.TrimRight(serverURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error string `json:"error"`
}

func (c *client) do(method, path string, in, out interface{}, accept ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	okStatus := false
	for _, s := range accept {
		okStatus = okStatus || resp.StatusCode == s
	}
	if !okStatus {
		var e errorBody
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) ingest(req *models.IngestRequest) (*models.IngestResponse, error) {
	var out models.IngestResponse
	if err := c.do(http.MethodPost, "/api/v1/profiles", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ask never fails: transport errors become a degraded answer.
func (c *client) ask(sessionID, question string) *models.AskResponse {
	var out models.AskResponse
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(http.MethodPost, path, &models.AskRequest{Question: question}, &out, http.StatusOK, http.StatusNotFound); err != nil {
		return &models.AskResponse{SessionID: sessionID, Answer: "Failed to generate a response. Error: " + err.Error(), Outcome: "failed"}
	}
	return &out
}

func (c *client) history(sessionID string, offset, limit int) ([]*models.Turn, error) {
	var out struct {
		Messages []*models.Turn `json:"messages"`
	}
	path := fmt.Sprintf("/api/v1/sessions/%s/messages?offset=%d&limit=%d", url.PathEscape(sessionID), offset, limit)
	if err := c.do(http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *client) status() (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(http.MethodGet, "/api/v1/status", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out, nil
}

// remoteAsker binds a client to one session for the chat UI.
type remoteAsker struct {
	c         *client
	sessionID string
}

func (a remoteAsker) Ask(question string) *models.AskResponse {
	return a.c.ask(a.sessionID, question)
}
