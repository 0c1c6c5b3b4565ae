package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/icebreaker/internal/embedding"
	"github.com/hyperjump/icebreaker/internal/engine"
	"github.com/hyperjump/icebreaker/internal/indexer"
	"github.com/hyperjump/icebreaker/internal/models"
	"github.com/hyperjump/icebreaker/internal/profile"
	"github.com/hyperjump/icebreaker/internal/session"
	"github.com/hyperjump/icebreaker/pkg/utils"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req models.IngestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := req.Profile
	if req.Mock {
		p = profile.Mock()
	}
	s.logger.Debug("ingest request", zap.Bool("mock", req.Mock), zap.String("model", req.Model))

	res, err := s.engine.Ingest(r.Context(), p, engine.WithModel(req.Model))
	if err != nil {
		status := ingestStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("ingest failed", zap.Error(err))
		}
		s.respondError(w, status, engine.DescribeIngestError(err))
		return
	}
	s.respondJSON(w, http.StatusCreated, models.IngestResponse{
		SessionID: res.SessionID,
		Summary:   res.Summary,
		Outcome:   res.Outcome.String(),
		Nodes:     res.Nodes,
		Model:     res.Model,
	})
}

func ingestStatus(err error) int {
	var emptyErr *indexer.EmptyProfileError
	var buildErr *indexer.IndexBuildError
	switch {
	case errors.Is(err, engine.ErrNoProfile), errors.As(err, &emptyErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.As(err, &buildErr) && errors.Is(err, embedding.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &buildErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	_ = req.Validate()
	s.logger.Debug("ask request", zap.String("session_id", id), zap.String("question", utils.Truncate(req.Question, 80)))

	reply := s.engine.Ask(r.Context(), id, req.Question)
	status := http.StatusOK
	if errors.Is(reply.Err, session.ErrSessionNotFound) {
		status = http.StatusNotFound
	}
	s.respondJSON(w, status, models.AskResponse{
		SessionID: id,
		Answer:    reply.Text,
		Outcome:   reply.Outcome.String(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	turns, err := s.engine.History(r.Context(), id, offset, limit)
	if errors.Is(err, session.ErrSessionNotFound) {
		s.respondError(w, http.StatusNotFound, engine.SessionExpiredMessage)
		return
	}
	if err != nil {
		s.logger.Error("history failed", zap.String("session_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turns == nil {
		turns = []*models.Turn{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"session_id": id, "messages": turns})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"models":  s.engine.Models(),
		"default": s.engine.DefaultModel(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"sessions":          stats.Sessions,
		"recorded_sessions": stats.RecordedSessions,
		"recorded_turns":    stats.RecordedTurns,
		"models":            stats.Models,
		"default_model":     stats.DefaultModel,
		"embedding_model":   stats.EmbeddingModel,
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"embedding_provider":  cfg.Embedding.Provider,
		"generation_provider": cfg.Generation.Provider,
		"chunk_size":          cfg.Chunking.ChunkSize,
		"chunk_overlap":       cfg.Chunking.ChunkOverlap,
		"top_k":               cfg.Retrieval.TopK,
		"requests_per_minute": cfg.Generation.RequestsPerMinute,
		"transcript_path":     cfg.Storage.TranscriptPath,
	}
	if s.usage != nil {
		if n, err := s.usage.DiskUsage(); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
