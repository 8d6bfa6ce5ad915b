package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

type exampleQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// exampleQuestions are the canned questions offered to UI clients.
var exampleQuestions = []exampleQuestion{
	{Question: "How do I add a step to an existing configuration?", Category: "Configuration"},
	{Question: "What are the different types of build triggers?", Category: "Triggers"},
	{Question: "How do I set up email notifications?", Category: "Notifications"},
	{Question: "What is the difference between build configurations and build steps?", Category: "Concepts"},
	{Question: "How do I configure a build badge?", Category: "Configuration"},
	{Question: "What are the key features of the QuickBuild dashboard?", Category: "UI"},
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	s.logger.Debug("ask request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))

	// When the caller supplied a session, resolve it first and log the
	// question before asking, so the history holds the question even if
	// the engine fails.
	var session *models.Session
	if req.SessionID != "" {
		var err error
		session, err = s.storage.GetOrCreateSession(ctx, req.SessionID)
		if err != nil {
			s.logger.Error("session lookup failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if _, err := s.storage.AddMessage(ctx, session.ID, models.MessageTypeQuestion, req.Question, nil); err != nil {
			s.logger.Warn("failed to log question", zap.Error(err))
		}
	}

	answer, err := s.engine.Ask(ctx, req.Question, req.TopK)
	if err != nil {
		s.logger.Error("ask failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	if session != nil {
		metadata := map[string]interface{}{
			"confidence": answer.Confidence,
			"sources":    len(answer.Sources),
		}
		if _, err := s.storage.AddMessage(ctx, session.ID, models.MessageTypeAnswer, answer.Answer, metadata); err != nil {
			s.logger.Warn("failed to log answer", zap.Error(err))
		}
	}

	resp := models.AskResponse{
		Answer:       answer.Answer,
		Confidence:   answer.Confidence,
		Sources:      answer.Sources,
		ContextUsed:  answer.ContextUsed,
		Error:        answer.Error,
		ResponseTime: time.Since(start).Seconds(),
	}
	if session != nil {
		resp.SessionID = session.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	database := models.StatusHealthy
	if err := s.storage.Ping(ctx); err != nil {
		database = models.StatusUnhealthy + ": " + err.Error()
	}

	ragHealth := s.engine.HealthCheck(ctx)

	status := models.StatusHealthy
	if database != models.StatusHealthy || ragHealth.Status != models.StatusHealthy {
		status = models.StatusUnhealthy
	}

	resp := map[string]interface{}{
		"status":     status,
		"database":   database,
		"rag_system": ragHealth,
	}
	if s.watcher != nil {
		resp["corpus_stale"] = s.watcher.Stale()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"examples": exampleQuestions})
}

type sessionCreateRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.storage.CreateSession(r.Context(), req.Name)
	if err != nil {
		s.logger.Error("create session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.storage.GetHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("get history failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete session request", zap.String("id", id))
	if err := s.storage.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("delete session failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
