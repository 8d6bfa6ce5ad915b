package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/storage"
)

const testCorpus = `[
  {
    "url": "https://wiki.pmease.com/display/QB14/Build+Triggers",
    "title": "Build Triggers",
    "breadcrumb": ["QuickBuild", "Configuration"],
    "full_text": "",
    "sections": [
      {"header": "Overview", "content": "Triggers start builds automatically."}
    ]
  },
  {
    "url": "https://wiki.pmease.com/display/QB14/Dashboard",
    "title": "Dashboard",
    "breadcrumb": ["QuickBuild", "UI"],
    "full_text": "",
    "sections": [
      {"header": "Widgets", "content": "The dashboard shows queue metrics."}
    ]
  }
]`

func newTestEngine(t *testing.T) *rag.Engine {
	t.Helper()
	corpusPath := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(corpusPath, []byte(testCorpus), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Corpus.Path = corpusPath
	cfg.Corpus.IndexCachePath = ""
	cfg.Embedding.Provider = "mock"
	cfg.QA.Provider = "mock"

	engine := rag.NewEngine(cfg, nil)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestServer(t *testing.T) (chi.Router, storage.Storage) {
	t.Helper()
	srv := NewServer(newTestEngine(t), newTestStore(t), nil,
		&config.ServerConfig{Host: "127.0.0.1", Port: 8080}, zap.NewNop())
	r := chi.NewRouter()
	srv.registerRoutes(r)
	return r, srv.storage
}

func doJSON(t *testing.T, router chi.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, path, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestHandleAsk(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"question": "What starts a build automatically?"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.AskResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Answer == "" {
		t.Error("answer should not be empty")
	}
	if len(out.Sources) != 2 {
		t.Errorf("sources: got %d, want 2 (default top_k clamped to corpus)", len(out.Sources))
	}
	if out.Sources[0].Title != "Build Triggers" {
		t.Errorf("top source: got %s", out.Sources[0].Title)
	}
	if out.ResponseTime < 0 {
		t.Errorf("response_time: got %v", out.ResponseTime)
	}
	if out.SessionID != "" {
		t.Errorf("session_id should be empty without a session, got %q", out.SessionID)
	}
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/ask", map[string]string{"question": "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleAsk_InvalidBody(t *testing.T) {
	router, _ := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleAsk_LogsSessionMessages(t *testing.T) {
	router, store := newTestServer(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"question": "What starts a build?", "session_id": session.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.AskResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.SessionID != session.ID {
		t.Errorf("session_id: got %q, want %q", out.SessionID, session.ID)
	}

	history, err := store.GetHistory(ctx, session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Messages) != 2 {
		t.Fatalf("expected question + answer logged, got %d messages", len(history.Messages))
	}
	if history.Messages[0].Type != models.MessageTypeQuestion || history.Messages[0].Content != "What starts a build?" {
		t.Errorf("first message: %+v", history.Messages[0])
	}
	answerMsg := history.Messages[1]
	if answerMsg.Type != models.MessageTypeAnswer || answerMsg.Content != out.Answer {
		t.Errorf("second message: %+v", answerMsg)
	}
	if got := answerMsg.Metadata["sources"]; got != float64(len(out.Sources)) {
		t.Errorf("answer metadata sources: got %v, want %d", got, len(out.Sources))
	}
}

func TestHandleAsk_UnknownSessionGetsFreshOne(t *testing.T) {
	router, store := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/ask",
		map[string]string{"question": "What starts a build?", "session_id": "ghost"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.AskResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.SessionID == "" || out.SessionID == "ghost" {
		t.Fatalf("expected a freshly created session, got %q", out.SessionID)
	}
	history, err := store.GetHistory(context.Background(), out.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history.Messages) != 2 {
		t.Errorf("expected 2 messages in fresh session, got %d", len(history.Messages))
	}
}

func TestHandleHealth(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Status      string        `json:"status"`
		Database    string        `json:"database"`
		RAGSystem   models.Health `json:"rag_system"`
		CorpusStale *bool         `json:"corpus_stale"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != models.StatusHealthy {
		t.Errorf("status: got %q", out.Status)
	}
	if out.Database != models.StatusHealthy {
		t.Errorf("database: got %q", out.Database)
	}
	if out.RAGSystem.Status != models.StatusHealthy || out.RAGSystem.DocumentsLoaded != 2 {
		t.Errorf("rag_system: %+v", out.RAGSystem)
	}
	if out.CorpusStale != nil {
		t.Error("corpus_stale should be absent without a watcher")
	}
}

func TestHandleHealth_DatabaseDown(t *testing.T) {
	engine := newTestEngine(t)
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	srv := NewServer(engine, store, nil, &config.ServerConfig{Port: 8080}, zap.NewNop())
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)

	var out struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != models.StatusUnhealthy {
		t.Errorf("status: got %q, want unhealthy", out.Status)
	}
	if out.Database == models.StatusHealthy {
		t.Error("database should report the failure")
	}
}

func TestHandleHealth_ReportsCorpusStale(t *testing.T) {
	engine := newTestEngine(t)
	store := newTestStore(t)
	watcher := corpus.NewWatcher(filepath.Join(t.TempDir(), "corpus.json"), nil)

	srv := NewServer(engine, store, watcher, &config.ServerConfig{Port: 8080}, zap.NewNop())
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, r)

	var out struct {
		CorpusStale *bool `json:"corpus_stale"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.CorpusStale == nil {
		t.Fatal("corpus_stale should be present with a watcher")
	}
	if *out.CorpusStale {
		t.Error("corpus should not be stale before any change")
	}
}

func TestHandleExamples(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/examples", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Examples []exampleQuestion `json:"examples"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Examples) != 6 {
		t.Fatalf("expected 6 examples, got %d", len(out.Examples))
	}
	if out.Examples[0].Question != "How do I add a step to an existing configuration?" {
		t.Errorf("first example: %q", out.Examples[0].Question)
	}
	for _, q := range out.Examples {
		if q.Category == "" {
			t.Errorf("example %q has no category", q.Question)
		}
	}
}

func TestHandleCreateSession(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]string{"name": "my chat"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.Session
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID == "" || out.Name != "my chat" {
		t.Errorf("session: %+v", out)
	}
}

func TestHandleCreateSession_EmptyBody(t *testing.T) {
	router, _ := newTestServer(t)

	r := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.Session
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID == "" {
		t.Error("session ID should be generated")
	}
}

func TestHandleSessionHistory(t *testing.T) {
	router, store := newTestServer(t)
	ctx := context.Background()

	session, err := store.CreateSession(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddMessage(ctx, session.ID, models.MessageTypeQuestion, "q1", nil); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodGet, "/api/sessions/"+session.ID+"/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.SessionHistory
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.SessionID != session.ID || len(out.Messages) != 1 {
		t.Errorf("history: %+v", out)
	}
}

func TestHandleSessionHistory_NotFound(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/api/sessions/no-such-id/history", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleDeleteSession(t *testing.T) {
	router, store := newTestServer(t)

	session, err := store.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, router, http.MethodDelete, "/api/sessions/"+session.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/api/sessions/"+session.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want 404", w.Code)
	}
}
