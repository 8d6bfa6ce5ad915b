package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

func TestAskArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"how do I add a build step", "-k", "5"},
			expected: []string{"-k", "5", "how do I add a build step"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-k", "5", "how do I add a build step"},
			expected: []string{"-k", "5", "how do I add a build step"},
		},
		{
			name:     "question only returns unchanged",
			args:     []string{"how do I add a build step"},
			expected: []string{"how do I add a build step"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"build", "triggers", "-output", "json"},
			expected: []string{"-output", "json", "build", "triggers"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := askArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("askArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"triggers"}, "triggers"},
		{"multiple words", []string{"build", "triggers"}, "build triggers"},
		{"single quoted phrase", []string{"build triggers"}, "build triggers"},
		{"full question", []string{"how", "do", "I", "add", "a", "step"}, "how do I add a step"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuestion(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etc", "config.yaml")

	cfg, resolved, err := writeDefaultConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path {
		t.Errorf("resolved path = %s, want %s", resolved, path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}

	// The written file must load back as a valid config.
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("default config did not load back: %v", err)
	}
	if loaded.Embedding.Provider != "onnx" {
		t.Errorf("default embedding provider = %q, want onnx", loaded.Embedding.Provider)
	}
	if !strings.Contains(loaded.Crawler.BaseURL, "wiki.pmease.com") {
		t.Errorf("default crawler base URL = %q", loaded.Crawler.BaseURL)
	}
}

func TestAskViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ask" {
			t.Errorf("path = %s, want /api/ask", r.URL.Path)
		}
		var req models.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Question != "what is a build grid" {
			t.Errorf("question = %q", req.Question)
		}
		if req.TopK != 5 {
			t.Errorf("top_k = %d, want 5", req.TopK)
		}
		_ = json.NewEncoder(w).Encode(models.AskResponse{
			Answer:     "A build grid distributes builds across agents.",
			Confidence: 0.91,
			Sources: []models.Source{
				{Title: "Build Grid", Section: "Overview", URL: "https://wiki.pmease.com/display/QB14/Build+Grid", Relevance: 0.8},
			},
			ResponseTime: 0.012,
		})
	}))
	defer srv.Close()

	answer, err := askViaHTTP(srv.URL, "what is a build grid", 5)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Answer != "A build grid distributes builds across agents." {
		t.Errorf("answer = %q", answer.Answer)
	}
	if answer.Confidence != 0.91 {
		t.Errorf("confidence = %f", answer.Confidence)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Title != "Build Grid" {
		t.Errorf("unexpected sources: %+v", answer.Sources)
	}
}

func TestAskViaHTTP_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine not ready", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := askViaHTTP(srv.URL, "anything", 0)
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention status code: %v", err)
	}
}

func TestHealthViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path = %s, want /api/health", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"status": "healthy",
			"database": "healthy",
			"rag_system": {"status": "healthy", "documents_loaded": 42},
			"corpus_stale": false
		}`))
	}))
	defer srv.Close()

	h, err := healthViaHTTP(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "healthy" || h.Database != "healthy" {
		t.Errorf("unexpected health: %+v", h)
	}
	if h.RAGSystem.DocumentsLoaded != 42 {
		t.Errorf("documents_loaded = %d, want 42", h.RAGSystem.DocumentsLoaded)
	}
	if h.CorpusStale == nil || *h.CorpusStale {
		t.Errorf("corpus_stale = %v, want false", h.CorpusStale)
	}
}
