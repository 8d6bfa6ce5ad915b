// Package config provides configuration loading and structs for the Kotae server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	QA        QAConfig        `yaml:"qa"`
	Storage   StorageConfig   `yaml:"storage"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CorpusConfig holds the documentation corpus location and index cache settings.
type CorpusConfig struct {
	// Path is the scraped corpus JSON consumed at engine startup.
	Path string `yaml:"path"`
	// IndexCachePath, when set, is a binary snapshot of the chunk embeddings.
	// A snapshot matching the corpus chunk count skips re-embedding at startup.
	IndexCachePath string `yaml:"index_cache_path"`
	// Watch enables the corpus staleness watcher. A changed corpus file is
	// only flagged in health output; the running engine is never re-indexed.
	Watch bool `yaml:"watch"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedder: "onnx", "openai", or "mock".
	Provider   string       `yaml:"provider"`
	ModelPath  string       `yaml:"model_path"`
	Dimensions int          `yaml:"dimensions"`
	MaxTokens  int          `yaml:"max_tokens"`
	CacheSize  int          `yaml:"cache_size"`
	OpenAI     OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig holds settings for the OpenAI-compatible embedding provider.
type OpenAIConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// QAConfig holds extractive question-answering provider settings.
type QAConfig struct {
	// Provider selects the reader: "onnx" or "mock".
	Provider  string `yaml:"provider"`
	ModelPath string `yaml:"model_path"`
	// MaxTokens bounds the encoded question+context sequence length.
	MaxTokens int `yaml:"max_tokens"`
	// MaxAnswerTokens bounds the extracted answer span length.
	MaxAnswerTokens int `yaml:"max_answer_tokens"`
}

// StorageConfig holds the session database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CrawlerConfig holds documentation crawler settings.
type CrawlerConfig struct {
	BaseURL    string `yaml:"base_url"`
	OutputPath string `yaml:"output_path"`
	MaxPages   int    `yaml:"max_pages"`
	DelayMs    int    `yaml:"delay_ms"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	if cfg.Corpus.IndexCachePath != "" {
		cfg.Corpus.IndexCachePath = expandPath(cfg.Corpus.IndexCachePath, configDir)
	}
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.QA.ModelPath = expandPath(cfg.QA.ModelPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Crawler.OutputPath = expandPath(cfg.Crawler.OutputPath, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used for writing the default config on first run.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
