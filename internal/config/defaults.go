package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "/usr/local/var/kotae/data/corpus/all_content.json"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kotae/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.OpenAI.Model == "" {
		cfg.Embedding.OpenAI.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.OpenAI.APIKeyEnv == "" {
		cfg.Embedding.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.QA.Provider == "" {
		cfg.QA.Provider = "onnx"
	}
	if cfg.QA.ModelPath == "" {
		cfg.QA.ModelPath = "/usr/local/var/kotae/data/models/distilbert-base-cased-distilled-squad.onnx"
	}
	if cfg.QA.MaxTokens == 0 {
		cfg.QA.MaxTokens = 384
	}
	if cfg.QA.MaxAnswerTokens == 0 {
		cfg.QA.MaxAnswerTokens = 30
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kotae/data/db/kotae.db"
	}
	if cfg.Crawler.BaseURL == "" {
		cfg.Crawler.BaseURL = "https://wiki.pmease.com/display/QB14"
	}
	if cfg.Crawler.OutputPath == "" {
		cfg.Crawler.OutputPath = cfg.Corpus.Path
	}
	if cfg.Crawler.MaxPages == 0 {
		cfg.Crawler.MaxPages = 500
	}
	if cfg.Crawler.DelayMs == 0 {
		cfg.Crawler.DelayMs = 200
	}
	if cfg.Crawler.TimeoutSec == 0 {
		cfg.Crawler.TimeoutSec = 20
	}
}
