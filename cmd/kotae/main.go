// Package main is the Kotae CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/corpus"
	"github.com/hyperjump/kotae/internal/crawler"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kotae/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "kotae server" from the project dir uses the project's config (including debug).
// A missing default config is written out with default settings so the first run works.
// Returns the config and the path that was actually loaded (for logging, etc.).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		if path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
			return writeDefaultConfig(path)
		}
		return nil, "", err
	}
	return cfg, path, nil
}

// writeDefaultConfig returns a default config and saves it to path for the next
// run. The save is best-effort: when the directory is not writable the defaults
// are still used for this run.
func writeDefaultConfig(path string) (*config.Config, string, error) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		if err := config.Save(path, cfg); err == nil {
			fmt.Printf("Wrote default config to %s\n", path)
		}
	}
	return cfg, path, nil
}

func main() {
	// Optional .env in the working directory (OPENAI_API_KEY etc.).
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "crawl":
		runCrawl()
	case "index":
		runIndex()
	case "health":
		runHealth()
	case "version", "--version", "-v":
		fmt.Printf("kotae version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (corpus changes, request detail, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Load the corpus and models up front so the first request is not slow.
	// A failed warmup is not fatal: the server still answers /api/health with
	// the failure so an operator can run "kotae crawl" and restart.
	if err := components.Engine.Warmup(context.Background()); err != nil {
		logger.Warn("engine warmup failed; serving degraded until restart", zap.Error(err))
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Corpus.Path, cfg.Corpus.IndexCachePath); err == nil {
		logger.Info("data footprint", zap.Int64("disk_usage_bytes", diskBytes))
	}

	if components.Watcher != nil {
		watchCtx, watchCancel := context.WithCancel(context.Background())
		defer watchCancel()
		if err := components.Watcher.Start(watchCtx); err != nil {
			logger.Warn("corpus watcher failed to start", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Engine,
		components.Storage,
		components.Watcher,
		&cfg.Server,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printAskUsage prints ask subcommand usage and examples.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kotae ask [flags] <question>\n\n")
	fmt.Fprintf(fs.Output(), "The question is all remaining arguments joined by spaces, so quotes are optional.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
By default the question is sent to a running kotae server. Use --server "" to
load the models and corpus in-process instead (slower to start, needs no server).

Examples:
  kotae ask How do I add a step to an existing configuration?
  kotae ask "What are the different types of build triggers?"
  kotae ask --k 5 --output json "How do I configure a build badge?"
  kotae ask --server "" "What is a build grid?"
`)
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting (e.g. "build triggers" vs build triggers).
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// askArgsReorder moves any flags (and their values) that appear after the question
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "kotae ask \"question\" -k 5"
// would otherwise leave -k unparsed (default used).
func askArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	askArgs := askArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for local mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = answer locally without a server)")
	topK := fs.Int("k", 0, "number of documentation sections to retrieve (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(askArgs)

	if fs.NArg() < 1 {
		printAskUsage(fs)
		os.Exit(1)
	}
	question := buildQuestion(fs.Args())
	if question == "" {
		printAskUsage(fs)
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when a server is running: answers come from the
		// warm engine instead of loading the models for a single question.
		answer, err := askViaHTTP(*serverURL, question, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Local mode: build the engine in-process. Sessions are a server concept,
	// so only the engine is constructed here.
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine := rag.NewEngine(cfg, logger)
	defer engine.Close()

	answer, err := engine.Ask(context.Background(), question, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, answer, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, question string, topK int) (*models.Answer, error) {
	body, err := json.Marshal(&models.AskRequest{Question: question, TopK: topK})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &models.Answer{
		Answer:      response.Answer,
		Confidence:  response.Confidence,
		Sources:     response.Sources,
		ContextUsed: response.ContextUsed,
		Error:       response.Error,
	}, nil
}

func runCrawl() {
	fs := flag.NewFlagSet("crawl", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	baseURL := fs.String("base", "", "wiki base URL (default from config)")
	output := fs.String("output", "", "corpus output path (default from config)")
	maxPages := fs.Int("max-pages", 0, "page limit (default from config)")
	delayMs := fs.Int("delay-ms", -1, "delay between requests in milliseconds (default from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Crawler.BaseURL = *baseURL
	}
	if *output != "" {
		cfg.Crawler.OutputPath = *output
	}
	if *maxPages > 0 {
		cfg.Crawler.MaxPages = *maxPages
	}
	if *delayMs >= 0 {
		cfg.Crawler.DelayMs = *delayMs
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	c, err := crawler.New(&cfg.Crawler, logger)
	if err != nil {
		logger.Fatal("Failed to create crawler", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := c.Run(ctx)
	if err != nil && len(pages) == 0 {
		logger.Fatal("Crawl failed", zap.Error(err))
	}
	if err != nil {
		logger.Warn("crawl interrupted; writing pages fetched so far",
			zap.Int("pages", len(pages)), zap.Error(err))
	}
	if len(pages) == 0 {
		fmt.Println("No pages crawled")
		os.Exit(1)
	}
	if err := crawler.WriteCorpus(pages, cfg.Crawler.OutputPath); err != nil {
		logger.Fatal("Failed to write corpus", zap.Error(err))
	}
	fmt.Printf("Wrote %d page(s) to %s\n", len(pages), cfg.Crawler.OutputPath)
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	snapshot := fs.String("snapshot", "", "index snapshot path (default from config index_cache_path)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *snapshot != "" {
		cfg.Corpus.IndexCachePath = *snapshot
	}

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	engine := rag.NewEngine(cfg, logger)
	defer engine.Close()

	ctx := context.Background()
	if err := engine.Warmup(ctx); err != nil {
		logger.Fatal("Failed to build index", zap.Error(err))
	}
	status, err := engine.Status(ctx)
	if err != nil {
		logger.Fatal("Failed to read engine status", zap.Error(err))
	}

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if cfg.Corpus.IndexCachePath == "" {
		fmt.Println("\nNo snapshot path configured; the index was built in memory only.")
	}
}

// healthResponse is the shape of GET /api/health.
type healthResponse struct {
	Status      string        `json:"status"`
	Database    string        `json:"database"`
	RAGSystem   models.Health `json:"rag_system"`
	CorpusStale *bool         `json:"corpus_stale,omitempty"`
}

func runHealth() {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	h, err := healthViaHTTP(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(h); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("status:        %s\n", h.Status)
		fmt.Printf("database:      %s\n", h.Database)
		fmt.Printf("rag_system:    %s\n", h.RAGSystem.Status)
		if h.RAGSystem.DocumentsLoaded > 0 {
			fmt.Printf("documents:     %d\n", h.RAGSystem.DocumentsLoaded)
		}
		if h.RAGSystem.Error != "" {
			fmt.Printf("error:         %s\n", h.RAGSystem.Error)
		}
		if h.CorpusStale != nil {
			fmt.Printf("corpus_stale:  %t\n", *h.CorpusStale)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
	if h.Status != models.StatusHealthy {
		os.Exit(1)
	}
}

func healthViaHTTP(serverURL string) (*healthResponse, error) {
	resp, err := http.Get(serverURL + "/api/health")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &h, nil
}

// Components holds initialized services.
type Components struct {
	Engine  *rag.Engine
	Storage storage.Storage
	Watcher *corpus.Watcher
}

func (c *Components) Close() {
	if c.Watcher != nil {
		c.Watcher.Stop()
	}
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	engine := rag.NewEngine(cfg, logger)

	var watcher *corpus.Watcher
	if cfg.Corpus.Watch {
		watcher = corpus.NewWatcher(cfg.Corpus.Path, nil, corpus.WithLogger(logger))
	}

	return &Components{
		Engine:  engine,
		Storage: store,
		Watcher: watcher,
	}, nil
}

func printUsage() {
	fmt.Println(`kotae - QuickBuild documentation question answering

Usage:
  kotae server [flags]            Start the HTTP API server
  kotae ask [flags] <question>    Ask a question against the documentation
  kotae crawl [flags]             Scrape the QuickBuild wiki into the corpus file
  kotae index [flags]             Build the embedding index and save a snapshot
  kotae health [flags]            Check a running server's health
  kotae version                   Show version
  kotae help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kotae/config.yaml)
  --debug            Enable debug logging (corpus changes, request detail, etc.)

Ask Flags:
  --config string    Config file path (for local mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to answer locally without a server.
  --k int            Number of documentation sections to retrieve (default: server default)
  --output string    Output format: text or json (default: text)

Crawl Flags:
  --config string    Config file path
  --base string      Wiki base URL (default from config)
  --output string    Corpus output path (default from config)
  --max-pages int    Page limit (default from config)
  --delay-ms int     Delay between requests in milliseconds (default from config)

Index Flags:
  --config string    Config file path
  --snapshot string  Index snapshot path (default from config index_cache_path)
  --output string    Output format: text or json (default: text)

Health Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Examples:
  kotae server
  kotae ask "How do I set up email notifications?"
  kotae ask how do I add a build step               # quotes optional
  kotae ask --k 5 --output json "What are build triggers?"
  kotae ask --server "" "What is a build grid?"      # local, no server needed
  kotae crawl --max-pages 50
  kotae index
  kotae health`)
}
