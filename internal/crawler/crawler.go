// Package crawler fetches the QuickBuild wiki and writes the corpus JSON
// consumed at engine startup.
package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

const (
	userAgent    = "kotae-crawler"
	maxBodyBytes = 4 << 20
)

// Crawler walks documentation pages breadth-first from a base URL, staying
// within the base URL's scope.
type Crawler struct {
	baseURL  string
	maxPages int
	delay    time.Duration
	client   *http.Client
	logger   *zap.Logger
}

// New creates a crawler from config. The base URL must be set.
func New(cfg *config.CrawlerConfig, logger *zap.Logger) (*Crawler, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("crawler base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Crawler{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxPages: cfg.MaxPages,
		delay:    time.Duration(cfg.DelayMs) * time.Millisecond,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

// Run crawls breadth-first from the base URL and returns the pages that had
// extractable content. Fetch and parse failures are logged and skipped;
// cancellation returns the pages collected so far along with ctx.Err().
func (c *Crawler) Run(ctx context.Context) ([]models.Page, error) {
	queue := []string{c.baseURL}
	visited := map[string]bool{c.baseURL: true}
	var pages []models.Page

	for len(queue) > 0 {
		if c.maxPages > 0 && len(pages) >= c.maxPages {
			break
		}
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		pageURL := queue[0]
		queue = queue[1:]
		c.logger.Debug("fetching page", zap.String("url", pageURL))

		page, links, err := c.fetchPage(ctx, pageURL)
		if err != nil {
			c.logger.Warn("fetch failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		if page != nil {
			pages = append(pages, *page)
			c.logger.Info("scraped page",
				zap.String("url", pageURL),
				zap.String("title", page.Title),
				zap.Int("sections", len(page.Sections)))
		}
		for _, link := range links {
			if c.inScope(link) && !visited[link] {
				visited[link] = true
				queue = append(queue, link)
			}
		}

		if c.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(c.delay):
			}
		}
	}
	return pages, nil
}

func (c *Crawler) inScope(link string) bool {
	return strings.HasPrefix(link, c.baseURL)
}

func (c *Crawler) fetchPage(ctx context.Context, pageURL string) (*models.Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parsePage(pageURL, io.LimitReader(resp.Body, maxBodyBytes))
}

// WriteCorpus writes pages as the corpus JSON array, atomically: the file is
// staged next to the target and renamed over it.
func WriteCorpus(pages []models.Page, path string) error {
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".corpus-*.json")
	if err != nil {
		return fmt.Errorf("failed to stage corpus: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close corpus file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace corpus: %w", err)
	}
	return nil
}
