// Package corpus loads the scraped documentation corpus into retrievable chunks.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// Load reads the corpus JSON at path and flattens it into chunks.
// A missing or unparsable file is an error; a corpus that parses to zero
// chunks is not (the engine starts and answers every query with the fixed
// no-relevant-information message).
func Load(path string) ([]*models.Chunk, error) {
	pages, err := LoadPages(path)
	if err != nil {
		return nil, err
	}
	return BuildChunks(pages), nil
}

// LoadPages reads and parses the corpus JSON file at path.
func LoadPages(path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	var pages []models.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}
	return pages, nil
}

// BuildChunks flattens pages into chunks: one chunk per section with
// non-empty content, or a single whole-page chunk when a page has no
// sections. Whitespace-only sections and pages are skipped, so a chunk
// never has empty content.
func BuildChunks(pages []models.Page) []*models.Chunk {
	var chunks []*models.Chunk
	for _, page := range pages {
		breadcrumb := strings.Join(page.Breadcrumb, " > ")
		if len(page.Sections) > 0 {
			for _, section := range page.Sections {
				if strings.TrimSpace(section.Content) == "" {
					continue
				}
				chunks = append(chunks, &models.Chunk{
					Content:       section.Content,
					Title:         page.Title,
					SectionHeader: section.Header,
					URL:           page.URL,
					Breadcrumb:    breadcrumb,
					FullContext: fmt.Sprintf("Page: %s\nSection: %s\nContent: %s",
						page.Title, section.Header, section.Content),
				})
			}
			continue
		}
		if strings.TrimSpace(page.FullText) == "" {
			continue
		}
		chunks = append(chunks, &models.Chunk{
			Content:       page.FullText,
			Title:         page.Title,
			SectionHeader: models.FullPageSection,
			URL:           page.URL,
			Breadcrumb:    breadcrumb,
			FullContext:   fmt.Sprintf("Page: %s\nContent: %s", page.Title, page.FullText),
		})
	}
	return chunks
}
