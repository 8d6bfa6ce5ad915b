// Package models defines core data structures for corpus pages, chunks,
// questions, and answers.
package models

// Section is one titled block of a documentation page.
type Section struct {
	Header  string `json:"header"`
	Content string `json:"content"`
}

// Page is one scraped documentation page as produced by the crawler.
// Pages with an empty Sections list carry their text in FullText.
type Page struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Breadcrumb []string  `json:"breadcrumb"`
	FullText   string    `json:"full_text"`
	Sections   []Section `json:"sections"`
}

// FullPageSection is the section header assigned to chunks built from an
// unsectioned page's full text.
const FullPageSection = "Full Page"

// Chunk is the smallest retrievable unit of documentation: one section, or a
// whole page when the page has no sections. Chunks are created once at corpus
// load and never mutated.
type Chunk struct {
	Content       string `json:"content"`
	Title         string `json:"title"`
	SectionHeader string `json:"section_header"`
	URL           string `json:"url"`
	Breadcrumb    string `json:"breadcrumb"`
	FullContext   string `json:"full_context"`
}
