package models

// RetrievalResult is a single retrieved chunk with its similarity score.
// Rank is the 1-based position in the returned order (1 = most similar).
type RetrievalResult struct {
	Chunk          *Chunk  `json:"chunk"`
	RelevanceScore float64 `json:"relevance_score"`
	Rank           int     `json:"rank"`
}

// Source is a citation attached to an answer, in retrieval rank order.
type Source struct {
	Title     string  `json:"title"`
	Section   string  `json:"section"`
	URL       string  `json:"url"`
	Relevance float64 `json:"relevance"`
}

// Answer is the result of asking a question. Error is set only on the
// degraded path where the QA provider failed and a fallback answer was
// built from the top retrieved chunk.
type Answer struct {
	Answer      string   `json:"answer"`
	Confidence  float64  `json:"confidence"`
	Sources     []Source `json:"sources"`
	ContextUsed string   `json:"context_used,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// AskResponse is the HTTP response for an ask request: the answer plus
// request-level metadata. ResponseTime is in seconds.
type AskResponse struct {
	Answer       string   `json:"answer"`
	Confidence   float64  `json:"confidence"`
	Sources      []Source `json:"sources"`
	ContextUsed  string   `json:"context_used,omitempty"`
	Error        string   `json:"error,omitempty"`
	ResponseTime float64  `json:"response_time"`
	SessionID    string   `json:"session_id,omitempty"`
}

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health reports engine readiness. DocumentsLoaded is the chunk count once
// the engine is warm; Error carries the failure text when unhealthy.
type Health struct {
	Status          string `json:"status"`
	DocumentsLoaded int    `json:"documents_loaded,omitempty"`
	Error           string `json:"error,omitempty"`
}
