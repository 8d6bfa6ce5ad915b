package models

import (
	"fmt"
	"strings"
)

// DefaultTopK is the number of chunks retrieved when a request does not set top_k.
const DefaultTopK = 3

// MaxTopK caps top_k for a single request.
const MaxTopK = 20

// AskRequest is a question posed to the engine, with optional session
// attribution for conversation logging.
type AskRequest struct {
	Question  string `json:"question"`
	TopK      int    `json:"top_k,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate ensures the request has a non-empty question and normalizes TopK.
// TopK values of zero or below become DefaultTopK; values above MaxTopK are capped.
func (r *AskRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK > MaxTopK {
		r.TopK = MaxTopK
	}
	return nil
}
