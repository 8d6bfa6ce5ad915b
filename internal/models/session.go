package models

import "time"

// MessageType distinguishes user questions from engine answers in a session.
type MessageType string

const (
	MessageTypeQuestion MessageType = "question"
	MessageTypeAnswer   MessageType = "answer"
)

// Session is one conversation, keyed by an opaque ID.
type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one logged question or answer within a session. Metadata holds
// answer-side extras such as confidence and source count.
type Message struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id"`
	Type      MessageType            `json:"type"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SessionHistory is a session's messages in insertion order.
type SessionHistory struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}
