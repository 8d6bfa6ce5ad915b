// Package storage persists conversation sessions and their messages.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines session and message persistence operations.
type Storage interface {
	CreateSession(ctx context.Context, name string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	// GetOrCreateSession returns the session with the given ID, or a brand-new
	// session (with its own fresh ID) when none exists.
	GetOrCreateSession(ctx context.Context, id string) (*models.Session, error)
	// DeleteSession removes the session and all of its messages.
	DeleteSession(ctx context.Context, id string) error

	AddMessage(ctx context.Context, sessionID string, msgType models.MessageType, content string, metadata map[string]interface{}) (*models.Message, error)
	// GetHistory returns the session's messages ordered by creation time.
	GetHistory(ctx context.Context, sessionID string) (*models.SessionHistory, error)

	Ping(ctx context.Context) error
	Close() error
}
