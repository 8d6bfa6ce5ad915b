package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		type TEXT NOT NULL CHECK (type IN ('question', 'answer')),
		content TEXT NOT NULL,
		metadata TEXT,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSession inserts a new session with a generated ID.
func (s *SQLiteStorage) CreateSession(ctx context.Context, name string) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID, session.Name, session.UserID, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns a session by ID, or ErrNotFound.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, user_id, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.Name, &session.UserID, &session.CreatedAt, &session.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetOrCreateSession returns the existing session, or creates a fresh one
// (with a new ID) when the given ID is unknown.
func (s *SQLiteStorage) GetOrCreateSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.GetSession(ctx, id)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.CreateSession(ctx, "")
}

// DeleteSession removes the session and its messages. ErrNotFound when the
// session does not exist.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// AddMessage logs one message in a session. Metadata is stored as JSON when present.
func (s *SQLiteStorage) AddMessage(ctx context.Context, sessionID string, msgType models.MessageType, content string, metadata map[string]interface{}) (*models.Message, error) {
	var metadataJSON sql.NullString
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}

	message := &models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      msgType,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, type, content, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.SessionID, string(message.Type), message.Content, metadataJSON, message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return message, nil
}

// GetHistory returns all messages of a session ordered by creation time.
// ErrNotFound when the session does not exist.
func (s *SQLiteStorage) GetHistory(ctx context.Context, sessionID string) (*models.SessionHistory, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, type, content, metadata, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := &models.SessionHistory{SessionID: sessionID, Messages: []models.Message{}}
	for rows.Next() {
		var (
			message      models.Message
			msgType      string
			metadataJSON sql.NullString
		)
		if err := rows.Scan(&message.ID, &message.SessionID, &msgType, &message.Content, &metadataJSON, &message.CreatedAt); err != nil {
			return nil, err
		}
		message.Type = models.MessageType(msgType)
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &message.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		history.Messages = append(history.Messages, message)
	}
	return history, rows.Err()
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
