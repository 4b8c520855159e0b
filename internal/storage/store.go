// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound indicates the requested conversation is not in the cache.
var ErrNotFound = errors.New("conversation not found")

// Conversation is one cached sidebar row.
type Conversation struct {
	SessionID string
	Title     string
	UpdatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	session_id TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_updated
	ON conversations(updated_at DESC);
`

// Store is the local conversation cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Single connection: modernc/sqlite serializes writers anyway, and one
	// connection keeps WAL checkpointing simple.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or refreshes one conversation row.
func (s *Store) Upsert(ctx context.Context, c Conversation) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (session_id, title, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			title = excluded.title,
			updated_at = excluded.updated_at`,
		c.SessionID, c.Title, c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

// ReplaceAll swaps the cached list for a fresh server snapshot.
func (s *Store) ReplaceAll(ctx context.Context, conversations []Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM conversations"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	for _, c := range conversations {
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = time.Now()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (session_id, title, updated_at)
			VALUES (?, ?, ?)`,
			c.SessionID, c.Title, c.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}
	}
	return tx.Commit()
}

// List returns all cached conversations, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, title, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.SessionID, &c.Title, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns one cached conversation by session id.
func (s *Store) Get(ctx context.Context, sessionID string) (Conversation, error) {
	var c Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, title, updated_at
		FROM conversations
		WHERE session_id = ?`, sessionID).
		Scan(&c.SessionID, &c.Title, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to load conversation: %w", err)
	}
	return c, nil
}

// Delete removes one conversation from the cache.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM conversations WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
