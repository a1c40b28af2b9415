// Package store implements a SQLite-backed local history for chats: the
// full message list per chat, plus a mirror of chat metadata so listing
// works when the API is unreachable.
package store

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/novachat/novachat/gateway"
	"github.com/novachat/novachat/session"
)

// Store implements session.Persistence on SQLite.
type Store struct {
	db *sql.DB
}

// New store at dbPath, creating directories and tables as needed.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chat_messages (
			chat_id TEXT PRIMARY KEY,
			update_timestamp INTEGER NOT NULL,
			messages TEXT NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating chat_messages table")
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chats (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			title TEXT NOT NULL,
			creation_timestamp INTEGER NOT NULL,
			update_timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, errors.Wrap(err, "creating chats table")
	}

	return &Store{db: db}, nil
}

// SaveMessages writes the full message list for a chat, overwriting any
// prior content.
func (s *Store) SaveMessages(chatID string, messages []*session.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return errors.Wrap(err, "marshaling messages")
	}

	// REPLACE INTO handles both insert and update.
	_, err = s.db.Exec(`
		REPLACE INTO chat_messages (chat_id, update_timestamp, messages)
		VALUES (?, ?, ?)
	`, chatID, time.Now().UnixMicro(), string(payload))
	if err != nil {
		return errors.Wrap(err, "writing messages to database")
	}
	return nil
}

// LoadMessages returns the saved message list for a chat. A chat that was
// never saved, or whose payload no longer parses, yields an empty list:
// history is a convenience, never a reason to fail.
func (s *Store) LoadMessages(chatID string) ([]*session.Message, error) {
	var payload string
	err := s.db.QueryRow(`
		SELECT messages FROM chat_messages WHERE chat_id = ?
	`, chatID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}

	var messages []*session.Message
	if err := json.Unmarshal([]byte(payload), &messages); err != nil {
		// Corrupt payload: treat as absent.
		return nil, nil
	}
	return messages, nil
}

// UpsertChats mirrors remote chat metadata locally.
func (s *Store) UpsertChats(chats []*gateway.Chat) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	for _, chat := range chats {
		_, err := tx.Exec(`
			REPLACE INTO chats (id, user_id, agent_id, title, creation_timestamp, update_timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`, chat.ID, chat.UserID, chat.AgentID, chat.Title, chat.CreationTimestamp, chat.UpdateTimestamp)
		if err != nil {
			return errors.Wrap(err, "writing chat to database")
		}
	}
	return tx.Commit()
}

// ListChats returns the locally mirrored chats, most recent first.
func (s *Store) ListChats() ([]*gateway.Chat, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, agent_id, title, creation_timestamp, update_timestamp
		FROM chats
		ORDER BY update_timestamp DESC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying chats")
	}
	defer rows.Close()

	var chats []*gateway.Chat
	for rows.Next() {
		chat := &gateway.Chat{}
		err := rows.Scan(
			&chat.ID, &chat.UserID, &chat.AgentID, &chat.Title,
			&chat.CreationTimestamp, &chat.UpdateTimestamp,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scanning chat row")
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating chat rows")
	}
	return chats, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
