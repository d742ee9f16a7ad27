// Package store provides storage backends for ConsultIQ.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/consultiq/consultiq/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSession(session Session) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, state, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		session.ID, string(session.State), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "sessionID", session.ID)
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	slog.Debug("SQLiteStore SaveSession succeeded", "sessionID", session.ID)
	return nil
}

func (s *SQLiteStore) GetSession(id string) (*Session, error) {
	var session Session
	var state string
	err := s.db.QueryRow(
		`SELECT id, state, created_at, updated_at FROM sessions WHERE id = ?`, id).
		Scan(&session.ID, &state, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	session.State = []byte(state)
	slog.Debug("SQLiteStore GetSession found", "sessionID", id)
	return &session, nil
}

func (s *SQLiteStore) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, state, created_at, updated_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		var state string
		if err := rows.Scan(&session.ID, &state, &session.CreatedAt, &session.UpdatedAt); err != nil {
			slog.Error("SQLiteStore ListSessions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		session.State = []byte(state)
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListSessions rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("SQLiteStore ListSessions succeeded", "count", len(sessions))
	return sessions, nil
}

func (s *SQLiteStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteSession messages failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete messages for %s: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	slog.Debug("SQLiteStore DeleteSession succeeded", "sessionID", id)
	return nil
}

func (s *SQLiteStore) AddMessage(msg models.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, role, body, time) VALUES (?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Body, msg.Time)
	if err != nil {
		slog.Error("SQLiteStore AddMessage failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to insert message for %s: %w", msg.SessionID, err)
	}
	slog.Debug("SQLiteStore AddMessage succeeded", "sessionID", msg.SessionID, "role", msg.Role)
	return nil
}

func (s *SQLiteStore) GetMessages(sessionID string) ([]models.Message, error) {
	rows, err := s.db.Query(
		`SELECT session_id, role, body, time FROM messages WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore GetMessages query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Body, &m.Time); err != nil {
			slog.Error("SQLiteStore GetMessages scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore GetMessages rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	slog.Debug("SQLiteStore GetMessages succeeded", "sessionID", sessionID, "count", len(messages))
	return messages, nil
}

func (s *SQLiteStore) EnqueueNotification(sessionID, kind, payloadJSON, dedupeKey string) (string, error) {
	id := newNotificationID()
	now := time.Now()

	if dedupeKey != "" {
		var existingID string
		err := s.db.QueryRow(
			`SELECT id FROM notifications WHERE dedupe_key = ? AND status != 'sent'`,
			dedupeKey,
		).Scan(&existingID)
		if err == nil {
			slog.Debug("SQLiteStore EnqueueNotification dedupe hit", "dedupeKey", dedupeKey, "existingID", existingID)
			return existingID, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("notification dedupe check failed: %w", err)
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO notifications (id, session_id, kind, payload_json, status, attempts, dedupe_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'queued', 0, ?, ?, ?)`,
		id, sessionID, kind, payloadJSON, nilIfEmpty(dedupeKey), now, now)
	if err != nil {
		return "", fmt.Errorf("enqueue notification failed: %w", err)
	}
	slog.Debug("SQLiteStore EnqueueNotification succeeded", "id", id, "sessionID", sessionID, "kind", kind)
	return id, nil
}

func (s *SQLiteStore) ClaimDueNotifications(now time.Time, limit int) ([]Notification, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, kind, payload_json, status, attempts, next_attempt_at, dedupe_key, last_error, created_at, updated_at
		 FROM notifications WHERE status = 'queued' AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
		 ORDER BY created_at ASC LIMIT ?`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("claim due notifications failed: %w", err)
	}
	defer rows.Close()

	var claimed []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due notifications failed: %w", err)
	}

	for i := range claimed {
		_, err := s.db.Exec(
			`UPDATE notifications SET status = 'sending', updated_at = ? WHERE id = ?`,
			now, claimed[i].ID)
		if err != nil {
			return nil, fmt.Errorf("mark notification sending failed: %w", err)
		}
		claimed[i].Status = NotificationStatusSending
	}
	slog.Debug("SQLiteStore ClaimDueNotifications succeeded", "count", len(claimed))
	return claimed, nil
}

func (s *SQLiteStore) MarkNotificationSent(id string) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET status = 'sent', updated_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark notification sent failed: %w", err)
	}
	slog.Debug("SQLiteStore MarkNotificationSent succeeded", "id", id)
	return nil
}

func (s *SQLiteStore) FailNotification(id string, errMsg string, nextAttemptAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET status = 'queued', attempts = attempts + 1, last_error = ?, next_attempt_at = ?, updated_at = ?
		 WHERE id = ?`,
		errMsg, nextAttemptAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("fail notification failed: %w", err)
	}
	slog.Debug("SQLiteStore FailNotification succeeded", "id", id, "nextAttemptAt", nextAttemptAt)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
