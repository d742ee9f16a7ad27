// Package store provides storage backends for ConsultIQ.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/consultiq/consultiq/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveSession(session Session) error {
	query := `
		INSERT INTO sessions (id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.Exec(query, session.ID, session.State, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "sessionID", session.ID)
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	slog.Debug("PostgresStore SaveSession succeeded", "sessionID", session.ID)
	return nil
}

func (s *PostgresStore) GetSession(id string) (*Session, error) {
	var session Session
	err := s.db.QueryRow(
		`SELECT id, state, created_at, updated_at FROM sessions WHERE id = $1`, id).
		Scan(&session.ID, &session.State, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	slog.Debug("PostgresStore GetSession found", "sessionID", id)
	return &session, nil
}

func (s *PostgresStore) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(`SELECT id, state, created_at, updated_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("PostgresStore ListSessions query failed", "error", err)
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		if err := rows.Scan(&session.ID, &session.State, &session.CreatedAt, &session.UpdatedAt); err != nil {
			slog.Error("PostgresStore ListSessions scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListSessions rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("PostgresStore ListSessions succeeded", "count", len(sessions))
	return sessions, nil
}

func (s *PostgresStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM messages WHERE session_id = $1`, id); err != nil {
		slog.Error("PostgresStore DeleteSession messages failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete messages for %s: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = $1`, id); err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "sessionID", id)
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	slog.Debug("PostgresStore DeleteSession succeeded", "sessionID", id)
	return nil
}

func (s *PostgresStore) AddMessage(msg models.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, role, body, time) VALUES ($1, $2, $3, $4)`,
		msg.SessionID, msg.Role, msg.Body, msg.Time)
	if err != nil {
		slog.Error("PostgresStore AddMessage failed", "error", err, "sessionID", msg.SessionID)
		return fmt.Errorf("failed to insert message for %s: %w", msg.SessionID, err)
	}
	slog.Debug("PostgresStore AddMessage succeeded", "sessionID", msg.SessionID, "role", msg.Role)
	return nil
}

func (s *PostgresStore) GetMessages(sessionID string) ([]models.Message, error) {
	rows, err := s.db.Query(
		`SELECT session_id, role, body, time FROM messages WHERE session_id = $1 ORDER BY id ASC`, sessionID)
	if err != nil {
		slog.Error("PostgresStore GetMessages query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Body, &m.Time); err != nil {
			slog.Error("PostgresStore GetMessages scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore GetMessages rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	slog.Debug("PostgresStore GetMessages succeeded", "sessionID", sessionID, "count", len(messages))
	return messages, nil
}

func (s *PostgresStore) EnqueueNotification(sessionID, kind, payloadJSON, dedupeKey string) (string, error) {
	id := newNotificationID()
	now := time.Now()

	if dedupeKey != "" {
		var existingID string
		err := s.db.QueryRow(
			`SELECT id FROM notifications WHERE dedupe_key = $1 AND status != 'sent'`,
			dedupeKey,
		).Scan(&existingID)
		if err == nil {
			slog.Debug("PostgresStore EnqueueNotification dedupe hit", "dedupeKey", dedupeKey, "existingID", existingID)
			return existingID, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("notification dedupe check failed: %w", err)
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO notifications (id, session_id, kind, payload_json, status, attempts, dedupe_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 'queued', 0, $5, $6, $7)`,
		id, sessionID, kind, payloadJSON, nilIfEmpty(dedupeKey), now, now)
	if err != nil {
		return "", fmt.Errorf("enqueue notification failed: %w", err)
	}
	slog.Debug("PostgresStore EnqueueNotification succeeded", "id", id, "sessionID", sessionID, "kind", kind)
	return id, nil
}

func (s *PostgresStore) ClaimDueNotifications(now time.Time, limit int) ([]Notification, error) {
	rows, err := s.db.Query(
		`UPDATE notifications SET status = 'sending', updated_at = $1
		 WHERE id IN (
			SELECT id FROM notifications
			WHERE status = 'queued' AND (next_attempt_at IS NULL OR next_attempt_at <= $1)
			ORDER BY created_at ASC LIMIT $2
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, session_id, kind, payload_json, status, attempts, next_attempt_at, dedupe_key, last_error, created_at, updated_at`,
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
	slog.Debug("PostgresStore ClaimDueNotifications succeeded", "count", len(claimed))
	return claimed, nil
}

func (s *PostgresStore) MarkNotificationSent(id string) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET status = 'sent', updated_at = $1 WHERE id = $2`,
		time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark notification sent failed: %w", err)
	}
	slog.Debug("PostgresStore MarkNotificationSent succeeded", "id", id)
	return nil
}

func (s *PostgresStore) FailNotification(id string, errMsg string, nextAttemptAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE notifications SET status = 'queued', attempts = attempts + 1, last_error = $1, next_attempt_at = $2, updated_at = $3
		 WHERE id = $4`,
		errMsg, nextAttemptAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("fail notification failed: %w", err)
	}
	slog.Debug("PostgresStore FailNotification succeeded", "id", id, "nextAttemptAt", nextAttemptAt)
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing PostgreSQL database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close PostgreSQL database", "error", err)
	}
	return err
}
