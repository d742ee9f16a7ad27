// Package store provides storage backends for ConsultIQ.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed stores for production. Conversation state is persisted as
// an opaque JSON blob keyed by session id; the store never inspects it beyond
// round-tripping bytes.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/consultiq/consultiq/internal/models"
)

// Session is the durable record owning one conversation state blob.
type Session struct {
	ID        string    `json:"id"`
	State     []byte    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationStatus represents the lifecycle state of an outbound
// notification.
type NotificationStatus string

const (
	NotificationStatusQueued  NotificationStatus = "queued"
	NotificationStatusSending NotificationStatus = "sending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a durable outbound delivery record (e.g. a lead summary
// email). Deliveries survive restarts; the notify sender claims due rows and
// retries failures.
type Notification struct {
	ID            string             `json:"id"`
	SessionID     string             `json:"session_id"`
	Kind          string             `json:"kind"`
	PayloadJSON   string             `json:"payload_json"`
	Status        NotificationStatus `json:"status"`
	Attempts      int                `json:"attempts"`
	NextAttemptAt *time.Time         `json:"next_attempt_at"`
	DedupeKey     string             `json:"dedupe_key"`
	LastError     string             `json:"last_error"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Store defines the persistence contract shared by all backends.
type Store interface {
	// SaveSession inserts or updates a session record.
	SaveSession(session Session) error
	// GetSession retrieves a session by id. Returns (nil, nil) when absent.
	GetSession(id string) (*Session, error)
	// ListSessions retrieves all sessions, newest first.
	ListSessions() ([]Session, error)
	// DeleteSession removes a session and its transcript.
	DeleteSession(id string) error

	// AddMessage appends one transcript entry.
	AddMessage(msg models.Message) error
	// GetMessages retrieves the transcript for a session in insertion order.
	GetMessages(sessionID string) ([]models.Message, error)

	// EnqueueNotification inserts a new notification. If dedupeKey is
	// non-empty and a non-terminal notification with that key exists, the
	// existing ID is returned instead.
	EnqueueNotification(sessionID, kind, payloadJSON, dedupeKey string) (string, error)
	// ClaimDueNotifications marks up to limit queued notifications whose
	// next_attempt_at <= now (or is unset) as sending and returns them.
	ClaimDueNotifications(now time.Time, limit int) ([]Notification, error)
	// MarkNotificationSent marks a notification as delivered.
	MarkNotificationSent(id string) error
	// FailNotification records a delivery failure and schedules a retry.
	FailNotification(id string, errMsg string, nextAttemptAt time.Time) error

	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// DetectDSNType reports the database driver implied by a DSN: "postgres" for
// postgres:// URLs and key=value connection strings, "sqlite3" otherwise
// (file paths).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite3"
}

// InMemoryStore is a map-backed store for tests and single-process
// development runs.
type InMemoryStore struct {
	mu            sync.RWMutex
	sessions      map[string]Session
	messages      map[string][]models.Message
	notifications map[string]Notification
	order         []string
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:      make(map[string]Session),
		messages:      make(map[string][]models.Message),
		notifications: make(map[string]Notification),
	}
}

func (s *InMemoryStore) SaveSession(session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.State = append([]byte(nil), session.State...)
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	session.State = append([]byte(nil), session.State...)
	return &session, nil
}

func (s *InMemoryStore) ListSessions() ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *InMemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

func (s *InMemoryStore) AddMessage(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], msg)
	return nil
}

func (s *InMemoryStore) GetMessages(sessionID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages[sessionID]...), nil
}

func (s *InMemoryStore) EnqueueNotification(sessionID, kind, payloadJSON, dedupeKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dedupeKey != "" {
		for _, n := range s.notifications {
			if n.DedupeKey == dedupeKey && n.Status != NotificationStatusSent {
				return n.ID, nil
			}
		}
	}

	now := time.Now()
	n := Notification{
		ID:          newNotificationID(),
		SessionID:   sessionID,
		Kind:        kind,
		PayloadJSON: payloadJSON,
		Status:      NotificationStatusQueued,
		DedupeKey:   dedupeKey,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.notifications[n.ID] = n
	s.order = append(s.order, n.ID)
	return n.ID, nil
}

func (s *InMemoryStore) ClaimDueNotifications(now time.Time, limit int) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed []Notification
	for _, id := range s.order {
		if len(claimed) >= limit {
			break
		}
		n := s.notifications[id]
		if n.Status != NotificationStatusQueued {
			continue
		}
		if n.NextAttemptAt != nil && n.NextAttemptAt.After(now) {
			continue
		}
		n.Status = NotificationStatusSending
		n.UpdatedAt = now
		s.notifications[id] = n
		claimed = append(claimed, n)
	}
	return claimed, nil
}

func (s *InMemoryStore) MarkNotificationSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil
	}
	n.Status = NotificationStatusSent
	n.UpdatedAt = time.Now()
	s.notifications[id] = n
	return nil
}

func (s *InMemoryStore) FailNotification(id string, errMsg string, nextAttemptAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil
	}
	n.Status = NotificationStatusQueued
	n.Attempts++
	n.LastError = errMsg
	t := nextAttemptAt
	n.NextAttemptAt = &t
	n.UpdatedAt = time.Now()
	s.notifications[id] = n
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
