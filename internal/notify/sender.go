package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/consultiq/consultiq/internal/store"
)

// KindLeadSummary is the notification kind carrying a LeadSummary payload.
const KindLeadSummary = "lead_summary"

// Deliverer performs the actual delivery of one notification.
type Deliverer interface {
	Deliver(ctx context.Context, n store.Notification) error
}

// Sender periodically claims due notifications from the store and attempts
// delivery, retrying failures with exponential backoff.
type Sender struct {
	store        store.Store
	deliverer    Deliverer
	pollInterval time.Duration
	claimLimit   int
}

// NewSender creates a Sender polling at the given interval.
func NewSender(st store.Store, deliverer Deliverer, pollInterval time.Duration) *Sender {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Sender{
		store:        st,
		deliverer:    deliverer,
		pollInterval: pollInterval,
		claimLimit:   10,
	}
}

// Run starts the polling loop. It blocks until the context is cancelled.
func (s *Sender) Run(ctx context.Context) {
	slog.Info("Sender.Run: starting notification sender", "pollInterval", s.pollInterval)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sender.Run: stopping")
			return
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll claims and delivers one batch of due notifications.
func (s *Sender) Poll(ctx context.Context) {
	now := time.Now()
	due, err := s.store.ClaimDueNotifications(now, s.claimLimit)
	if err != nil {
		slog.Error("Sender.Poll: claim failed", "error", err)
		return
	}

	for _, n := range due {
		slog.Debug("Sender.Poll: delivering notification", "id", n.ID, "sessionID", n.SessionID, "kind", n.Kind)
		if err := s.deliverer.Deliver(ctx, n); err != nil {
			slog.Error("Sender.Poll: delivery failed", "id", n.ID, "error", err)
			// Exponential backoff: 10s, 20s, 40s, ...
			backoff := time.Duration(10*(1<<n.Attempts)) * time.Second
			if err := s.store.FailNotification(n.ID, err.Error(), now.Add(backoff)); err != nil {
				slog.Error("Sender.Poll: fail bookkeeping error", "id", n.ID, "error", err)
			}
		} else {
			if err := s.store.MarkNotificationSent(n.ID); err != nil {
				slog.Error("Sender.Poll: mark sent error", "id", n.ID, "error", err)
			}
			slog.Debug("Sender.Poll: notification delivered", "id", n.ID, "sessionID", n.SessionID)
		}
	}
}

// Deliver routes a notification by kind to the mailer.
func (m *Mailer) Deliver(ctx context.Context, n store.Notification) error {
	switch n.Kind {
	case KindLeadSummary:
		var summary LeadSummary
		if err := json.Unmarshal([]byte(n.PayloadJSON), &summary); err != nil {
			return fmt.Errorf("malformed lead summary payload: %w", err)
		}
		return m.SendLeadSummary(ctx, summary)
	default:
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}
