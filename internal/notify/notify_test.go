package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/consultiq/consultiq/internal/models"
	"github.com/consultiq/consultiq/internal/store"
)

// mockMailClient captures sent messages instead of dialing SMTP.
type mockMailClient struct {
	sent []*mail.Msg
	err  error
}

func (m *mockMailClient) DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msgs...)
	return nil
}

func testSummary() LeadSummary {
	return LeadSummary{
		SessionID:        "s1",
		Email:            "lead@example.org",
		Name:             "Sam Rivera",
		OrganizationType: models.OrgNonprofit,
		BusinessNeeds:    []models.Need{models.NeedFundraising, models.NeedWebsiteRedesign},
		Timeline:         models.TimelineImmediate,
		Budget:           models.BudgetOver50K,
		Score:            0.95,
		Priority:         models.PriorityHigh,
		Reasons:          []string{"high_budget", "timeline_urgent"},
	}
}

func TestNewMailerRequiresConfig(t *testing.T) {
	if _, err := NewMailer(); err == nil {
		t.Error("expected error without SMTP host")
	}
	if _, err := NewMailer(WithSMTPHost("smtp.example.org")); err == nil {
		t.Error("expected error without from/to addresses")
	}
}

func TestSendLeadSummary(t *testing.T) {
	mock := &mockMailClient{}
	m := &Mailer{client: mock, from: "bot@example.org", to: "sales@example.org"}

	if err := m.SendLeadSummary(context.Background(), testSummary()); err != nil {
		t.Fatalf("SendLeadSummary: %v", err)
	}
	if len(mock.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.sent))
	}
}

func TestFormatLeadSummary(t *testing.T) {
	body := formatLeadSummary(testSummary())
	for _, want := range []string{"lead@example.org", "nonprofit", "fundraising", "immediate", "50000+", "0.95", "high"} {
		if !strings.Contains(body, want) {
			t.Errorf("summary body missing %q:\n%s", want, body)
		}
	}
}

func TestMailerDeliverRoutesByKind(t *testing.T) {
	mock := &mockMailClient{}
	m := &Mailer{client: mock, from: "bot@example.org", to: "sales@example.org"}

	payload, _ := json.Marshal(testSummary())
	n := store.Notification{ID: "n1", SessionID: "s1", Kind: KindLeadSummary, PayloadJSON: string(payload)}
	if err := m.Deliver(context.Background(), n); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(mock.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(mock.sent))
	}

	bad := store.Notification{ID: "n2", Kind: "unknown_kind"}
	if err := m.Deliver(context.Background(), bad); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// failOnceDeliverer fails the first delivery and succeeds afterwards.
type failOnceDeliverer struct {
	calls int
}

func (d *failOnceDeliverer) Deliver(ctx context.Context, n store.Notification) error {
	d.calls++
	if d.calls == 1 {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestSenderRetriesFailedDelivery(t *testing.T) {
	st := store.NewInMemoryStore()
	payload, _ := json.Marshal(testSummary())
	if _, err := st.EnqueueNotification("s1", KindLeadSummary, string(payload), ""); err != nil {
		t.Fatalf("EnqueueNotification: %v", err)
	}

	d := &failOnceDeliverer{}
	sender := NewSender(st, d, time.Second)
	ctx := context.Background()

	// First poll fails and requeues with backoff.
	sender.Poll(ctx)
	if d.calls != 1 {
		t.Fatalf("calls = %d, want 1", d.calls)
	}

	// The requeued notification is not yet due.
	sender.Poll(ctx)
	if d.calls != 1 {
		t.Fatalf("calls = %d after early poll, want still 1", d.calls)
	}

	// Once due again, the retry succeeds and the row is terminal.
	due, err := st.ClaimDueNotifications(time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("ClaimDueNotifications: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d, want 1", len(due))
	}
	if err := d.Deliver(ctx, due[0]); err != nil {
		t.Fatalf("retry delivery: %v", err)
	}
	if err := st.MarkNotificationSent(due[0].ID); err != nil {
		t.Fatalf("MarkNotificationSent: %v", err)
	}
	rest, _ := st.ClaimDueNotifications(time.Now().Add(2*time.Hour), 10)
	if len(rest) != 0 {
		t.Error("sent notification still claimable")
	}
}
