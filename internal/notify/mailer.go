// Package notify delivers lead notifications over SMTP.
//
// Qualified-lead summaries are queued durably through the store and drained
// by a Sender, so deliveries survive restarts and SMTP outages.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/consultiq/consultiq/internal/models"
)

// LeadSummary is the payload of a lead_summary notification.
type LeadSummary struct {
	SessionID        string                  `json:"session_id"`
	Email            string                  `json:"email"`
	Name             string                  `json:"name,omitempty"`
	OrganizationName string                  `json:"organization_name,omitempty"`
	OrganizationType models.OrganizationType `json:"organization_type,omitempty"`
	BusinessNeeds    []models.Need           `json:"business_needs,omitempty"`
	Timeline         models.Timeline         `json:"timeline,omitempty"`
	Budget           models.BudgetRange      `json:"budget,omitempty"`
	Score            float64                 `json:"score"`
	Priority         models.Priority         `json:"priority"`
	Reasons          []string                `json:"reasons,omitempty"`
}

// mailClient defines the minimal interface for sending mail.
type mailClient interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

// Opts holds configuration options for the mailer.
type Opts struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Option defines a configuration option for the mailer.
type Option func(*Opts)

// WithSMTPHost sets the SMTP server host.
func WithSMTPHost(host string) Option {
	return func(o *Opts) { o.Host = host }
}

// WithSMTPPort sets the SMTP server port.
func WithSMTPPort(port int) Option {
	return func(o *Opts) { o.Port = port }
}

// WithSMTPAuth sets the SMTP username and password.
func WithSMTPAuth(username, password string) Option {
	return func(o *Opts) {
		o.Username = username
		o.Password = password
	}
}

// WithFrom sets the sender address.
func WithFrom(from string) Option {
	return func(o *Opts) { o.From = from }
}

// WithTo sets the sales inbox that receives lead summaries.
func WithTo(to string) Option {
	return func(o *Opts) { o.To = to }
}

// Mailer sends lead summary emails over SMTP.
type Mailer struct {
	client mailClient
	from   string
	to     string
}

// NewMailer creates a Mailer from the provided options. Host, from, and to
// are required.
func NewMailer(opts ...Option) (*Mailer, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host not set")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("mail from/to addresses not set")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	clientOpts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &Mailer{client: client, from: cfg.From, to: cfg.To}, nil
}

// SendLeadSummary delivers one qualified-lead summary to the sales inbox.
func (m *Mailer) SendLeadSummary(ctx context.Context, summary LeadSummary) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(m.to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("New qualified lead: %s (%s priority)", summary.Email, summary.Priority))
	msg.SetBodyString(mail.TypeTextPlain, formatLeadSummary(summary))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send lead summary for %s: %w", summary.SessionID, err)
	}
	return nil
}

func formatLeadSummary(s LeadSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A new lead qualified through the chat assistant.\n\n")
	fmt.Fprintf(&b, "Email: %s\n", s.Email)
	if s.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", s.Name)
	}
	if s.OrganizationName != "" {
		fmt.Fprintf(&b, "Organization: %s\n", s.OrganizationName)
	}
	if s.OrganizationType != "" {
		fmt.Fprintf(&b, "Organization type: %s\n", s.OrganizationType)
	}
	if len(s.BusinessNeeds) > 0 {
		needs := make([]string, len(s.BusinessNeeds))
		for i, n := range s.BusinessNeeds {
			needs[i] = string(n)
		}
		fmt.Fprintf(&b, "Needs: %s\n", strings.Join(needs, ", "))
	}
	if s.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", s.Timeline)
	}
	if s.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", s.Budget)
	}
	fmt.Fprintf(&b, "\nScore: %.2f (%s priority)\n", s.Score, s.Priority)
	if len(s.Reasons) > 0 {
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(s.Reasons, ", "))
	}
	fmt.Fprintf(&b, "Session: %s\n", s.SessionID)
	return b.String()
}
