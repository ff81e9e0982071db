package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/navbuilder/internal/logfields"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "navbuilder.summary.generated"

// SummaryGenerated is emitted after a navigation document has been written.
type SummaryGenerated struct {
	RunID       string    `json:"run_id"`
	Output      string    `json:"output"`
	Entries     int       `json:"entries"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Publisher delivers build events to interested consumers. Publish failures
// are the caller's to log; they never fail a build.
type Publisher interface {
	PublishSummaryGenerated(ctx context.Context, ev SummaryGenerated) error
	Close()
}

// NopPublisher is the default when eventing is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishSummaryGenerated(context.Context, SummaryGenerated) error { return nil }
func (NopPublisher) Close()                                                          {}

// NATSPublisher publishes build events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS. Connection failures surface here so
// misconfiguration is caught at startup, not mid-build.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url, nats.Name("navbuilder"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher initialized", logfields.Addr(url), logfields.Subject(subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) PublishSummaryGenerated(ctx context.Context, ev SummaryGenerated) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal summary event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return p.conn.FlushWithContext(ctx)
}

// Close drains the connection, best effort.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("Failed to drain NATS connection", logfields.Error(err))
	}
}
