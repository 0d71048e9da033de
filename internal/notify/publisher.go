package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/doccmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/doccmerge/internal/logfields"
	"git.home.luguber.info/inful/doccmerge/internal/retry"
)

const publishTimeout = 5 * time.Second

// Publisher delivers merge events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops events (default when notifications are not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// NewNATSPublisher connects to url. Failed publishes are retried per policy.
func NewNATSPublisher(url, subject string, policy retry.Policy) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("doccmerge"), nats.Timeout(publishTimeout))
	if err != nil {
		return nil, ferrors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Debug("NATS publisher connected", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: nc, subject: subject, retry: policy}, nil
}

// Publish sends e and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := e.Encode()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	attempt := 0
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			slog.Debug("Retrying merge event", logfields.RunID(e.RunID), slog.Int("attempt", attempt))
		}
		return p.send(ctx, data)
	})
	if err != nil {
		return err
	}

	slog.Debug("Published merge event", logfields.RunID(e.RunID), slog.String("subject", p.subject), logfields.Outcome(e.Outcome))
	return nil
}

func (p *NATSPublisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.NotifyError("failed to publish merge event").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.NotifyError("failed to flush merge event").
			WithCause(err).
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
