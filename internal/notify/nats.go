package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher delivers run events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NATSPublisher publishes run events as JSON on a NATS subject
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// Connect connects to the NATS server at url.
func Connect(url, subject, name string) (*NATSPublisher, error) {
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS at %s", nc.ConnectedUrl())
	return &NATSPublisher{
		nc:      nc,
		subject: subject,
	}, nil
}

// Publish sends event and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	// FlushWithContext refuses contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}

	log.Printf("Published run %s (%s) to %s", event.RunID, event.Status, p.subject)
	return nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
		p.nc = nil
	}
}

// ValidateSubject rejects subjects NATS would refuse for publishing.
func ValidateSubject(subject string) error {
	if subject == "" {
		return fmt.Errorf("invalid NATS subject: empty")
	}
	if strings.ContainsAny(subject, " \t\r\n") {
		return fmt.Errorf("invalid NATS subject %q: contains whitespace", subject)
	}
	if strings.ContainsAny(subject, "*>") {
		return fmt.Errorf("invalid NATS subject %q: wildcards cannot be published to", subject)
	}
	for _, token := range strings.Split(subject, ".") {
		if token == "" {
			return fmt.Errorf("invalid NATS subject %q: empty token", subject)
		}
	}
	return nil
}
