// Package events publishes grading outcomes for downstream collaborators such
// as notification and feedback delivery.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Grading event types.
const (
	GradingCommitted = "grading.committed"
	GradingUndone    = "grading.undone"
)

// GradingEvent is emitted after a grading commit or undo succeeded.
type GradingEvent struct {
	Type         string       `json:"type"`
	SubmissionID uint         `json:"submission_id"`
	TargetID     uint         `json:"target_id"`
	OwnerKind    string       `json:"owner_kind"`
	OwnerID      uint         `json:"owner_id"`
	ActorID      uint         `json:"actor_id"`
	Verdict      string       `json:"verdict"`
	Grades       map[uint]int `json:"grades,omitempty"`
	Version      uint         `json:"version"`
	OccurredAt   time.Time    `json:"occurred_at"`
}

// Publisher delivers grading events.
type Publisher interface {
	PublishGrading(ctx context.Context, event GradingEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishGrading implements Publisher.
func (NopPublisher) PublishGrading(context.Context, GradingEvent) error {
	return nil
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher publishes events on "<subject>.<event type>".
func NewNATSPublisher(conn *nats.Conn, subject string) Publisher {
	return &natsPublisher{conn: conn, subject: strings.TrimSuffix(subject, ".")}
}

func (p *natsPublisher) PublishGrading(ctx context.Context, event GradingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode grading event: %w", err)
	}

	if err := p.conn.Publish(p.Subject(event.Type), payload); err != nil {
		return fmt.Errorf("publish grading event: %w", err)
	}
	return nil
}

// Subject returns the subject an event type is published on.
func (p *natsPublisher) Subject(eventType string) string {
	return p.subject + "." + eventType
}
