package events

import (
	"context"
	"errors"
	"time"
)

// Event types published by the webhook dispatcher.
const (
	TypeAutomation = "automation_outcome"
	TypeIgnored    = "event_ignored"
)

// Event is the flat record of one processed webhook event.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Source        string    `json:"source_event"`
	Session       string    `json:"session"`
	ChatID        string    `json:"chat_id,omitempty"`
	RuleID        string    `json:"rule_id,omitempty"`
	Matched       bool      `json:"matched"`
	Reply         string    `json:"reply,omitempty"`
	SendAttempted bool      `json:"send_attempted"`
	SendStatus    string    `json:"send_status,omitempty"`
	Error         string    `json:"error,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher receives processed events. Implementations must not block
// for long; callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })
