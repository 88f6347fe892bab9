package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"waha-gateway/internal/automation"
	"waha-gateway/internal/events"
	"waha-gateway/internal/models"
	"waha-gateway/internal/whatsapp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventMessage is the only event type that can trigger an auto-response.
const EventMessage = "message"

// SupportedEvents lists the gateway events the webhook accepts.
var SupportedEvents = []string{EventMessage, "messageAck", "sessionStatus", "qrCode", "disconnected"}

// Sender delivers a reply through the gateway.
type Sender interface {
	SendText(ctx context.Context, session, chatID, text string) (models.SendResult, error)
}

// Message is the message part of an inbound event.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
}

// Event is an inbound gateway webhook. Gateways that post the message
// under "payload" instead of "data" are accepted too.
type Event struct {
	Event   string   `json:"event"`
	Session string   `json:"session"`
	Data    Message  `json:"data"`
	Payload *Message `json:"payload,omitempty"`
}

func (e Event) message() Message {
	if e.Data == (Message{}) && e.Payload != nil {
		return *e.Payload
	}
	return e.Data
}

// Result is returned to the webhook caller.
type Result struct {
	EventProcessed        string              `json:"event_processed"`
	AutoResponseGenerated bool                `json:"auto_response_generated"`
	AutoResponse          string              `json:"auto_response,omitempty"`
	Outcome               *automation.Outcome `json:"outcome,omitempty"`
	State                 State               `json:"state"`
	Path                  []State             `json:"-"`
	Timestamp             int64               `json:"timestamp"`
}

// DefaultPublishTimeout bounds how long outcome sinks may hold up a
// webhook response.
const DefaultPublishTimeout = 2 * time.Second

type Options struct {
	AutoResponseEnabled bool
	DefaultSession      string
	// PublishTimeout defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
}

// Dispatcher runs every inbound event through the processing state
// machine and reports the terminal outcome.
type Dispatcher struct {
	engine       *automation.Engine
	sender       Sender
	availability *whatsapp.Availability
	publisher    events.Publisher
	opts         Options
	now          func() time.Time
}

func NewDispatcher(engine *automation.Engine, sender Sender, availability *whatsapp.Availability, publisher events.Publisher, opts Options) *Dispatcher {
	if publisher == nil {
		publisher = events.Discard
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Dispatcher{
		engine:       engine,
		sender:       sender,
		availability: availability,
		publisher:    publisher,
		opts:         opts,
		now:          time.Now,
	}
}

// Dispatch processes ev. A failed reply send is reported inside the
// result; only state machine defects are returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Result, error) {
	if ev.Event == "" {
		ev.Event = EventMessage
	}
	if ev.Session == "" {
		ev.Session = d.opts.DefaultSession
	}
	msg := ev.message()

	logger := logrus.WithFields(logrus.Fields{
		"event":   ev.Event,
		"session": ev.Session,
		"from":    msg.From,
	})

	m := newMachine()
	result := Result{EventProcessed: ev.Event}

	record := events.Event{
		ID:      uuid.NewString(),
		Type:    events.TypeIgnored,
		Source:  ev.Event,
		Session: ev.Session,
		ChatID:  msg.From,
	}

	if !actionable(ev.Event, msg) {
		if err := m.fire(ctx, TriggerIgnore); err != nil {
			return Result{}, fmt.Errorf("webhook: ignoring event: %w", err)
		}
		logger.Debug("[WEBHOOK] event recorded without automation")
		return d.finish(ctx, m, result, record), nil
	}

	if err := m.fire(ctx, TriggerClassify); err != nil {
		return Result{}, fmt.Errorf("webhook: classifying event: %w", err)
	}
	outcome := d.engine.Classify(msg.Body)

	if d.opts.AutoResponseEnabled && d.availability.Available() && msg.From != "" {
		if err := m.fire(ctx, TriggerSend); err != nil {
			return Result{}, fmt.Errorf("webhook: sending reply: %w", err)
		}
		outcome.SendAttempted = true
		if _, err := d.sender.SendText(ctx, ev.Session, msg.From, outcome.Reply); err != nil {
			outcome.SendStatus = automation.SendFailed
			record.Error = err.Error()
			logger.WithError(err).WithField("reason", whatsapp.ReasonOf(err)).Warn("[WEBHOOK] auto-response send failed")
		} else {
			outcome.SendStatus = automation.SendSent
			logger.WithField("rule", outcome.RuleID).Info("[WEBHOOK] auto-response sent")
		}
	} else {
		if err := m.fire(ctx, TriggerSkip); err != nil {
			return Result{}, fmt.Errorf("webhook: skipping send: %w", err)
		}
		outcome.SendStatus = automation.SendNotAttempted
	}

	if err := m.fire(ctx, TriggerFinish); err != nil {
		return Result{}, fmt.Errorf("webhook: finishing event: %w", err)
	}

	result.AutoResponseGenerated = true
	result.AutoResponse = outcome.Reply
	result.Outcome = &outcome

	record.Type = events.TypeAutomation
	record.RuleID = outcome.RuleID
	record.Matched = outcome.Matched
	record.Reply = outcome.Reply
	record.SendAttempted = outcome.SendAttempted
	record.SendStatus = string(outcome.SendStatus)

	return d.finish(ctx, m, result, record), nil
}

func (d *Dispatcher) finish(ctx context.Context, m *machine, result Result, record events.Event) Result {
	now := d.now()
	result.State = m.state()
	result.Path = m.path
	result.Timestamp = now.Unix()

	record.OccurredAt = now

	// Sinks outlive a disconnected caller but not a stuck database.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.PublishTimeout)
	defer cancel()
	if err := d.publisher.Publish(pubCtx, record); err != nil {
		logrus.WithError(err).WithField("event_id", record.ID).Warn("[WEBHOOK] publishing outcome failed")
	}
	return result
}

func actionable(event string, msg Message) bool {
	return event == EventMessage && strings.TrimSpace(msg.Body) != "" && !msg.FromMe
}
