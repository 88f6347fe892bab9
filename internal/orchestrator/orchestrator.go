package orchestrator

import (
	"context"
	"errors"
	"slices"
	"time"

	"waha-gateway/internal/automation"
	"waha-gateway/internal/fallback"
	"waha-gateway/internal/health"
	"waha-gateway/internal/models"
	"waha-gateway/internal/pagination"
	"waha-gateway/internal/webhook"
	"waha-gateway/internal/whatsapp"

	"github.com/sirupsen/logrus"
)

// ErrNoActiveSession means the gateway answered but none of its sessions
// can serve reads.
var ErrNoActiveSession = errors.New("gateway has no active session")

// maxUpstreamPages stops the read loop against a gateway that ignores
// offset.
const maxUpstreamPages = 100

// Gateway is the live data source.
type Gateway interface {
	FetchChats(ctx context.Context, session string, limit, offset int) ([]models.Chat, error)
	FetchMessages(ctx context.Context, session, chatID string, limit, offset int) ([]models.Message, error)
	FetchContacts(ctx context.Context, session string, limit, offset int) ([]models.Contact, error)
	SendText(ctx context.Context, session, chatID, text string) (models.SendResult, error)
	ProbeHealth(ctx context.Context) (models.GatewayHealth, error)
	ActiveSessions(ctx context.Context) ([]string, error)
	BaseURL() string
}

type Options struct {
	DefaultSession      string
	MaxLimit            int
	AutoResponseEnabled bool
	// Features are static flags echoed in the health report.
	Features map[string]bool
}

// Orchestrator composes the gateway, fallback data, rule engine and
// webhook dispatcher for each endpoint.
type Orchestrator struct {
	gateway      Gateway
	synth        *fallback.Generator
	engine       *automation.Engine
	dispatcher   *webhook.Dispatcher
	availability *whatsapp.Availability
	stats        *health.Stats
	opts         Options
	now          func() time.Time
}

func New(gateway Gateway, synth *fallback.Generator, engine *automation.Engine, dispatcher *webhook.Dispatcher, availability *whatsapp.Availability, stats *health.Stats, opts Options) *Orchestrator {
	if stats == nil {
		stats = health.NewStats()
	}
	return &Orchestrator{
		gateway:      gateway,
		synth:        synth,
		engine:       engine,
		dispatcher:   dispatcher,
		availability: availability,
		stats:        stats,
		opts:         opts,
		now:          time.Now,
	}
}

// ListQuery holds the parameters shared by the list endpoints.
type ListQuery struct {
	Session   string
	ChatID    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
	UseMock   bool
}

func (o *Orchestrator) session(s string) string {
	if s == "" {
		return o.opts.DefaultSession
	}
	return s
}

func (o *Orchestrator) served(src Source) {
	if src == SourceFallback {
		o.stats.FallbacksServed.Add(1)
	}
}

// liveSession returns requested when the gateway reports it active,
// otherwise the first active session.
func (o *Orchestrator) liveSession(ctx context.Context, requested string) (string, error) {
	active, err := o.gateway.ActiveSessions(ctx)
	if err != nil {
		return "", err
	}
	if len(active) == 0 {
		return "", ErrNoActiveSession
	}
	if slices.Contains(active, requested) {
		return requested, nil
	}
	logrus.WithFields(logrus.Fields{
		"requested": requested,
		"using":     active[0],
	}).Info("[GATEWAY] session not active, switching to an active one")
	return active[0], nil
}

// collect reads the whole upstream collection in chunk-sized pages until
// a short page, so sorting sees every item.
func collect[T any](ctx context.Context, chunk int, fetch func(ctx context.Context, limit, offset int) ([]T, error)) ([]T, error) {
	if chunk <= 0 {
		return fetch(ctx, 0, 0)
	}

	var all []T
	for range maxUpstreamPages {
		page, err := fetch(ctx, chunk, len(all))
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < chunk {
			return all, nil
		}
	}
	logrus.WithField("items", len(all)).Warn("[GATEWAY] page limit reached, collection truncated")
	return all, nil
}

// listLive resolves the session, then collects the collection from the
// gateway.
func listLive[T any](o *Orchestrator, requested string, fetch func(ctx context.Context, session string, limit, offset int) ([]T, error)) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) {
		session, err := o.liveSession(ctx, requested)
		if err != nil {
			return nil, err
		}
		return collect(ctx, o.opts.MaxLimit, func(ctx context.Context, limit, offset int) ([]T, error) {
			return fetch(ctx, session, limit, offset)
		})
	}
}

// Sorting and paging happen here, identically for live and synthetic
// data.
func finish[T pagination.Sortable](items []T, q ListQuery, maxLimit int) pagination.Page[T] {
	sorted := pagination.SortBy(items, q.SortBy, pagination.ParseOrder(q.SortOrder))
	return pagination.Paginate(sorted, q.Limit, q.Offset, maxLimit)
}

func (o *Orchestrator) ListChats(ctx context.Context, q ListQuery) (pagination.Page[models.Chat], Source) {
	chats, src := resolve(ctx, "list chats", q.UseMock,
		listLive(o, o.session(q.Session), o.gateway.FetchChats),
		o.synth.Chats,
	)
	o.served(src)
	return finish(chats, q, o.opts.MaxLimit), src
}

func (o *Orchestrator) ListMessages(ctx context.Context, q ListQuery) (pagination.Page[models.Message], Source) {
	chatID := q.ChatID
	msgs, src := resolve(ctx, "list messages", q.UseMock,
		listLive(o, o.session(q.Session), func(ctx context.Context, session string, limit, offset int) ([]models.Message, error) {
			return o.gateway.FetchMessages(ctx, session, chatID, limit, offset)
		}),
		func() []models.Message { return o.synth.Messages(chatID) },
	)
	o.served(src)
	return finish(msgs, q, o.opts.MaxLimit), src
}

func (o *Orchestrator) ListContacts(ctx context.Context, q ListQuery) (pagination.Page[models.Contact], Source) {
	contacts, src := resolve(ctx, "list contacts", q.UseMock,
		listLive(o, o.session(q.Session), o.gateway.FetchContacts),
		o.synth.Contacts,
	)
	o.served(src)
	return finish(contacts, q, o.opts.MaxLimit), src
}

type SendRequest struct {
	ChatID       string
	Message      string
	Type         string
	Session      string
	AutoResponse bool
}

type SendResponse struct {
	ChatID       string  `json:"chatId"`
	Session      string  `json:"session"`
	Type         string  `json:"type"`
	MessageID    string  `json:"message_id"`
	Status       string  `json:"status"`
	Source       Source  `json:"source"`
	AutoResponse *string `json:"auto_response,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}

// Send delivers a message, acknowledging it locally when the gateway is
// unreachable. The auto-response preview only runs when requested.
func (o *Orchestrator) Send(ctx context.Context, req SendRequest) SendResponse {
	session := o.session(req.Session)
	msgType := req.Type
	if msgType == "" {
		msgType = "text"
	}

	res, src := resolve(ctx, "send message", false,
		func(ctx context.Context) (models.SendResult, error) {
			return o.gateway.SendText(ctx, session, req.ChatID, req.Message)
		},
		func() models.SendResult { return o.synth.SendAck(session, req.ChatID, req.Message) },
	)
	o.served(src)

	out := SendResponse{
		ChatID:    req.ChatID,
		Session:   session,
		Type:      msgType,
		MessageID: res.MessageID,
		Status:    res.Status,
		Source:    src,
		Timestamp: o.now().Unix(),
	}
	if req.AutoResponse {
		reply := o.engine.Classify(req.Message).Reply
		out.AutoResponse = &reply
	}
	return out
}

type TestRequest struct {
	Message string
	ChatID  string
	Session string
	Type    string
}

type TestResult struct {
	OriginalMessage   string `json:"original_message"`
	AutoResponse      string `json:"auto_response"`
	ResponseGenerated bool   `json:"response_generated"`
	RuleID            string `json:"rule_id,omitempty"`
	Matched           bool   `json:"matched"`
	ChatID            string `json:"chatId,omitempty"`
	Session           string `json:"session"`
	Timestamp         int64  `json:"timestamp"`
}

// TestAutoResponse is a dry run of the rule engine. It never touches the
// gateway.
func (o *Orchestrator) TestAutoResponse(req TestRequest) TestResult {
	outcome := o.engine.Classify(req.Message)
	return TestResult{
		OriginalMessage:   req.Message,
		AutoResponse:      outcome.Reply,
		ResponseGenerated: outcome.Reply != "",
		RuleID:            outcome.RuleID,
		Matched:           outcome.Matched,
		ChatID:            req.ChatID,
		Session:           o.session(req.Session),
		Timestamp:         o.now().Unix(),
	}
}

// HandleWebhook hands the event to the dispatcher and updates counters.
func (o *Orchestrator) HandleWebhook(ctx context.Context, ev webhook.Event) (webhook.Result, error) {
	o.stats.WebhooksReceived.Add(1)

	res, err := o.dispatcher.Dispatch(ctx, ev)
	if err != nil {
		return webhook.Result{}, err
	}
	if res.Outcome != nil {
		switch res.Outcome.SendStatus {
		case automation.SendSent:
			o.stats.AutoResponsesSent.Add(1)
		case automation.SendFailed:
			o.stats.SendFailures.Add(1)
		}
	}
	return res, nil
}

func (o *Orchestrator) Rules() []automation.Rule {
	return o.engine.Rules()
}

type ServiceStatus struct {
	Status    string         `json:"status"`
	URL       string         `json:"url"`
	Version   string         `json:"version,omitempty"`
	State     whatsapp.State `json:"state"`
	Reason    string         `json:"reason,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

type HealthReport struct {
	Status    string                   `json:"status"`
	Source    Source                   `json:"source"`
	Services  map[string]ServiceStatus `json:"services"`
	Features  map[string]bool          `json:"features"`
	Stats     health.StatsSnapshot     `json:"stats"`
	Timestamp int64                    `json:"timestamp"`
}

// Health probes the gateway once and reports the resulting availability
// together with the static feature flags.
func (o *Orchestrator) Health(ctx context.Context) HealthReport {
	gw, src := resolve(ctx, "probe health", false,
		o.gateway.ProbeHealth,
		func() models.GatewayHealth { return o.synth.Health(o.gateway.BaseURL()) },
	)
	snap := o.availability.Snapshot()

	status := "healthy"
	if snap.State != whatsapp.StateAvailable {
		status = "degraded"
	}

	features := make(map[string]bool, len(o.opts.Features)+1)
	for k, v := range o.opts.Features {
		features[k] = v
	}
	features["auto_response"] = o.opts.AutoResponseEnabled

	return HealthReport{
		Status: status,
		Source: src,
		Services: map[string]ServiceStatus{
			"waha_api": {
				Status:    gw.Status,
				URL:       gw.URL,
				Version:   gw.Version,
				State:     snap.State,
				Reason:    string(snap.Reason),
				CheckedAt: snap.CheckedAt,
			},
		},
		Features:  features,
		Stats:     o.stats.Snapshot(),
		Timestamp: o.now().Unix(),
	}
}
