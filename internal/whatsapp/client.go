package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"waha-gateway/internal/config"
	"waha-gateway/internal/models"
)

const maxResponseBytes = 8 << 20

// Client talks to a WAHA gateway. Every call makes at most one attempt,
// is bounded by the configured timeout, and records its result in the
// shared Availability cell.
type Client struct {
	baseURL  string
	apiKey   string
	username string
	password string
	token    string
	timeout  time.Duration

	httpClient   *http.Client
	availability *Availability
}

func NewClient(cfg *config.Config, availability *Availability) *Client {
	return &Client{
		baseURL:      cfg.WAHAURL,
		apiKey:       cfg.WAHAAPIKey,
		username:     cfg.WAHAUsername,
		password:     cfg.WAHAPassword,
		token:        cfg.WAHAToken,
		timeout:      cfg.WAHATimeout,
		httpClient:   &http.Client{},
		availability: availability,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchChats lists the chats of a session.
func (c *Client) FetchChats(ctx context.Context, session string, limit, offset int) ([]models.Chat, error) {
	path := "/api/" + url.PathEscape(session) + "/chats"

	var chats []models.Chat
	err := c.do(ctx, "fetch chats", http.MethodGet, path, window(limit, offset), nil, func(body []byte) error {
		wire, err := decodeList[wireChat](body, "chats", "data")
		if err != nil {
			return err
		}
		chats = make([]models.Chat, 0, len(wire))
		for _, w := range wire {
			chats = append(chats, w.toModel())
		}
		return nil
	})
	return chats, err
}

// FetchMessages lists the messages of one chat.
func (c *Client) FetchMessages(ctx context.Context, session, chatID string, limit, offset int) ([]models.Message, error) {
	path := "/api/" + url.PathEscape(session) + "/chats/" + url.PathEscape(chatID) + "/messages"
	query := window(limit, offset)
	query.Set("downloadMedia", "false")

	var messages []models.Message
	err := c.do(ctx, "fetch messages", http.MethodGet, path, query, nil, func(body []byte) error {
		wire, err := decodeList[wireMessage](body, "messages", "data")
		if err != nil {
			return err
		}
		messages = make([]models.Message, 0, len(wire))
		for _, w := range wire {
			messages = append(messages, w.toModel())
		}
		return nil
	})
	return messages, err
}

// FetchContacts lists the address book of a session.
func (c *Client) FetchContacts(ctx context.Context, session string, limit, offset int) ([]models.Contact, error) {
	query := window(limit, offset)
	query.Set("session", session)

	var contacts []models.Contact
	err := c.do(ctx, "fetch contacts", http.MethodGet, "/api/contacts/all", query, nil, func(body []byte) error {
		wire, err := decodeList[wireContact](body, "contacts", "data")
		if err != nil {
			return err
		}
		contacts = make([]models.Contact, 0, len(wire))
		for _, w := range wire {
			contacts = append(contacts, w.toModel())
		}
		return nil
	})
	return contacts, err
}

// SendText sends a plain text message to chatID.
func (c *Client) SendText(ctx context.Context, session, chatID, text string) (models.SendResult, error) {
	payload := map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": session,
	}

	result := models.SendResult{ChatID: chatID, Session: session, Status: "sent"}
	err := c.do(ctx, "send text", http.MethodPost, "/api/sendText", nil, payload, func(body []byte) error {
		if len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		var wire wireSendResult
		if err := json.Unmarshal(body, &wire); err != nil {
			return err
		}
		result.MessageID = string(wire.ID)
		result.Timestamp = wire.Timestamp
		return nil
	})
	if err != nil {
		return models.SendResult{}, err
	}
	if result.Timestamp == 0 {
		result.Timestamp = time.Now().Unix()
	}
	return result, nil
}

// ActiveSessions lists the names of sessions that can serve requests,
// in gateway order.
func (c *Client) ActiveSessions(ctx context.Context) ([]string, error) {
	var names []string
	err := c.do(ctx, "list sessions", http.MethodGet, "/api/sessions", nil, nil, func(body []byte) error {
		wire, err := decodeList[wireSession](body, "sessions", "data")
		if err != nil {
			return err
		}
		names = make([]string, 0, len(wire))
		for _, s := range wire {
			if s.active() {
				names = append(names, s.Name)
			}
		}
		return nil
	})
	return names, err
}

// ProbeHealth checks that the gateway answers its health endpoint.
func (c *Client) ProbeHealth(ctx context.Context) (models.GatewayHealth, error) {
	health := models.GatewayHealth{Status: "connected", URL: c.baseURL}
	err := c.do(ctx, "probe health", http.MethodGet, "/health", nil, nil, func(body []byte) error {
		var wire wireHealth
		// plain-text health bodies are fine
		if json.Unmarshal(body, &wire) == nil {
			health.Version = wire.Version
		}
		return nil
	})
	if err != nil {
		return models.GatewayHealth{Status: "disconnected", URL: c.baseURL}, err
	}
	return health, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any, decode func([]byte) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("gateway %s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(jsonData)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(callCtx, method, endpoint, body)
	if err != nil {
		return c.fail(ctx, &GatewayError{Op: op, Reason: ReasonUnreachable, Err: err})
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(ctx, &GatewayError{Op: op, Reason: reasonForTransport(err), Err: err})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(ctx, &GatewayError{Op: op, Reason: reasonForTransport(err), Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(ctx, &GatewayError{
			Op:     op,
			Reason: reasonForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Err:    fmt.Errorf("API error: %s - %s", resp.Status, truncate(respBody, 256)),
		})
	}

	if decode != nil {
		if err := decode(respBody); err != nil {
			return c.fail(ctx, &GatewayError{Op: op, Reason: ReasonUpstreamError, Status: resp.StatusCode, Err: err})
		}
	}

	c.availability.MarkAvailable()
	return nil
}

// fail records a degraded gateway unless the caller itself went away,
// in which case the result says nothing about the gateway.
func (c *Client) fail(ctx context.Context, err *GatewayError) error {
	if ctx.Err() == nil {
		c.availability.MarkDegraded(err.Reason)
	}
	return err
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	switch {
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func window(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return q
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
