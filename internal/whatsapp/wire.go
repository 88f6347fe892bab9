package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"waha-gateway/internal/models"
)

// jid accepts either "123@c.us" or {"_serialized": "123@c.us", ...}.
type jid string

func (j *jid) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*j = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*j = jid(s)
		return nil
	}
	var obj struct {
		Serialized string `json:"_serialized"`
		User       string `json:"user"`
		Server     string `json:"server"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Serialized == "" && obj.User != "" {
		obj.Serialized = obj.User + "@" + obj.Server
	}
	*j = jid(obj.Serialized)
	return nil
}

// preview accepts a last-message given either as text or as a message object.
type preview struct {
	Body      string
	Timestamp int64
}

func (p *preview) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &p.Body)
	}
	var obj struct {
		Body      string `json:"body"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	p.Body, p.Timestamp = obj.Body, obj.Timestamp
	return nil
}

// count accepts a participant count or a participant list.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		return nil
	case b[0] == '[':
		var list []json.RawMessage
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*c = count(len(list))
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = count(n)
	return nil
}

type wireChat struct {
	ID                    jid     `json:"id"`
	Name                  string  `json:"name"`
	Timestamp             int64   `json:"timestamp"`
	ConversationTimestamp int64   `json:"conversationTimestamp"`
	UnreadCount           int     `json:"unreadCount"`
	IsGroup               bool    `json:"isGroup"`
	LastMessage           preview `json:"lastMessage"`
	Participants          count   `json:"participants"`
	IsOnline              *bool   `json:"isOnline"`
}

func (w wireChat) toModel() models.Chat {
	id := string(w.ID)
	ts := w.Timestamp
	if ts == 0 {
		ts = w.ConversationTimestamp
	}
	if ts == 0 {
		ts = w.LastMessage.Timestamp
	}
	name := w.Name
	if name == "" {
		name = models.UserFromJID(id)
	}

	if w.IsGroup || strings.HasSuffix(id, "@g.us") {
		return models.NewGroupChat(id, name, w.LastMessage.Body, ts, w.UnreadCount, int(w.Participants))
	}
	online := w.IsOnline != nil && *w.IsOnline
	return models.NewDirectChat(id, name, w.LastMessage.Body, ts, w.UnreadCount, online)
}

type wireMessage struct {
	ID        jid    `json:"id"`
	From      jid    `json:"from"`
	To        jid    `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
}

func (w wireMessage) toModel() models.Message {
	return models.Message{
		ID:        string(w.ID),
		From:      string(w.From),
		To:        string(w.To),
		Body:      w.Body,
		Timestamp: w.Timestamp,
		FromMe:    w.FromMe,
	}
}

type wireContact struct {
	ID          jid    `json:"id"`
	Name        string `json:"name"`
	PushName    string `json:"pushname"`
	Number      string `json:"number"`
	IsMyContact bool   `json:"isMyContact"`
	IsWAContact bool   `json:"isWAContact"`
}

func (w wireContact) toModel() models.Contact {
	id := string(w.ID)
	phone := w.Number
	if phone == "" {
		phone = models.UserFromJID(id)
	}
	name := w.Name
	if name == "" {
		name = w.PushName
	}
	if name == "" {
		name = phone
	}
	return models.Contact{
		ID:          id,
		Name:        name,
		Phone:       phone,
		IsMyContact: w.IsMyContact,
		IsWAContact: w.IsWAContact,
	}
}

type wireSendResult struct {
	ID        jid   `json:"id"`
	Timestamp int64 `json:"timestamp"`
}

type wireSession struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// active reports whether the session can serve requests.
func (w wireSession) active() bool {
	switch strings.ToUpper(w.Status) {
	case "WORKING", "READY", "CONNECTED":
		return w.Name != ""
	}
	return false
}

type wireHealth struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// decodeList accepts a bare JSON array or an object wrapping one under
// any of keys.
func decodeList[T any](body []byte, keys ...string) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if body[0] == '[' {
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	for _, key := range keys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decoding %q: %w", key, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("response has none of the list keys %v", keys)
}
