package models

import (
	"strings"
	"time"

	"waha-gateway/internal/pagination"
)

// Chat represents a conversation as listed by the gateway
type Chat struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastMessage  string `json:"lastMessage"`
	Timestamp    int64  `json:"timestamp"`
	UnreadCount  int    `json:"unreadCount"`
	IsGroup      bool   `json:"isGroup"`
	Participants *int   `json:"participants,omitempty"`
	IsOnline     *bool  `json:"isOnline,omitempty"`
}

// NewDirectChat builds a one-to-one chat. Only the online flag is set.
func NewDirectChat(id, name, lastMessage string, timestamp int64, unread int, online bool) Chat {
	return Chat{
		ID:          id,
		Name:        name,
		LastMessage: lastMessage,
		Timestamp:   timestamp,
		UnreadCount: max(unread, 0),
		IsOnline:    &online,
	}
}

// NewGroupChat builds a group chat. Only the participant count is set.
func NewGroupChat(id, name, lastMessage string, timestamp int64, unread, participants int) Chat {
	return Chat{
		ID:           id,
		Name:         name,
		LastMessage:  lastMessage,
		Timestamp:    timestamp,
		UnreadCount:  max(unread, 0),
		IsGroup:      true,
		Participants: &participants,
	}
}

func (c Chat) SortKey(field string) (pagination.Key, bool) {
	switch field {
	case "id":
		return pagination.StringKey(c.ID), true
	case "name":
		return pagination.StringKey(c.Name), true
	case "lastMessage":
		return pagination.StringKey(c.LastMessage), true
	case "timestamp":
		return pagination.IntKey(c.Timestamp), true
	case "unreadCount":
		return pagination.IntKey(int64(c.UnreadCount)), true
	}
	return pagination.Key{}, false
}

// Message is a single entry of a chat log
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
}

func (m Message) SortKey(field string) (pagination.Key, bool) {
	switch field {
	case "id":
		return pagination.StringKey(m.ID), true
	case "from":
		return pagination.StringKey(m.From), true
	case "to":
		return pagination.StringKey(m.To), true
	case "body":
		return pagination.StringKey(m.Body), true
	case "timestamp":
		return pagination.IntKey(m.Timestamp), true
	}
	return pagination.Key{}, false
}

// Contact is an address book entry
type Contact struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	IsMyContact bool   `json:"isMyContact"`
	IsWAContact bool   `json:"isWaContact"`
}

func (c Contact) SortKey(field string) (pagination.Key, bool) {
	switch field {
	case "id":
		return pagination.StringKey(c.ID), true
	case "name":
		return pagination.StringKey(c.Name), true
	case "phone":
		return pagination.StringKey(c.Phone), true
	}
	return pagination.Key{}, false
}

// SendResult is the gateway acknowledgement for an outbound message
type SendResult struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chatId"`
	Session   string `json:"session"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// GatewayHealth is the result of a gateway health probe
type GatewayHealth struct {
	Status  string `json:"status"`
	URL     string `json:"url"`
	Version string `json:"version,omitempty"`
}

// UserFromJID strips the server part of a WhatsApp id ("628..@c.us" -> "628..").
func UserFromJID(jid string) string {
	user, _, _ := strings.Cut(jid, "@")
	return user
}

// AutomationLog is the audit row written for every processed webhook event
type AutomationLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EventID       string    `gorm:"type:varchar(64);index" json:"event_id"`
	EventType     string    `gorm:"type:varchar(50);not null" json:"event_type"`
	Session       string    `gorm:"type:varchar(100)" json:"session"`
	ChatID        string    `gorm:"type:varchar(100);index" json:"chat_id"`
	RuleID        string    `gorm:"type:varchar(100);index" json:"rule_id"`
	Matched       bool      `json:"matched"`
	Reply         string    `gorm:"type:text" json:"reply"`
	SendAttempted bool      `json:"send_attempted"`
	SendStatus    string    `gorm:"type:varchar(20)" json:"send_status"`
	ErrorMessage  string    `gorm:"type:text" json:"error_message"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AutomationLog) TableName() string {
	return "automation_logs"
}
