package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waha-gateway/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *Availability) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		WAHAURL:     srv.URL,
		WAHAAPIKey:  "key-123",
		WAHAToken:   "tok",
		WAHATimeout: 200 * time.Millisecond,
	}
	avail := NewAvailability()
	return NewClient(cfg, avail), avail
}

func TestClient_FetchChats(t *testing.T) {
	client, avail := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/default/chats", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "key-123", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`[
			{"id": {"_serialized": "628111@c.us"}, "name": "Budi", "unreadCount": 3,
			 "lastMessage": {"body": "sampai nanti", "timestamp": 1700000000}},
			{"id": "1203@g.us", "name": "Tim", "timestamp": 1700000100,
			 "lastMessage": "rapat jam 3", "participants": [{"id": "a"}, {"id": "b"}]}
		]`))
	})
	avail.MarkDegraded(ReasonTimeout)

	chats, err := client.FetchChats(context.Background(), "default", 50, 0)
	require.NoError(t, err)
	require.Len(t, chats, 2)

	assert.Equal(t, "628111@c.us", chats[0].ID)
	assert.Equal(t, "sampai nanti", chats[0].LastMessage)
	assert.Equal(t, int64(1700000000), chats[0].Timestamp)
	assert.False(t, chats[0].IsGroup)
	require.NotNil(t, chats[0].IsOnline)
	assert.Nil(t, chats[0].Participants)

	assert.True(t, chats[1].IsGroup)
	require.NotNil(t, chats[1].Participants)
	assert.Equal(t, 2, *chats[1].Participants)
	assert.Nil(t, chats[1].IsOnline)

	assert.True(t, avail.Available(), "a successful call restores availability")
}

func TestClient_FetchMessagesWrapped(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sales/chats/628111@c.us/messages", r.URL.Path)
		w.Write([]byte(`{"messages": [{"id": "m1", "from": "628111@c.us", "to": "me@c.us",
			"body": "halo", "timestamp": 5, "fromMe": false}]}`))
	})

	msgs, err := client.FetchMessages(context.Background(), "sales", "628111@c.us", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "halo", msgs[0].Body)
	assert.Equal(t, "628111@c.us", msgs[0].From)
}

func TestClient_FetchContacts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/contacts/all", r.URL.Path)
		assert.Equal(t, "default", r.URL.Query().Get("session"))
		w.Write([]byte(`[{"id": "628999@c.us", "pushname": "Sari", "isMyContact": true, "isWAContact": true}]`))
	})

	contacts, err := client.FetchContacts(context.Background(), "default", 0, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Sari", contacts[0].Name)
	assert.Equal(t, "628999", contacts[0].Phone)
	assert.True(t, contacts[0].IsWAContact)
}

func TestClient_ActiveSessions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions", r.URL.Path)
		w.Write([]byte(`[
			{"name": "default", "status": "STOPPED"},
			{"name": "sales", "status": "WORKING"},
			{"name": "", "status": "WORKING"},
			{"name": "support", "status": "connected"},
			{"name": "qr", "status": "SCAN_QR_CODE"}
		]`))
	})

	names, err := client.ActiveSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "support"}, names)
}

func TestClient_SendText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sendText", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"chatId": "628111@c.us", "text": "hai", "session": "default"}, body)

		w.Write([]byte(`{"id": {"_serialized": "true_628111@c.us_ABC"}, "timestamp": 1700000200}`))
	})

	res, err := client.SendText(context.Background(), "default", "628111@c.us", "hai")
	require.NoError(t, err)
	assert.Equal(t, "true_628111@c.us_ABC", res.MessageID)
	assert.Equal(t, int64(1700000200), res.Timestamp)
	assert.Equal(t, "sent", res.Status)
}

func TestClient_FailureReasons(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  Reason
		status  int
	}{
		{
			name:    "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			reason:  ReasonAuthFailed,
			status:  http.StatusUnauthorized,
		},
		{
			name:    "forbidden",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			reason:  ReasonAuthFailed,
			status:  http.StatusForbidden,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			reason:  ReasonUpstreamError,
			status:  http.StatusBadGateway,
		},
		{
			name:    "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"nothing": true}`)) },
			reason:  ReasonUpstreamError,
			status:  http.StatusOK,
		},
		{
			name: "slow gateway",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			reason: ReasonTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, avail := newTestClient(t, tt.handler)

			_, err := client.FetchChats(context.Background(), "default", 10, 0)
			require.Error(t, err)

			var gerr *GatewayError
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.reason, gerr.Reason)
			assert.Equal(t, tt.status, gerr.Status)
			assert.Equal(t, tt.reason, ReasonOf(err))

			snap := avail.Snapshot()
			assert.Equal(t, StateDegraded, snap.State)
			assert.Equal(t, tt.reason, snap.Reason)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	avail := NewAvailability()
	client := NewClient(&config.Config{WAHAURL: url, WAHATimeout: time.Second}, avail)

	_, err := client.ProbeHealth(context.Background())
	require.Error(t, err)
	assert.Equal(t, ReasonUnreachable, ReasonOf(err))
	assert.False(t, avail.Available())
}

func TestClient_CanceledCallerLeavesAvailability(t *testing.T) {
	client, avail := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchContacts(ctx, "default", 10, 0)
	require.Error(t, err)
	assert.True(t, avail.Available())
}

func TestClient_ProbeHealth(t *testing.T) {
	client, avail := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status": "ok", "version": "2024.6.1"}`))
	})
	avail.MarkDegraded(ReasonUnreachable)

	health, err := client.ProbeHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected", health.Status)
	assert.Equal(t, "2024.6.1", health.Version)
	assert.Equal(t, client.BaseURL(), health.URL)
	assert.True(t, avail.Available())
}

func TestReasonOf_ForeignError(t *testing.T) {
	assert.Equal(t, ReasonUpstreamError, ReasonOf(assert.AnError))
}
