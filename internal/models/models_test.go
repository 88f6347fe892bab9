package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_ExclusiveFields(t *testing.T) {
	direct, err := json.Marshal(NewDirectChat("1@c.us", "John", "hi", 10, 2, true))
	require.NoError(t, err)
	assert.Contains(t, string(direct), `"isOnline":true`)
	assert.NotContains(t, string(direct), "participants")

	group, err := json.Marshal(NewGroupChat("2@g.us", "Team", "yo", 10, 5, 25))
	require.NoError(t, err)
	assert.Contains(t, string(group), `"participants":25`)
	assert.NotContains(t, string(group), "isOnline")
}

func TestChat_NegativeUnreadClamped(t *testing.T) {
	assert.Equal(t, 0, NewGroupChat("2@g.us", "Team", "", 10, -1, 3).UnreadCount)
	assert.Equal(t, 0, NewDirectChat("1@c.us", "John", "", 10, -4, false).UnreadCount)
}

func TestSortKeys(t *testing.T) {
	_, ok := Chat{}.SortKey("lastMessage")
	assert.True(t, ok)
	_, ok = Chat{}.SortKey("phone")
	assert.False(t, ok)
	_, ok = Message{}.SortKey("timestamp")
	assert.True(t, ok)
	_, ok = Contact{}.SortKey("name")
	assert.True(t, ok)
}

func TestUserFromJID(t *testing.T) {
	assert.Equal(t, "628123456789", UserFromJID("628123456789@c.us"))
	assert.Equal(t, "plain", UserFromJID("plain"))
}
