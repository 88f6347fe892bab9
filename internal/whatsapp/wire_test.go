package whatsapp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJID_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"628@c.us"`, "628@c.us"},
		{`{"_serialized": "628@c.us", "user": "628"}`, "628@c.us"},
		{`{"user": "628", "server": "c.us"}`, "628@c.us"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var j jid
		require.NoError(t, json.Unmarshal([]byte(tt.in), &j))
		assert.Equal(t, tt.want, string(j))
	}
}

func TestDecodeList(t *testing.T) {
	got, err := decodeList[int]([]byte(`[1, 2]`), "data")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	got, err = decodeList[int]([]byte(`{"data": [3]}`), "items", "data")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, got)

	_, err = decodeList[int]([]byte(`{"other": [3]}`), "data")
	assert.Error(t, err)

	_, err = decodeList[int]([]byte(``), "data")
	assert.Error(t, err)
}

func TestWireChat_NameFallsBackToNumber(t *testing.T) {
	var w wireChat
	require.NoError(t, json.Unmarshal([]byte(`{"id": "628555@c.us", "isOnline": true}`), &w))
	chat := w.toModel()
	assert.Equal(t, "628555", chat.Name)
	require.NotNil(t, chat.IsOnline)
	assert.True(t, *chat.IsOnline)
}
