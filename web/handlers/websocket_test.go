package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWSClient struct {
	send chan []byte
}

func (m *mockWSClient) sendChannel() chan []byte { return m.send }
func (m *mockWSClient) close()                   {}

func TestHubBroadcastsEngineEvents(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()
	defer hub.Stop()

	client := &mockWSClient{send: make(chan []byte, 8)}
	hub.register <- client

	hub.NotifyMemoryCreated("u1", "User's name is Sam")

	select {
	case data := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, "memory_created", event.Type)
		assert.Equal(t, "u1", event.UserID)
		assert.Equal(t, "User's name is Sam", event.Content)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event delivered within 1s")
	}

	hub.NotifyChatTurn("u1", "conv_123")

	select {
	case data := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		assert.Equal(t, "chat_turn", event.Type)
		assert.Equal(t, "conv_123", event.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("no event delivered within 1s")
	}
}
