package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, chan error) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()
	return hub, cancel, done
}

func waitForRoomSize(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.RoomSize(room) == n }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	inRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: "s1"}
	otherRoom := &Client{Hub: hub, Send: make(chan []byte, 4), Room: "s2"}
	require.True(t, hub.Join(inRoom))
	require.True(t, hub.Join(otherRoom))
	waitForRoomSize(t, hub, "s1", 1)
	waitForRoomSize(t, hub, "s2", 1)

	hub.BroadcastToRoom("s1", WebSocketMessage{Type: "STATE_UPDATED", Payload: map[string]int{"version": 3}, RoomID: "s1"})

	select {
	case frame := <-inRoom.Send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.Equal(t, "STATE_UPDATED", msg["type"])
		assert.Equal(t, "s1", msg["room_id"])
	case <-time.After(time.Second):
		t.Fatal("expected a frame for the room member")
	}
	assert.Empty(t, otherRoom.Send)
}

func TestHub_FullBufferDropsFrame(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "s1"}
	require.True(t, hub.Join(client))
	waitForRoomSize(t, hub, "s1", 1)

	hub.BroadcastToRoom("s1", "first")
	hub.BroadcastToRoom("s1", "second")

	assert.Len(t, client.Send, 1)
	assert.Equal(t, `"first"`, string(<-client.Send))
}

func TestHub_LeaveAndCloseRoom(t *testing.T) {
	hub, cancel, _ := startHub(t)
	defer cancel()

	a := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "s1"}
	b := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "s1"}
	require.True(t, hub.Join(a))
	require.True(t, hub.Join(b))
	waitForRoomSize(t, hub, "s1", 2)

	hub.leave(a)
	waitForRoomSize(t, hub, "s1", 1)
	_, open := <-a.Send
	assert.False(t, open)

	hub.CloseRoom("s1")
	assert.Equal(t, 0, hub.RoomSize("s1"))
	_, open = <-b.Send
	assert.False(t, open)

	// Broadcasting to a closed room is a no-op.
	hub.BroadcastToRoom("s1", "ignored")
}

func TestHub_RunStopsOnContextCancel(t *testing.T) {
	hub, cancel, done := startHub(t)

	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: "s1"}
	require.True(t, hub.Join(client))
	waitForRoomSize(t, hub, "s1", 1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, open := <-client.Send
	assert.False(t, open)
	assert.False(t, hub.Join(&Client{Hub: hub, Send: make(chan []byte, 1), Room: "s2"}))
}
