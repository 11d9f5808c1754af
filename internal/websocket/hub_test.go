package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"aether-base-be/internal/entity"
	"aether-base-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func registered(t *testing.T, hub *Hub, sessionID uuid.UUID, buffer int) *Client {
	t.Helper()
	client := &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte, buffer)}
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount(sessionID) > 0 }, time.Second, time.Millisecond)
	return client
}

func TestSendTargetsOnlyTheSession(t *testing.T) {
	hub := startHub(t)
	a, b := uuid.New(), uuid.New()
	clientA := registered(t, hub, a, 4)
	clientB := registered(t, hub, b, 4)

	hub.Send(a, []byte(`{"type":"session_snapshot"}`))

	select {
	case msg := <-clientA.Send:
		assert.JSONEq(t, `{"type":"session_snapshot"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
	assert.Len(t, clientB.Send, 0)
}

func TestSendReachesEverySocketOfSession(t *testing.T) {
	hub := startHub(t)
	id := uuid.New()
	first := registered(t, hub, id, 4)
	second := &Client{Hub: hub, SessionID: id, Send: make(chan []byte, 4)}
	hub.Register(second)
	require.Eventually(t, func() bool { return hub.ClientCount(id) == 2 }, time.Second, time.Millisecond)

	hub.Send(id, []byte("x"))
	assert.Equal(t, []byte("x"), <-first.Send)
	assert.Equal(t, []byte("x"), <-second.Send)
}

func TestNotifyWrapsEnvelope(t *testing.T) {
	hub := startHub(t)
	id := uuid.New()
	client := registered(t, hub, id, 4)

	hub.Notify(id, entity.Notification{ID: uuid.New(), SessionID: id, TypeCode: "USER_LOGIN", Title: "Bem-vindo"})

	var frame struct {
		Type string              `json:"type"`
		Data entity.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-client.Send, &frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, "Bem-vindo", frame.Data.Title)
}

func TestSlowClientIsDroppedOnce(t *testing.T) {
	hub := startHub(t)
	id := uuid.New()
	client := registered(t, hub, id, 1)

	// the second and third frames overflow the buffer
	hub.Send(id, []byte("1"))
	hub.Send(id, []byte("2"))
	hub.Send(id, []byte("3"))

	require.Eventually(t, func() bool { return hub.ClientCount(id) == 0 }, time.Second, time.Millisecond)

	assert.Equal(t, []byte("1"), <-client.Send)
	_, open := <-client.Send
	assert.False(t, open, "channel is closed after removal")
}

func TestUnregisterAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := registered(t, hub, uuid.New(), 1)
	cancel()
	<-stopped

	_, open := <-client.Send
	assert.False(t, open)

	done := make(chan struct{})
	go func() {
		hub.Unregister(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after shutdown")
	}
}

func TestEncodeFrame(t *testing.T) {
	hub := NewHub(nil, logger.NewNopLogger())
	id := uuid.New()

	tests := []struct {
		name    string
		payload []byte
		wantErr bool
	}{
		{name: "json payload", payload: []byte(`{"type":"session_snapshot"}`)},
		{name: "invalid payload", payload: []byte("x"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := hub.encodeFrame(id, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var frame clusterFrame
			require.NoError(t, json.Unmarshal(raw, &frame))
			assert.Equal(t, hub.origin, frame.Origin)
			assert.Equal(t, id.String(), frame.TargetSessionID)
			assert.JSONEq(t, string(tt.payload), string(frame.Message))
		})
	}
}
