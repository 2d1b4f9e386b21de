package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(maxConn int) *Manager {
	return NewManager(Options{
		MaxConnPerUser: maxConn,
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		PingPeriod:     30 * time.Second,
	}, zap.NewNop().Sugar())
}

func testClient(m *Manager, id, username string) *Client {
	return NewClient(id, username, nil, m)
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()

	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func assertClosed(t *testing.T, c *Client) {
	t.Helper()

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok, "expected send channel to be closed")
	case <-time.After(time.Second):
		t.Fatal("send channel still open")
	}
}

func TestManager_NotifyUser(t *testing.T) {
	m := newTestManager(5)

	a1 := testClient(m, "a1", "alice01")
	a2 := testClient(m, "a2", "alice01")
	b1 := testClient(m, "b1", "bobby01")
	for _, c := range []*Client{a1, a2, b1} {
		require.NoError(t, m.registerClient(c))
	}

	m.NotifyUser("alice01", string(TypeFavoritesUpdated), map[string]interface{}{
		"Username":       "alice01",
		"FavoriteMovies": []string{"m1"},
	})

	for _, c := range []*Client{a1, a2} {
		msg := receive(t, c)
		assert.Equal(t, TypeFavoritesUpdated, msg.Type)

		var payload struct {
			Username       string
			FavoriteMovies []string
		}
		require.NoError(t, msg.UnmarshalPayload(&payload))
		assert.Equal(t, []string{"m1"}, payload.FavoriteMovies)
	}

	assert.Len(t, b1.Send, 0)
}

func TestManager_MaxConnectionsPerUser(t *testing.T) {
	m := newTestManager(1)

	first := testClient(m, "c1", "alice01")
	second := testClient(m, "c2", "alice01")

	require.NoError(t, m.registerClient(first))
	assert.ErrorIs(t, m.registerClient(second), ErrTooManyConnections)
	assertClosed(t, second)
	assert.Equal(t, 1, m.GetUserConnections("alice01"))
}

func TestManager_Unregister(t *testing.T) {
	m := newTestManager(5)
	c := testClient(m, "c1", "alice01")
	require.NoError(t, m.registerClient(c))

	m.unregisterClient(c)
	assertClosed(t, c)
	assert.Equal(t, 0, m.GetUserConnections("alice01"))

	// second unregister must not close twice
	m.unregisterClient(c)
}

func TestManager_RenameUser(t *testing.T) {
	m := newTestManager(5)
	c := testClient(m, "c1", "alice01")
	require.NoError(t, m.registerClient(c))

	m.RenameUser("alice01", "alice02")

	assert.Equal(t, 0, m.GetUserConnections("alice01"))
	assert.Equal(t, 1, m.GetUserConnections("alice02"))

	m.NotifyUser("alice02", string(TypeProfileUpdated), nil)
	assert.Equal(t, TypeProfileUpdated, receive(t, c).Type)
}

func TestManager_DisconnectUserDeliversQueuedFrames(t *testing.T) {
	m := newTestManager(5)
	c := testClient(m, "c1", "alice01")
	require.NoError(t, m.registerClient(c))

	m.NotifyUser("alice01", string(TypeAccountDeleted), map[string]string{"Username": "alice01"})
	m.DisconnectUser("alice01")

	assert.Equal(t, TypeAccountDeleted, receive(t, c).Type)
	assertClosed(t, c)
	assert.Equal(t, 0, m.GetUserConnections("alice01"))
}

func TestManager_SlowClientDropped(t *testing.T) {
	m := newTestManager(5)
	c := testClient(m, "c1", "alice01")
	c.Send = make(chan []byte, 1)
	require.NoError(t, m.registerClient(c))

	m.NotifyUser("alice01", string(TypePong), nil)
	m.NotifyUser("alice01", string(TypePong), nil)

	assert.Equal(t, 0, m.GetUserConnections("alice01"))
}

type pingHandler struct{}

func (pingHandler) HandleWebSocketMessage(client *Client, msg *Message) error {
	pong, _ := NewMessage(TypePong, nil)
	return client.Manager.SendToClient(client.ID, pong)
}

func TestManager_RunRoutesMessagesAndShutsDown(t *testing.T) {
	m := newTestManager(5)
	m.SetMessageHandler(pingHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()

	c := testClient(m, "c1", "alice01")
	require.NoError(t, m.Connect(c))

	m.HandleMessage <- &ClientMessage{Client: c, Message: []byte(`{"type":"ping"}`)}
	assert.Equal(t, TypePong, receive(t, c).Type)

	m.HandleMessage <- &ClientMessage{Client: c, Message: []byte(`not json`)}
	assert.Equal(t, TypeError, receive(t, c).Type)

	cancel()
	<-stopped

	assertClosed(t, c)
	assert.Error(t, m.Connect(testClient(m, "c2", "alice01")))
}
