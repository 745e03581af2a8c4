package websocket

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == want
	}, time.Second, 5*time.Millisecond)
}

func TestHubBroadcastFansOut(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	a := &Client{hub: hub, send: make(chan []byte, 4)}
	b := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.register <- a
	hub.register <- b
	waitForClients(t, hub, 2)

	hub.Broadcast([]byte(`{"run_id":1,"status":"completed"}`))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.JSONEq(t, `{"run_id":1,"status":"completed"}`, string(msg))
		case <-time.After(time.Second):
			t.Fatal("client never received the broadcast")
		}
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	c := &Client{hub: hub, send: make(chan []byte, 4)}
	hub.register <- c
	waitForClients(t, hub, 1)

	hub.unregister <- c
	waitForClients(t, hub, 0)

	select {
	case _, open := <-c.send:
		assert.False(t, open, "send channel must close on unregister")
	case <-time.After(time.Second):
		t.Fatal("send channel never closed")
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	// No buffer and no reader: the first broadcast cannot be delivered.
	slow := &Client{hub: hub, send: make(chan []byte)}
	hub.register <- slow
	waitForClients(t, hub, 1)

	hub.Broadcast([]byte(`{"run_id":2}`))
	waitForClients(t, hub, 0)
}

func TestHubUnregisterUnknownClient(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	stranger := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.unregister <- stranger

	known := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- known
	waitForClients(t, hub, 1)
}
