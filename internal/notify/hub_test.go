package notify

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReload(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()

	server := httptest.NewServer(hub)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for registration.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	hub.BroadcastReload(ctx, []string{"/src/A/x.js"})

	_, payload, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "reload", msg.Type)
	assert.Equal(t, []string{"/src/A/x.js"}, msg.Paths)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHubBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()

	assert.NotPanics(t, func() {
		hub.BroadcastReload(context.Background(), nil)
		hub.BroadcastPublish(context.Background())
	})
}

func TestHubShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub(nil)

	server := httptest.NewServer(hub)
	defer server.Close()

	hub.Shutdown()
	assert.Zero(t, hub.ClientCount())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		// The server accepts the upgrade and then immediately closes; the
		// first read observes the close.
		_, _, readErr := conn.Read(ctx)
		assert.Error(t, readErr)
		conn.Close(websocket.StatusNormalClosure, "")
	}
	assert.Zero(t, hub.ClientCount())
}
