package api

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func TestWebSocketStreamsSnapshots(t *testing.T) {
	server, b := newTestServer(t, noMatchBoard)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/bob"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The current snapshot arrives immediately on connect.
	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	assert.Equal(t, "2x2\ndown\ndown\ndown\ndown\n", string(data))

	// Mutate until the change stream delivers the next snapshot; the
	// server re-registers its watch between messages, so a single flip
	// can race the registration.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-time.After(20 * time.Millisecond):
				_ = b.Flip(context.Background(), "alice", i%2, (i/2)%2)
			}
		}
	}()

	_, data, err = conn.Read(ctx)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "2x2\n"), "unexpected snapshot: %q", data)
}
