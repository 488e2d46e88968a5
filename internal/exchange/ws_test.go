package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// streamServer upgrades, drains the subscribe frame, then pushes ticker
// frames until the client goes away.
func streamServer(t *testing.T, every time.Duration) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub map[string]any
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		frame := map[string]any{
			"arg": map[string]string{"channel": "tickers", "instId": "EUR-USD"},
			"data": []map[string]string{
				{"bidPx": "1.1000", "askPx": "1.1002", "ts": "1741946400000"},
			},
		}
		for {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
			time.Sleep(every)
		}
	}))
}

func wsAddr(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamOutlivesConnectDeadline(t *testing.T) {
	srv := streamServer(t, 10*time.Millisecond)
	defer srv.Close()

	c := NewClient()
	c.SetEndpoints("", wsAddr(srv))

	// handshake bounded the way the controller bounds it
	cctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Connect(cctx))

	ticks, err := c.Subscribe(context.Background(), "EUR-USD")
	require.NoError(t, err)
	defer c.Disconnect()

	// keep receiving well past the handshake deadline
	timeout := time.After(2 * time.Second)
	received := 0
	for received < 25 {
		select {
		case _, ok := <-ticks:
			require.True(t, ok, "stream died after %d ticks although the venue is still sending", received)
			received++
		case <-timeout:
			t.Fatalf("only %d ticks before timeout", received)
		}
	}
}

func TestShutdownDuringActivePingsIsClean(t *testing.T) {
	srv := streamServer(t, 5*time.Millisecond)
	defer srv.Close()

	c := NewClient()
	c.SetEndpoints("", wsAddr(srv))
	c.pingEvery = time.Millisecond // force ping writes to overlap teardown

	require.NoError(t, c.Connect(context.Background()))
	ticks, err := c.Subscribe(context.Background(), "EUR-USD")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		<-ticks
	}
	time.Sleep(20 * time.Millisecond) // let pings fire

	require.NoError(t, c.CancelSubscription())
	require.NoError(t, c.Disconnect())
	require.NoError(t, c.Disconnect(), "disconnect is idempotent")
}

func TestSubscribeBeforeConnectFails(t *testing.T) {
	c := NewClient()
	_, err := c.Subscribe(context.Background(), "EUR-USD")
	require.Error(t, err)
	require.True(t, IsConnectionFailure(err))
}

func TestDoubleSubscribeRejected(t *testing.T) {
	srv := streamServer(t, 10*time.Millisecond)
	defer srv.Close()

	c := NewClient()
	c.SetEndpoints("", wsAddr(srv))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	_, err := c.Subscribe(context.Background(), "EUR-USD")
	require.NoError(t, err)
	_, err = c.Subscribe(context.Background(), "EUR-USD")
	require.Error(t, err)
}
