package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aconomy-watch/internal/domain"
)

type testServer struct {
	*httptest.Server
	keys chan string
}

// newTestServer mimics the simulation server: it rejects unknown keys with 401 and then
// pushes frames before closing the stream with closeCode.
func newTestServer(t *testing.T, frames []string, closeCode int) *testServer {
	t.Helper()

	ts := &testServer{keys: make(chan string, 4)}
	upgrader := websocket.Upgrader{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("api_key")
		ts.keys <- key
		if key != "sk-valid" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		if closeCode > 0 {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, "done"), time.Now().Add(time.Second))
			// Wait for the client to acknowledge the close.
			_, _, _ = conn.ReadMessage()
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func (ts *testServer) endpoint() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestDialerReadsFramesUntilNormalClose(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, []string{`{"AgentID":1}`, `{"AgentID":2}`}, websocket.CloseNormalClosure)
	conn, err := NewDialer(Options{}).Dial(context.Background(), server.endpoint()+"?api_key=sk-valid")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	first, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"AgentID":1}`, string(first))

	second, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"AgentID":2}`, string(second))

	_, err = conn.ReadMessage()
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
	assert.Equal(t, "sk-valid", <-server.keys)
}

func TestDialerDroppedConnectionEndsStream(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, []string{`{}`}, 0)
	conn, err := NewDialer(Options{}).Dial(context.Background(), server.endpoint()+"?api_key=sk-valid")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.ReadMessage()
	require.NoError(t, err)

	_, err = conn.ReadMessage()
	assert.ErrorIs(t, err, domain.ErrStreamClosed)
}

func TestDialerReportsUnauthorizedHandshake(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil, websocket.CloseNormalClosure)
	_, err := NewDialer(Options{}).Dial(context.Background(), server.endpoint()+"?api_key=sk-wrong")

	require.Error(t, err)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.ErrorContains(t, err, "401")
}

func TestDialerProtocolErrorIsNotEndOfStream(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil, websocket.CloseProtocolError)
	conn, err := NewDialer(Options{}).Dial(context.Background(), server.endpoint()+"?api_key=sk-valid")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.ReadMessage()
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStreamClosed)

	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseProtocolError, closeErr.Code)
}

func TestDialerHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDialer(Options{}).Dial(ctx, "ws://127.0.0.1:1/ws?api_key=sk-valid")
	require.Error(t, err)
	assert.ErrorContains(t, err, "dial websocket")
}

func TestConnCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, nil, websocket.CloseNormalClosure)
	conn, err := NewDialer(Options{}).Dial(context.Background(), server.endpoint()+"?api_key=sk-valid")
	require.NoError(t, err)

	first := conn.Close()
	second := conn.Close()
	assert.Equal(t, first, second)
}
