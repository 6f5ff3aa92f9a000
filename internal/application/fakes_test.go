package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

var errConnClosed = errors.New("use of closed connection")

type fakeConn struct {
	frames chan []byte
	errs   chan error
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case raw, ok := <-c.frames:
		if !ok {
			return nil, domain.ErrStreamClosed
		}
		return raw, nil
	case err := <-c.errs:
		return nil, err
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

type fakeDialer struct {
	mu   sync.Mutex
	urls []string
	dial func(ctx context.Context, endpoint string) (ports.StreamConn, error)
}

func dialerFor(conns ...*fakeConn) *fakeDialer {
	next := make(chan *fakeConn, len(conns))
	for _, conn := range conns {
		next <- conn
	}

	return &fakeDialer{dial: func(context.Context, string) (ports.StreamConn, error) {
		select {
		case conn := <-next:
			return conn, nil
		default:
			return nil, errors.New("no more connections")
		}
	}}
}

func blockingDialer() *fakeDialer {
	return &fakeDialer{dial: func(ctx context.Context, _ string) (ports.StreamConn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
}

func (d *fakeDialer) Dial(ctx context.Context, endpoint string) (ports.StreamConn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, endpoint)
	d.mu.Unlock()
	return d.dial(ctx, endpoint)
}

func (d *fakeDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	seen []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, notification)
	return nil
}

func (n *recordingNotifier) notifications() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.seen...)
}

func (n *recordingNotifier) states() []domain.SessionState {
	var states []domain.SessionState
	for _, notification := range n.notifications() {
		if notification.Kind == domain.NotifyStatusChanged {
			states = append(states, notification.Status.State)
		}
	}
	return states
}

type chanSink chan ConnEvent

func (s chanSink) deliver(ev ConnEvent, cancel <-chan struct{}) bool {
	select {
	case s <- ev:
		return true
	case <-cancel:
		return false
	}
}

func turnFrame(agentID, turn int) []byte {
	return []byte(fmt.Sprintf(`{
		"AgentID": %d,
		"Turn": %d,
		"StartState": {"Gold": 0, "Wheat": 5, "Workers": 1, "Buildings": []},
		"EndState": {"Gold": 0, "Wheat": 5, "Workers": 1, "Buildings": [{"Type": "Farm", "Manned": false}]},
		"Strategy": "expand farming",
		"Action": "build_farm",
		"FullPrompt": null,
		"PostRationalisation": "more wheat next turn",
		"Error": null
	}`, agentID, turn))
}

func startController(t *testing.T, dialer ports.StreamDialer, opts ...ControllerOption) *Controller {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	controller := NewController(dialer, opts...)
	errCh := make(chan error, 1)
	go func() { errCh <- controller.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-errCh)
	})
	return controller
}

func waitForState(t *testing.T, controller *Controller, state domain.SessionState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return controller.Status().State == state
	}, 2*time.Second, 5*time.Millisecond, "want state %s, have %s", state, controller.Status().State)
}

func waitForLen(t *testing.T, controller *Controller, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return controller.Len() == n
	}, 2*time.Second, 5*time.Millisecond, "want %d turns, have %d", n, controller.Len())
}
