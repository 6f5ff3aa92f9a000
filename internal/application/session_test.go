package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

const testEndpoint = "ws://localhost:8080/ws"

func TestControllerStartsIdle(t *testing.T) {
	t.Parallel()

	controller := NewController(dialerFor())
	assert.Equal(t, domain.SessionStatus{State: domain.SessionIdle}, controller.Status())
	assert.Empty(t, controller.Snapshot())
}

func TestControllerAppendsFramesInDeliveryOrder(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	notifier := &recordingNotifier{}
	controller := startController(t, dialerFor(conn), WithNotifier(notifier))

	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	assert.Equal(t, domain.SessionLoading, controller.Status().State)

	for i := 0; i < 5; i++ {
		conn.frames <- turnFrame(i%2, i)
	}
	waitForLen(t, controller, 5)
	waitForState(t, controller, domain.SessionStarted)

	snapshot := controller.Snapshot()
	for i, turn := range snapshot {
		assert.Equal(t, i, turn.TurnIndex)
		assert.Equal(t, i%2, turn.AgentID)
	}

	// The Started status is stored before its notification is published.
	require.Eventually(t, func() bool {
		return len(notifier.states()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.SessionState{domain.SessionLoading, domain.SessionStarted}, notifier.states())

	notifications := notifier.notifications()
	require.NotEmpty(t, notifications)
	assert.Equal(t, domain.NotifySessionReset, notifications[0].Kind)
	for i, notification := range notifications {
		assert.Equal(t, uint64(i+1), notification.Seq)
	}
	assert.Equal(t, uint64(len(notifications)), controller.LastSeq())
}

func TestControllerStartWithoutEndpoint(t *testing.T) {
	t.Parallel()

	dialer := dialerFor(newFakeConn())
	notifier := &recordingNotifier{}
	controller := startController(t, dialer, WithNotifier(notifier))

	err := controller.Start(context.Background(), "", "sk-test")

	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.ErrorIs(t, err, domain.ErrEndpointMissing)

	status := controller.Status()
	assert.Equal(t, domain.SessionIdle, status.State)
	assert.Contains(t, status.Err, "not configured")
	assert.NotContains(t, notifier.states(), domain.SessionLoading)
	assert.Empty(t, dialer.dialed())
}

func TestControllerRejectsStartWhileActive(t *testing.T) {
	t.Parallel()

	controller := startController(t, blockingDialer())
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))

	err := controller.Start(context.Background(), testEndpoint, "sk-test")
	assert.ErrorIs(t, err, domain.ErrSessionActive)
	assert.Equal(t, domain.SessionLoading, controller.Status().State)
}

func TestControllerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	notifier := &recordingNotifier{}
	controller := startController(t, dialerFor(conn), WithNotifier(notifier))

	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	conn.frames <- turnFrame(1, 0)
	waitForState(t, controller, domain.SessionStarted)

	require.NoError(t, controller.Stop(context.Background()))
	assert.Equal(t, domain.SessionIdle, controller.Status().State)
	assert.True(t, conn.isClosed())
	seen := len(notifier.notifications())

	require.NoError(t, controller.Stop(context.Background()))
	assert.Equal(t, domain.SessionIdle, controller.Status().State)
	assert.Len(t, notifier.notifications(), seen)
	assert.Len(t, controller.Snapshot(), 1)
}

func TestControllerStopDuringDial(t *testing.T) {
	t.Parallel()

	controller := startController(t, blockingDialer())
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, controller.Stop(ctx))
	assert.Equal(t, domain.SessionIdle, controller.Status().State)
}

func TestControllerMalformedFrameKeepsState(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	notifier := &recordingNotifier{}
	controller := startController(t, dialerFor(conn), WithNotifier(notifier))
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))

	conn.frames <- []byte(`{"AgentID": "one"}`)
	require.Eventually(t, func() bool {
		for _, notification := range notifier.notifications() {
			if notification.Kind == domain.NotifyParseFailed {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.SessionLoading, controller.Status().State)
	assert.Empty(t, controller.Snapshot())

	conn.frames <- turnFrame(1, 0)
	waitForState(t, controller, domain.SessionStarted)
	assert.Len(t, controller.Snapshot(), 1)
}

func TestControllerServerCloseReturnsToIdle(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	controller := startController(t, dialerFor(conn))
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))

	conn.frames <- turnFrame(1, 0)
	conn.frames <- turnFrame(2, 0)
	close(conn.frames)

	waitForState(t, controller, domain.SessionIdle)
	assert.Len(t, controller.Snapshot(), 2)
	assert.Empty(t, controller.Status().Err)
}

func TestControllerConnectionErrorThenRestart(t *testing.T) {
	t.Parallel()

	second := newFakeConn()
	calls := 0
	dialer := &fakeDialer{}
	dialer.dial = func(context.Context, string) (ports.StreamConn, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("dial tcp 127.0.0.1:8080: connect: connection refused")
		}
		return second, nil
	}
	controller := startController(t, dialer)

	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	waitForState(t, controller, domain.SessionError)
	assert.Contains(t, controller.Status().Err, "connection refused")

	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	second.frames <- turnFrame(4, 1)
	waitForState(t, controller, domain.SessionStarted)
	assert.Equal(t, 4, controller.Snapshot()[0].AgentID)
}

func TestControllerReadErrorAfterStart(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	controller := startController(t, dialerFor(conn))
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))

	conn.frames <- turnFrame(1, 0)
	waitForState(t, controller, domain.SessionStarted)

	conn.errs <- errors.New("unexpected EOF")
	waitForState(t, controller, domain.SessionError)
	assert.True(t, conn.isClosed())
	assert.Len(t, controller.Snapshot(), 1)
}

func TestControllerDiscardsStaleEvents(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	controller := startController(t, dialerFor(conn))
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))

	stale := domain.NewHandleID()
	require.True(t, controller.deliver(ConnEvent{Handle: stale, Kind: EventMessage, Raw: turnFrame(9, 9)}, nil))
	require.True(t, controller.deliver(ConnEvent{Handle: stale, Kind: EventError, Err: errors.New("old failure")}, nil))
	require.True(t, controller.deliver(ConnEvent{Handle: stale, Kind: EventClosed}, nil))

	conn.frames <- turnFrame(1, 0)
	waitForLen(t, controller, 1)

	assert.Equal(t, 1, controller.Snapshot()[0].AgentID)
	assert.Equal(t, domain.SessionStarted, controller.Status().State)
}

func TestControllerNewSessionResetsStore(t *testing.T) {
	t.Parallel()

	first, second := newFakeConn(), newFakeConn()
	controller := startController(t, dialerFor(first, second))

	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	first.frames <- turnFrame(1, 0)
	first.frames <- turnFrame(2, 0)
	waitForLen(t, controller, 2)
	firstHandle := controller.Status().Handle

	require.NoError(t, controller.Stop(context.Background()))
	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	assert.Empty(t, controller.Snapshot())
	assert.NotEqual(t, firstHandle, controller.Status().Handle)

	second.frames <- turnFrame(3, 0)
	waitForLen(t, controller, 1)
	assert.Equal(t, 3, controller.Snapshot()[0].AgentID)
}

func TestControllerRequestsAfterRunExits(t *testing.T) {
	t.Parallel()

	conn := newFakeConn()
	controller := NewController(dialerFor(conn))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- controller.Run(ctx) }()

	require.NoError(t, controller.Start(context.Background(), testEndpoint, "sk-test"))
	cancel()
	require.NoError(t, <-errCh)
	assert.True(t, conn.isClosed())

	assert.ErrorIs(t, controller.Start(context.Background(), testEndpoint, "sk-test"), domain.ErrControllerStopped)
	assert.ErrorIs(t, controller.Stop(context.Background()), domain.ErrControllerStopped)
	assert.Error(t, controller.Run(context.Background()))
}
