package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

const credentialParam = "api_key"

type ConnState string

const (
	ConnIdle       ConnState = "idle"
	ConnConnecting ConnState = "connecting"
	ConnOpen       ConnState = "open"
	ConnClosed     ConnState = "closed"
	ConnErrored    ConnState = "errored"
)

type ConnEventKind string

const (
	EventOpen    ConnEventKind = "open"
	EventMessage ConnEventKind = "message"
	EventError   ConnEventKind = "error"
	EventClosed  ConnEventKind = "closed"
)

// ConnEvent is emitted by a ConnectionManager. Handle names the manager that produced it.
type ConnEvent struct {
	Handle domain.HandleID
	Kind   ConnEventKind
	Raw    []byte
	Err    error
}

// eventSink receives connection events. deliver gives up and returns false once cancel
// is closed.
type eventSink interface {
	deliver(ev ConnEvent, cancel <-chan struct{}) bool
}

var errConnectionReused = errors.New("connection manager already used")

// ConnectionManager owns one streaming connection. A manager connects at most once.
type ConnectionManager struct {
	handle domain.HandleID
	dialer ports.StreamDialer
	sink   eventSink
	logger zerolog.Logger

	mu       sync.Mutex
	state    ConnState
	endpoint string
	conn     ports.StreamConn
	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
}

func newConnectionManager(dialer ports.StreamDialer, sink eventSink, logger zerolog.Logger) *ConnectionManager {
	handle := domain.NewHandleID()
	return &ConnectionManager{
		handle: handle,
		dialer: dialer,
		sink:   sink,
		logger: logger.With().Str("handle", handle.Short()).Logger(),
		state:  ConnIdle,
		done:   make(chan struct{}),
	}
}

func (m *ConnectionManager) Handle() domain.HandleID {
	return m.handle
}

func (m *ConnectionManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect validates the endpoint synchronously and then dials in the background.
// Configuration problems return a *domain.ConfigurationError and leave the manager Idle.
func (m *ConnectionManager) Connect(ctx context.Context, endpoint, credential string) error {
	streamURL, err := StreamURL(endpoint, credential)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ConnIdle {
		return fmt.Errorf("connect in state %s: %w", m.state, errConnectionReused)
	}

	dialCtx, cancel := context.WithCancel(ctx)
	m.state = ConnConnecting
	m.endpoint = strings.TrimSpace(endpoint)
	m.cancel = cancel
	m.wg.Add(1)
	go m.read(dialCtx, streamURL)

	m.logger.Debug().Str("endpoint", m.endpoint).Msg("connecting")
	return nil
}

// Close releases the transport and waits for the reader to exit. It is safe to call
// more than once and from any state.
func (m *ConnectionManager) Close() {
	m.mu.Lock()
	if m.state == ConnClosed {
		m.mu.Unlock()
		return
	}
	m.state = ConnClosed
	conn := m.conn
	m.conn = nil
	if m.cancel != nil {
		m.cancel()
	}
	close(m.done)
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			m.logger.Debug().Err(err).Msg("close stream")
		}
	}
	m.wg.Wait()
	m.logger.Debug().Msg("connection closed")
}

func (m *ConnectionManager) read(ctx context.Context, streamURL string) {
	defer m.wg.Done()

	conn, err := m.dialer.Dial(ctx, streamURL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.transition(ConnConnecting, ConnErrored)
		m.emit(ConnEvent{Kind: EventError, Err: &domain.ConnectionError{Endpoint: m.endpoint, Err: err}})
		return
	}

	m.mu.Lock()
	if m.state == ConnClosed {
		m.mu.Unlock()
		_ = conn.Close()
		return
	}
	m.state = ConnOpen
	m.conn = conn
	m.mu.Unlock()

	if !m.emit(ConnEvent{Kind: EventOpen}) {
		return
	}

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if m.closing() {
				return
			}
			if errors.Is(err, domain.ErrStreamClosed) {
				m.emit(ConnEvent{Kind: EventClosed})
				return
			}
			m.emit(ConnEvent{Kind: EventError, Err: &domain.ConnectionError{Endpoint: m.endpoint, Err: err}})
			return
		}
		if !m.emit(ConnEvent{Kind: EventMessage, Raw: raw}) {
			return
		}
	}
}

func (m *ConnectionManager) emit(ev ConnEvent) bool {
	ev.Handle = m.handle
	return m.sink.deliver(ev, m.done)
}

func (m *ConnectionManager) transition(from, to ConnState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == from {
		m.state = to
	}
}

func (m *ConnectionManager) closing() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// StreamURL builds the dial URL for endpoint with the credential attached as the
// api_key query parameter. http and https endpoints are mapped to ws and wss.
func StreamURL(endpoint, credential string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", &domain.ConfigurationError{Err: domain.ErrEndpointMissing}
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", &domain.ConfigurationError{Err: fmt.Errorf("parse endpoint: %w", err)}
	}

	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", &domain.ConfigurationError{Err: fmt.Errorf("%w %q", domain.ErrUnsupportedEndpoint, u.Scheme)}
	}
	if u.Host == "" {
		return "", &domain.ConfigurationError{Err: fmt.Errorf("endpoint %q has no host", endpoint)}
	}

	query := u.Query()
	query.Set(credentialParam, credential)
	u.RawQuery = query.Encode()

	return u.String(), nil
}
