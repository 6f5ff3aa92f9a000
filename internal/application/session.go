package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

const queueSize = 64

var errControllerRunning = errors.New("session controller already running")

type requestKind int

const (
	requestStart requestKind = iota
	requestStop
)

type request struct {
	kind       requestKind
	endpoint   string
	credential string
	reply      chan error
}

type queueItem struct {
	request *request
	event   *ConnEvent
}

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithNotifier(notifier ports.Notifier) ControllerOption {
	return func(c *Controller) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// Controller runs streaming sessions. All state changes happen on the goroutine that
// calls Run; Start and Stop hand their work to that goroutine and wait for the result.
type Controller struct {
	dialer   ports.StreamDialer
	notifier ports.Notifier
	logger   zerolog.Logger
	store    *TurnStore

	queue   chan queueItem
	started atomic.Bool
	done    chan struct{}
	status  atomic.Pointer[domain.SessionStatus]
	seq     atomic.Uint64

	// owned by the Run goroutine
	ctx   context.Context
	conn  *ConnectionManager
	state domain.SessionState
}

func NewController(dialer ports.StreamDialer, opts ...ControllerOption) *Controller {
	c := &Controller{
		dialer:   dialer,
		notifier: ports.NopNotifier{},
		logger:   zerolog.Nop(),
		store:    NewTurnStore(),
		queue:    make(chan queueItem, queueSize),
		done:     make(chan struct{}),
		state:    domain.SessionIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "session").Logger()
	c.status.Store(&domain.SessionStatus{State: domain.SessionIdle})

	return c
}

// Run drains the controller queue until ctx is cancelled. The open connection, if
// any, is closed before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errControllerRunning
	}
	defer close(c.done)
	defer c.closeConnection()

	c.ctx = ctx
	c.logger.Debug().Msg("session loop started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug().Msg("session loop stopped")
			return nil
		case item := <-c.queue:
			if item.request != nil {
				item.request.reply <- c.handleRequest(item.request)
				continue
			}
			c.handleEvent(*item.event)
		}
	}
}

func (c *Controller) Start(ctx context.Context, endpoint, credential string) error {
	return c.submit(ctx, &request{kind: requestStart, endpoint: endpoint, credential: credential})
}

func (c *Controller) Stop(ctx context.Context) error {
	return c.submit(ctx, &request{kind: requestStop})
}

func (c *Controller) Status() domain.SessionStatus {
	return *c.status.Load()
}

// LastSeq returns the sequence number of the most recent notification.
func (c *Controller) LastSeq() uint64 {
	return c.seq.Load()
}

func (c *Controller) Snapshot() []domain.TurnRecord {
	return c.store.Snapshot()
}

func (c *Controller) Len() int {
	return c.store.Len()
}

func (c *Controller) submit(ctx context.Context, req *request) error {
	req.reply = make(chan error, 1)

	select {
	case c.queue <- queueItem{request: req}:
	case <-c.done:
		return domain.ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-c.done:
		select {
		case err := <-req.reply:
			return err
		default:
			return domain.ErrControllerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) deliver(ev ConnEvent, cancel <-chan struct{}) bool {
	select {
	case c.queue <- queueItem{event: &ev}:
		return true
	case <-cancel:
		return false
	case <-c.done:
		return false
	}
}

func (c *Controller) handleRequest(req *request) error {
	switch req.kind {
	case requestStart:
		return c.startSession(req.endpoint, req.credential)
	case requestStop:
		c.stopSession()
		return nil
	default:
		return fmt.Errorf("unknown request kind %d", req.kind)
	}
}

func (c *Controller) startSession(endpoint, credential string) error {
	if !c.state.CanStart() {
		return fmt.Errorf("start session in state %s: %w", c.state, domain.ErrSessionActive)
	}
	c.closeConnection()

	conn := newConnectionManager(c.dialer, c, c.logger)
	if err := conn.Connect(c.ctx, endpoint, credential); err != nil {
		conn.Close()
		c.setStatus(domain.SessionIdle, "", err.Error())
		c.logger.Warn().Err(err).Msg("session not started")
		return err
	}

	c.conn = conn
	c.store.Reset()
	c.notify(domain.Notification{Kind: domain.NotifySessionReset, Handle: conn.Handle(), Endpoint: endpoint})
	c.setStatus(domain.SessionLoading, conn.Handle(), "")
	c.logger.Info().Str("handle", conn.Handle().Short()).Msg("session starting")

	return nil
}

func (c *Controller) stopSession() {
	c.closeConnection()
	if c.state == domain.SessionIdle {
		return
	}
	c.setStatus(domain.SessionIdle, c.Status().Handle, "")
	c.logger.Info().Msg("session stopped")
}

func (c *Controller) handleEvent(ev ConnEvent) {
	if c.conn == nil || ev.Handle != c.conn.Handle() {
		c.logger.Debug().Str("handle", ev.Handle.Short()).Str("event", string(ev.Kind)).Msg("discarding stale event")
		return
	}

	switch ev.Kind {
	case EventOpen:
		c.logger.Debug().Str("handle", ev.Handle.Short()).Msg("stream open")
	case EventMessage:
		c.handleMessage(ev)
	case EventError:
		c.closeConnection()
		c.setStatus(domain.SessionError, ev.Handle, errorText(ev.Err))
		c.logger.Error().Err(ev.Err).Str("handle", ev.Handle.Short()).Msg("stream failed")
	case EventClosed:
		c.closeConnection()
		if c.state.Streaming() {
			c.setStatus(domain.SessionIdle, ev.Handle, "")
		}
		c.logger.Info().Str("handle", ev.Handle.Short()).Msg("stream ended")
	}
}

func (c *Controller) handleMessage(ev ConnEvent) {
	if !c.state.Streaming() {
		return
	}

	turn, err := Ingest(ev.Raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("handle", ev.Handle.Short()).Msg("dropping malformed frame")
		c.notify(domain.Notification{Kind: domain.NotifyParseFailed, Handle: ev.Handle, Err: err.Error()})
		return
	}

	c.store.Append(turn)
	c.notify(domain.Notification{Kind: domain.NotifyTurnAppended, Handle: ev.Handle, Index: c.store.Len() - 1, Turn: &turn})
	if c.state == domain.SessionLoading {
		c.setStatus(domain.SessionStarted, ev.Handle, "")
	}
}

func (c *Controller) setStatus(state domain.SessionState, handle domain.HandleID, errText string) {
	c.state = state
	status := domain.SessionStatus{State: state, Handle: handle, Err: errText}
	c.status.Store(&status)
	c.notify(domain.Notification{Kind: domain.NotifyStatusChanged, Handle: handle})
}

func (c *Controller) notify(n domain.Notification) {
	n.Seq = c.seq.Add(1)
	n.Status = c.Status()
	if err := c.notifier.Notify(c.ctx, n); err != nil {
		c.logger.Warn().Err(err).Str("kind", string(n.Kind)).Msg("publish notification")
	}
}

func (c *Controller) closeConnection() {
	if c.conn == nil {
		return
	}
	c.conn.Close()
	c.conn = nil
}

func errorText(err error) string {
	if err == nil {
		return "unknown stream error"
	}
	return err.Error()
}
