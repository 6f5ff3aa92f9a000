package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultReadLimit        = 8 << 20

	closeGrace = time.Second
)

type Options struct {
	HandshakeTimeout time.Duration
	ReadLimit        int64
	Header           http.Header
}

// Dialer opens server-push websocket streams.
type Dialer struct {
	dialer    *websocket.Dialer
	readLimit int64
	header    http.Header
}

var _ ports.StreamDialer = (*Dialer)(nil)

func NewDialer(opts Options) *Dialer {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}

	return &Dialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		readLimit: opts.ReadLimit,
		header:    opts.Header,
	}
}

func (d *Dialer) Dial(ctx context.Context, endpoint string) (ports.StreamConn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, endpoint, d.header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, fmt.Errorf("websocket handshake rejected: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	conn.SetReadLimit(d.readLimit)
	return &Conn{conn: conn}, nil
}

// Conn adapts a gorilla connection to ports.StreamConn.
type Conn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

var _ ports.StreamConn = (*Conn)(nil)

// ReadMessage returns the next data frame. A close frame or a dropped connection after
// the stream was established ends the stream with domain.ErrStreamClosed.
func (c *Conn) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if endOfStream(err) {
				return nil, domain.ErrStreamClosed
			}
			return nil, fmt.Errorf("read websocket frame: %w", err)
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func endOfStream(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
