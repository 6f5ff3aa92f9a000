package ports

import "context"

// StreamConn is one open server-push stream. ReadMessage returns domain.ErrStreamClosed
// when the server ends the stream normally.
type StreamConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

type StreamDialer interface {
	Dial(ctx context.Context, endpoint string) (StreamConn, error)
}
