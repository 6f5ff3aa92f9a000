package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEndpointMissing     = errors.New("stream endpoint is not configured")
	ErrSessionActive       = errors.New("session already active")
	ErrControllerStopped   = errors.New("session controller is not running")
	ErrCredentialNotFound  = errors.New("credential not found")
	ErrStreamClosed        = errors.New("stream closed by server")
	ErrUnsupportedEndpoint = errors.New("unsupported endpoint scheme")
)

// ConfigurationError is returned synchronously when a session cannot be started
// because of local configuration.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConnectionError reports a transport-level failure while opening or reading the stream.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("connection error: %v", e.Err)
	}
	return fmt.Sprintf("connection error (%s): %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ParseError describes a single frame that could not be turned into a TurnRecord.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse turn: %s", e.Reason)
	}
	return fmt.Sprintf("parse turn: field %q: %s", e.Field, e.Reason)
}
