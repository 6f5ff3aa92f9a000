package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionIdle    SessionState = "idle"
	SessionLoading SessionState = "loading"
	SessionStarted SessionState = "started"
	SessionError   SessionState = "error"
)

// CanStart reports whether a new session may be started from this state.
func (s SessionState) CanStart() bool {
	return s == SessionIdle || s == SessionError
}

// Streaming reports whether inbound frames are accepted in this state.
func (s SessionState) Streaming() bool {
	return s == SessionLoading || s == SessionStarted
}

// HandleID identifies one connection manager. A new handle is minted for every session.
type HandleID string

func NewHandleID() HandleID {
	return HandleID(uuid.NewString())
}

func (h HandleID) Short() string {
	if len(h) <= 8 {
		return string(h)
	}
	return string(h[:8])
}

type SessionStatus struct {
	State  SessionState
	Handle HandleID
	Err    string
}

func (s SessionStatus) String() string {
	if s.Err == "" {
		return string(s.State)
	}
	return fmt.Sprintf("%s: %s", s.State, s.Err)
}
