package domain

import "time"

type NotificationKind string

const (
	NotifySessionReset  NotificationKind = "session_reset"
	NotifyTurnAppended  NotificationKind = "turn_appended"
	NotifyParseFailed   NotificationKind = "parse_failed"
	NotifyStatusChanged NotificationKind = "status_changed"
)

// Notification is published by the session controller after every change that a
// presentation layer may want to redraw. Seq increases by one per notification and
// lets subscribers order deliveries that arrive out of order.
type Notification struct {
	Kind     NotificationKind
	Seq      uint64
	Handle   HandleID
	Endpoint string      `json:",omitempty"`
	Index    int         `json:",omitempty"`
	Turn     *TurnRecord `json:",omitempty"`
	Status   SessionStatus
	Err      string `json:",omitempty"`
}

type ArchivedSession struct {
	Handle     HandleID
	Endpoint   string
	StartedAt  time.Time
	EndedAt    time.Time
	FinalState SessionState
	FinalError string
	TurnCount  int
}

func (s ArchivedSession) Open() bool {
	return s.EndedAt.IsZero()
}
