package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bnema/aconomy-watch/internal/domain"
	"github.com/bnema/aconomy-watch/internal/ports"
)

var (
	ErrSessionNotFound  = errors.New("archived session not found")
	ErrAmbiguousSession = errors.New("session prefix matches more than one archived session")
)

// Recorder copies controller notifications into the archive. Deliveries may arrive out
// of order, so every write is keyed by session handle and turn index.
type Recorder struct {
	archive ports.TurnArchive
	clock   ports.Clock
	logger  zerolog.Logger

	mu      sync.Mutex
	handled uint64
	changed chan struct{}
}

func NewRecorder(archive ports.TurnArchive, clock ports.Clock, logger zerolog.Logger) *Recorder {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Recorder{
		archive: archive,
		clock:   clock,
		logger:  logger.With().Str("component", "recorder").Logger(),
		changed: make(chan struct{}),
	}
}

func (r *Recorder) Handle(ctx context.Context, n domain.Notification) error {
	defer r.markHandled()

	if n.Handle == "" {
		return nil
	}

	switch n.Kind {
	case domain.NotifySessionReset:
		if err := r.archive.BeginSession(ctx, n.Handle, n.Endpoint, r.clock.Now()); err != nil {
			return fmt.Errorf("archive session start: %w", err)
		}
	case domain.NotifyTurnAppended:
		if n.Turn == nil {
			return nil
		}
		if err := r.archive.RecordTurn(ctx, n.Handle, n.Index, *n.Turn); err != nil {
			return fmt.Errorf("archive turn %d: %w", n.Index, err)
		}
	case domain.NotifyStatusChanged:
		if n.Status.State.Streaming() {
			return nil
		}
		if err := r.archive.EndSession(ctx, n.Handle, n.Seq, n.Status, r.clock.Now()); err != nil {
			return fmt.Errorf("archive session end: %w", err)
		}
	}

	r.logger.Debug().Str("kind", string(n.Kind)).Uint64("seq", n.Seq).Msg("archived notification")
	return nil
}

func (r *Recorder) markHandled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled++
	close(r.changed)
	r.changed = make(chan struct{})
}

// Drain blocks until at least n notifications have been handled, successfully or not.
func (r *Recorder) Drain(ctx context.Context, n uint64) error {
	for {
		r.mu.Lock()
		if r.handled >= n {
			r.mu.Unlock()
			return nil
		}
		changed := r.changed
		r.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("drain archive: %w", ctx.Err())
		}
	}
}

type ArchiveService struct {
	archive ports.TurnArchive
}

func NewArchiveService(archive ports.TurnArchive) *ArchiveService {
	return &ArchiveService{archive: archive}
}

func (s *ArchiveService) Sessions(ctx context.Context) ([]domain.ArchivedSession, error) {
	sessions, err := s.archive.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archived sessions: %w", err)
	}
	return sessions, nil
}

// Resolve finds an archived session by handle prefix. An empty prefix selects the most
// recently started session.
func (s *ArchiveService) Resolve(ctx context.Context, prefix string) (domain.ArchivedSession, error) {
	sessions, err := s.Sessions(ctx)
	if err != nil {
		return domain.ArchivedSession{}, err
	}
	if len(sessions) == 0 {
		return domain.ArchivedSession{}, ErrSessionNotFound
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return sessions[0], nil
	}

	var matches []domain.ArchivedSession
	for _, session := range sessions {
		if session.Handle == domain.HandleID(prefix) {
			return session, nil
		}
		if strings.HasPrefix(string(session.Handle), prefix) {
			matches = append(matches, session)
		}
	}

	switch len(matches) {
	case 0:
		return domain.ArchivedSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return domain.ArchivedSession{}, fmt.Errorf("%w: %s", ErrAmbiguousSession, prefix)
	}
}

func (s *ArchiveService) Turns(ctx context.Context, handle domain.HandleID) ([]domain.TurnRecord, error) {
	turns, err := s.archive.LoadTurns(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("load archived turns: %w", err)
	}
	return turns, nil
}
