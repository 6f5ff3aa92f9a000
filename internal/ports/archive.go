package ports

import (
	"context"
	"time"

	"github.com/bnema/aconomy-watch/internal/domain"
)

type TurnArchive interface {
	BeginSession(ctx context.Context, handle domain.HandleID, endpoint string, at time.Time) error
	RecordTurn(ctx context.Context, handle domain.HandleID, seq int, turn domain.TurnRecord) error
	EndSession(ctx context.Context, handle domain.HandleID, seq uint64, status domain.SessionStatus, at time.Time) error
	ListSessions(ctx context.Context) ([]domain.ArchivedSession, error)
	LoadTurns(ctx context.Context, handle domain.HandleID) ([]domain.TurnRecord, error)
}
