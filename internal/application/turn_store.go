package application

import (
	"slices"
	"sync/atomic"

	"github.com/bnema/aconomy-watch/internal/domain"
)

// TurnStore is the ordered history of one session. Append and Reset belong to a single
// writer goroutine; Snapshot and Len may be called from anywhere.
type TurnStore struct {
	turns atomic.Pointer[[]domain.TurnRecord]
}

func NewTurnStore() *TurnStore {
	store := &TurnStore{}
	store.Reset()
	return store
}

func (s *TurnStore) Append(turn domain.TurnRecord) {
	current := *s.turns.Load()
	// Appending may grow the shared backing array in place. Readers only ever look at
	// the prefix they loaded, which is never written again.
	next := append(current, turn)
	s.turns.Store(&next)
}

func (s *TurnStore) Snapshot() []domain.TurnRecord {
	return slices.Clone(*s.turns.Load())
}

func (s *TurnStore) Reset() {
	empty := make([]domain.TurnRecord, 0, 16)
	s.turns.Store(&empty)
}

func (s *TurnStore) Len() int {
	return len(*s.turns.Load())
}
