package application

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aconomy-watch/internal/domain"
)

func TestTurnStoreAppendKeepsArrivalOrder(t *testing.T) {
	t.Parallel()

	store := NewTurnStore()
	for i := 0; i < 5; i++ {
		store.Append(domain.TurnRecord{AgentID: 5 - i, TurnIndex: i})
	}

	snapshot := store.Snapshot()
	require.Len(t, snapshot, 5)
	for i, turn := range snapshot {
		assert.Equal(t, i, turn.TurnIndex)
		assert.Equal(t, 5-i, turn.AgentID)
	}
}

func TestTurnStoreResetThenAppend(t *testing.T) {
	t.Parallel()

	store := NewTurnStore()
	store.Append(domain.TurnRecord{AgentID: 1})
	store.Append(domain.TurnRecord{AgentID: 2})

	store.Reset()
	assert.Empty(t, store.Snapshot())
	assert.Equal(t, 0, store.Len())

	store.Append(domain.TurnRecord{AgentID: 3})
	assert.Equal(t, []domain.TurnRecord{{AgentID: 3}}, store.Snapshot())
}

func TestTurnStoreSnapshotIsDetached(t *testing.T) {
	t.Parallel()

	store := NewTurnStore()
	store.Append(domain.TurnRecord{AgentID: 1})

	snapshot := store.Snapshot()
	snapshot[0].AgentID = 99
	_ = append(snapshot, domain.TurnRecord{AgentID: 100})

	assert.Equal(t, []domain.TurnRecord{{AgentID: 1}}, store.Snapshot())
}

func TestTurnStoreSnapshotDuringAppend(t *testing.T) {
	t.Parallel()

	const total = 500
	store := NewTurnStore()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			store.Append(domain.TurnRecord{TurnIndex: i})
		}
	}()

	previous := 0
	for previous < total {
		snapshot := store.Snapshot()
		require.GreaterOrEqual(t, len(snapshot), previous)
		for i, turn := range snapshot {
			require.Equal(t, i, turn.TurnIndex)
		}
		previous = len(snapshot)
	}
	wg.Wait()
}
