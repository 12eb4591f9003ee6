package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConsumedStoreFirstClaimWins(t *testing.T) {
	assertion := assert.New(t)

	s := NewMemoryConsumedStore()
	ctx := context.Background()

	fresh, err := s.MarkConsumed(ctx, "sig-1")
	require.NoError(t, err)
	assertion.True(fresh)

	fresh, err = s.MarkConsumed(ctx, "sig-1")
	require.NoError(t, err)
	assertion.False(fresh)

	fresh, err = s.MarkConsumed(ctx, "sig-2")
	require.NoError(t, err)
	assertion.True(fresh, "different signal is independent")
}

func TestMemoryConsumedStoreConcurrentClaims(t *testing.T) {
	assertion := assert.New(t)

	s := NewMemoryConsumedStore()
	ctx := context.Background()

	const claimers = 32
	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(claimers)
	for i := 0; i < claimers; i++ {
		go func() {
			defer wg.Done()
			fresh, err := s.MarkConsumed(ctx, "contested")
			if err == nil && fresh {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assertion.Equal(int64(1), wins, "exactly one claimer sees the signal as fresh")
}
