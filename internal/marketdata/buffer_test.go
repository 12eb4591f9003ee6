package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweepguard/internal/domain/models"
)

func tickAt(i int) models.Tick {
	return models.Tick{
		Time: time.Unix(int64(i), 0),
		Bid:  2000 + float64(i)*0.01,
		Ask:  2000.2 + float64(i)*0.01,
	}
}

func TestTickBufferEmpty(t *testing.T) {
	assertion := assert.New(t)

	b := NewTickBuffer(4)
	assertion.Empty(b.Snapshot())

	_, ok := b.Latest()
	assertion.False(ok)
}

func TestTickBufferPartialFill(t *testing.T) {
	assertion := assert.New(t)

	b := NewTickBuffer(4)
	b.Add(tickAt(0))
	b.Add(tickAt(1))

	snap := b.Snapshot()
	require.Len(t, snap, 2)
	assertion.Equal(tickAt(0), snap[0])
	assertion.Equal(tickAt(1), snap[1])

	latest, ok := b.Latest()
	require.True(t, ok)
	assertion.Equal(tickAt(1), latest)
}

func TestTickBufferWrapsAround(t *testing.T) {
	assertion := assert.New(t)

	b := NewTickBuffer(4)
	for i := 0; i < 6; i++ {
		b.Add(tickAt(i))
	}

	snap := b.Snapshot()
	require.Len(t, snap, 4)
	// oldest first, the two earliest ticks evicted
	assertion.Equal(tickAt(2), snap[0])
	assertion.Equal(tickAt(5), snap[3])

	latest, ok := b.Latest()
	require.True(t, ok)
	assertion.Equal(tickAt(5), latest)
}

func TestTickBufferSnapshotIsACopy(t *testing.T) {
	assertion := assert.New(t)

	b := NewTickBuffer(4)
	b.Add(tickAt(0))

	snap := b.Snapshot()
	snap[0].Bid = -1
	fresh := b.Snapshot()
	assertion.Equal(tickAt(0).Bid, fresh[0].Bid)
}
