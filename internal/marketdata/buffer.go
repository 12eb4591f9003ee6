package marketdata

import (
	"context"
	"sync"
	"time"

	"sweepguard/internal/domain/models"
	"sweepguard/internal/domain/repository"
	applogger "sweepguard/pkg/logger"
)

// TickBuffer keeps the most recent ticks in a fixed-size ring. Writers and
// the snapshot reader never block each other for long: Snapshot copies out
// under the lock.
type TickBuffer struct {
	mu    sync.RWMutex
	ticks []models.Tick
	next  int
	full  bool
}

func NewTickBuffer(capacity int) *TickBuffer {
	if capacity <= 0 {
		capacity = 256
	}
	return &TickBuffer{ticks: make([]models.Tick, capacity)}
}

// Add appends one tick, evicting the oldest when full.
func (b *TickBuffer) Add(t models.Tick) {
	b.mu.Lock()
	b.ticks[b.next] = t
	b.next = (b.next + 1) % len(b.ticks)
	if b.next == 0 {
		b.full = true
	}
	b.mu.Unlock()
}

// Snapshot returns the buffered ticks, oldest first.
func (b *TickBuffer) Snapshot() []models.Tick {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.full {
		out := make([]models.Tick, b.next)
		copy(out, b.ticks[:b.next])
		return out
	}
	out := make([]models.Tick, 0, len(b.ticks))
	out = append(out, b.ticks[b.next:]...)
	out = append(out, b.ticks[:b.next]...)
	return out
}

// Latest returns the newest tick, if any.
func (b *TickBuffer) Latest() (models.Tick, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.next == 0 && !b.full {
		return models.Tick{}, false
	}
	idx := (b.next - 1 + len(b.ticks)) % len(b.ticks)
	return b.ticks[idx], true
}

// Pump feeds the buffer from a tick stream, reconnecting on stream errors
// until ctx is cancelled.
func Pump(ctx context.Context, stream repository.TickStream, buf *TickBuffer, log *applogger.Logger) {
	for ctx.Err() == nil {
		if !stream.IsConnected() {
			if err := stream.Connect(ctx); err != nil {
				log.Warn("tick stream connect failed", applogger.Error(err))
				sleepCtx(ctx)
				continue
			}
			log.Info("tick stream connected")
		}

		ticks, errs := stream.Read(ctx)
	drain:
		for {
			select {
			case <-ctx.Done():
				_ = stream.Close()
				return
			case t, ok := <-ticks:
				if !ok {
					break drain
				}
				buf.Add(t)
			case err, ok := <-errs:
				if ok && err != nil {
					log.Warn("tick stream error, reconnecting", applogger.Error(err))
				}
				break drain
			}
		}
		_ = stream.Close()
		sleepCtx(ctx)
	}
}

func sleepCtx(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}
