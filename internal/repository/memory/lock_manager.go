package memory

import (
	"context"
	"sync"
	"time"

	"tripreco/internal/repository"
)

// lockEntry is a held lock and the moment it lapses.
type lockEntry struct {
	expiresAt time.Time
}

// LockManager hands out named, TTL-bounded locks. The itinerary flow takes
// one per session so two concurrent plans for the same session cannot draw
// restaurants against the same visited set at once. A lock whose holder
// never releases it lapses after its TTL.
//
// Go Learning Note — Channels for Signaling:
// `stop` is a `chan struct{}` used only to signal. Closing it makes every
// receive on it return immediately, which is how Stop ends the sweeper.
type LockManager struct {
	mu    sync.RWMutex
	locks map[string]*lockEntry
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

var _ repository.LockManager = (*LockManager)(nil)

// NewLockManager creates a LockManager and starts the background sweeper
// that drops lapsed locks every interval.
func NewLockManager(interval time.Duration) *LockManager {
	lm := &LockManager{
		locks: make(map[string]*lockEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if interval <= 0 {
		interval = time.Second
	}
	go lm.sweep(interval)
	return lm
}

// AcquireLock takes key for ttl. It returns false, without error, when the
// key is held and has not lapsed.
func (lm *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := lm.now()
	if entry, exists := lm.locks[key]; exists && now.Before(entry.expiresAt) {
		return false, nil
	}
	lm.locks[key] = &lockEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

func (lm *LockManager) ReleaseLock(ctx context.Context, key string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	delete(lm.locks, key)
	return nil
}

func (lm *LockManager) IsLocked(ctx context.Context, key string) (bool, error) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	entry, exists := lm.locks[key]
	return exists && lm.now().Before(entry.expiresAt), nil
}

// Go Learning Note — time.NewTicker and select:
// The ticker fires every interval until stopped; select waits on either the
// tick or the stop signal. Deleting map keys inside a range loop is safe.
func (lm *LockManager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lm.mu.Lock()
			now := lm.now()
			for key, entry := range lm.locks {
				if !now.Before(entry.expiresAt) {
					delete(lm.locks, key)
				}
			}
			lm.mu.Unlock()
		case <-lm.stop:
			return
		}
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (lm *LockManager) Stop() {
	lm.once.Do(func() { close(lm.stop) })
}
