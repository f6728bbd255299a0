package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tripreco/internal/domain/entities"
)

var ErrSessionNotFound = errors.New("session not found")

// sessionEntry is a stored session and when it was last used, in unix
// nanoseconds. lastSeen is atomic so the read-locked fast path can refresh it.
type sessionEntry struct {
	session  *entities.Session
	lastSeen atomic.Int64
}

// SessionRepository keeps recommendation sessions in memory. Sessions are
// created lazily on first use and, once Expire is called, dropped after
// being idle for the configured TTL.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	newFn    func(id string) *entities.Session
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*sessionEntry),
		newFn:    entities.NewSession,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// NewSeededSessionRepository creates sessions with a fixed seed so weighted
// draws are reproducible.
func NewSeededSessionRepository(seed int64) *SessionRepository {
	r := NewSessionRepository()
	r.newFn = func(id string) *entities.Session {
		return entities.NewSeededSession(id, seed)
	}
	return r
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	entry.lastSeen.Store(r.now().UnixNano())
	return entry.session, nil
}

// GetOrCreate returns the session for id, creating it if needed.
//
// Go Learning Note — Double-Checked Locking:
// The fast path takes only the read lock. On a miss the write lock is taken
// and the map is checked again, because another goroutine may have created
// the session between the two locks.
func (r *SessionRepository) GetOrCreate(ctx context.Context, id string) (*entities.Session, error) {
	now := r.now().UnixNano()

	r.mu.RLock()
	entry, exists := r.sessions[id]
	if exists {
		entry.lastSeen.Store(now)
	}
	r.mu.RUnlock()
	if exists {
		return entry.session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.sessions[id]; exists {
		entry.lastSeen.Store(now)
		return entry.session, nil
	}
	entry = &sessionEntry{session: r.newFn(id)}
	entry.lastSeen.Store(now)
	r.sessions[id] = entry
	return entry.session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (r *SessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Expire starts a sweeper that drops sessions idle for longer than ttl,
// checking every interval. Call it at most once; Stop ends it.
func (r *SessionRepository) Expire(ttl, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go r.sweep(ttl, interval)
}

func (r *SessionRepository) sweep(ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle(ttl)
		case <-r.stop:
			return
		}
	}
}

// evictIdle drops every session not used within ttl and returns how many
// were dropped.
func (r *SessionRepository) evictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl).UnixNano()
	evicted := 0
	for id, entry := range r.sessions {
		if entry.lastSeen.Load() < cutoff {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Stop ends the sweeper. It is safe to call more than once.
func (r *SessionRepository) Stop() {
	r.once.Do(func() { close(r.stop) })
}
