package entities

import (
	"math/rand"
	"sync"
	"time"
)

// Session holds the per-user state that survives between requests: the set
// of already-recommended restaurant names and the random source used for
// weighted draws.
//
// Go Learning Note — Mutex Embedded in a Value:
// The mutex guards both the visited set and rng; *rand.Rand is not safe for
// concurrent use. A Session must never be copied after first use, which is
// why every method has a pointer receiver.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	visited map[string]struct{}
	order   []string
	rng     *rand.Rand
}

// NewSession creates an empty session seeded from the clock.
func NewSession(id string) *Session {
	return NewSeededSession(id, time.Now().UnixNano())
}

// NewSeededSession creates a session whose draws are reproducible.
func NewSeededSession(id string, seed int64) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		visited:   make(map[string]struct{}),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// HasVisited reports whether name was already recommended.
func (s *Session) HasVisited(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[name]
	return ok
}

// Claim adds name to the visited set and reports whether it was free.
// Check and insert happen under one lock, so two concurrent draws on the
// same session can never both get the same name.
func (s *Session) Claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[name]; ok {
		return false
	}
	s.visited[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

// Visited returns the visited names in insertion order.
func (s *Session) Visited() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// VisitedSnapshot returns a copy of the visited set for filtering.
func (s *Session) VisitedSnapshot() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.visited))
	for k := range s.visited {
		out[k] = struct{}{}
	}
	return out
}

// Float64 draws from the session's random source in [0, 1).
func (s *Session) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Reset clears the visited set.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = make(map[string]struct{})
	s.order = nil
}
