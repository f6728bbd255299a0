package entities

import (
	"sync"
	"testing"
)

func TestSession_Claim(t *testing.T) {
	s := NewSeededSession("s", 1)

	if !s.Claim("Gukbap") {
		t.Fatal("first claim should succeed")
	}
	if s.Claim("Gukbap") {
		t.Error("second claim of the same name should fail")
	}
	if !s.HasVisited("Gukbap") {
		t.Error("claimed name not visited")
	}

	s.Reset()
	if !s.Claim("Gukbap") {
		t.Error("claim after reset should succeed")
	}
}

func TestSession_ClaimConcurrent(t *testing.T) {
	s := NewSeededSession("s", 1)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Claim("Naengmyeon") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("%d goroutines claimed the same name, want 1", wins)
	}
	if got := s.Visited(); len(got) != 1 {
		t.Errorf("Visited() = %v", got)
	}
}
