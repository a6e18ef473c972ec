package handlers

import (
	"sync"
	"testing"
	"time"
)

func TestNewRateLimiter(t *testing.T) {
	limit := 5
	window := 1 * time.Second
	rl := NewRateLimiter(limit, window)
	defer rl.Stop()

	if rl.limit != limit {
		t.Errorf("Expected limit %d, got %d", limit, rl.limit)
	}
	if rl.window != window {
		t.Errorf("Expected window %v, got %v", window, rl.window)
	}
	if rl.attempts == nil {
		t.Error("Expected attempts map to be initialized, got nil")
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		attempts []string // client keys
		expected []bool
	}{
		{
			name:     "Within limit",
			limit:    2,
			attempts: []string{"10.0.0.1", "10.0.0.1"},
			expected: []bool{true, true},
		},
		{
			name:     "Exceed limit",
			limit:    1,
			attempts: []string{"10.0.0.1", "10.0.0.1"},
			expected: []bool{true, false},
		},
		{
			name:     "Separate keys",
			limit:    1,
			attempts: []string{"10.0.0.1", "10.0.0.2"},
			expected: []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.limit, 1*time.Second)
			defer rl.Stop()
			for i, key := range tt.attempts {
				got := rl.Allow(key)
				if got != tt.expected[i] {
					t.Errorf("Attempt %d for %s: expected %v, got %v", i+1, key, tt.expected[i], got)
				}
			}
		})
	}
}

func TestRateLimiter_ResetsEachWindow(t *testing.T) {
	rl := NewRateLimiter(1, 100*time.Millisecond)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.mutex.Lock()
	if len(rl.attempts) != 2 {
		t.Errorf("Expected 2 keys in attempts, got %d", len(rl.attempts))
	}
	rl.mutex.Unlock()

	time.Sleep(250 * time.Millisecond)

	rl.mutex.Lock()
	if len(rl.attempts) != 0 {
		t.Errorf("Expected attempts to be reset, got %d", len(rl.attempts))
	}
	rl.mutex.Unlock()

	if !rl.Allow("10.0.0.1") {
		t.Error("Expected key to be allowed again after reset")
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(3, 1*time.Second)
	defer rl.Stop()
	var wg sync.WaitGroup
	results := make([]bool, 10)

	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = rl.Allow("10.0.0.1")
		}(i)
	}
	wg.Wait()

	allowed := 0
	for _, ok := range results {
		if ok {
			allowed++
		}
	}
	if allowed != rl.limit {
		t.Errorf("Expected exactly %d allowed attempts, got %d", rl.limit, allowed)
	}
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}
