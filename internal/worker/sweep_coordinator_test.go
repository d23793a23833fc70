package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockSweepable counts sweep calls for coordinator tests.
type mockSweepable struct {
	mu      sync.Mutex
	calls   int
	removed int
}

func (m *mockSweepable) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.removed
}

func (m *mockSweepable) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestSweepCoordinator_SweepsAllCaches(t *testing.T) {
	contexts := &mockSweepable{removed: 3}
	recommendations := &mockSweepable{removed: 1}
	coordinator := NewSweepCoordinator(map[string]Sweepable{
		"contexts":        contexts,
		"recommendations": recommendations,
	}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for contexts.getCalls() == 0 || recommendations.getCalls() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for sweep cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop after context cancellation")
	}
}

func TestSweepCoordinator_StopsBeforeFirstTick(t *testing.T) {
	cache := &mockSweepable{}
	coordinator := NewSweepCoordinator(map[string]Sweepable{"contexts": cache}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop")
	}
	if cache.getCalls() != 0 {
		t.Errorf("sweep calls = %d before first tick, want 0", cache.getCalls())
	}
}
