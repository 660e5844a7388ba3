package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestAdaptiveBatcherFlushesOnSize(t *testing.T) {
	var mu sync.Mutex
	var flushed [][]int

	b := NewAdaptiveBatcher(BatcherConfig{
		InitialBatchSize: 3,
		MinBatchSize:     1,
		MaxBatchSize:     10,
		MaxConcurrentFlushes: 1,
	}, func(items []int) {
		mu.Lock()
		defer mu.Unlock()
		cp := append([]int(nil), items...)
		flushed = append(flushed, cp)
	})

	for i := 0; i < 3; i++ {
		b.Enqueue(i)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 1 || len(flushed[0]) != 3 {
		t.Fatalf("expected one flush of 3 items, got %+v", flushed)
	}
}

func TestAdaptiveBatcherFlushesOnTimeout(t *testing.T) {
	done := make(chan []int, 1)
	b := NewAdaptiveBatcher(BatcherConfig{
		InitialBatchSize:     100,
		MinBatchSize:         1,
		MaxBatchSize:         200,
		Timeout:              5 * time.Millisecond,
		MaxConcurrentFlushes: 1,
	}, func(items []int) {
		done <- items
	})

	b.Enqueue(42)

	select {
	case items := <-done:
		if len(items) != 1 || items[0] != 42 {
			t.Fatalf("unexpected flush payload: %+v", items)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for timer-triggered flush")
	}
}

func TestAdaptiveBatcherAdaptsTowardTarget(t *testing.T) {
	b := NewAdaptiveBatcher(BatcherConfig{
		InitialBatchSize:       10,
		MinBatchSize:           1,
		MaxBatchSize:           100,
		TargetProcessingTimeMs: 100,
		AdaptationFactor:       1.0,
		MaxConcurrentFlushes:   1,
	}, func(items []int) {
		time.Sleep(10 * time.Millisecond) // much faster than target -> batch should grow
	})

	for i := 0; i < 10; i++ {
		b.Enqueue(i)
	}

	if got := b.CurrentBatchSize(); got <= 10 {
		t.Fatalf("expected batch size to grow past 10 toward target, got %d", got)
	}
}
