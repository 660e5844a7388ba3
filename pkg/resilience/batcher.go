package resilience

import (
	"sync"
	"time"
)

// BatchFlushFunc processes one flushed batch of items.
type BatchFlushFunc[T any] func(items []T)

// AdaptiveBatcher buffers items in a single buffer and flushes on size, timeout,
// or explicit request (spec §4.1). After each flush it nudges
// currentBatchSize toward targetProcessingTimeMs, clamped to [min, max].
type AdaptiveBatcher[T any] struct {
	mu               sync.Mutex
	buffer           []T
	firstEnqueuedAt  time.Time
	currentBatchSize int

	minBatchSize, maxBatchSize int
	targetProcessingTimeMs     float64
	adaptationFactor           float64
	timeout                    time.Duration

	flush      BatchFlushFunc[T]
	inflight   chan struct{} // capacity = concurrent flush cap
	timer      *time.Timer
	timerOnce  sync.Once
	stopCh     chan struct{}
}

// BatcherConfig tunes one AdaptiveBatcher instance.
type BatcherConfig struct {
	InitialBatchSize       int
	MinBatchSize           int
	MaxBatchSize           int
	TargetProcessingTimeMs float64
	AdaptationFactor       float64
	Timeout                time.Duration
	MaxConcurrentFlushes   int
}

// NewAdaptiveBatcher creates a batcher that calls flush for each completed batch.
func NewAdaptiveBatcher[T any](cfg BatcherConfig, flush BatchFlushFunc[T]) *AdaptiveBatcher[T] {
	if cfg.MaxConcurrentFlushes < 1 {
		cfg.MaxConcurrentFlushes = 1
	}
	return &AdaptiveBatcher[T]{
		currentBatchSize: cfg.InitialBatchSize,
		minBatchSize:     cfg.MinBatchSize,
		maxBatchSize:     cfg.MaxBatchSize,
		targetProcessingTimeMs: cfg.TargetProcessingTimeMs,
		adaptationFactor:       cfg.AdaptationFactor,
		timeout:                cfg.Timeout,
		flush:                  flush,
		inflight:               make(chan struct{}, cfg.MaxConcurrentFlushes),
		stopCh:                 make(chan struct{}),
	}
}

// Enqueue adds an item to the buffer, flushing if the size trigger fires.
func (b *AdaptiveBatcher[T]) Enqueue(item T) {
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.firstEnqueuedAt = time.Now()
		b.armTimer()
	}
	b.buffer = append(b.buffer, item)
	shouldFlush := len(b.buffer) >= b.currentBatchSize
	b.mu.Unlock()

	if shouldFlush {
		b.Flush()
	}
}

func (b *AdaptiveBatcher[T]) armTimer() {
	if b.timeout <= 0 {
		return
	}
	t := time.AfterFunc(b.timeout, b.Flush)
	b.timer = t
}

// Flush drains the buffer and processes it (concurrently, up to the
// configured cap; excess flushes block until a slot frees, i.e. they queue).
func (b *AdaptiveBatcher[T]) Flush() {
	b.mu.Lock()
	if len(b.buffer) == 0 {
		b.mu.Unlock()
		return
	}
	items := b.buffer
	b.buffer = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.inflight <- struct{}{}
	defer func() { <-b.inflight }()

	start := time.Now()
	b.flush(items)
	elapsedMs := float64(time.Since(start).Milliseconds())
	b.adapt(elapsedMs)
}

// adapt nudges currentBatchSize toward the configured target, clamped.
func (b *AdaptiveBatcher[T]) adapt(elapsedMs float64) {
	if b.targetProcessingTimeMs <= 0 || elapsedMs <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ratio := b.targetProcessingTimeMs / elapsedMs
	adjusted := float64(b.currentBatchSize) * (1 + (ratio-1)*b.adaptationFactor)
	next := int(adjusted)
	if next < b.minBatchSize {
		next = b.minBatchSize
	}
	if next > b.maxBatchSize {
		next = b.maxBatchSize
	}
	if next > 0 {
		b.currentBatchSize = next
	}
}

// CurrentBatchSize exposes the live batch size for metrics/tests.
func (b *AdaptiveBatcher[T]) CurrentBatchSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentBatchSize
}
