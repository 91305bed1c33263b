package markers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/events"
	"github.com/supmap/navd/internal/metrics"
)

// rateLimitPenalty holds refreshes back after the backend returns 429.
const rateLimitPenalty = 60 * time.Second

// Snapshot is an immutable marker set. Consumers hold it without
// locking; managers only ever replace it wholesale.
type Snapshot[T any] struct {
	Seq   uint64    `json:"seq"`
	Items []T       `json:"items"`
	At    time.Time `json:"at"`
}

type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Manager owns one marker layer. Each accepted refresh runs as a
// single in-flight fetch; a newer refresh cancels the older one, and a
// superseded fetch never publishes its result.
type Manager[T any] struct {
	name        string
	minInterval time.Duration
	metrics     *metrics.Metrics
	bus         *events.EventBus

	mu          sync.Mutex
	nextAllowed time.Time
	seq         uint64
	cancel      context.CancelFunc
	snapshot    Snapshot[T]
	lastErr     error
	closed      bool
	wg          sync.WaitGroup
}

func NewManager[T any](name string, minInterval time.Duration, metrics *metrics.Metrics, bus *events.EventBus) *Manager[T] {
	return &Manager[T]{
		name:        name,
		minInterval: minInterval,
		metrics:     metrics,
		bus:         bus,
	}
}

func (m *Manager[T]) Name() string {
	return m.name
}

// Refresh starts a fetch unless the throttle window is still open.
// The returned bool reports whether the fetch was accepted; a rejected
// refresh is dropped, not queued.
func (m *Manager[T]) Refresh(ctx context.Context, fetch FetchFunc[T]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	now := time.Now()
	if now.Before(m.nextAllowed) {
		if m.metrics != nil {
			m.metrics.IncrementThrottledFetches(m.name)
		}
		return false
	}
	m.nextAllowed = now.Add(m.minInterval)

	if m.cancel != nil {
		m.cancel()
	}
	m.seq++
	seq := m.seq

	// The fetch outlives the caller: an HTTP handler returning must not
	// abort it. Only a newer refresh, Clear, or Close cancels.
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel

	m.wg.Add(1)
	go m.run(fetchCtx, seq, fetch)
	return true
}

func (m *Manager[T]) run(ctx context.Context, seq uint64, fetch FetchFunc[T]) {
	defer m.wg.Done()

	items, err := fetch(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A newer refresh or Clear took over while we were in flight.
	if m.closed || seq != m.seq {
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		m.lastErr = err
		if api.IsRateLimited(err) {
			m.nextAllowed = time.Now().Add(rateLimitPenalty)
			if m.metrics != nil {
				m.metrics.IncrementMarkerFetches(m.name, "rate_limited")
			}
			slog.Warn("Marker fetch rate limited", "manager", m.name, "penalty", rateLimitPenalty)
			return
		}
		if m.metrics != nil {
			m.metrics.IncrementMarkerFetches(m.name, "error")
		}
		slog.Error("Marker fetch failed", "manager", m.name, "error", err)
		return
	}

	m.lastErr = nil
	m.snapshot = Snapshot[T]{Seq: seq, Items: items, At: time.Now()}
	if m.metrics != nil {
		m.metrics.IncrementMarkerFetches(m.name, "ok")
		m.metrics.SetLiveMarkers(m.name, len(items))
	}
	if m.bus != nil {
		m.bus.Publish(events.MarkersEvent{Source: m.name, Count: len(items), Seq: seq})
	}
}

// Snapshot returns the current marker set. The items slice must be
// treated as read-only.
func (m *Manager[T]) Snapshot() Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *Manager[T]) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Clear cancels any in-flight fetch and replaces the snapshot with an
// empty set. The throttle window is left untouched.
func (m *Manager[T]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.seq++
	m.snapshot = Snapshot[T]{Seq: m.seq, At: time.Now()}
	if m.metrics != nil {
		m.metrics.SetLiveMarkers(m.name, 0)
	}
	if m.bus != nil {
		m.bus.Publish(events.MarkersEvent{Source: m.name, Count: 0, Seq: m.seq})
	}
}

// Close cancels any in-flight fetch and waits for it to drain. The
// manager accepts no refreshes afterwards.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	m.closed = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}
