package nav

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNoFix is returned by a position source that has nothing yet.
var ErrNoFix = errors.New("no position fix")

type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
}

// PositionSource is where the tracker reads fixes from.
type PositionSource interface {
	Position(ctx context.Context) (Fix, error)
}

// Mailbox is a PositionSource fed by the UI. It holds only the most
// recent fix; older ones are overwritten, never queued.
type Mailbox struct {
	mu  sync.Mutex
	fix Fix
	has bool
}

func NewMailbox() *Mailbox {
	return &Mailbox{}
}

func (m *Mailbox) Publish(fix Fix) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fix = fix
	m.has = true
}

func (m *Mailbox) Position(_ context.Context) (Fix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return Fix{}, ErrNoFix
	}
	return m.fix, nil
}

const positionTimeout = 10 * time.Second

// Tracker polls the position source on a backoff schedule. Polling is
// a battery and quota trade-off, so the interval stretches after a run
// of consecutive polls instead of staying fixed.
type Tracker struct {
	source       PositionSource
	engine       *Engine
	baseInterval time.Duration
	maxInterval  time.Duration
	backoffAfter int

	mu       sync.Mutex
	interval time.Duration
	polls    int
}

func NewTracker(source PositionSource, engine *Engine, base, max time.Duration, backoffAfter int) *Tracker {
	return &Tracker{
		source:       source,
		engine:       engine,
		baseInterval: base,
		maxInterval:  max,
		backoffAfter: backoffAfter,
		interval:     base,
	}
}

// Reset snaps the schedule back to the base interval, used when the UI
// becomes active again.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = t.baseInterval
	t.polls = 0
}

func (t *Tracker) nextInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.polls++
	if t.polls >= t.backoffAfter {
		t.interval = time.Duration(float64(t.interval) * 1.5)
		if t.interval > t.maxInterval {
			t.interval = t.maxInterval
		}
	}
	return t.interval
}

// Run polls until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	timer := time.NewTimer(t.baseInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		t.poll(ctx)
		timer.Reset(t.nextInterval())
	}
}

func (t *Tracker) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, positionTimeout)
	defer cancel()

	fix, err := t.source.Position(pollCtx)
	if err != nil {
		// Position loss degrades tracking, nothing else.
		if !errors.Is(err, ErrNoFix) {
			slog.Debug("Position poll failed", "error", err)
		}
		return
	}
	t.engine.HandleFix(ctx, fix)
}
