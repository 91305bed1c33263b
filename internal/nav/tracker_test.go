package nav

import (
	"context"
	"testing"
	"time"
)

func TestMailboxKeepsLatestFix(t *testing.T) {
	t.Parallel()

	mailbox := NewMailbox()
	if _, err := mailbox.Position(context.Background()); err != ErrNoFix {
		t.Errorf("unexpected error: %v", err)
	}

	mailbox.Publish(Fix{Latitude: 1, Longitude: 1})
	mailbox.Publish(Fix{Latitude: 2, Longitude: 2})
	fix, err := mailbox.Position(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fix.Latitude != 2 {
		t.Errorf("expected the latest fix, got %f", fix.Latitude)
	}
}

func TestTrackerBackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(NewMailbox(), nil, 3*time.Minute, 10*time.Minute, 5)

	// Before the threshold the interval stays at base
	for i := 0; i < 4; i++ {
		if got := tracker.nextInterval(); got != 3*time.Minute {
			t.Errorf("poll %d: unexpected interval %s", i+1, got)
		}
	}

	// From the threshold on it stretches by half each poll
	if got := tracker.nextInterval(); got != 270*time.Second {
		t.Errorf("unexpected interval after threshold: %s", got)
	}
	if got := tracker.nextInterval(); got != 405*time.Second {
		t.Errorf("unexpected second stretched interval: %s", got)
	}

	// And never exceeds the cap
	for i := 0; i < 10; i++ {
		tracker.nextInterval()
	}
	if got := tracker.nextInterval(); got != 10*time.Minute {
		t.Errorf("expected the interval capped at 10m, got %s", got)
	}
}

func TestTrackerResetSnapsToBase(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(NewMailbox(), nil, 3*time.Minute, 10*time.Minute, 3)
	for i := 0; i < 5; i++ {
		tracker.nextInterval()
	}
	tracker.Reset()
	if got := tracker.nextInterval(); got != 3*time.Minute {
		t.Errorf("expected the base interval after reset, got %s", got)
	}
}

func TestTrackerRunDeliversFixes(t *testing.T) {
	t.Parallel()

	mailbox := NewMailbox()
	mailbox.Publish(Fix{Latitude: 48.85, Longitude: 2.29, At: time.Now()})
	engine := NewEngine(EngineParams{SettlingDelay: time.Millisecond})
	tracker := NewTracker(mailbox, engine, time.Millisecond, time.Second, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = tracker.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := engine.LastFix(); ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	fix, ok := engine.LastFix()
	if !ok {
		t.Fatal("expected the tracker to deliver the fix")
	}
	if fix.Latitude != 48.85 {
		t.Errorf("unexpected fix: %f", fix.Latitude)
	}
}
