package markers_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/markers"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestRefreshWithinIntervalDropped(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	manager := markers.NewManager[string]("test", time.Hour, nil, nil)
	fetch := func(_ context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}

	if !manager.Refresh(context.Background(), fetch) {
		t.Error("expected first refresh to be accepted")
	}
	if manager.Refresh(context.Background(), fetch) {
		t.Error("expected second refresh within the interval to be dropped")
	}

	manager.Close()
	if calls.Load() != 1 {
		t.Errorf("expected exactly one fetch, got %d", calls.Load())
	}
}

func TestRefreshAfterIntervalAccepted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	manager := markers.NewManager[string]("test", 10*time.Millisecond, nil, nil)
	fetch := func(_ context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a"}, nil
	}

	if !manager.Refresh(context.Background(), fetch) {
		t.Error("expected first refresh to be accepted")
	}
	time.Sleep(20 * time.Millisecond)
	if !manager.Refresh(context.Background(), fetch) {
		t.Error("expected refresh after the interval to be accepted")
	}

	manager.Close()
	if calls.Load() != 2 {
		t.Errorf("expected two fetches, got %d", calls.Load())
	}
}

func TestSupersededFetchNeverApplies(t *testing.T) {
	t.Parallel()

	manager := markers.NewManager[string]("test", 0, nil, nil)

	// The first fetch only resolves once it has been aborted by the
	// second, and must not land its result.
	slow := func(ctx context.Context) ([]string, error) {
		<-ctx.Done()
		return []string{"stale"}, nil
	}
	fast := func(_ context.Context) ([]string, error) {
		return []string{"fresh"}, nil
	}

	if !manager.Refresh(context.Background(), slow) {
		t.Fatal("expected first refresh to be accepted")
	}
	time.Sleep(time.Millisecond)
	if !manager.Refresh(context.Background(), fast) {
		t.Fatal("expected second refresh to be accepted")
	}

	waitFor(t, func() bool {
		snapshot := manager.Snapshot()
		return len(snapshot.Items) == 1 && snapshot.Items[0] == "fresh"
	})
	manager.Close()

	snapshot := manager.Snapshot()
	if len(snapshot.Items) != 1 || snapshot.Items[0] != "fresh" {
		t.Errorf("expected only the fresh result, got %v", snapshot.Items)
	}
}

func TestRefreshSurvivesCallerCancel(t *testing.T) {
	t.Parallel()

	manager := markers.NewManager[string]("test", 0, nil, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]string, error) {
		close(started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return []string{"a"}, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if !manager.Refresh(ctx, fetch) {
		t.Fatal("expected refresh to be accepted")
	}
	<-started
	// The caller goes away mid-flight; the fetch keeps running
	cancel()
	close(release)

	waitFor(t, func() bool {
		return len(manager.Snapshot().Items) == 1
	})
	manager.Close()
	if manager.Snapshot().Items[0] != "a" {
		t.Errorf("unexpected snapshot: %v", manager.Snapshot().Items)
	}
}

func TestRateLimitShiftsThrottleWindow(t *testing.T) {
	t.Parallel()

	manager := markers.NewManager[string]("test", 0, nil, nil)
	limited := func(_ context.Context) ([]string, error) {
		return nil, &api.HTTPError{Status: 429}
	}

	if !manager.Refresh(context.Background(), limited) {
		t.Fatal("expected first refresh to be accepted")
	}
	waitFor(t, func() bool {
		return manager.LastError() != nil
	})

	if manager.Refresh(context.Background(), limited) {
		t.Error("expected refresh during the rate-limit penalty to be dropped")
	}
	manager.Close()
}

func TestFailureKeepsOldSnapshot(t *testing.T) {
	t.Parallel()

	manager := markers.NewManager[string]("test", 0, nil, nil)
	if !manager.Refresh(context.Background(), func(_ context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}) {
		t.Fatal("expected refresh to be accepted")
	}
	waitFor(t, func() bool {
		return len(manager.Snapshot().Items) == 2
	})

	time.Sleep(time.Millisecond)
	if !manager.Refresh(context.Background(), func(_ context.Context) ([]string, error) {
		return nil, &api.HTTPError{Status: 500}
	}) {
		t.Fatal("expected refresh to be accepted")
	}
	waitFor(t, func() bool {
		return manager.LastError() != nil
	})

	snapshot := manager.Snapshot()
	if len(snapshot.Items) != 2 {
		t.Errorf("expected the previous snapshot to survive a failed fetch, got %v", snapshot.Items)
	}
	manager.Close()
}

func TestClearEmptiesSnapshot(t *testing.T) {
	t.Parallel()

	manager := markers.NewManager[string]("test", 0, nil, nil)
	if !manager.Refresh(context.Background(), func(_ context.Context) ([]string, error) {
		return []string{"a"}, nil
	}) {
		t.Fatal("expected refresh to be accepted")
	}
	waitFor(t, func() bool {
		return len(manager.Snapshot().Items) == 1
	})

	manager.Clear()
	if len(manager.Snapshot().Items) != 0 {
		t.Error("expected an empty snapshot after clear")
	}
	manager.Close()
}

func TestRefreshAfterCloseRejected(t *testing.T) {
	t.Parallel()

	manager := markers.NewManager[string]("test", 0, nil, nil)
	manager.Close()
	if manager.Refresh(context.Background(), func(_ context.Context) ([]string, error) {
		return []string{"a"}, nil
	}) {
		t.Error("expected refresh after close to be rejected")
	}
}
