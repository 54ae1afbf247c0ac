package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_NewDailyNoteTriggers(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var triggers atomic.Int32
	go func() {
		_ = Watch(ctx, dir, ".md", 50*time.Millisecond, testLogger(), func() {
			triggers.Add(1)
		})
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "2023-01-15.md"), []byte("# A\nx\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return triggers.Load() >= 1
	}, "new daily note did not trigger a run")
}

func TestWatch_IgnoresNonDailyFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var triggers atomic.Int32
	go func() {
		_ = Watch(ctx, dir, ".md", 50*time.Millisecond, testLogger(), func() {
			triggers.Add(1)
		})
	}()

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "2023-01-15.txt"), []byte("x"), 0o644)

	time.Sleep(300 * time.Millisecond)
	if n := triggers.Load(); n != 0 {
		t.Errorf("triggers = %d, want 0", n)
	}
}

func TestWatch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var triggers atomic.Int32
	go func() {
		_ = Watch(ctx, dir, ".md", 150*time.Millisecond, testLogger(), func() {
			triggers.Add(1)
		})
	}()

	time.Sleep(100 * time.Millisecond)

	// A burst of writes within the debounce window.
	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(dir, "2023-01-15.md"), []byte("# A\nx\n"), 0o644)
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return triggers.Load() >= 1
	}, "burst did not trigger a run")

	// Settle and check it collapsed to a single trigger.
	time.Sleep(400 * time.Millisecond)
	if n := triggers.Load(); n != 1 {
		t.Errorf("triggers = %d, want 1 (debounced)", n)
	}
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, ".md", 50*time.Millisecond, testLogger(), func() {})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
