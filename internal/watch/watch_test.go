package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunTriggersOnChangeAndStopsOnCancel(t *testing.T) {
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, root, func(ctx context.Context) {
			atomic.AddInt32(&calls, 1)
		})
	}()

	// Give the watcher a moment to register the root directory before
	// producing an event for it to see.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(root, "new.txt"), []byte("data"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("onChange was never called")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
