package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestFileWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "applications.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	w := NewFileWatcher(path, 20*time.Millisecond)
	go func() {
		done <- w.Run(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// Other files in the directory are ignored; keep writing the target
	// until the watcher has registered.
	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-changed:
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			return
		case <-tick.C:
			_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0o644)
			_ = os.WriteFile(path, []byte(`[{"artifact_name":"1-a.pdf"}]`), 0o644)
		case <-deadline:
			t.Fatalf("no change reported")
		}
	}
}

func TestRelevantOps(t *testing.T) {
	testCases := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{name: "chmod only", op: fsnotify.Chmod, want: false},
		{name: "write", op: fsnotify.Write, want: true},
		{name: "rename", op: fsnotify.Rename, want: true},
		{name: "create with chmod", op: fsnotify.Create | fsnotify.Chmod, want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := relevant(tc.op); got != tc.want {
				t.Fatalf("relevant(%v) = %v, want %v", tc.op, got, tc.want)
			}
		})
	}
}
