// Package watch reports writes to a single store file.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
)

const DefaultDebounce = 250 * time.Millisecond

// FileWatcher watches the directory holding path, because the stores
// replace the file by rename and a watch on the file itself would be lost.
type FileWatcher struct {
	path     string
	debounce time.Duration
}

func NewFileWatcher(path string, debounce time.Duration) *FileWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{path: path, debounce: debounce}
}

// Run calls onChange once per burst of events touching the file and blocks
// until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context, onChange func()) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return errs.Wrapf(err, "resolve %s", w.path)
	}
	ctx = logging.WithAttrs(ctx, slog.String("component", "watch"), slog.String("path", abs))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errs.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	logging.Debug(ctx, "watching store file")

	var (
		timer  *time.Timer
		firing <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || !relevant(event.Op) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				firing = timer.C
			}
		case <-firing:
			timer, firing = nil, nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn(ctx, "watcher error", slog.Any("err", errs.Loggable(err)))
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename) || op.Has(fsnotify.Remove)
}
