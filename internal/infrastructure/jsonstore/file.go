// Package jsonstore persists collections as a single pretty-printed JSON
// array per file.
//
// Every mutation is load, change, save of the whole file with no lock held
// in between. Concurrent writers (the intake server and a bot, or two
// operators) race and the last save wins.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
)

var errMalformed = errors.New("store file is not a JSON array")

// snapshot is a decoded store file. skipped lists elements that could not be
// decoded; their raw text is still on disk.
type snapshot[T any] struct {
	items   []T
	skipped []skippedElement
}

type skippedElement struct {
	index int
	err   error
}

// readArray decodes path element by element so one bad entry never hides
// the rest. A missing or blank file is an empty snapshot; a file that is not
// a JSON array returns errMalformed.
func readArray[T any](path string) (snapshot[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot[T]{items: []T{}}, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return snapshot[T]{items: []T{}}, nil
	}
	if trimmed[0] != '[' {
		return snapshot[T]{items: []T{}}, errMalformed
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return snapshot[T]{items: []T{}}, errors.Join(errMalformed, err)
	}

	snap := snapshot[T]{items: make([]T, 0, len(elements))}
	for i, element := range elements {
		if bytes.Equal(bytes.TrimSpace(element), []byte("null")) {
			continue
		}
		var item T
		if err := json.Unmarshal(element, &item); err != nil {
			snap.skipped = append(snap.skipped, skippedElement{index: i, err: err})
			continue
		}
		snap.items = append(snap.items, item)
	}
	return snap, nil
}

func loadArray[T any](ctx context.Context, path string) []T {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "jsonstore"), slog.String("path", path))

	snap, err := readArray[T](path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logging.Info(logCtx, "store file not found, treating as empty")
	case errors.Is(err, errMalformed):
		logging.Warn(logCtx, "store file is malformed, treating as empty", slog.Any("err", errs.Loggable(err)))
	case err != nil:
		logging.Error(logCtx, "read store file failed, treating as empty", slog.Any("err", errs.Loggable(err)))
	}
	for _, skipped := range snap.skipped {
		logging.Warn(logCtx, "store entry unreadable, skipped",
			slog.Int("index", skipped.index),
			slog.Any("err", errs.Loggable(skipped.err)),
		)
	}
	return snap.items
}

// saveArray refuses to overwrite a file that holds entries it cannot decode,
// since the caller's collection was loaded without them.
func saveArray[T any](ctx context.Context, path string, items []T) bool {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "jsonstore"), slog.String("path", path))

	if current, err := readArray[T](path); err == nil && len(current.skipped) > 0 {
		logging.Error(logCtx, "store file has unreadable entries, refusing to overwrite",
			slog.Int("unreadable", len(current.skipped)),
			slog.Int("first_index", current.skipped[0].index),
		)
		return false
	}

	if err := writeArray(path, items); err != nil {
		logging.Error(logCtx, "save store file failed", slog.Any("err", errs.Loggable(err)))
		return false
	}
	logging.Info(logCtx, "store file saved", slog.Int("count", len(items)))
	return true
}

// writeArray replaces path through a temp file in the same directory so a
// crash mid-write never leaves a truncated array behind.
func writeArray[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return errs.Wrap(err, "encode store")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create store directory %q", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(fileMode(path)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errs.Wrap(err, "set temp file mode")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errs.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errs.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errs.Wrap(err, "replace store file")
	}
	return nil
}

const defaultFileMode fs.FileMode = 0o644

// fileMode is the permission the replaced file had, so other processes
// keep their read access after a save.
func fileMode(path string) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return defaultFileMode
	}
	return info.Mode().Perm()
}
