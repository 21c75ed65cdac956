package artifact

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

// LocalStore keeps artifacts as plain files in one directory.
type LocalStore struct {
	dir string
}

var _ ports.ArtifactStore = (*LocalStore)(nil)

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	path, err := s.pathFor(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errs.Wrapf(err, "create upload directory %q", s.dir)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errs.Wrapf(ports.ErrArtifactExists, "artifact %q", name)
		}
		return errs.Wrap(err, "create artifact file")
	}

	written, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(path)
		if copyErr != nil {
			return errs.Wrap(copyErr, "write artifact file")
		}
		return errs.Wrap(closeErr, "close artifact file")
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "artifact.local")),
		"artifact stored",
		slog.String("artifact_name", name),
		slog.Int64("bytes", written),
	)
	return nil
}

func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrapf(application.ErrArtifactNotFound, "artifact %q", name)
		}
		return nil, errs.Wrap(err, "read artifact file")
	}
	return data, nil
}

// pathFor refuses names that would escape the upload directory.
func (s *LocalStore) pathFor(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errs.Wrapf(application.ErrArtifactNotFound, "invalid artifact name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
