package artifact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

// GCSStore keeps artifacts as objects under prefix in a Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ ports.ArtifactStore = (*GCSStore)(nil)

func NewGCSStore(client *storage.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}
}

func (s *GCSStore) objectName(name string) string {
	return path.Join(s.prefix, name)
}

// Put only creates new objects; an existing name yields ErrArtifactExists.
func (s *GCSStore) Put(ctx context.Context, name string, r io.Reader) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	object := s.objectName(name)
	writer := s.client.Bucket(s.bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return errs.Wrapf(err, "upload object %q", object)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return errs.Wrapf(ports.ErrArtifactExists, "object %q", object)
		}
		return errs.Wrapf(err, "finalize object %q", object)
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "artifact.gcs")),
		"artifact stored",
		slog.String("bucket", s.bucket),
		slog.String("object", object),
	)
	return nil
}

func (s *GCSStore) Get(ctx context.Context, name string) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	object := s.objectName(name)
	reader, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, errs.Wrapf(application.ErrArtifactNotFound, "object %q", object)
		}
		return nil, errs.Wrapf(err, "open object %q", object)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errs.Wrapf(err, "read object %q", object)
	}
	return data, nil
}
