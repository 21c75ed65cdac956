package pdfinfo

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

var ErrNotPDF = errors.New("not a pdf document")

// Inspector reads page counts from PDF uploads with pdfcpu.
type Inspector struct{}

var _ ports.DocumentInspector = Inspector{}

func NewInspector() Inspector {
	return Inspector{}
}

func (Inspector) PageCount(ctx context.Context, filename string, data []byte) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, errs.Wrap(err, "check context")
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return 0, ErrNotPDF
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, errs.Wrap(err, "count pdf pages")
	}
	return count, nil
}
