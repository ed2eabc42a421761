// Package storage keeps uploaded templates and generated reports.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

const (
	TemplatesPrefix = "report_templates/"
	ReportsPrefix   = "generated_reports/"

	// under the media root, not the report store
	AttachmentsPrefix = "attachments/"
)

type ObjectMetadata struct {
	ContentType   string
	ContentLength int64
}

// ObjectStorage stores blobs by slash-separated key. Put is atomic: readers
// never observe a partially written object.
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, meta ObjectMetadata) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ReadAll fetches the whole object.
func ReadAll(ctx context.Context, s ObjectStorage, key string) ([]byte, error) {
	rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
