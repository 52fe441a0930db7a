package filestorage

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"
)

// ErrObjectNotFound is returned by stores for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions describe an upload. Size is -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo represents information about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// ObjectStore is an S3-compatible bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFileWithPath stores an uploaded file under prefix and returns its object key
	SaveFileWithPath(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error)

	// DeleteFile removes a stored object; an empty key is a no-op
	DeleteFile(ctx context.Context, key string) error

	// URL returns a time-limited download link for key
	URL(ctx context.Context, key string) (string, error)
}
