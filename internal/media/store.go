// Package media validates, names, resizes and stores uploaded post images.
package media

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when a stored key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Store persists image bytes by key. Delete of a missing key succeeds.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
