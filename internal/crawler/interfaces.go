package crawler

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by BlobStore.GetObject when nothing is stored at the path.
var ErrObjectNotFound = errors.New("object not found")

// Fetcher fetches a URL and returns the response body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BlobStore reads and writes whole artifacts. Writes always replace the full object.
type BlobStore interface {
	GetObject(ctx context.Context, path string) ([]byte, error)
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
