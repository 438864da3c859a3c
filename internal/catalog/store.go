package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/lecture-indexer/internal/crawler"
)

const contentTypeJSON = "application/json"

// PersistError reports a failed catalog write. Payload holds the serialized
// catalog so the caller can still recover the data.
type PersistError struct {
	Path    string
	Payload []byte
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist catalog %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store loads and persists a Catalog as one JSON object in a BlobStore.
type Store struct {
	blobs crawler.BlobStore
	path  string
}

// NewStore creates a Store writing to path inside blobs.
func NewStore(blobs crawler.BlobStore, path string) (*Store, error) {
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	return &Store{blobs: blobs, path: path}, nil
}

// Path returns the object path the catalog is stored under.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted catalog. Missing state yields an empty catalog;
// state that exists but cannot be read or decoded is an error.
func (s *Store) Load(ctx context.Context) (*Catalog, error) {
	data, err := s.blobs.GetObject(ctx, s.path)
	if errors.Is(err, crawler.ErrObjectNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	cat := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return cat, nil
	}
	if err := json.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", s.path, err)
	}
	return cat, nil
}

// Persist serializes the whole catalog and overwrites the stored copy.
// Failures are returned as *PersistError.
func (s *Store) Persist(ctx context.Context, cat *Catalog) error {
	payload, err := json.Marshal(cat)
	if err != nil {
		return &PersistError{Path: s.path, Err: fmt.Errorf("encode: %w", err)}
	}
	if _, err := s.blobs.PutObject(ctx, s.path, contentTypeJSON, payload); err != nil {
		return &PersistError{Path: s.path, Payload: payload, Err: err}
	}
	return nil
}
