// Package store persists serialized change streams by name.
//
// Implementations: MemoryStore for tests and one-shot runs, SQLiteStore for
// a local database file, and CachedStore which puts an LRU read cache in
// front of either.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors returned by stores.
var (
	ErrNotFound    = errors.New("document not found")
	ErrInvalidName = errors.New("invalid document name")
)

// Document is a stored stream with its metadata.
type Document struct {
	Name      string
	Data      []byte
	UpdatedAt time.Time
}

// DocumentInfo is the metadata of a stored stream.
type DocumentInfo struct {
	Name      string
	Size      int
	UpdatedAt time.Time
}

// Store abstracts document persistence.
type Store interface {
	// Put creates or replaces the document called name.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the document called name or ErrNotFound.
	Get(ctx context.Context, name string) (*Document, error)
	// List returns every document sorted by name.
	List(ctx context.Context) ([]DocumentInfo, error)
	// Delete removes the document called name or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
	// Close releases the resources of the store.
	Close() error
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: longer than 255 bytes", ErrInvalidName)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}
