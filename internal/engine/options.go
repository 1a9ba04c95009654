package engine

import (
	"log/slog"

	"github.com/dshills/redline/internal/engine/style"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 100
	DefaultPreviewLength  = 40
)

// Option configures a Session during creation.
type Option func(*Session)

// WithLogger sets the logger used by the session and its components.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuthor sets the author stamped on changes created in the session.
func WithAuthor(author string) Option {
	return func(s *Session) {
		s.author = author
	}
}

// WithRecordChanges enables or disables change recording.
func WithRecordChanges(enabled bool) Option {
	return func(s *Session) {
		s.recordChanges = enabled
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(s *Session) {
		if max > 0 {
			s.maxUndoEntries = max
		}
	}
}

// WithPreviewLength sets the maximum number of characters in a change
// preview.
func WithPreviewLength(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.previewLen = n
		}
	}
}

// WithApplier sets the style applier used to revert format changes.
func WithApplier(a style.Applier) Option {
	return func(s *Session) {
		if a != nil {
			s.applier = a
		}
	}
}

// WithKeyGenerator sets the function producing region keys on Save.
func WithKeyGenerator(fn func() string) Option {
	return func(s *Session) {
		s.newKey = fn
	}
}

// WithReadOnly creates a read-only session.
// Reviews, undo and redo return ErrReadOnly; Load is still allowed.
func WithReadOnly() Option {
	return func(s *Session) {
		s.readOnly = true
	}
}
