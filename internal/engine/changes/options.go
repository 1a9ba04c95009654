package changes

import (
	"log/slog"
	"time"
)

// Option configures a Registry.
type Option func(*Registry)

// WithAuthor sets the author stamped on records created by the factory
// methods.
func WithAuthor(author string) Option {
	return func(r *Registry) {
		r.author = author
	}
}

// WithRecordChanges sets whether new records are marked as made with
// tracking enabled.
func WithRecordChanges(enabled bool) Option {
	return func(r *Registry) {
		r.recordChanges = enabled
	}
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger used for graph diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}
