package engine

import (
	"errors"

	"github.com/dshills/redline/internal/engine/history"
	"github.com/dshills/redline/internal/engine/reconcile"
	"github.com/dshills/redline/internal/engine/review"
	"github.com/dshills/redline/internal/engine/stream"
)

// Errors returned by session operations.
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrUnknownChange indicates a change id that is not in the registry.
	ErrUnknownChange = review.ErrUnknownChange

	// ErrAlreadyResolved indicates a change that was already accepted or rejected.
	ErrAlreadyResolved = review.ErrAlreadyResolved

	// ErrMalformed indicates a stream that cannot be decoded or loaded.
	ErrMalformed = errors.New("malformed stream")

	// ErrReadOnly indicates a modifying operation on a read-only session.
	ErrReadOnly = errors.New("session is read-only")
)

// malformed reports whether err came from decoding or loading a bad stream.
func malformed(err error) bool {
	return errors.Is(err, stream.ErrMalformed) ||
		errors.Is(err, stream.ErrUnsupportedVersion) ||
		errors.Is(err, reconcile.ErrMalformed)
}
