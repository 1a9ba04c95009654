package richtext

import "errors"

// Errors returned by document operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
	ErrTableBoundary    = errors.New("position is on a table boundary")
	ErrNotTable         = errors.New("position does not start a table")
	ErrInvalidTable     = errors.New("invalid table dimensions")
	ErrCellOutOfRange   = errors.New("table cell out of range")
)
