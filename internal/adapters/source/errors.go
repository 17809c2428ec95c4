package source

import "errors"

var (
	// ErrMissingColumn is returned when a required column is absent from a table.
	ErrMissingColumn = errors.New("missing column")
	// ErrBadValue is returned when a cell cannot be read as its field type.
	ErrBadValue = errors.New("bad value")
	// ErrClosed is returned by reads on a closed source.
	ErrClosed = errors.New("source closed")
)
