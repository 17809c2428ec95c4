package sink

import "errors"

var (
	// ErrUnknownSink is returned by New for a sink kind it does not build.
	ErrUnknownSink = errors.New("unknown sink")
	// ErrSheetName is returned when two tables map to the same worksheet name.
	ErrSheetName = errors.New("worksheet name collision")
	// ErrNoTables is returned when a write carries nothing to write.
	ErrNoTables = errors.New("no tables to write")
)
