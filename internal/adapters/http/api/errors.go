package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrRunnerMissing = errors.New("runs cannot be triggered on this server")
	ErrBackpressure  = errors.New("a run is already queued, retry later")
)
