package repository

import "errors"

// Sentinel kinds for results store errors.
var (
	ErrNotFound = errors.New("table not found")
	ErrNoRun    = errors.New("no run published yet")
	ErrEmptyRun = errors.New("run has no id")
)
