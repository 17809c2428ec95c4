package database

import "errors"

var (
	// ErrUnsupportedDriver is returned for a driver name Open does not know.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrEmptyDSN is returned when no connection string is given.
	ErrEmptyDSN = errors.New("empty database dsn")
)
