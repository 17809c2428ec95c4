// Package drivers registers the database/sql drivers the pipeline can read from
// and write to. Importing it for side effects is enough.
package drivers

// Ready exists so callers can reference the package without a blank import.
func Ready() {}
