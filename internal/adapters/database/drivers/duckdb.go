//go:build cgo && duckdb

package drivers

import (
	_ "github.com/marcboeker/go-duckdb"
)
