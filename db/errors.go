package db

import (
	"strings"

	"github.com/teranos/marksync/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
// This typically happens when a background flush outlives the command that
// opened the database.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// This handles both:
// - Wrapped ErrDatabaseClosed errors from this package
// - Raw sqlite/sql driver errors that contain "database is closed" in their message
//
// The string fallback exists because the sql package returns its own
// unexported error value for closed handles.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	return strings.Contains(err.Error(), "database is closed")
}
