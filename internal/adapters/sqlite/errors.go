package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"catalogsync/internal/ports"
)

// classify marks unique, primary key and foreign key failures with
// ports.ErrConstraint so callers can tell "already exists" from real faults
func classify(err error) error {
	if err == nil || !isConstraint(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ports.ErrConstraint, err)
}

func isConstraint(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		// extended codes keep the primary code in the low byte
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return strings.Contains(err.Error(), "constraint failed")
}
