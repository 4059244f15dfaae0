package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"relmap/internal/repository"
)

// classify maps SQLite constraint failures onto the repository taxonomy.
// Other errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if kind := constraintKind(err); kind != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return err
}

func constraintKind(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return repository.ErrForeignKey
		case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return repository.ErrNotNull
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return repository.ErrUnique
		}
	}

	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "foreign key constraint failed"):
		return repository.ErrForeignKey
	case strings.Contains(message, "not null constraint failed"):
		return repository.ErrNotNull
	case strings.Contains(message, "unique constraint failed"):
		return repository.ErrUnique
	}
	return nil
}
