package commands

import (
	"database/sql"
	"log/slog"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/store"
)

// DB is an alias so command code doesn't need to import database/sql.
type DB = sql.DB

// printedError marks an error whose detail has already been logged to
// stderr; cobra's own error printer is silenced (SilenceErrors) so the
// message returned here is never shown to the user.
type printedError struct {
	err error
}

func (e printedError) Error() string {
	return "error already printed"
}

func (e printedError) Unwrap() error {
	return e.err
}

// dbPathOverride is set from the --db-path persistent flag; empty means use
// the default per-project resolution in app.GetDBPath.
var dbPathOverride string //nolint:gochecknoglobals // single CLI process, set once from a flag

func setDBPathOverride(path string) {
	dbPathOverride = path
}

func openProjectDB(projectPath string) (*DB, func(), error) {
	dbPath := dbPathOverride
	if dbPath == "" {
		var err error
		dbPath, err = app.GetDBPath(projectPath)
		if err != nil {
			return nil, nil, err
		}
	} else if _, err := app.EnsureDBDir(dbPath); err != nil {
		return nil, nil, err
	}

	db, err := store.InitDBWithPath(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.MigrateLegacyState(db, projectPath); err != nil {
		slog.Default().Warn("legacy state migration failed", "error", err, "project_path", projectPath)
	}

	return db, func() { _ = db.Close() }, nil
}

// withDB opens the project database for projectPath, runs fn, and closes it
// before returning. Every command-layer mutation and query goes through
// this so no caller holds a connection across a RunE return.
func withDB(projectPath string, fn func(db *DB) error) error {
	db, closeDB, err := openProjectDB(projectPath)
	if err != nil {
		return cmdErr(err)
	}
	defer closeDB()

	if err := fn(db); err != nil {
		return cmdErr(err)
	}
	return nil
}

// cmdErr logs the error's detail to stderr and returns a printedError so
// the command layer's stdout stays reserved for the JSON success envelope
// (plain text on stderr on failure, exit code 1).
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	slog.Default().Error("command failed", "error", err.Error())
	return printedError{err: err}
}
