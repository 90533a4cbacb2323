package store

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// lockMigration acquires an exclusive advisory lock on a .migrate.lock file
// adjacent to the database, preventing two harness invocations racing to
// migrate the same project's SQLite file for the first time. Blocks until
// available. Returns an unlock func safe to call once.
func lockMigration(dbPath string) (unlock func(), err error) {
	lockPath := dbPath + ".migrate.lock"
	if dir := filepath.Dir(lockPath); dir != "" {
		_ = os.MkdirAll(dir, 0o750)
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644) //nolint:gosec // G304: lockPath derived from trusted dbPath
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
