package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// TasksDBPathEnv overrides the default per-project store location for the
// work/howto/question CLI surface (Environment variables: TASKS_DB_PATH).
const TasksDBPathEnv = "TASKS_DB_PATH"

// GetDBPath resolves the SQLite file path for the given project directory.
// Order of precedence:
//  1. TASKS_DB_PATH environment variable override.
//  2. <home>/.claude-reliability/projects/<sanitized-project-path>/working-memory.sqlite3
//
// HOME must be resolvable; see Environment variables.
func GetDBPath(projectPath string) (string, error) {
	if override := os.Getenv(TasksDBPathEnv); override != "" {
		return EnsureDBDir(override)
	}
	path, err := ProjectDBPath(projectPath)
	if err != nil {
		return "", fmt.Errorf("resolve project db path: %w", err)
	}
	return path, nil
}

// EnsureDBDir creates the parent directory of dbPath if needed and returns dbPath unchanged.
func EnsureDBDir(dbPath string) (string, error) {
	if dbPath == "" {
		return "", fmt.Errorf("empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	return dbPath, nil
}
