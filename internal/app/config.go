// Package app resolves on-disk locations and process-wide settings for the
// harness: the config directory, the per-project SQLite path, and the
// reminders file.
package app

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigDir returns ~/.claude-reliability on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude-reliability"), nil
}

// EnsureConfigDir creates the config directory and a default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# claude-reliability global configuration
# Project-local overrides live in <project>/.claude/reliability-config.yaml

# git_repo: true
# beads_installed: false
# check_command: "make check"
# require_push: false
# explain_stops: true
# auto_work_on_tasks: false
# auto_work_idle_minutes: 10
`

// sanitizeProjectPath converts a filesystem path to a single path-component
// directory name, the same scheme the host agent uses for its own
// per-project transcript directories.
func sanitizeProjectPath(projectPath string) string {
	clean := filepath.Clean(projectPath)
	return strings.ReplaceAll(clean, string(os.PathSeparator), "-")
}

// ProjectStoreDir returns <home>/.claude-reliability/projects/<sanitized-project-path>.
func ProjectStoreDir(projectPath string) (string, error) {
	base, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "projects", sanitizeProjectPath(projectPath)), nil
}

// ProjectDBPath returns the SQLite file path for a project's working memory,
// creating the parent directory on demand (Location).
func ProjectDBPath(projectPath string) (string, error) {
	dir, err := ProjectStoreDir(projectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return filepath.Join(dir, "working-memory.sqlite3"), nil
}

// RemindersPath returns <project>/.claude-reliability/reminders.yaml.
func RemindersPath(projectPath string) string {
	return filepath.Join(projectPath, ".claude-reliability", "reminders.yaml")
}

// ProjectConfigPath returns <project>/.claude/reliability-config.yaml.
func ProjectConfigPath(projectPath string) string {
	return filepath.Join(projectPath, ".claude", "reliability-config.yaml")
}

// SessionNotesPath returns <project>/.claude/jkw-session.local.md.
func SessionNotesPath(projectPath string) string {
	return filepath.Join(projectPath, ".claude", "jkw-session.local.md")
}

// LegacyMarkerPaths enumerates the pre-SQLite on-disk marker sentinels
// migrated on first open.
func LegacyMarkerPaths(projectPath string) map[string]string {
	dir := filepath.Join(projectPath, ".claude")
	return map[string]string{
		"problem_mode":      filepath.Join(dir, "problem-mode.local"),
		"needs_validation":  filepath.Join(dir, "needs-validation.local"),
		"must_reflect":      filepath.Join(dir, "must-reflect.local"),
		"beads_warning":     filepath.Join(dir, "beads-warning.local"),
		"emergency_stop":    filepath.Join(dir, "emergency-stop.local"),
		"jkw_setup_required": filepath.Join(dir, "jkw-setup-required.local"),
	}
}

// LegacyJKWStatePath returns the legacy YAML JKW session file path.
func LegacyJKWStatePath(projectPath string) string {
	return filepath.Join(projectPath, ".claude", "jkw-state.local.yaml")
}
