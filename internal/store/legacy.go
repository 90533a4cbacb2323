package store

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/models"
)

// legacyJKWState is the pre-SQLite on-disk shape of jkw-state.local.yaml.
// Field names mirror the legacy file, not the SQLite column names.
type legacyJKWState struct {
	Iteration       int      `yaml:"iteration" toml:"iteration"`
	LastIssueChange int      `yaml:"last_issue_change_iteration" toml:"last_issue_change_iteration"`
	GitDiffHash     string   `yaml:"git_diff_hash" toml:"git_diff_hash"`
	IssueSnapshot   []string `yaml:"issue_snapshot" toml:"issue_snapshot"`
}

// MigrateLegacyState imports the pre-SQLite on-disk sentinels for
// projectPath into the database: the presence-based `.local` marker files
// and the jkw-state.local.yaml session file. Safe to call on every open;
// markers are idempotent by construction and the session state is only
// written if legacy files are still present.
func MigrateLegacyState(db *sql.DB, projectPath string) error {
	for name, path := range app.LegacyMarkerPaths(projectPath) {
		if _, err := os.Stat(path); err == nil {
			if err := SetMarker(db, name); err != nil {
				return err
			}
		}
	}

	statePath := app.LegacyJKWStatePath(projectPath)
	raw, err := os.ReadFile(statePath) //nolint:gosec // G304: statePath is derived from the trusted project path
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	state, ok := parseLegacyJKWState(raw)
	if !ok {
		// File exists but neither YAML nor TOML could parse it: fall back to
		// bare presence, recording that a JKW session was in flight without
		// its iteration counters.
		slog.Warn("legacy jkw state file present but unparseable, migrating bare presence only", "path", statePath)
		state = legacyJKWState{}
	}

	return PutSessionState(db, models.SessionState{
		Iteration:                state.Iteration,
		LastIssueChangeIteration: state.LastIssueChange,
		GitDiffHash:              state.GitDiffHash,
		IssueSnapshot:            state.IssueSnapshot,
	})
}

// parseLegacyJKWState tries YAML first (the documented legacy format), then
// falls back to TOML for installs that predate the YAML migration.
func parseLegacyJKWState(raw []byte) (legacyJKWState, bool) {
	var y legacyJKWState
	if err := yaml.Unmarshal(raw, &y); err == nil {
		return y, true
	}

	var t legacyJKWState
	if _, err := toml.Decode(string(raw), &t); err == nil {
		return t, true
	}

	return legacyJKWState{}, false
}
