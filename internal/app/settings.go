package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the global configuration loaded from config.yaml (process-wide
// defaults; project-local settings live separately, see ProjectSettings).
type Settings struct {
	QualityCheckCommand string `yaml:"check_command"`
}

//nolint:gochecknoglobals // process-scope sync.Once cache for a read-mostly global config file
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error
)

// LoadSettings loads global configuration once using the documented lookup
// order (first found wins): ~/.claude-reliability/config.yaml,
// /etc/claude-reliability/config.yaml, ./reliability-config.yaml.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, ok := tryLoadSettingsFile(filepath.Join(dir, "config.yaml"), &settingsErr); ok {
			settings = s
			return
		}
		if settingsErr != nil {
			return
		}
		if s, ok := tryLoadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "claude-reliability", "config.yaml"), &settingsErr); ok {
			settings = s
			return
		}
		if settingsErr != nil {
			return
		}
		if s, ok := tryLoadSettingsFile("reliability-config.yaml", &settingsErr); ok {
			settings = s
		}
	})
	return settings, settingsErr
}

func tryLoadSettingsFile(path string, outErr *error) (Settings, bool) {
	s, err := loadSettingsFile(path)
	if err == nil {
		return s, true
	}
	if !errors.Is(err, os.ErrNotExist) {
		*outErr = err
	}
	return Settings{}, false
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ProjectSettings is the project-local reliability-config.yaml ( Persisted
// state layout).
type ProjectSettings struct {
	GitRepo             bool   `yaml:"git_repo"`
	BeadsInstalled      bool   `yaml:"beads_installed"`
	CheckCommand        string `yaml:"check_command"`
	RequirePush         bool   `yaml:"require_push"`
	ExplainStops        bool   `yaml:"explain_stops"`
	AutoWorkOnTasks     bool   `yaml:"auto_work_on_tasks"`
	AutoWorkIdleMinutes int    `yaml:"auto_work_idle_minutes"`
}

// LoadProjectSettings reads <project>/.claude/reliability-config.yaml.
// A missing file yields zero-valued settings and no error: every field has
// a safe "do nothing extra" default.
func LoadProjectSettings(projectPath string) (ProjectSettings, error) {
	data, err := os.ReadFile(ProjectConfigPath(projectPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProjectSettings{}, nil
		}
		return ProjectSettings{}, err
	}
	var s ProjectSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return ProjectSettings{}, err
	}
	return s, nil
}
