// Package reminders implements a regex reminder engine: patterns matched
// against assistant/tool-input text, configured via YAML, cached with
// mtime-keyed invalidation behind a process-scope singleton.
package reminders

import (
	"log/slog"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

// Reminder is one configured entry: a message shown when any of Patterns matches.
type Reminder struct {
	Message  string   `yaml:"message"`
	Patterns []string `yaml:"patterns"`
}

type config struct {
	Reminders []Reminder `yaml:"reminders"`
}

type compiledReminder struct {
	message  string
	patterns []*regexp.Regexp
}

// Engine caches compiled reminders for one path, invalidated on mtime change.
type Engine struct {
	mu       sync.Mutex
	path     string
	modTime  int64
	compiled []compiledReminder
	loaded   bool
}

// New returns an Engine that will load reminders from path on first Check.
func New(path string) *Engine {
	return &Engine{path: path}
}

// Check matches text against every configured reminder, returning at most
// one message per reminder (multiple pattern matches on the same reminder
// coalesce), preserving configuration order. Load/compile errors are
// logged and produce no matches — never propagated.
func (e *Engine) Check(text string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded()

	var out []string
	for _, r := range e.compiled {
		for _, p := range r.patterns {
			if p.MatchString(text) {
				out = append(out, r.message)
				break
			}
		}
	}
	return out
}

func (e *Engine) ensureLoaded() {
	info, statErr := os.Stat(e.path)

	if statErr != nil {
		if e.loaded && e.modTime == 0 {
 return // file absent both times: still valid cache
		}
		e.compiled = nil
		e.modTime = 0
		e.loaded = true
		return
	}

	mtime := info.ModTime().UnixNano()
	if e.loaded && mtime == e.modTime {
		return
	}

	raw, err := os.ReadFile(e.path) //nolint:gosec // G304: path supplied by the harness's own config resolution, not user input
	if err != nil {
		slog.Error("reminders: failed to read config", "path", e.path, "error", err)
		e.compiled = nil
		e.loaded = true
		e.modTime = mtime
		return
	}

	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Error("reminders: failed to parse config", "path", e.path, "error", err)
		e.compiled = nil
		e.loaded = true
		e.modTime = mtime
		return
	}

	compiled := make([]compiledReminder, 0, len(cfg.Reminders))
	for _, r := range cfg.Reminders {
		cr := compiledReminder{message: r.Message}
		for _, pattern := range r.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				slog.Error("reminders: invalid pattern, skipping", "pattern", pattern, "error", err)
				continue
			}
			cr.patterns = append(cr.patterns, re)
		}
		if len(cr.patterns) > 0 {
			compiled = append(compiled, cr)
		}
	}

	e.compiled = compiled
	e.loaded = true
	e.modTime = mtime
}
