// Package templates is the opaque message-rendering capability referenced
// throughout the decision engines: render(name, vars) -> string. All
// user-facing text the harness emits is produced here so that wording
// changes never touch decision logic ( scope note, error handling,
// Design Notes: a process-scope singleton with explicit init-on-first-use).
package templates

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"
)

var (
	once sync.Once //nolint:gochecknoglobals // process-scope singleton Design Notes
	registry map[string]*template.Template
	initErr  error
)

func initRegistry() {
	registry = make(map[string]*template.Template, len(sources))
	for name, src := range sources {
		t, err := template.New(name).Parse(src)
		if err != nil {
			initErr = fmt.Errorf("parse template %q: %w", name, err)
			return
		}
		registry[name] = t
	}
}

// Verify parses every embedded template eagerly and returns the first
// error encountered. Intended for a build-time/CI verification path:
// template rendering errors are fatal only here.
func Verify() error {
	once.Do(initRegistry)
	return initErr
}

// Render executes the named template against vars and returns the
// resulting text. Hook call sites treat templates as trusted (verified at
// build time via Verify) and panic on failure, since a broken embedded
// template is a bug in this code, not a runtime condition.
func Render(name string, vars map[string]any) string {
	once.Do(initRegistry)
	if initErr != nil {
		panic(fmt.Sprintf("templates: registry failed to initialize: %v", initErr))
	}
	t, ok := registry[name]
	if !ok {
		panic(fmt.Sprintf("templates: unknown template %q", name))
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		panic(fmt.Sprintf("templates: render %q: %v", name, err))
	}
	return buf.String()
}
