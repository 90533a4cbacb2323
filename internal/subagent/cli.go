package subagent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const disableSubAgentEnv = "RELIABILITY_DISABLE_SUBAGENT"

const hooklessSettingsJSON = `{"hooks":{}}`

// CLIRunner dispatches prompts to a sub-agent CLI tool, chosen by agent
// name: "claude" uses `claude -p`, "opencode" uses `opencode run`.
type CLIRunner struct {
	command string
	args    func(prompt string) []string
}

// NewCLIRunner resolves agentName to a CLI command and validates it is on
// PATH. Empty name defaults to "claude".
func NewCLIRunner(agentName string) (*CLIRunner, error) {
	if strings.TrimSpace(os.Getenv(disableSubAgentEnv)) != "" {
		return nil, fmt.Errorf("sub-agent CLI execution disabled by %s", disableSubAgentEnv)
	}
	r, err := resolveCLIRunner(agentName)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(r.command); err != nil {
		return nil, fmt.Errorf("sub-agent cli %q not found in PATH: %w", r.command, err)
	}
	return r, nil
}

func resolveCLIRunner(agentName string) (*CLIRunner, error) {
	name := strings.ToLower(agentName)
	switch {
	case strings.HasPrefix(name, "opencode"):
		return &CLIRunner{
			command: "opencode",
			args:    func(p string) []string { return []string{"run", p} },
		}, nil
	case strings.HasPrefix(name, "claude"), name == "":
		return &CLIRunner{
			command: "claude",
			args: func(p string) []string {
				return []string{"-p", p, "--output-format", "text", "--settings", hooklessSettingsJSON}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown sub-agent type %q (supported: claude, opencode)", agentName)
	}
}

func validatePrompt(s string) error {
	if len(s) == 0 {
		return errors.New("empty prompt")
	}
	const maxPromptBytes = 16000
	if len(s) > maxPromptBytes {
		return fmt.Errorf("prompt exceeds %d byte limit (%d bytes)", maxPromptBytes, len(s))
	}
	if strings.ContainsRune(s, 0) {
		return errors.New("prompt contains null byte")
	}
	return nil
}

// limitedWriter caps writes at maxBytes, silently discarding overflow so a
// runaway sub-agent process cannot exhaust memory via stderr.
type limitedWriter struct {
	buf      bytes.Buffer
	maxBytes int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	originalLen := len(p)
	remaining := w.maxBytes - w.buf.Len()
	if remaining <= 0 {
		return originalLen, nil
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	w.buf.Write(p)
	return originalLen, nil
}

// Run executes the CLI with prompt and returns its trimmed stdout.
func (r *CLIRunner) Run(ctx context.Context, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", fmt.Errorf("invalid prompt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context expired before exec: %w", err)
	}

	args := r.args(prompt)
	cmd := exec.CommandContext(ctx, r.command, args...) //nolint:gosec // G204: command resolved from a fixed allowlist at construction
	cmd.Env = os.Environ()

	var stdout bytes.Buffer
	stderrW := &limitedWriter{maxBytes: 4096}
	cmd.Stdout = &stdout
	cmd.Stderr = stderrW

	if err := cmd.Run(); err != nil {
		stderrMsg := stderrW.buf.String()
		if stderrW.buf.Len() >= stderrW.maxBytes {
			stderrMsg += " (truncated)"
		}
		return "", fmt.Errorf("sub-agent cli %s failed: %w (stderr: %s)", r.command, err, stderrMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Command returns the resolved CLI binary name.
func (r *CLIRunner) Command() string {
	return r.command
}
