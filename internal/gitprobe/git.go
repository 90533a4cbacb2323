// Package gitprobe wraps the git subprocess calls the decision engines
// need: working-tree status, ahead-of-upstream count, combined diff text,
// and a content hash of the working state used for JKW staleness fallback.
package gitprobe

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// Probe reports on the working tree of a git repository rooted at Dir.
type Probe struct {
	Dir     string
	Timeout time.Duration
}

// New returns a Probe rooted at dir with the default short subprocess timeout.
func New(dir string) *Probe {
	return &Probe{Dir: dir, Timeout: defaultTimeout}
}

func (p *Probe) run(args ...string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...) //nolint:gosec // G204: args are fixed git subcommands, not user input
	cmd.Dir = p.Dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	return stdout.String(), err
}

// IsRepo reports whether Dir is inside a git working tree.
func (p *Probe) IsRepo() bool {
	_, err := p.run("rev-parse", "--is-inside-work-tree")
	return err == nil
}

// HasUnstagedChanges reports whether `git diff --stat` is non-empty.
func (p *Probe) HasUnstagedChanges() bool {
	out, err := p.run("diff", "--stat")
	return err == nil && strings.TrimSpace(out) != ""
}

// HasStagedChanges reports whether `git diff --cached --stat` is non-empty.
func (p *Probe) HasStagedChanges() bool {
	out, err := p.run("diff", "--cached", "--stat")
	return err == nil && strings.TrimSpace(out) != ""
}

// HasUncommittedChanges is the union of staged and unstaged changes.
func (p *Probe) HasUncommittedChanges() bool {
	return p.HasUnstagedChanges() || p.HasStagedChanges()
}

// UntrackedFiles returns the newline-separated output of
// `git ls-files --others --exclude-standard` as a slice, one path per entry.
func (p *Probe) UntrackedFiles() []string {
	out, err := p.run("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil
	}
	return splitNonEmptyLines(out)
}

// AheadCount returns how many commits HEAD is ahead of its upstream.
// Parse failure or command failure (no upstream configured) is treated as
// zero.
func (p *Probe) AheadCount() int {
	out, err := p.run("rev-list", "--count", "@{upstream}..HEAD")
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0
	}
	return n
}

// CombinedDiff returns the union of the staged and unstaged unified diffs
// with zero lines of context, for the diff analyser to scan.
func (p *Probe) CombinedDiff() string {
	staged, _ := p.run("diff", "--cached", "-U0")
	unstaged, _ := p.run("diff", "-U0")
	return staged + unstaged
}

// ChangedFiles returns the union of staged, unstaged, and untracked paths
// relative to Dir, de-duplicated, for callers that need to stat each file
// rather than scan diff text (the large-file check).
func (p *Probe) ChangedFiles() []string {
	staged, _ := p.run("diff", "--cached", "--name-only")
	unstaged, _ := p.run("diff", "--name-only")

	seen := map[string]bool{}
	var out []string
	add := func(paths []string) {
		for _, f := range paths {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	add(splitNonEmptyLines(staged))
	add(splitNonEmptyLines(unstaged))
	add(p.UntrackedFiles())
	return out
}

// HeadHash returns the output of `git rev-parse HEAD`, or "" if unavailable.
func (p *Probe) HeadHash() string {
	out, err := p.run("rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// WorkingStateHash hashes HEAD plus the staged/unstaged/untracked path lists
// into a single content digest, used as the JKW staleness fallback when no
// external issue tracker is available.
func (p *Probe) WorkingStateHash() string {
	staged, _ := p.run("diff", "--cached", "--name-only")
	unstaged, _ := p.run("diff", "--name-only")
	untracked := p.UntrackedFiles()

	h := sha256.New()
	h.Write([]byte(p.HeadHash()))
	h.Write([]byte(staged))
	h.Write([]byte(unstaged))
	for _, f := range untracked {
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
