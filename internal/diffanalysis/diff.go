// Package diffanalysis line-scans a unified diff's added lines for
// suppression directives, empty exception handlers, hardcoded secrets, and
// untracked TODO markers, and stats changed files for large-file additions.
package diffanalysis

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// LargeFileThresholdBytes flags any changed file at or above this size.
const LargeFileThresholdBytes = 500 * 1024

// Violation is one flagged line.
type Violation struct {
	File        string
	Line        int // 0 when the diff hunk carries no addressable line number
	Description string
}

// String renders a one-line human-readable form.
func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", v.File, v.Line, v.Description)
	}
	if v.File != "" {
		return fmt.Sprintf("%s: %s", v.File, v.Description)
	}
	return v.Description
}

// Report is the result of analysing one combined diff.
type Report struct {
	Suppressions  []Violation
	EmptyHandlers []Violation
	Secrets       []Violation
	TODOWarnings  []Violation
	LargeFiles    []Violation
}

// IsEmpty reports whether every category is empty.
func (r Report) IsEmpty() bool {
	return len(r.Suppressions) == 0 && len(r.EmptyHandlers) == 0 && len(r.Secrets) == 0 &&
		len(r.TODOWarnings) == 0 && len(r.LargeFiles) == 0
}

// CheckLargeFiles stats each of files (paths relative to dir) and flags any
// at or above LargeFileThresholdBytes. Unreadable paths (already deleted,
// directory entries) are skipped rather than treated as violations.
func CheckLargeFiles(dir string, files []string) []Violation {
	var out []Violation
	for _, f := range files {
		info, err := os.Stat(filepath.Join(dir, f))
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() >= LargeFileThresholdBytes {
			out = append(out, Violation{
				File:        f,
				Description: fmt.Sprintf("file is %.1f KB, at or above the %d KB large-file threshold", float64(info.Size())/1024, LargeFileThresholdBytes/1024),
			})
		}
	}
	return out
}

var suppressionPatterns = []struct {
	pattern *regexp.Regexp
	desc    string
}{
	{regexp.MustCompile(`#\s*noqa\b`), "noqa suppression"},
	{regexp.MustCompile(`#\s*type:\s*ignore\b`), "type: ignore suppression"},
	{regexp.MustCompile(`//\s*nolint\b`), "nolint suppression"},
	{regexp.MustCompile(`//\s*eslint-disable`), "eslint-disable suppression"},
	{regexp.MustCompile(`@ts-ignore\b|@ts-nocheck\b`), "ts-ignore suppression"},
	{regexp.MustCompile(`#\[allow\(`), "rust #[allow(...)] suppression"},
	{regexp.MustCompile(`rubocop:disable`), "rubocop:disable suppression"},
}

var emptyHandlerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*except\s*(\w+)?\s*:\s*pass\s*$`),
	regexp.MustCompile(`^\s*catch\s*\([^)]*\)\s*\{\s*\}\s*$`),
	regexp.MustCompile(`^\s*rescue\s*(=>\s*\w+)?\s*$`),
}

var secretPatterns = []struct {
	pattern *regexp.Regexp
	desc    string
}{
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), "OpenAI-style API key"},
	{regexp.MustCompile(`sk-ant-[A-Za-z0-9-]{20,}`), "Anthropic-style API key"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS access key ID"},
	{regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`), "GitHub personal access token"},
	{regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._-]{20,}`), "bearer token"},
	{regexp.MustCompile(`-----BEGIN\s+(RSA|EC|OPENSSH|PGP|DSA)?\s*PRIVATE KEY-----`), "PEM private key header"},
	{regexp.MustCompile(`(?i)\b(password|secret|token|key)\s*[:=]\s*['"][A-Za-z0-9+/=_-]{12,}['"]`), "high-entropy assignment to a sensitive-looking variable"},
}

var todoPattern = regexp.MustCompile(`\b(TODO|FIXME)\b(?:\s*\(([^)]*)\))?`)
var issueRefPattern = regexp.MustCompile(`#\d+|[A-Z]{2,}-\d+`)

type hunkLine struct {
	file string
	line int
	text string
}

// Analyze scans the added lines (lines beginning with "+" in a unified
// diff, excluding the `+++` file headers) of a combined diff produced by
// `git diff -U0` and classifies each into the four violation categories.
func Analyze(combinedDiff string) Report {
	var report Report
	for _, hl := range addedLines(combinedDiff) {
		checkSuppression(hl, &report)
		checkEmptyHandler(hl, &report)
		checkSecrets(hl, &report)
		checkTODO(hl, &report)
	}
	return report
}

func addedLines(diff string) []hunkLine {
	var out []hunkLine
	currentFile := ""
	currentLine := 0

	hunkHeader := regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)
	fileHeader := regexp.MustCompile(`^\+\+\+ b/(.+)$`)

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "):
			if m := fileHeader.FindStringSubmatch(line); m != nil {
				currentFile = m[1]
			} else {
				currentFile = strings.TrimPrefix(line, "+++ ")
			}
		case strings.HasPrefix(line, "@@ "):
			if m := hunkHeader.FindStringSubmatch(line); m != nil {
				currentLine = atoiSafe(m[1])
			}
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			content := strings.TrimPrefix(line, "+")
			out = append(out, hunkLine{file: currentFile, line: currentLine, text: content})
			currentLine++
		}
	}
	return out
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func checkSuppression(hl hunkLine, report *Report) {
	for _, sp := range suppressionPatterns {
		if sp.pattern.MatchString(hl.text) {
			report.Suppressions = append(report.Suppressions, Violation{File: hl.file, Line: hl.line, Description: sp.desc})
		}
	}
}

func checkEmptyHandler(hl hunkLine, report *Report) {
	for _, p := range emptyHandlerPatterns {
		if p.MatchString(hl.text) {
			report.EmptyHandlers = append(report.EmptyHandlers, Violation{File: hl.file, Line: hl.line, Description: "empty exception handler"})
			return
		}
	}
}

func checkSecrets(hl hunkLine, report *Report) {
	for _, sp := range secretPatterns {
		if sp.pattern.MatchString(hl.text) {
			report.Secrets = append(report.Secrets, Violation{File: hl.file, Line: hl.line, Description: sp.desc})
		}
	}
}

func checkTODO(hl hunkLine, report *Report) {
	m := todoPattern.FindStringSubmatch(hl.text)
	if m == nil {
		return
	}
	ref := m[2]
	if issueRefPattern.MatchString(ref) {
		return
	}
	report.TODOWarnings = append(report.TODOWarnings, Violation{File: hl.file, Line: hl.line, Description: strings.TrimSpace(m[1]) + " marker not linked to an issue"})
}
