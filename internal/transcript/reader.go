// Package transcript parses the host agent's append-only JSONL conversation
// log into the in-memory, never-persisted record the decision engines
// reason over. Parsing is tolerant and best-effort: a malformed line is
// skipped rather than treated as fatal.
package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// Record is the per-invocation extraction. Never persisted.
type Record struct {
	LastAssistantOutput          string
	LastUserMessageTime          time.Time
	HasAPIError                  bool
	ConsecutiveAPIErrors         int
	HasModifyingToolUse          bool
	HasModifyingToolUseSinceUser bool
	HasBeadsCommandUse           bool
	FirstUserMessage             string
	LastUserMessage              string
}

// readOnlyTools never mutate the workspace; a tool_use block naming one of
// these does not count toward HasModifyingToolUse.
var readOnlyTools = map[string]bool{
	"Read": true, "Glob": true, "Grep": true, "WebFetch": true, "WebSearch": true, "LS": true,
}

const compactionSentinel = "This session is being continued from a previous conversation"

type entry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	IsMeta    bool            `json:"isApiErrorMessage"`
	Message   *messageWrapper `json:"message"`
}

type messageWrapper struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
	Raw   json.RawMessage `json:"-"`
}

type bashToolInput struct {
	Command string `json:"command"`
}

// Read parses path line by line. Malformed lines are skipped silently
//. Returns a zero Record (no error) if path is empty or unreadable,
// matching the engine's "transcript unavailable" default.
func Read(path string) *Record {
	rec := &Record{}
	if path == "" {
		return rec
	}
	f, err := os.Open(path) //nolint:gosec // G304: path supplied by the host process over its own hook contract
	if err != nil {
		return rec
	}
	defer func() { _ = f.Close() }()

	sinceUserModifying := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}

		switch e.Type {
		case "user":
			handleUserEntry(rec, e, &sinceUserModifying)
		case "assistant":
			handleAssistantEntry(rec, e, &sinceUserModifying)
		}
	}

	rec.HasModifyingToolUseSinceUser = sinceUserModifying
	return rec
}

func handleUserEntry(rec *Record, e entry, sinceUserModifying *bool) {
	text := extractText(e.Message)
	if !isGenuineUserMessage(text) {
		return
	}
	if rec.FirstUserMessage == "" {
		rec.FirstUserMessage = text
	}
	rec.LastUserMessage = text
	if ts, ok := parseTimestamp(e.Timestamp); ok {
		rec.LastUserMessageTime = ts
	}
	*sinceUserModifying = false
}

func handleAssistantEntry(rec *Record, e entry, sinceUserModifying *bool) {
	blocks := extractBlocks(e.Message)

	isError := e.IsMeta || isAPIErrorText(extractText(e.Message))
	if isError {
		rec.HasAPIError = true
		rec.ConsecutiveAPIErrors++
	} else {
		rec.ConsecutiveAPIErrors = 0
	}

	for _, b := range blocks {
		switch b.Type {
		case "text":
			if strings.TrimSpace(b.Text) != "" {
				rec.LastAssistantOutput = b.Text
			}
		case "tool_use":
			if !readOnlyTools[b.Name] {
				rec.HasModifyingToolUse = true
				*sinceUserModifying = true
			}
			if b.Name == "Bash" && len(b.Input) > 0 {
				var bi bashToolInput
				if json.Unmarshal(b.Input, &bi) == nil && strings.Contains(bi.Command, "bd ") {
					rec.HasBeadsCommandUse = true
				}
			}
		}
	}
}

// isGenuineUserMessage excludes compaction continuations and
// system-reminder-only bodies.
func isGenuineUserMessage(text string) bool {
	if strings.HasPrefix(strings.TrimSpace(text), compactionSentinel) {
		return false
	}
	stripped := stripSystemReminders(text)
	return strings.TrimSpace(stripped) != ""
}

func stripSystemReminders(text string) string {
	for {
		start := strings.Index(text, "<system-reminder>")
		if start == -1 {
			return text
		}
		end := strings.Index(text[start:], "</system-reminder>")
		if end == -1 {
			return text[:start]
		}
		text = text[:start] + text[start+end+len("</system-reminder>"):]
	}
}

func isAPIErrorText(text string) bool {
	lower := text
	if strings.Contains(lower, "API Error:") && strings.Contains(lower, "400") {
		return true
	}
	if strings.Contains(lower, "thinking") && strings.Contains(lower, "blocks") && strings.Contains(lower, "cannot be modified") {
		return true
	}
	if strings.Contains(lower, "invalid_request_error") {
		return true
	}
	return false
}

// extractText returns the plain-string form of a message's content,
// whichever shape it takes: a bare string, or the concatenation of its text
// blocks.
func extractText(m *messageWrapper) string {
	if m == nil {
		return ""
	}
	var asString string
	if err := json.Unmarshal(m.Content, &asString); err == nil {
		return asString
	}
	blocks := extractBlocks(m)
	var sb strings.Builder
	for _, b := range blocks {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

func extractBlocks(m *messageWrapper) []contentBlock {
	if m == nil {
		return nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return nil
	}
	return blocks
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
