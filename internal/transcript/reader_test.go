package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadEmptyPathReturnsZeroRecord(t *testing.T) {
	rec := Read("")
	assert.Equal(t, &Record{}, rec)
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := writeTranscript(t, `not json at all`, `{"type":"user","message":{"role":"user","content":"hello there"}}`)
	rec := Read(path)
	assert.Equal(t, "hello there", rec.LastUserMessage)
}

func TestReadExtractsLastAssistantOutput(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"first"}]}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"second"}]}}`,
	)
	rec := Read(path)
	assert.Equal(t, "second", rec.LastAssistantOutput)
}

func TestReadDetectsModifyingToolUse(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Read"}]}}`,
	)
	rec := Read(path)
	assert.False(t, rec.HasModifyingToolUse)

	path = writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Write"}]}}`,
	)
	rec = Read(path)
	assert.True(t, rec.HasModifyingToolUse)
	assert.True(t, rec.HasModifyingToolUseSinceUser)
}

func TestModifyingToolUseSinceUserResetsOnGenuineUserMessage(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Write"}]}}`,
		`{"type":"user","message":{"role":"user","content":"please continue"}}`,
	)
	rec := Read(path)
	assert.True(t, rec.HasModifyingToolUse)
	assert.False(t, rec.HasModifyingToolUseSinceUser)
}

func TestCompactionContinuationIsNotGenuineUserMessage(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Write"}]}}`,
		`{"type":"user","message":{"role":"user","content":"This session is being continued from a previous conversation summary."}}`,
	)
	rec := Read(path)
	assert.True(t, rec.HasModifyingToolUseSinceUser)
	assert.Empty(t, rec.LastUserMessage)
}

func TestSystemReminderOnlyMessageIsNotGenuine(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","name":"Write"}]}}`,
		`{"type":"user","message":{"role":"user","content":"<system-reminder>just context</system-reminder>   "}}`,
	)
	rec := Read(path)
	assert.True(t, rec.HasModifyingToolUseSinceUser)
}

func TestConsecutiveAPIErrorsResetsOnNonErrorMessage(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","isApiErrorMessage":true,"message":{"role":"assistant","content":[{"type":"text","text":"oops"}]}}`,
		`{"type":"assistant","isApiErrorMessage":true,"message":{"role":"assistant","content":[{"type":"text","text":"oops again"}]}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"all good now"}]}}`,
	)
	rec := Read(path)
	assert.Equal(t, 0, rec.ConsecutiveAPIErrors)
	assert.True(t, rec.HasAPIError)
}

func TestAPIErrorDetectedByTextPattern(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"API Error: 400 bad request"}]}}`,
	)
	rec := Read(path)
	assert.True(t, rec.HasAPIError)
	assert.Equal(t, 1, rec.ConsecutiveAPIErrors)
}
