package diffanalysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDetectsSuppressionDirective(t *testing.T) {
	diff := "+++ b/app.py\n@@ -0,0 +1,2 @@\n+import os  # noqa\n+print(os.getenv('X'))\n"
	report := Analyze(diff)
	require.Len(t, report.Suppressions, 1)
	assert.Equal(t, "app.py", report.Suppressions[0].File)
	assert.Equal(t, 1, report.Suppressions[0].Line)
}

func TestAnalyzeDetectsEmptyExceptionHandler(t *testing.T) {
	diff := "+++ b/app.py\n@@ -0,0 +1,1 @@\n+    except: pass\n"
	report := Analyze(diff)
	require.Len(t, report.EmptyHandlers, 1)
}

func TestAnalyzeDetectsSecretAssignment(t *testing.T) {
	diff := `+++ b/config.py
@@ -0,0 +1,1 @@
+password = "sup3rs3cr3tvalue123"
`
	report := Analyze(diff)
	require.Len(t, report.Secrets, 1)
}

func TestAnalyzeDetectsOpenAIStyleKey(t *testing.T) {
	diff := "+++ b/config.py\n@@ -0,0 +1,1 @@\n+key = \"sk-abcdefghijklmnopqrstuvwxyz123456\"\n"
	report := Analyze(diff)
	require.Len(t, report.Secrets, 1)
}

func TestAnalyzeFlagsUnlinkedTODO(t *testing.T) {
	diff := "+++ b/main.go\n@@ -0,0 +1,1 @@\n+// TODO: handle this edge case\n"
	report := Analyze(diff)
	require.Len(t, report.TODOWarnings, 1)
}

func TestAnalyzeIgnoresTODOLinkedToIssue(t *testing.T) {
	diff := "+++ b/main.go\n@@ -0,0 +1,1 @@\n+// TODO(#123): handle this edge case\n"
	report := Analyze(diff)
	assert.Empty(t, report.TODOWarnings)
}

func TestAnalyzeEmptyDiffProducesEmptyReport(t *testing.T) {
	report := Analyze("")
	assert.True(t, report.IsEmpty())
}

func TestAnalyzeIgnoresRemovedLines(t *testing.T) {
	diff := "+++ b/app.py\n@@ -1,1 +0,0 @@\n-password = \"sup3rs3cr3tvalue123\"\n"
	report := Analyze(diff)
	assert.Empty(t, report.Secrets)
}

func TestCheckLargeFilesFlagsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, LargeFileThresholdBytes+1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), big, 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.txt"), []byte("hi"), 0600))

	violations := CheckLargeFiles(dir, []string{"blob.bin", "small.txt"})
	require.Len(t, violations, 1)
	assert.Equal(t, "blob.bin", violations[0].File)
}

func TestCheckLargeFilesSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	violations := CheckLargeFiles(dir, []string{"gone.txt"})
	assert.Empty(t, violations)
}
