package hooks

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/gitprobe"
	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/dotcommander/reliability/internal/subagent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o600))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")
	return dir
}

// initGitRepoAheadOfUpstream returns a clean working tree with one local
// commit not yet pushed to its configured upstream, so AheadCount() > 0
// while HasUncommittedChanges() stays false — the one combination that
// bypasses both the uncommitted-changes pipeline and the stage 6 fast path
// without requiring require_push.
func initGitRepoAheadOfUpstream(t *testing.T) string {
	t.Helper()
	dir := initGitRepo(t)
	remote := t.TempDir()
	runGit(t, remote, "init", "-q", "--bare")
	runGit(t, dir, "remote", "add", "origin", remote)

	branchOut, err := exec.Command("git", "-C", dir, "symbolic-ref", "--short", "HEAD").CombinedOutput()
	require.NoError(t, err, string(branchOut))
	branch := strings.TrimSpace(string(branchOut))

	runGit(t, dir, "push", "-q", "-u", "origin", branch)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ahead.txt"), []byte("x"), 0o600))
	runGit(t, dir, "add", "ahead.txt")
	runGit(t, dir, "commit", "-q", "-m", "ahead of upstream")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

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

type fakeTransport struct {
	response string
	err      error
}

func (f fakeTransport) Run(ctx context.Context, prompt string) (string, error) {
	return f.response, f.err
}

func TestStopCleanRepoNoSessionAllows(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{})

	assert.True(t, v.Allow)
}

func TestStopUncommittedChangesBlocks(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o600))

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{})

	assert.False(t, v.Allow)
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0], "Uncommitted Changes")
}

func TestStopUnpushedCommitsBlocksWhenRequirePush(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)

	v := Stop(context.Background(), StopDeps{
		DB:  db,
		Git: gitprobe.New(dir),
		Settings: app.ProjectSettings{
			GitRepo:     true,
			RequirePush: true,
		},
	}, Input{})

	assert.True(t, v.Allow, "no upstream configured means AheadCount is 0, so require_push can't block")
}

func TestStopProblemModeExitClearsMarkerAndAllows(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, store.SetMarker(db, models.MarkerProblemMode))

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{})

	assert.True(t, v.Allow)
	has, err := store.HasMarker(db, models.MarkerProblemMode)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStopBypassProblemPhraseEntersProblemMode(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o600))

	entry := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"I have run into a problem I can't solve without user input."}]}}`
	transcriptPath := writeTranscript(t, entry)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{TranscriptPath: transcriptPath})

	assert.False(t, v.Allow)
	has, err := store.HasMarker(db, models.MarkerProblemMode)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStopBypassHumanInputPhraseAllowsWhenNoOpenIssues(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)

	entry := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"I have completed all work that I can and require human input to proceed."}]}}`
	transcriptPath := writeTranscript(t, entry)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{TranscriptPath: transcriptPath})

	assert.True(t, v.Allow)
}

func TestStopAutoConfirmsCommitQuestion(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)

	entry := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Changes are ready. Would you like me to commit these changes?"}]}}`
	transcriptPath := writeTranscript(t, entry)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{TranscriptPath: transcriptPath})

	assert.False(t, v.Allow)
	assert.Contains(t, v.InjectResponse, "commit")
}

func TestStopAPIErrorLoopAllowsStop(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o600))

	entries := []string{
		`{"type":"assistant","isApiErrorMessage":true,"message":{"role":"assistant","content":[{"type":"text","text":"err1"}]}}`,
		`{"type":"assistant","isApiErrorMessage":true,"message":{"role":"assistant","content":[{"type":"text","text":"err2"}]}}`,
	}
	transcriptPath := writeTranscript(t, entries...)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{TranscriptPath: transcriptPath})

	assert.True(t, v.Allow)
}

func TestStopValidationFailsBlocks(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, store.SetMarker(db, models.MarkerNeedsValidation))

	v := Stop(context.Background(), StopDeps{
		DB:  db,
		Git: gitprobe.New(dir),
		Settings: app.ProjectSettings{
			GitRepo:      true,
			CheckCommand: "exit 1",
		},
	}, Input{})

	assert.False(t, v.Allow)
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0], "Validation Failed")
}

func TestStopValidationPassesClearsMarkerAndAllows(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, store.SetMarker(db, models.MarkerNeedsValidation))

	v := Stop(context.Background(), StopDeps{
		DB:  db,
		Git: gitprobe.New(dir),
		Settings: app.ProjectSettings{
			GitRepo:      true,
			CheckCommand: "exit 0",
		},
	}, Input{})

	assert.True(t, v.Allow)
	has, err := store.HasMarker(db, models.MarkerNeedsValidation)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStopBeadsInteractionRequiredWarnsOnce(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".beads"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o600))

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Beads:    &fakeBeadsClient{available: true},
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{})

	assert.False(t, v.Allow)
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0], "Beads Interaction Required")

	has, err := store.HasMarker(db, models.MarkerBeadsWarning)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStopJKWSessionWorkRemainsBlocks(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, store.PutSessionState(db, models.SessionState{
		Iteration:                0,
		LastIssueChangeIteration: 0,
		GitDiffHash:              "abc",
	}))

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{})

	assert.False(t, v.Allow)
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0], "Work Remains")
}

func TestStopJKWStalenessDetectedClearsSession(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, store.PutSessionState(db, models.SessionState{
		Iteration:                10,
		LastIssueChangeIteration: 0,
		GitDiffHash:              gitprobe.New(dir).WorkingStateHash(),
	}))

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{})

	assert.True(t, v.Allow)
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0], "Staleness Detected")

	session, err := store.GetSessionState(db)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestStopReflectionPromptOnModifyingToolUse(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o600))

	entry := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Done."},{"type":"tool_use","name":"Write","input":{"file_path":"a.txt"}}]}}`
	transcriptPath := writeTranscript(t, entry)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{TranscriptPath: transcriptPath})

	assert.False(t, v.Allow)
	require.Len(t, v.Messages, 1)
	assert.Contains(t, v.Messages[0], "Uncommitted Changes")
}

func TestStopFastPathAllowsCleanRepoDespiteModifyingToolUse(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepo(t)

	entry := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Done."},{"type":"tool_use","name":"Write","input":{"file_path":"a.txt"}}]}}`
	transcriptPath := writeTranscript(t, entry)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true},
	}, Input{TranscriptPath: transcriptPath})

	assert.True(t, v.Allow, "a clean, fully-committed repo with no active JKW session allows immediately, before the reflection stage ever runs")

	has, err := store.HasMarker(db, models.MarkerMustReflect)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStopSkipsReflectionWhenLastOutputIsQuestion(t *testing.T) {
	db := newTestDB(t)
	dir := initGitRepoAheadOfUpstream(t)

	entry := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Should I also update the README?"},{"type":"tool_use","name":"Write","input":{"file_path":"a.txt"}}]}}`
	transcriptPath := writeTranscript(t, entry)

	v := Stop(context.Background(), StopDeps{
		DB:       db,
		Git:      gitprobe.New(dir),
		Settings: app.ProjectSettings{GitRepo: true, RequirePush: false},
	}, Input{TranscriptPath: transcriptPath})

	assert.True(t, v.Allow, "a question as the last output skips the reflection stage entirely rather than setting must_reflect")

	has, err := store.HasMarker(db, models.MarkerMustReflect)
	require.NoError(t, err)
	assert.False(t, has, "the reflection marker must not be set when the stage is skipped for a question")
}

func TestCheckCommitPushQuestionMatchesKnownSuffixes(t *testing.T) {
	reply, ok := checkCommitPushQuestion("All tests pass. Would you like me to commit these changes?")
	assert.True(t, ok)
	assert.NotEmpty(t, reply)

	_, ok = checkCommitPushQuestion("What should I name this function?")
	assert.False(t, ok)
}

func TestLooksLikeQuestion(t *testing.T) {
	assert.True(t, looksLikeQuestion("Some text.\nShould I continue?"))
	assert.False(t, looksLikeQuestion("Some text.\nDone."))
	assert.False(t, looksLikeQuestion(""))
}

func TestIsContinueQuestionSubAgentFallback(t *testing.T) {
	c := subagent.New(fakeTransport{response: "ANSWER: go ahead"})
	decision := c.DecideOnQuestion(context.Background(), "Should I refactor the whole module too?", "1")
	assert.Equal(t, subagent.Answer, decision.Kind)
}

type fakeBeadsClient struct {
	available bool
	ready     int
	current   []string
}

func (f *fakeBeadsClient) IsAvailable() bool       { return f.available }
func (f *fakeBeadsClient) ReadyCount() int         { return f.ready }
func (f *fakeBeadsClient) CurrentIssues() []string { return f.current }
