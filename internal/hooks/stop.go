package hooks

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/dotcommander/reliability/internal/app"
	"github.com/dotcommander/reliability/internal/beads"
	"github.com/dotcommander/reliability/internal/diffanalysis"
	"github.com/dotcommander/reliability/internal/gitprobe"
	"github.com/dotcommander/reliability/internal/models"
	"github.com/dotcommander/reliability/internal/store"
	"github.com/dotcommander/reliability/internal/subagent"
	"github.com/dotcommander/reliability/internal/templates"
	"github.com/dotcommander/reliability/internal/transcript"
)

const apiErrorThreshold = 2

const userRecencyWindow = 5 * time.Minute

// jkwStalenessThreshold is the iteration gap after which a just-keep-working
// session is considered stalled and torn down (stage 11).
const jkwStalenessThreshold = 5

const checkCommandTimeout = 120 * time.Second

const humanInputRequiredPhrase = "I have completed all work that I can and require human input to proceed."

const problemNeedsUserPhrase = "I have run into a problem I can't solve without user input."

// beadsClient is the subset of *beads.Client the stop engine depends on,
// narrowed to an interface so tests can substitute a fake without a live bd
// binary on PATH.
type beadsClient interface {
	IsAvailable() bool
	ReadyCount() int
	CurrentIssues() []string
}

var _ beadsClient = (*beads.Client)(nil)

// StopDeps are the external collaborators the stop engine needs.
type StopDeps struct {
	DB       *sql.DB
	Git      *gitprobe.Probe
	Beads    beadsClient
	SubAgent *subagent.Client
	Settings app.ProjectSettings
}

// Stop runs the stop decision engine: a fixed sequence of checks
// where the first one that produces a verdict wins and the final default is
// always allow.
func Stop(ctx context.Context, deps StopDeps, in Input) StopVerdict {
	rec := transcript.Read(in.TranscriptPath)

	if inProblemMode, _ := store.HasMarker(deps.DB, models.MarkerProblemMode); inProblemMode {
		_ = store.ClearMarker(deps.DB, models.MarkerProblemMode)
		_ = store.ClearSessionState(deps.DB)
		return allowStop(templates.Render("messages/stop/problem_mode_exit", nil))
	}

	if rec.ConsecutiveAPIErrors >= apiErrorThreshold {
		return allowStop(templates.Render("messages/stop/api_error_loop", map[string]any{
			"error_count": rec.ConsecutiveAPIErrors,
		}))
	}

	if deps.Settings.GitRepo {
		if reply, ok := checkCommitPushQuestion(rec.LastAssistantOutput); ok {
			return blockStopInject(reply)
		}
	}

	if needsValidation, _ := store.HasMarker(deps.DB, models.MarkerNeedsValidation); needsValidation && deps.Settings.CheckCommand != "" {
		stdout, stderr, err := runCheckCommand(ctx, deps.Settings.CheckCommand, deps.Git)
		if err != nil {
			return blockStop(templates.Render("messages/stop/validation_failed", map[string]any{
				"check_cmd": deps.Settings.CheckCommand,
				"stdout":    lastLines(stdout, 50),
				"stderr":    lastLines(stderr, 50),
			}))
		}
		_ = store.ClearMarker(deps.DB, models.MarkerNeedsValidation)
	}

	session, _ := store.GetSessionState(deps.DB)

	if strings.Contains(rec.LastAssistantOutput, problemNeedsUserPhrase) {
		_ = store.SetMarker(deps.DB, models.MarkerProblemMode)
		return blockStop(templates.Render("messages/stop/problem_mode_activated", nil))
	}
	if strings.Contains(rec.LastAssistantOutput, humanInputRequiredPhrase) {
		if deps.Beads != nil && deps.Beads.IsAvailable() {
			if ready := deps.Beads.ReadyCount(); ready > 0 {
				return blockStop(templates.Render("messages/stop/open_issues_remaining", map[string]any{
					"open_count": ready,
				}))
			}
		}
		_ = store.ClearSessionState(deps.DB)
		return allowStop("")
	}

	if deps.Settings.GitRepo && deps.Git.HasUncommittedChanges() {
		return handleUncommittedChanges(ctx, deps, rec)
	}

	if deps.Settings.GitRepo && deps.Settings.RequirePush {
		if ahead := deps.Git.AheadCount(); ahead > 0 {
			return blockStop(templates.Render("messages/stop/unpushed_commits", map[string]any{
				"commits_ahead": ahead,
			}))
		}
	}

	if session == nil && (!deps.Settings.GitRepo || (!deps.Git.HasUncommittedChanges() && deps.Git.AheadCount() == 0)) {
		return allowStop("")
	}

	if v, handled := checkInteractiveQuestion(ctx, deps, rec); handled {
		return v
	}

	if session != nil {
		return handleJKWIteration(ctx, deps, session)
	}

	if deps.Settings.CheckCommand != "" {
		stdout, stderr, err := runCheckCommand(ctx, deps.Settings.CheckCommand, deps.Git)
		if err != nil {
			return blockStop(templates.Render("messages/stop/quality_gates_failed", map[string]any{
				"output": lastLines(stdout+stderr, 50),
			}))
		}
	}

	if mustReflect, _ := store.HasMarker(deps.DB, models.MarkerMustReflect); mustReflect {
		_ = store.ClearMarker(deps.DB, models.MarkerMustReflect)
		return allowStop("")
	}
	if looksLikeQuestion(rec.LastAssistantOutput) {
		return allowStop("")
	}
	if rec.HasModifyingToolUseSinceUser {
		_ = store.SetMarker(deps.DB, models.MarkerMustReflect)
		return blockStop(templates.Render("messages/stop/reflection_prompt", map[string]any{
			"assistant_output": rec.LastAssistantOutput,
			"diff":             deps.Git.CombinedDiff(),
		}))
	}

	return allowStop("")
}

func handleUncommittedChanges(ctx context.Context, deps StopDeps, rec *transcript.Record) StopVerdict {
	if deps.Beads != nil && deps.Beads.IsAvailable() {
		alreadyWarned, _ := store.HasMarker(deps.DB, models.MarkerBeadsWarning)
		if !rec.HasBeadsCommandUse && !alreadyWarned {
			_ = store.SetMarker(deps.DB, models.MarkerBeadsWarning)
			return blockStop(templates.Render("messages/stop/beads_interaction", nil))
		}
	}

	report := diffanalysis.Analyze(deps.Git.CombinedDiff())
	report.LargeFiles = diffanalysis.CheckLargeFiles(deps.Git.Dir, deps.Git.ChangedFiles())

	qualityFailed := false
	qualityOutput := ""
	if deps.Settings.CheckCommand != "" {
		stdout, stderr, err := runCheckCommand(ctx, deps.Settings.CheckCommand, deps.Git)
		qualityFailed = err != nil
		qualityOutput = lastLines(stdout+stderr, 50)
	}

	vars := map[string]any{
		"changes_description":     "uncommitted changes",
		"quality_check_enabled":   deps.Settings.CheckCommand != "",
		"check_cmd":               deps.Settings.CheckCommand,
		"quality_failed":          qualityFailed,
		"quality_output":          qualityOutput,
		"suppression_violations":  violationStrings(report.Suppressions),
		"empty_except_violations": violationStrings(report.EmptyHandlers),
		"secret_violations":       violationStrings(report.Secrets),
		"todo_warnings":           violationStrings(report.TODOWarnings),
		"large_file_violations":   violationStrings(report.LargeFiles),
		"untracked_files":         capList(deps.Git.UntrackedFiles(), 10),
		"remediation_steps":       remediationSteps(deps.Settings),
	}
	return blockStop(templates.Render("messages/stop/uncommitted_changes", vars))
}

func handleJKWIteration(ctx context.Context, deps StopDeps, session *models.SessionState) StopVerdict {
	session.Iteration++

	beadsAvailable := deps.Beads != nil && deps.Beads.IsAvailable()
	var current []string
	if beadsAvailable {
		current = deps.Beads.CurrentIssues()
		if beads.SnapshotDiffers(session.IssueSnapshot, current) {
			session.LastIssueChangeIteration = session.Iteration
		}
		session.IssueSnapshot = current
	} else {
		hash := deps.Git.WorkingStateHash()
		if session.GitDiffHash != hash {
			session.LastIssueChangeIteration = session.Iteration
			session.GitDiffHash = hash
		}
	}

	_ = store.PutSessionState(deps.DB, *session)

	sinceChange := session.Iteration - session.LastIssueChangeIteration
	if sinceChange >= jkwStalenessThreshold {
		_ = store.ClearSessionState(deps.DB)
		return allowStop(templates.Render("messages/stop/staleness_detected", map[string]any{
			"iterations_since_change": sinceChange,
			"staleness_threshold":     jkwStalenessThreshold,
		}))
	}

	if beadsAvailable && len(current) == 0 {
		if deps.Settings.CheckCommand != "" {
			stdout, stderr, err := runCheckCommand(ctx, deps.Settings.CheckCommand, deps.Git)
			if err == nil {
				return blockStop(templates.Render("messages/stop/all_work_complete", map[string]any{
					"human_input_phrase": humanInputRequiredPhrase,
				}))
			}
			return blockStop(templates.Render("messages/stop/quality_gates_failed", map[string]any{
				"output": lastLines(stdout+stderr, 50),
			}))
		}
	}

	return blockStop(templates.Render("messages/stop/work_item_reminder", map[string]any{
		"task_count":              len(current),
		"staleness_warning":       sinceChange > 2,
		"iterations_since_change": sinceChange,
		"human_input_phrase":      humanInputRequiredPhrase,
	}))
}

func checkInteractiveQuestion(ctx context.Context, deps StopDeps, rec *transcript.Record) (StopVerdict, bool) {
	if rec.LastAssistantOutput == "" || !looksLikeQuestion(rec.LastAssistantOutput) {
		return StopVerdict{}, false
	}
	if !isUserRecentlyActive(rec) {
		return StopVerdict{}, false
	}

	situation := truncateForContext(rec.LastAssistantOutput, 2000)

	if isContinueQuestion(situation) {
		return blockStopInject(templates.Render("messages/stop/should_i_continue_reply", nil)), true
	}

	if deps.SubAgent == nil {
		return StopVerdict{}, false
	}
	decision := deps.SubAgent.DecideOnQuestion(ctx, situation, fmt.Sprintf("%d", int(userRecencyWindow.Minutes())))
	switch decision.Kind {
	case subagent.AllowStop:
		return allowStop(""), true
	case subagent.Answer:
		return blockStopInject(decision.Text), true
	default:
		return StopVerdict{}, false
	}
}

var commitQuestionSuffixes = []string{
	"Would you like me to commit these changes?",
	"Would you like me to commit this?",
	"Would you like me to commit?",
	"Shall I commit these changes?",
	"Should I commit these changes?",
	"Ready to commit?",
}

var pushQuestionSuffixes = []string{
	"Would you like me to push these changes?",
	"Would you like me to push this?",
	"Would you like me to push?",
	"Shall I push these changes?",
	"Should I push these changes?",
	"Should I push?",
	"Ready to push?",
}

var commitAndPushQuestionSuffixes = []string{
	"Would you like me to commit and push?",
	"Would you like me to commit and push these changes?",
	"Shall I commit and push?",
	"Should I commit and push?",
}

// checkCommitPushQuestion auto-confirms a trailing commit/push question in
// the assistant's last output (stage 4).
func checkCommitPushQuestion(output string) (string, bool) {
	trimmed := strings.TrimSpace(output)
	switch {
	case hasAnySuffix(trimmed, commitQuestionSuffixes):
		return templates.Render("messages/stop/commit_confirm_reply", nil), true
	case hasAnySuffix(trimmed, pushQuestionSuffixes):
		return templates.Render("messages/stop/push_confirm_reply", nil), true
	case hasAnySuffix(trimmed, commitAndPushQuestionSuffixes):
		return templates.Render("messages/stop/commit_and_push_confirm_reply", nil), true
	default:
		return "", false
	}
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// looksLikeQuestion applies the trailing-line heuristic: the last non-empty
// line of the output ends with "?" (stage 10).
func looksLikeQuestion(output string) bool {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return false
	}
	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	return strings.HasSuffix(last, "?")
}

var continueQuestionPhrases = []string{
	"should i continue",
	"shall i continue",
	"would you like me to continue",
}

func isContinueQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range continueQuestionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func isUserRecentlyActive(rec *transcript.Record) bool {
	if rec.LastUserMessageTime.IsZero() {
		return false
	}
	return time.Since(rec.LastUserMessageTime) <= userRecencyWindow
}

func truncateForContext(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func violationStrings(vs []diffanalysis.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func capList(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	out := append([]string{}, items[:max]...)
	return append(out, fmt.Sprintf("and %d more", len(items)-max))
}

func remediationSteps(s app.ProjectSettings) []string {
	steps := []string{"1. Run `git status` to check for files that should be gitignored"}
	n := 2
	if s.CheckCommand != "" {
		steps = append(steps, fmt.Sprintf("%d. Run quality checks to verify they pass", n))
		n++
	}
	steps = append(steps, fmt.Sprintf("%d. Stage your changes: `git add <files>`", n))
	n++
	steps = append(steps, fmt.Sprintf("%d. Commit with a descriptive message: `git commit -m '...'`", n))
	n++
	if s.RequirePush {
		steps = append(steps, fmt.Sprintf("%d. Push to remote: `git push`", n))
	}
	return steps
}

func runCheckCommand(ctx context.Context, command string, git *gitprobe.Probe) (stdout, stderr string, err error) {
	cctx, cancel := context.WithTimeout(ctx, checkCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", command) //nolint:gosec // G204: operator-configured quality-check command, not user input
	if git != nil {
		cmd.Dir = git.Dir
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	return outBuf.String(), errBuf.String(), runErr
}

func lastLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[len(lines)-max:], "\n")
}

func allowStop(message string) StopVerdict {
	v := StopVerdict{Allow: true}
	if message != "" {
		v.Messages = []string{message}
	}
	return v
}

func blockStop(message string) StopVerdict {
	return StopVerdict{Allow: false, Messages: []string{message}}
}

func blockStopInject(reply string) StopVerdict {
	return StopVerdict{Allow: false, InjectResponse: reply}
}
