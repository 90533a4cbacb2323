package templates

// sources is the embedded default set of user-facing templates. Every
// message the hooks emit is rendered from one of these, never built ad hoc,
// so wording changes stay confined to this file (Design Notes).
var sources = map[string]string{ //nolint:gochecknoglobals // embedded template set, loaded once
	"prompts/question_decision": questionDecisionPrompt,
	"prompts/code_review":       codeReviewPrompt,
	"prompts/emergency_stop_decision": emergencyStopDecisionPrompt,
	"prompts/create_question_decision": createQuestionDecisionPrompt,

	"messages/stop/problem_mode_exit":       problemModeExitMessage,
	"messages/stop/problem_mode_activated":  problemModeActivatedMessage,
	"messages/stop/api_error_loop":          apiErrorLoopMessage,
	"messages/stop/validation_failed":       validationFailedMessage,
	"messages/stop/uncommitted_changes":     uncommittedChangesMessage,
	"messages/stop/unpushed_commits":        unpushedCommitsMessage,
	"messages/stop/open_issues_remaining":   openIssuesRemainingMessage,
	"messages/stop/staleness_detected":      stalenessDetectedMessage,
	"messages/stop/work_item_reminder":      workItemReminderMessage,
	"messages/stop/beads_interaction":       beadsInteractionMessage,
	"messages/stop/reflection_prompt":       reflectionPromptMessage,
	"messages/stop/all_work_complete":       allWorkCompleteMessage,
	"messages/stop/quality_gates_failed":    qualityGatesFailedMessage,
	"messages/stop/should_i_continue_reply": shouldIContinueReplyMessage,
	"messages/stop/commit_confirm_reply":    commitConfirmReplyMessage,
	"messages/stop/push_confirm_reply":      pushConfirmReplyMessage,
	"messages/stop/commit_and_push_confirm_reply": commitAndPushConfirmReplyMessage,

	"messages/problem_mode_block":       problemModeBlockMessage,
	"messages/protect_config_write":     protectConfigWriteMessage,
	"messages/no_verify_block":          noVerifyBlockMessage,
	"messages/jkw_setup_required":       jkwSetupRequiredMessage,
	"messages/emergency_stop_block":     emergencyStopBlockMessage,
	"messages/post_compaction_reminder": postCompactionReminderMessage,
	"messages/binary_location_warning":  binaryLocationWarningMessage,
	"messages/warnings_task_title":      warningsTaskTitleMessage,
	"messages/warnings_task_body":       warningsTaskBodyMessage,
}

const questionDecisionPrompt = `You are adjudicating whether an autonomous coding agent should be allowed
to stop and wait for the human, or whether you can answer on the human's
behalf.

Situation:
{{.situation}}

The user has been inactive for {{.user_recency_min}} minute(s).

Respond with exactly one line:
  ALLOW_STOP: <reason the human genuinely needs to weigh in>
  ANSWER: <the answer the agent should proceed with>
Anything else is treated as: let the agent continue working.
`

const codeReviewPrompt = `Review the following diff for correctness, safety, and completeness.

Files changed:
{{.files_list}}
{{if .guide}}
Review guidelines:
{{.guide}}
{{end}}
Diff:
{{.diff}}

Respond with a single JSON object: {"decision": "approve"|"reject", "feedback": "<text>"}.
`

const emergencyStopPromptBody = `An autonomous coding agent has requested an emergency stop.

Explanation given by the agent:
{{.reason}}

Decide whether this stop should be accepted. Respond with a single JSON
object: {"decision": "accept"|"reject", "instructions": "<what the agent should do instead, if rejected>"}.
`

const emergencyStopDecisionPrompt = emergencyStopPromptBody

const createQuestionDecisionPrompt = `An autonomous coding agent wants to record the following question for a
human to answer later:

{{.question_text}}

Decide whether this question is worth recording. Respond with a single
JSON object: {"decision": "accept"|"reject", "reason": "<reason>"}.
`

const problemModeExitMessage = `# Problem Mode Cleared

You previously entered problem mode. It has now been cleared and your
session files have been reset. Describe the problem to the user and wait
for guidance before taking further action.
`

const problemModeActivatedMessage = `# Problem Mode Activated

You indicated you cannot proceed without user input. Problem mode is now
active: every subsequent tool call will be blocked until the user responds
and you stop again to clear it. Explain the problem clearly and stop.
`

const apiErrorLoopMessage = `Repeated API errors detected ({{.error_count}} in a row). Allowing the
agent to stop rather than loop further.
`

const validationFailedMessage = `# Validation Failed

Running "{{.check_cmd}}" failed. Fix the issues below before stopping again.

stdout (last lines):
{{.stdout}}

stderr (last lines):
{{.stderr}}
`

const uncommittedChangesMessage = `# Uncommitted Changes Detected

{{.changes_description}}

{{if .quality_check_enabled}}Quality check ("{{.check_cmd}}"): {{if .quality_failed}}FAILED
{{.quality_output}}
{{else}}passed
{{end}}{{end}}{{if .suppression_violations}}
Suppression directives introduced:
{{range .suppression_violations}}  - {{.}}
{{end}}{{end}}{{if .empty_except_violations}}
Empty exception handlers introduced:
{{range .empty_except_violations}}  - {{.}}
{{end}}{{end}}{{if .secret_violations}}
Possible secrets introduced:
{{range .secret_violations}}  - {{.}}
{{end}}{{end}}{{if .todo_warnings}}
TODO/FIXME markers without a linked issue:
{{range .todo_warnings}}  - {{.}}
{{end}}{{end}}{{if .large_file_violations}}
Large files introduced:
{{range .large_file_violations}}  - {{.}}
{{end}}{{end}}{{if .untracked_files}}
Untracked files:
{{range .untracked_files}}  - {{.}}
{{end}}{{end}}
Before stopping:
{{range .remediation_steps}}  {{.}}
{{end}}`

const unpushedCommitsMessage = `# Unpushed Commits

You are {{.commits_ahead}} commit(s) ahead of the remote and this project
requires pushing before stopping. Push your commits, then stop again.
`

const openIssuesRemainingMessage = `# Work Remains

You indicated you were done, but {{.open_count}} ready issue(s) remain.
Continue working on the remaining issues rather than stopping.
`

const stalenessDetectedMessage = `# Staleness Detected

{{.iterations_since_change}} iterations have passed since the tracked work
last changed (threshold: {{.staleness_threshold}}). The just-keep-working
session has been cleared; treat this as a fresh stopping point.
`

const workItemReminderMessage = `# Work Remains

{{.task_count}} task(s) are still open.{{if .staleness_warning}} No change in
tracked work for {{.iterations_since_change}} iteration(s) — consider
whether the current approach is actually making progress.{{end}}

Options:
  - Continue working the next open task.
  - Run ideation if you are out of concrete next steps.
  - If truly done, say: "{{.human_input_phrase}}"
`

const beadsInteractionMessage = `# Beads Interaction Required

This project tracks work with beads, but it has not been consulted this
session. Run "bd list --status=open" (and "--status=in_progress") before
stopping so tracked work isn't silently abandoned.
`

const reflectionPromptMessage = `Before stopping, reflect: does the work described below actually satisfy
the original request, or does something remain?

Assistant's last output:
{{.assistant_output}}

Diff since the last genuine user message:
{{.diff}}

Summarize what was done and what (if anything) remains, then stop again.
`

const allWorkCompleteMessage = `# Checking Completion

No outstanding issues and quality gates passed.

## Options

  1. Run ideation to generate new work items.
  2. Say an exit phrase to end the session:

  "{{.human_input_phrase}}"
`

const qualityGatesFailedMessage = `# Quality Gates Failed

Quality checks must pass before exiting.

{{.output}}
`

const shouldIContinueReplyMessage = `Yes, please continue.`

const commitConfirmReplyMessage = `Yes, please commit these changes.`

const pushConfirmReplyMessage = `Yes, please push.`

const commitAndPushConfirmReplyMessage = `Yes, please commit and push.`

const problemModeBlockMessage = `# Blocked: Problem Mode Active

The agent is in problem mode. Explain the problem to the user and stop;
do not attempt further tool calls until the user responds.
`

const protectConfigWriteMessage = `# Blocked: Protected Configuration File

"{{.config_path}}" is the reliability harness's own configuration file and
cannot be modified by the agent directly. Ask the user to edit it if a
change is genuinely needed.
`

const noVerifyBlockMessage = `# Blocked: --no-verify

This command bypasses commit verification hooks ("--no-verify") without a
recorded user acknowledgment. If the user has explicitly authorized this,
append the exact phrase "{{.acknowledgment}}" to the command.
`

const jkwSetupRequiredMessage = `# BLOCKED: Just-Keep-Working Setup Required

Before making any other changes, create the session file at
"{{.session_notes_path}}" describing your plan for this just-keep-working
session. Once that file exists, this block is lifted automatically.
`

const emergencyStopBlockMessage = `# Blocked: Emergency Stop Active

An emergency stop is in effect. No further tool calls will be permitted
until the user clears it.
`

const postCompactionReminderMessage = `Your context was just compacted. Re-read your session notes at
"{{.session_notes_path}}" before continuing so you don't repeat or lose
track of work.
`

const binaryLocationWarningMessage = `This harness appears to be running from a cache location rather than the
project's expected ".claude-reliability/bin/" directory. Results may be
stale; consider reinstalling the hooks.
`

const warningsTaskTitleMessage = `Fix warnings from: {{.command}}`

const warningsTaskBodyMessage = `Command: {{.command}}

Warnings:
{{.warnings}}`
