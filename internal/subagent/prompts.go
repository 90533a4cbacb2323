package subagent

import (
	"fmt"
	"strings"
)

func renderQuestionDecisionPrompt(situation, userRecencyMin string) string {
	return fmt.Sprintf(`You are adjudicating whether an autonomous coding agent should be allowed to stop.

The agent's last output appears to be a question:

%s

The user was last active %s minutes ago.

Reply with exactly one line:
ALLOW_STOP: <reason>   -- if the agent should be allowed to stop and wait for the user
ANSWER: <text>         -- if you can answer the question on the user's behalf
Anything else means the agent should continue working.`, situation, userRecencyMin)
}

func renderCodeReviewPrompt(diff string, files []string, guide string) string {
	var sb strings.Builder
	sb.WriteString("Review the following diff for correctness and quality.\n\n")
	if guide != "" {
		sb.WriteString("Guidance:\n" + guide + "\n\n")
	}
	if len(files) > 0 {
		sb.WriteString("Files changed: " + strings.Join(files, ", ") + "\n\n")
	}
	sb.WriteString("Diff:\n" + diff + "\n\n")
	sb.WriteString(`Reply with a JSON object: {"decision": "approve"|"reject", "feedback": "<text>"}.`)
	return sb.String()
}

func renderReflectionPrompt(assistantOutput, diff string) string {
	return fmt.Sprintf(`The agent claims the following work is complete:

%s

Diff of changes made:

%s

Reply with a JSON object: {"complete": true|false, "feedback": "<text>"}.`, assistantOutput, diff)
}

func renderEmergencyStopPrompt(reason string) string {
	return fmt.Sprintf(`The agent wants to trigger an emergency stop for this reason:

%s

Reply with a JSON object: {"decision": "accept"|"reject", "feedback": "<instructions if rejected>"}.`, reason)
}

func renderCreateQuestionPrompt(text string) string {
	return fmt.Sprintf(`The agent proposes recording this question for the user:

%s

Reply with a JSON object: {"decision": "accept"|"reject", "feedback": "<reason>"}.`, text)
}
