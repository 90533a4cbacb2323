// Package hooks implements the four lifecycle decision engines the host
// agent invokes at well-defined points: pre-tool-use, post-tool-use, stop,
// and user-prompt-submit. Each engine reads the common Input JSON
// contract on stdin and returns a typed Decision the command layer
// serializes to each verb's own output schema.
package hooks

import "encoding/json"

// Input is the common hook-invocation payload (Hook input JSON). All
// fields are optional; a hook reads only the ones its stage needs.
type Input struct {
	TranscriptPath   string          `json:"transcript_path"`
	ToolName         string          `json:"tool_name"`
	ToolInput        json.RawMessage `json:"tool_input"`
	ToolResponse     json.RawMessage `json:"tool_response"`
	IsCompactSummary bool            `json:"isCompactSummary"`
}

// toolInputFields is the superset of tool_input keys any gatekeeper stage
// recognizes: command for Bash, skill for Skill, file_path for Write/Edit.
type toolInputFields struct {
	Command  string `json:"command"`
	Skill    string `json:"skill"`
	FilePath string `json:"file_path"`
}

func (in Input) decodeToolInput() toolInputFields {
	var f toolInputFields
	if len(in.ToolInput) == 0 {
		return f
	}
	_ = json.Unmarshal(in.ToolInput, &f)
	return f
}

// toolResponseFields is the superset of tool_response keys the post-tool
// harvester recognizes: stdout/stderr for Bash, filePath for ExitPlanMode.
// tool_response may also arrive as a bare string, in which case every
// field below is left zero.
type toolResponseFields struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	FilePath string `json:"filePath"`
}

func (in Input) decodeToolResponse() toolResponseFields {
	var f toolResponseFields
	if len(in.ToolResponse) == 0 {
		return f
	}
	_ = json.Unmarshal(in.ToolResponse, &f)
	return f
}

// PermissionDecision is the pre-tool-use verdict.
type PermissionDecision string

// Permission decision values.
const (
	PermissionAllow PermissionDecision = "allow"
	PermissionBlock PermissionDecision = "block"
)

// PreToolOutput is the pre-tool-use gatekeeper's output ( output
// schema): {hook_specific_output: {permission_decision, additional_context?}}.
type PreToolOutput struct {
	HookSpecificOutput PreToolHookSpecific `json:"hook_specific_output"`
}

// PreToolHookSpecific carries the actual decision fields.
type PreToolHookSpecific struct {
	PermissionDecision PermissionDecision `json:"permission_decision"`
	AdditionalContext  string              `json:"additional_context,omitempty"`
}

// StopVerdict is the internal result of the stop decision engine
// before it is rendered to the host's stdout/stderr + exit-code contract.
type StopVerdict struct {
	Allow          bool
	Messages       []string
	InjectResponse string
}

// ExitCode returns 0 for allow, 2 for block, /.
func (v StopVerdict) ExitCode() int {
	if v.Allow {
		return 0
	}
	return 2
}

// StopSystemMessage is the stdout payload emitted on an allow verdict that
// carries user-facing messages (Output formatting).
type StopSystemMessage struct {
	SystemMessage string `json:"systemMessage"`
}

// UserPromptOutput is the optional stdout payload for user-prompt-submit
// ("optional system-message JSON on stdout").
type UserPromptOutput struct {
	SystemMessage string `json:"systemMessage"`
}
