// Package subagent implements delegation to a secondary model instance,
// which adjudicates ambiguous questions, auto-answers "continue?" prompts,
// reviews diffs, and reflects on completeness. Supports both a CLI-shelling
// transport and an optional direct-API transport.
package subagent

import (
	"context"
	"time"
)

// Timeouts per call kind (Invocation).
const (
	QuestionDecisionTimeout = 60 * time.Second
	ReflectionTimeout       = 90 * time.Second
	CodeReviewTimeout       = 300 * time.Second
)

// QuestionDecision is the outcome of decide_on_question.
type QuestionDecision struct {
	Kind   QuestionDecisionKind
	Reason string // set when Kind == AllowStop
	Text   string // set when Kind == Answer
}

// QuestionDecisionKind enumerates the decide_on_question variants.
type QuestionDecisionKind int

const (
	Continue QuestionDecisionKind = iota
	AllowStop
	Answer
)

// CodeReview is the outcome of review_code.
type CodeReview struct {
	Approved bool
	Feedback string
}

// Reflection is the outcome of reflect_on_work.
type Reflection struct {
	Complete bool
	Feedback string
}

// EmergencyStopVerdict is the outcome of evaluate_emergency_stop.
type EmergencyStopVerdict struct {
	Accept       bool
	Instructions string // populated when Accept is false
}

// CreateQuestionVerdict is the outcome of evaluate_create_question.
type CreateQuestionVerdict struct {
	Accept bool
	Reason string
}

// Transport launches a sub-agent process or API call and returns its raw
// text response, bounded by ctx's deadline. Implementations: Runner (CLI
// dispatch) and APIClient (direct anthropic-sdk-go call).
type Transport interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Client adjudicates the five sub-agent contracts defined in, applying
// the documented conservative fallback whenever the transport fails.
type Client struct {
	Transport Transport
}

// New returns a Client wrapping the given transport.
func New(t Transport) *Client {
	return &Client{Transport: t}
}

// DecideOnQuestion asks the sub-agent whether the host should let the agent
// stop, answer on the user's behalf, or let the agent continue. Transport
// failure falls back to Continue.
func (c *Client) DecideOnQuestion(ctx context.Context, situation, userRecencyMin string) QuestionDecision {
	ctx, cancel := context.WithTimeout(ctx, QuestionDecisionTimeout)
	defer cancel()

	prompt := renderQuestionDecisionPrompt(situation, userRecencyMin)
	raw, err := c.Transport.Run(ctx, prompt)
	if err != nil {
		return QuestionDecision{Kind: Continue}
	}
	return parseQuestionDecision(raw)
}

// ReviewCode asks the sub-agent to review a diff. Transport failure falls
// back to approved=true with a warning.
func (c *Client) ReviewCode(ctx context.Context, diff string, files []string, guide string) CodeReview {
	ctx, cancel := context.WithTimeout(ctx, CodeReviewTimeout)
	defer cancel()

	prompt := renderCodeReviewPrompt(diff, files, guide)
	raw, err := c.Transport.Run(ctx, prompt)
	if err != nil {
		return CodeReview{Approved: true, Feedback: "sub-agent code review unavailable: " + err.Error()}
	}
	return parseCodeReview(raw)
}

// ReflectOnWork asks the sub-agent whether the assistant's claimed work is
// actually complete. Transport failure falls back to complete=true with a
// warning.
func (c *Client) ReflectOnWork(ctx context.Context, assistantOutput, diff string) Reflection {
	ctx, cancel := context.WithTimeout(ctx, ReflectionTimeout)
	defer cancel()

	prompt := renderReflectionPrompt(assistantOutput, diff)
	raw, err := c.Transport.Run(ctx, prompt)
	if err != nil {
		return Reflection{Complete: true, Feedback: "sub-agent reflection unavailable: " + err.Error()}
	}
	return parseReflection(raw)
}

// EvaluateEmergencyStop asks the sub-agent whether an emergency stop should
// be accepted. Transport failure accepts (conservative: let the agent stop,
// ).
func (c *Client) EvaluateEmergencyStop(ctx context.Context, reason string) EmergencyStopVerdict {
	ctx, cancel := context.WithTimeout(ctx, QuestionDecisionTimeout)
	defer cancel()

	prompt := renderEmergencyStopPrompt(reason)
	raw, err := c.Transport.Run(ctx, prompt)
	if err != nil {
		return EmergencyStopVerdict{Accept: true}
	}
	return parseEmergencyStop(raw)
}

// EvaluateCreateQuestion asks the sub-agent whether a proposed question is
// worth recording. Transport failure rejects conservatively (don't clutter
// the question queue on a failed call).
func (c *Client) EvaluateCreateQuestion(ctx context.Context, text string) CreateQuestionVerdict {
	ctx, cancel := context.WithTimeout(ctx, QuestionDecisionTimeout)
	defer cancel()

	prompt := renderCreateQuestionPrompt(text)
	raw, err := c.Transport.Run(ctx, prompt)
	if err != nil {
		return CreateQuestionVerdict{Accept: false, Reason: "sub-agent unavailable: " + err.Error()}
	}
	return parseCreateQuestion(raw)
}
