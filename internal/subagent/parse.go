package subagent

import (
	"encoding/json"
	"strings"
)

// parseQuestionDecision implements the tagged-line protocol: a small model
// is more reliable at line prefixes than at valid JSON.
func parseQuestionDecision(raw string) QuestionDecision {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ALLOW_STOP:"):
			return QuestionDecision{Kind: AllowStop, Reason: strings.TrimSpace(strings.TrimPrefix(line, "ALLOW_STOP:"))}
		case strings.HasPrefix(line, "ANSWER:"):
			return QuestionDecision{Kind: Answer, Text: strings.TrimSpace(strings.TrimPrefix(line, "ANSWER:"))}
		}
	}
	return QuestionDecision{Kind: Continue}
}

// extractJSONObject locates the first top-level `{…}` in raw by
// brace-depth counting, ignoring everything outside it. Returns
// "" if no balanced object is found.
func extractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

type codeReviewPayload struct {
	Decision string `json:"decision"`
	Feedback string `json:"feedback"`
}

func parseCodeReview(raw string) CodeReview {
	obj := extractJSONObject(raw)
	if obj == "" {
		return CodeReview{Approved: true, Feedback: "sub-agent reply did not contain a JSON object; defaulting to approved"}
	}
	var p codeReviewPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return CodeReview{Approved: true, Feedback: "sub-agent reply was malformed JSON; defaulting to approved"}
	}
	return CodeReview{Approved: strings.EqualFold(p.Decision, "approve"), Feedback: p.Feedback}
}

type reflectionPayload struct {
	Complete bool   `json:"complete"`
	Feedback string `json:"feedback"`
}

func parseReflection(raw string) Reflection {
	obj := extractJSONObject(raw)
	if obj == "" {
		return Reflection{Complete: true, Feedback: "sub-agent reply did not contain a JSON object; defaulting to complete"}
	}
	var p reflectionPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return Reflection{Complete: true, Feedback: "sub-agent reply was malformed JSON; defaulting to complete"}
	}
	return Reflection{Complete: p.Complete, Feedback: p.Feedback}
}

type decisionPayload struct {
	Decision string `json:"decision"`
	Feedback string `json:"feedback"`
}

func parseEmergencyStop(raw string) EmergencyStopVerdict {
	obj := extractJSONObject(raw)
	if obj == "" {
		return EmergencyStopVerdict{Accept: true}
	}
	var p decisionPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return EmergencyStopVerdict{Accept: true}
	}
	if strings.EqualFold(p.Decision, "accept") {
		return EmergencyStopVerdict{Accept: true}
	}
	return EmergencyStopVerdict{Accept: false, Instructions: p.Feedback}
}

func parseCreateQuestion(raw string) CreateQuestionVerdict {
	obj := extractJSONObject(raw)
	if obj == "" {
		return CreateQuestionVerdict{Accept: false, Reason: "sub-agent reply did not contain a JSON object"}
	}
	var p decisionPayload
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return CreateQuestionVerdict{Accept: false, Reason: "sub-agent reply was malformed JSON"}
	}
	return CreateQuestionVerdict{Accept: strings.EqualFold(p.Decision, "accept"), Reason: p.Feedback}
}
