package subagent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// TransportEnv selects between the CLI and direct-API sub-agent transports.
// "api" selects APIClient; anything else (including unset) selects the CLI
// dispatch path, matching the host's existing agent-delegation convention.
const TransportEnv = "RELIABILITY_SUBAGENT_TRANSPORT"

// APIClient calls the Anthropic Messages API directly rather than shelling
// out to a CLI, for hosts that would rather not depend on a sibling CLI
// being installed. Selected via TransportEnv=api.
type APIClient struct {
	messages *sdk.MessageService
	model    string
}

// NewAPIClient builds an APIClient from ANTHROPIC_API_KEY. model selects the
// tier; an empty string defers to the SDK's built-in default constant.
func NewAPIClient(model string) (*APIClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is required for the api sub-agent transport")
	}
	if model == "" {
		model = string(sdk.ModelClaudeSonnet4_5_20250929)
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &APIClient{messages: &client.Messages, model: model}, nil
}

// Run issues a single-turn Messages.New call and concatenates the text
// blocks of the reply.
func (c *APIClient) Run(ctx context.Context, prompt string) (string, error) {
	if err := validatePrompt(prompt); err != nil {
		return "", fmt.Errorf("invalid prompt: %w", err)
	}

	msg, err := c.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 2048,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages.new failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
