// Package genai phrases engine decisions into natural-language messages
// using the OpenAI API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/consultiq/consultiq/internal/models"
)

// ErrNoChoicesReturned indicates the completion API returned an empty choice list.
var ErrNoChoicesReturned = errors.New("no choices returned")

// chatService defines the minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the chat model used for phrasing.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// Client wraps the OpenAI chat completion service for phrasing messages.
type Client struct {
	chat  chatService
	model openai.ChatModel
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable when not set via options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{chat: &cli.Chat.Completions, model: model}, nil
}

// GeneratePrompt generates a response from the provided system and user prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}

const systemPrompt = `You are a friendly consultant at a digital consulting firm, ` +
	`chatting with a prospective client. Write one short conversational message ` +
	`that accomplishes the stated goal. Do not invent services or prices. ` +
	`Do not use bullet points.`

// PhraseAction asks the model to phrase the arbiter's chosen action as a
// chat message, given what is already known about the lead.
func (c *Client) PhraseAction(ctx context.Context, action models.Action, state models.ConversationState) (string, error) {
	var goal strings.Builder
	switch action.Type {
	case models.ActionCollectEmail:
		goal.WriteString("Goal: ask the visitor for their email address so the team can follow up.")
	case models.ActionAskQuestion:
		fmt.Fprintf(&goal, "Goal: ask the visitor about their %s.", topicDescription(action.Topic))
	case models.ActionGenerateSummary:
		goal.WriteString("Goal: summarize what was discussed and say a consultant will reach out.")
	case models.ActionEvaluateQualification:
		goal.WriteString("Goal: acknowledge what they shared and ask a light follow-up that fills in detail.")
	default:
		goal.WriteString("Goal: keep the conversation going with an open question about their situation.")
	}

	goal.WriteString("\nKnown so far:")
	if state.Collected.Name != "" {
		fmt.Fprintf(&goal, " name=%s;", state.Collected.Name)
	}
	if state.Collected.OrganizationType != "" {
		fmt.Fprintf(&goal, " organization type=%s;", state.Collected.OrganizationType)
	}
	if len(state.Collected.BusinessNeeds) > 0 {
		fmt.Fprintf(&goal, " needs=%v;", state.Collected.BusinessNeeds)
	}
	if state.Collected.Timeline != "" {
		fmt.Fprintf(&goal, " timeline=%s;", state.Collected.Timeline)
	}
	if state.Collected.Budget != "" {
		fmt.Fprintf(&goal, " budget=%s;", state.Collected.Budget)
	}

	return c.GeneratePrompt(ctx, systemPrompt, goal.String())
}

func topicDescription(topic models.Field) string {
	switch topic {
	case models.FieldOrganizationType:
		return "kind of organization"
	case models.FieldBusinessNeeds:
		return "goals and what they need help with"
	case models.FieldTimeline:
		return "timeline for getting started"
	case models.FieldBudget:
		return "budget range for the project"
	default:
		return string(topic)
	}
}
