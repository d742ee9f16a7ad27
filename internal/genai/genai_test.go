package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/consultiq/consultiq/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp       openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return &m.resp, nil
}

func newMockClient(mock *mockChatService) *Client {
	return &Client{chat: mock, model: openai.ChatModelGPT4oMini}
}

func TestGeneratePrompt_Success(t *testing.T) {
	mock := &mockChatService{
		resp: openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
			},
		},
	}
	client := newMockClient(mock)
	out, err := client.GeneratePrompt(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
}

func TestGeneratePrompt_ServiceError(t *testing.T) {
	client := newMockClient(&mockChatService{err: errors.New("service failure")})
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGeneratePrompt_NoChoices(t *testing.T) {
	client := newMockClient(&mockChatService{resp: openai.ChatCompletion{}})
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected ErrNoChoicesReturned, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

// The real completion service must satisfy chatService; New has a pointer
// receiver, so the client must hold a pointer to it.
var _ chatService = (*openai.ChatCompletionService)(nil)

func TestNewClient_WiresCompletionService(t *testing.T) {
	client, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.chat == nil {
		t.Error("chat service not wired")
	}
	if client.model != openai.ChatModelGPT4oMini {
		t.Errorf("default model = %v", client.model)
	}
}

func TestPhraseActionIncludesKnownAttributes(t *testing.T) {
	mock := &mockChatService{
		resp: openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "What timeline works for you?"}},
			},
		},
	}
	client := newMockClient(mock)

	state := models.ConversationState{
		Stage: models.StageDiscovery,
		Collected: models.Collected{
			OrganizationType: models.OrgNonprofit,
			BusinessNeeds:    []models.Need{models.NeedFundraising},
		},
	}
	action := models.Action{Type: models.ActionAskQuestion, Topic: models.FieldTimeline}

	out, err := client.PhraseAction(context.Background(), action, state)
	if err != nil {
		t.Fatalf("PhraseAction: %v", err)
	}
	if out == "" {
		t.Error("empty phrased message")
	}

	if len(mock.lastParams.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(mock.lastParams.Messages))
	}
	user := mock.lastParams.Messages[1].OfUser.Content.OfString.Value
	if !strings.Contains(user, "timeline") {
		t.Errorf("user prompt missing topic: %q", user)
	}
	if !strings.Contains(user, "nonprofit") {
		t.Errorf("user prompt missing known attributes: %q", user)
	}
}
