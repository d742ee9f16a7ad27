package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/consultiq/consultiq/internal/models"
)

// fallbackWelcome opens a session when no text-generation client is
// configured or the call fails.
const fallbackWelcome = "Hi! I'm here to learn a bit about your organization and " +
	"see how our consulting team can help. What brings you in today?"

// phrase produces the user-facing message for an action, preferring the
// genai client and falling back to templates. override, when non-empty,
// replaces the template fallback.
func (s *Server) phrase(r *http.Request, action models.Action, state models.ConversationState, override string) string {
	if s.ga != nil {
		msg, err := s.ga.PhraseAction(r.Context(), action, state)
		if err == nil && msg != "" {
			return msg
		}
		if err != nil {
			slog.Warn("Server.phrase: generation failed, using template", "error", err, "action", action.Type)
		}
	}
	if override != "" {
		return override
	}
	return fallbackMessage(action, state)
}

// fallbackMessage renders a canned message per action type.
func fallbackMessage(action models.Action, state models.ConversationState) string {
	switch action.Type {
	case models.ActionCollectEmail:
		return "Before we go further, what's the best email address to reach you at?"
	case models.ActionAskQuestion:
		return fallbackQuestion(action.Topic)
	case models.ActionGenerateSummary:
		return fallbackSummary(state)
	case models.ActionEvaluateQualification:
		return "Thanks, that's really helpful. Is there anything else about your goals I should know?"
	default:
		return "Tell me more about your organization and what you're hoping to accomplish."
	}
}

func fallbackQuestion(topic models.Field) string {
	switch topic {
	case models.FieldOrganizationType:
		return "What kind of organization are you with?"
	case models.FieldBusinessNeeds:
		return "What are the main things you're looking for help with?"
	case models.FieldTimeline:
		return "What's your timeline for getting started?"
	case models.FieldBudget:
		return "Do you have a budget range in mind for this project?"
	default:
		return "Could you tell me a bit more about that?"
	}
}

func fallbackSummary(state models.ConversationState) string {
	var b strings.Builder
	b.WriteString("Thanks for sharing all of that! Here's what I have: ")
	var parts []string
	if state.Collected.OrganizationType != "" {
		parts = append(parts, fmt.Sprintf("you're a %s", state.Collected.OrganizationType))
	}
	if len(state.Collected.BusinessNeeds) > 0 {
		needs := make([]string, len(state.Collected.BusinessNeeds))
		for i, n := range state.Collected.BusinessNeeds {
			needs[i] = strings.ReplaceAll(string(n), "_", " ")
		}
		parts = append(parts, "looking for help with "+strings.Join(needs, ", "))
	}
	if state.Collected.Timeline != "" {
		parts = append(parts, fmt.Sprintf("on a %s timeline", state.Collected.Timeline))
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(". ")
	}
	b.WriteString("One of our consultants will reach out shortly to set up a call.")
	return b.String()
}
