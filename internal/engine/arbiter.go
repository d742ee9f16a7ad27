package engine

import "github.com/consultiq/consultiq/internal/models"

// askOrder fixes the sequence in which missing attributes are asked about.
var askOrder = []models.Field{
	models.FieldOrganizationType,
	models.FieldBusinessNeeds,
	models.FieldTimeline,
	models.FieldBudget,
}

// DetermineNextAction selects exactly one next step from the current state.
// Rules form a strict priority cascade; the first matching rule wins, so two
// calls with equal state always produce equal actions.
func DetermineNextAction(state models.ConversationState) models.Action {
	if state.Collected.Email == "" || !state.Flags.EmailVerified {
		return models.Action{
			Type:     models.ActionCollectEmail,
			Priority: models.PriorityCritical,
		}
	}

	for _, f := range askOrder {
		if state.Pending[f] {
			return models.Action{
				Type:     models.ActionAskQuestion,
				Topic:    f,
				Priority: models.PriorityHigh,
			}
		}
	}

	rate := CompletionRate(state)

	if state.Flags.ReadyForSummary || (state.Flags.IsQualified && rate > 0.8) {
		return models.Action{
			Type:     models.ActionGenerateSummary,
			Priority: models.PriorityHigh,
			Data:     state.Collected.FieldNames(),
		}
	}

	if !state.Flags.IsQualified && rate > 0.5 {
		return models.Action{
			Type:     models.ActionEvaluateQualification,
			Priority: models.PriorityMedium,
		}
	}

	return models.Action{
		Type:     models.ActionContinueDiscovery,
		Priority: models.PriorityLow,
	}
}
