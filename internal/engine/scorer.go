package engine

import "github.com/consultiq/consultiq/internal/models"

// Reason tags attached to a qualification result.
const (
	ReasonIncompleteData = "incomplete_data"
	ReasonHighBudget     = "high_budget"
	ReasonBudgetAdequate = "budget_adequate"
	ReasonTimelineUrgent = "timeline_urgent"
	ReasonEnterpriseOrg  = "enterprise_organization"
	ReasonMultipleNeeds  = "multiple_needs"
)

// Scoring weights. Completeness contributes at most completenessWeight; the
// remainder of the [0,1] range is reserved for the additive bonuses, so a
// fully collected lead with no budget or urgency signal still scores below
// the qualification threshold.
const (
	completenessWeight   = 0.45
	incompleteScore      = 0.2
	qualifyThreshold     = 0.6
	bonusHighBudget      = 0.3
	bonusBudgetAdequate  = 0.2
	bonusTimelineUrgent  = 0.2
	bonusTimelineNearing = 0.1
	bonusEnterprise      = 0.2
	bonusMultipleNeeds   = 0.1
)

// EvaluateQualification scores the lead from the current state. The score is
// always in [0,1] and isQualified holds exactly when score > 0.6. Priority
// defaults to medium and is elevated to high by strong budget, urgency, or
// enterprise signals.
//
// The 25000-50000 budget bracket earns no bonus. Only the 50000+ and
// 10000-25000 brackets score.
func EvaluateQualification(state models.ConversationState) models.Qualification {
	present := 0
	for _, f := range models.RequiredFields {
		if state.Collected.Has(f) {
			present++
		}
	}

	if present < 2 {
		return models.Qualification{
			IsQualified: false,
			Score:       incompleteScore,
			Reasons:     []string{ReasonIncompleteData},
			Priority:    models.PriorityMedium,
		}
	}

	score := float64(present) / float64(len(models.RequiredFields)) * completenessWeight
	var reasons []string
	priority := models.PriorityMedium

	switch state.Collected.Budget {
	case models.BudgetOver50K:
		score += bonusHighBudget
		reasons = append(reasons, ReasonHighBudget)
		priority = models.PriorityHigh
	case models.Budget10To25K:
		score += bonusBudgetAdequate
		reasons = append(reasons, ReasonBudgetAdequate)
	}

	switch state.Collected.Timeline {
	case models.TimelineImmediate:
		score += bonusTimelineUrgent
		reasons = append(reasons, ReasonTimelineUrgent)
		priority = models.PriorityHigh
	case models.TimelineOneToThree:
		score += bonusTimelineNearing
		reasons = append(reasons, ReasonTimelineUrgent)
	}

	if state.Collected.OrganizationType == models.OrgEnterprise {
		score += bonusEnterprise
		reasons = append(reasons, ReasonEnterpriseOrg)
		priority = models.PriorityHigh
	}

	if len(state.Collected.BusinessNeeds) > 2 {
		score += bonusMultipleNeeds
		reasons = append(reasons, ReasonMultipleNeeds)
	}

	if score > 1.0 {
		score = 1.0
	}

	return models.Qualification{
		IsQualified: score > qualifyThreshold,
		Score:       score,
		Reasons:     reasons,
		Priority:    priority,
	}
}
