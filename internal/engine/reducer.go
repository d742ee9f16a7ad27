package engine

import (
	"fmt"
	"time"

	"github.com/consultiq/consultiq/internal/models"
)

// Warning records an extracted value that failed enum validation and was
// discarded. The turn proceeds; callers log warnings and may steer the
// conversation toward clarification.
type Warning struct {
	Field models.Field
	Value string
}

func (w Warning) String() string {
	return fmt.Sprintf("discarded %s value %q", w.Field, w.Value)
}

// Initialize produces the default state for a new session, pre-filling
// collected and pending from any seed values. Every tracked field starts
// pending unless the seed resolves it.
func Initialize(seed models.SessionSeed, now time.Time) models.ConversationState {
	state := models.ConversationState{
		Stage:   models.StageGreeting,
		Pending: make(map[models.Field]bool, len(models.TrackedFields)),
		Context: models.StateContext{
			StartTime:      now,
			LastTransition: now,
		},
	}
	for _, f := range models.TrackedFields {
		state.Pending[f] = true
	}

	if seed.Email != "" {
		state.Collected.Email = seed.Email
		state.Pending[models.FieldEmail] = false
		state.Flags.EmailVerified = true
	}
	if seed.Name != "" {
		state.Collected.Name = seed.Name
		state.Pending[models.FieldName] = false
	}
	if seed.OrganizationName != "" {
		state.Collected.OrganizationName = seed.OrganizationName
		state.Pending[models.FieldOrganizationName] = false
	}
	if seed.OrganizationType != "" && models.IsValidOrganizationType(seed.OrganizationType) {
		state.Collected.OrganizationType = seed.OrganizationType
		state.Pending[models.FieldOrganizationType] = false
	}

	return state
}

// UpdateCollected merges extracted attributes into a new state value. The
// input state is never mutated. Enum-typed values that fail validation are
// discarded and reported as warnings rather than failing the call.
//
// For every tracked field f the returned state satisfies
// pending[f] == false iff collected has a non-empty value for f.
func UpdateCollected(state models.ConversationState, attrs Attributes) (models.ConversationState, []Warning) {
	out := state.Clone()
	var warnings []Warning

	if attrs.Email != "" {
		if models.IsValidEmail(attrs.Email) {
			out.Collected.Email = attrs.Email
			out.Pending[models.FieldEmail] = false
		} else {
			warnings = append(warnings, Warning{models.FieldEmail, attrs.Email})
		}
	}
	if attrs.Name != "" {
		out.Collected.Name = attrs.Name
		out.Pending[models.FieldName] = false
	}
	if attrs.OrganizationType != "" {
		if models.IsValidOrganizationType(attrs.OrganizationType) {
			out.Collected.OrganizationType = attrs.OrganizationType
			out.Pending[models.FieldOrganizationType] = false
		} else {
			warnings = append(warnings, Warning{models.FieldOrganizationType, string(attrs.OrganizationType)})
		}
	}
	if attrs.Timeline != "" {
		if models.IsValidTimeline(attrs.Timeline) {
			out.Collected.Timeline = attrs.Timeline
			out.Pending[models.FieldTimeline] = false
		} else {
			warnings = append(warnings, Warning{models.FieldTimeline, string(attrs.Timeline)})
		}
	}
	if attrs.Budget != "" {
		if models.IsValidBudgetRange(attrs.Budget) {
			out.Collected.Budget = attrs.Budget
			out.Pending[models.FieldBudget] = false
		} else {
			warnings = append(warnings, Warning{models.FieldBudget, string(attrs.Budget)})
		}
	}
	if len(attrs.BusinessNeeds) > 0 {
		out.Collected.BusinessNeeds = mergeNeeds(out.Collected.BusinessNeeds, attrs.BusinessNeeds)
		out.Pending[models.FieldBusinessNeeds] = false
	}

	if out.Collected.Email != "" {
		out.Flags.EmailVerified = true
	}

	return out, warnings
}

// mergeNeeds unions new needs into the existing set, preserving first-seen
// order.
func mergeNeeds(existing, incoming []models.Need) []models.Need {
	seen := make(map[models.Need]bool, len(existing))
	merged := append([]models.Need(nil), existing...)
	for _, n := range existing {
		seen[n] = true
	}
	for _, n := range incoming {
		if seen[n] {
			continue
		}
		seen[n] = true
		merged = append(merged, n)
	}
	return merged
}

// CompletionRate returns the fraction of required fields that have been
// collected. Budget is not in the denominator.
func CompletionRate(state models.ConversationState) float64 {
	present := 0
	for _, f := range models.RequiredFields {
		if state.Collected.Has(f) {
			present++
		}
	}
	return float64(present) / float64(len(models.RequiredFields))
}
