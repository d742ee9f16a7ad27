package engine

import (
	"time"

	"github.com/consultiq/consultiq/internal/models"
)

// StageInfo describes one stage of the qualification dialogue.
type StageInfo struct {
	Description        string
	PossibleNextStages []models.Stage
}

// StageInfoMap is the directed stage graph. Transitions are legal only along
// the listed edges; there are no cycles back to greeting and complete is
// terminal.
var StageInfoMap = map[models.Stage]StageInfo{
	models.StageGreeting: {
		Description:        "Initial stage before the visitor has engaged",
		PossibleNextStages: []models.Stage{models.StageDiscovery},
	},
	models.StageDiscovery: {
		Description:        "Open-ended information gathering",
		PossibleNextStages: []models.Stage{models.StageQualification, models.StageClarification},
	},
	models.StageClarification: {
		Description:        "Resolving ambiguous or discarded attribute values",
		PossibleNextStages: []models.Stage{models.StageDiscovery, models.StageQualification},
	},
	models.StageQualification: {
		Description:        "Evaluating whether the lead is worth pursuing",
		PossibleNextStages: []models.Stage{models.StageScheduling, models.StageSummary},
	},
	models.StageScheduling: {
		Description:        "Collecting scheduling intent for qualified leads",
		PossibleNextStages: []models.Stage{models.StageSummary},
	},
	models.StageSummary: {
		Description:        "Producing the final conversation summary",
		PossibleNextStages: []models.Stage{models.StageComplete},
	},
	models.StageComplete: {
		Description:        "Terminal stage",
		PossibleNextStages: nil,
	},
}

// CanTransition reports whether target is an outgoing edge of from.
func CanTransition(from, to models.Stage) bool {
	info, ok := StageInfoMap[from]
	if !ok {
		return false
	}
	for _, next := range info.PossibleNextStages {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTo applies a stage transition, returning a new state value. The
// input state is never mutated. An edge not present in the stage graph fails
// with InvalidTransitionError and the caller must not apply any stage change.
//
// The old stage is appended to the stage history and the transition time is
// stamped. Entering scheduling with the lead already qualified stamps the
// qualification time.
func TransitionTo(state models.ConversationState, target models.Stage, now time.Time) (models.ConversationState, error) {
	if !CanTransition(state.Stage, target) {
		return state, &models.InvalidTransitionError{From: state.Stage, To: target}
	}

	out := state.Clone()
	out.Context.StageHistory = append(out.Context.StageHistory, out.Stage)
	out.Context.LastTransition = now
	out.Stage = target

	if target == models.StageScheduling && out.Flags.IsQualified && out.Context.QualifiedAt == nil {
		t := now
		out.Context.QualifiedAt = &t
	}

	return out, nil
}
