package engine

import (
	"log/slog"
	"time"

	"github.com/consultiq/consultiq/internal/models"
)

// Engine composes the per-turn pipeline: extract, reduce, advance the stage,
// score, arbitrate, and rank recommendations and quick replies. It holds no
// conversation state of its own; callers must serialize turns per session.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an Engine. A nil logger falls back to slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// TurnResult is everything one user turn produces. State is a new value; the
// input state is never mutated.
type TurnResult struct {
	State           models.ConversationState `json:"state"`
	Action          models.Action            `json:"action"`
	Qualification   models.Qualification     `json:"qualification"`
	Recommendations []models.Recommendation  `json:"recommendations,omitempty"`
	QuickReplies    []string                 `json:"quick_replies"`
	Warnings        []Warning                `json:"-"`
}

// ProcessTurn runs the full pipeline for one user utterance.
func (e *Engine) ProcessTurn(state models.ConversationState, utterance string, now time.Time) (TurnResult, error) {
	req := models.TurnRequest{Message: utterance}
	if err := req.Validate(); err != nil {
		return TurnResult{}, err
	}

	attrs := Extract(utterance)
	e.logger.Debug("Engine extracted attributes",
		"stage", state.Stage,
		"empty", attrs.Empty(),
		"needs", len(attrs.BusinessNeeds))

	next, warnings := UpdateCollected(state, attrs)
	for _, w := range warnings {
		e.logger.Warn("Engine discarded invalid attribute value",
			"field", w.Field, "value", w.Value)
	}
	next.Flags.HasEngaged = true

	qual := EvaluateQualification(next)
	rate := CompletionRate(next)
	next.Flags.IsQualified = qual.IsQualified
	if qual.IsQualified && rate > 0.8 {
		next.Flags.ReadyForSummary = true
	}

	next = e.advanceStage(next, len(warnings) > 0, rate, now)

	action := DetermineNextAction(next)
	next = e.applyActionTransition(next, action, now)

	topic := action.Topic
	if action.Type == models.ActionCollectEmail {
		topic = models.FieldEmail
	}

	result := TurnResult{
		State:           next,
		Action:          action,
		Qualification:   qual,
		Recommendations: GenerateRecommendations(next.Collected.BusinessNeeds, next.Collected.OrganizationType),
		QuickReplies:    GenerateQuickReplies(topic, next.Collected.OrganizationType),
		Warnings:        warnings,
	}

	e.logger.Info("Engine processed turn",
		"stage", next.Stage,
		"action", action.Type,
		"score", qual.Score,
		"qualified", qual.IsQualified,
		"completion", rate)

	return result, nil
}

// maxAdvanceSteps bounds forward stage movement within a single turn.
const maxAdvanceSteps = 3

// advanceStage moves the conversation forward along the stage graph based on
// what this turn established. All movement goes through TransitionTo so the
// graph stays the single source of legal edges.
func (e *Engine) advanceStage(state models.ConversationState, hadWarnings bool, rate float64, now time.Time) models.ConversationState {
	// A turn that produced discarded values steers discovery into
	// clarification before any forward movement.
	if hadWarnings && state.Stage == models.StageDiscovery {
		return e.transition(state, models.StageClarification, now)
	}

	for i := 0; i < maxAdvanceSteps; i++ {
		var target models.Stage
		switch state.Stage {
		case models.StageGreeting:
			if state.Flags.HasEngaged {
				target = models.StageDiscovery
			}
		case models.StageDiscovery:
			if rate >= 0.5 {
				target = models.StageQualification
			}
		case models.StageClarification:
			if hadWarnings {
				break
			}
			if rate >= 0.5 {
				target = models.StageQualification
			} else {
				target = models.StageDiscovery
			}
		case models.StageQualification:
			if state.Flags.IsQualified {
				target = models.StageScheduling
			}
		case models.StageScheduling:
			if state.Flags.ReadyForSummary {
				target = models.StageSummary
			}
		}
		if target == "" {
			break
		}
		state = e.transition(state, target, now)
		if state.Stage != target {
			break
		}
	}
	return state
}

// applyActionTransition moves the stage in response to the chosen action: a
// summary hand-off advances toward summary, and issuing the summary from the
// summary stage completes the conversation.
func (e *Engine) applyActionTransition(state models.ConversationState, action models.Action, now time.Time) models.ConversationState {
	if action.Type != models.ActionGenerateSummary {
		return state
	}
	switch state.Stage {
	case models.StageQualification, models.StageScheduling:
		return e.transition(state, models.StageSummary, now)
	case models.StageSummary:
		return e.transition(state, models.StageComplete, now)
	}
	return state
}

func (e *Engine) transition(state models.ConversationState, target models.Stage, now time.Time) models.ConversationState {
	next, err := TransitionTo(state, target, now)
	if err != nil {
		e.logger.Error("Engine rejected stage transition",
			"from", state.Stage, "to", target, "error", err)
		return state
	}
	e.logger.Debug("Engine advanced stage", "from", state.Stage, "to", target)
	return next
}
