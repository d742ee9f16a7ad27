package engine

import (
	"reflect"
	"testing"

	"github.com/consultiq/consultiq/internal/models"
)

// A missing email always wins the cascade, regardless of every other field.
func TestDetermineNextActionCollectEmail(t *testing.T) {
	state := fullState(models.BudgetOver50K, models.TimelineImmediate, models.OrgEnterprise,
		models.NeedSEO, models.NeedBranding)
	state.Collected.Email = ""
	state.Pending[models.FieldEmail] = true
	state.Flags.EmailVerified = false
	state.Flags.IsQualified = true
	state.Flags.ReadyForSummary = true

	action := DetermineNextAction(state)
	if action.Type != models.ActionCollectEmail {
		t.Errorf("Type = %s, want collect_email", action.Type)
	}
	if action.Priority != models.PriorityCritical {
		t.Errorf("Priority = %s, want critical", action.Priority)
	}
}

func TestDetermineNextActionAskOrder(t *testing.T) {
	tests := []struct {
		name      string
		attrs     Attributes
		wantTopic models.Field
	}{
		{
			name:      "org type asked first",
			attrs:     Attributes{},
			wantTopic: models.FieldOrganizationType,
		},
		{
			name:      "needs after org type",
			attrs:     Attributes{OrganizationType: models.OrgNonprofit},
			wantTopic: models.FieldBusinessNeeds,
		},
		{
			name: "timeline after needs",
			attrs: Attributes{
				OrganizationType: models.OrgNonprofit,
				BusinessNeeds:    []models.Need{models.NeedFundraising},
			},
			wantTopic: models.FieldTimeline,
		},
		{
			name: "budget last",
			attrs: Attributes{
				OrganizationType: models.OrgNonprofit,
				BusinessNeeds:    []models.Need{models.NeedFundraising},
				Timeline:         models.TimelineOneToThree,
			},
			wantTopic: models.FieldBudget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := Initialize(models.SessionSeed{Email: "lead@example.org"}, testNow)
			state, _ = UpdateCollected(state, tt.attrs)

			action := DetermineNextAction(state)
			if action.Type != models.ActionAskQuestion {
				t.Fatalf("Type = %s, want ask_question", action.Type)
			}
			if action.Topic != tt.wantTopic {
				t.Errorf("Topic = %s, want %s", action.Topic, tt.wantTopic)
			}
			if action.Priority != models.PriorityHigh {
				t.Errorf("Priority = %s, want high", action.Priority)
			}
		})
	}
}

func TestDetermineNextActionGenerateSummary(t *testing.T) {
	state := fullState(models.BudgetOver50K, models.TimelineImmediate, models.OrgEnterprise, models.NeedSEO)
	state.Flags.IsQualified = true

	action := DetermineNextAction(state)
	if action.Type != models.ActionGenerateSummary {
		t.Fatalf("Type = %s, want generate_summary", action.Type)
	}
	if len(action.Data) == 0 {
		t.Error("Data should list collected field names")
	}
}

func TestDetermineNextActionEvaluateQualification(t *testing.T) {
	// Everything asked is answered but the lead has not qualified yet.
	state := fullState(models.Budget25To50K, models.TimelineThreeToSix, models.OrgForProfit, models.NeedSEO)

	action := DetermineNextAction(state)
	if action.Type != models.ActionEvaluateQualification {
		t.Errorf("Type = %s, want evaluate_qualification", action.Type)
	}
	if action.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want medium", action.Priority)
	}
}

func TestDetermineNextActionDeterministic(t *testing.T) {
	state := fullState(models.Budget10To25K, models.TimelineOneToThree, models.OrgNonprofit,
		models.NeedFundraising)

	first := DetermineNextAction(state)
	second := DetermineNextAction(state)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ: %+v vs %+v", first, second)
	}
}
