package engine

import (
	"math"
	"testing"

	"github.com/consultiq/consultiq/internal/models"
)

func fullState(budget models.BudgetRange, timeline models.Timeline, orgType models.OrganizationType, needs ...models.Need) models.ConversationState {
	state := Initialize(models.SessionSeed{}, testNow)
	state, _ = UpdateCollected(state, Attributes{
		Email:            "lead@example.org",
		OrganizationType: orgType,
		Timeline:         timeline,
		Budget:           budget,
		BusinessNeeds:    needs,
	})
	return state
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluateQualificationIncomplete(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)
	state, _ = UpdateCollected(state, Attributes{Email: "lead@example.org"})

	q := EvaluateQualification(state)
	if q.Score != 0.2 {
		t.Errorf("Score = %v, want 0.2", q.Score)
	}
	if q.IsQualified {
		t.Error("incomplete lead must not qualify")
	}
	if len(q.Reasons) != 1 || q.Reasons[0] != ReasonIncompleteData {
		t.Errorf("Reasons = %v, want [incomplete_data]", q.Reasons)
	}
	if q.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want medium", q.Priority)
	}
}

// A fully collected lead whose budget sits in the 25000-50000 bracket earns
// no budget bonus: completeness 0.45 plus the 1-3 month timeline bonus 0.1
// lands at 0.55, below the 0.6 threshold.
func TestEvaluateQualificationMidBudgetGap(t *testing.T) {
	state := fullState(models.Budget25To50K, models.TimelineOneToThree, models.OrgNonprofit,
		models.NeedWebsiteRedesign, models.NeedSEO)

	q := EvaluateQualification(state)
	if !almostEqual(q.Score, 0.55) {
		t.Errorf("Score = %v, want 0.55", q.Score)
	}
	if q.IsQualified {
		t.Errorf("IsQualified = true at score %v, want false", q.Score)
	}
	for _, r := range q.Reasons {
		if r == ReasonHighBudget || r == ReasonBudgetAdequate {
			t.Errorf("unexpected budget reason %q for the 25000-50000 bracket", r)
		}
	}
	if q.Priority != models.PriorityMedium {
		t.Errorf("Priority = %s, want medium", q.Priority)
	}
}

func TestEvaluateQualificationBonuses(t *testing.T) {
	tests := []struct {
		name       string
		state      models.ConversationState
		wantScore  float64
		wantQual   bool
		wantPrio   models.Priority
		wantReason string
	}{
		{
			name:       "high budget",
			state:      fullState(models.BudgetOver50K, "", models.OrgStartup, models.NeedSEO),
			wantScore:  0.45*0.75 + 0.3,
			wantQual:   true,
			wantPrio:   models.PriorityHigh,
			wantReason: ReasonHighBudget,
		},
		{
			name:       "adequate budget",
			state:      fullState(models.Budget10To25K, models.TimelineThreeToSix, models.OrgStartup, models.NeedSEO),
			wantScore:  0.45 + 0.2,
			wantQual:   true,
			wantPrio:   models.PriorityMedium,
			wantReason: ReasonBudgetAdequate,
		},
		{
			name:       "urgent timeline",
			state:      fullState("", models.TimelineImmediate, models.OrgStartup, models.NeedSEO),
			wantScore:  0.45 + 0.2,
			wantQual:   true,
			wantPrio:   models.PriorityHigh,
			wantReason: ReasonTimelineUrgent,
		},
		{
			name:       "enterprise",
			state:      fullState("", models.TimelineThreeToSix, models.OrgEnterprise, models.NeedSEO),
			wantScore:  0.45 + 0.2,
			wantQual:   true,
			wantPrio:   models.PriorityHigh,
			wantReason: ReasonEnterpriseOrg,
		},
		{
			name: "multiple needs",
			state: fullState("", models.TimelineThreeToSix, models.OrgStartup,
				models.NeedSEO, models.NeedBranding, models.NeedAnalytics),
			wantScore:  0.45 + 0.1,
			wantQual:   false,
			wantPrio:   models.PriorityMedium,
			wantReason: ReasonMultipleNeeds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := EvaluateQualification(tt.state)
			if !almostEqual(q.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", q.Score, tt.wantScore)
			}
			if q.IsQualified != tt.wantQual {
				t.Errorf("IsQualified = %v, want %v", q.IsQualified, tt.wantQual)
			}
			if q.Priority != tt.wantPrio {
				t.Errorf("Priority = %s, want %s", q.Priority, tt.wantPrio)
			}
			found := false
			for _, r := range q.Reasons {
				if r == tt.wantReason {
					found = true
				}
			}
			if !found {
				t.Errorf("Reasons = %v, want to include %q", q.Reasons, tt.wantReason)
			}
		})
	}
}

// Stacked bonuses clamp at 1.0.
func TestEvaluateQualificationClamped(t *testing.T) {
	state := fullState(models.BudgetOver50K, models.TimelineImmediate, models.OrgEnterprise,
		models.NeedSEO, models.NeedBranding, models.NeedAnalytics)

	q := EvaluateQualification(state)
	if q.Score != 1.0 {
		t.Errorf("Score = %v, want clamped 1.0", q.Score)
	}
	if !q.IsQualified {
		t.Error("IsQualified = false at score 1.0")
	}
	if q.Priority != models.PriorityHigh {
		t.Errorf("Priority = %s, want high", q.Priority)
	}
}

// The score stays inside [0,1] for a spread of states.
func TestEvaluateQualificationBounds(t *testing.T) {
	states := []models.ConversationState{
		Initialize(models.SessionSeed{}, testNow),
		fullState("", "", "", models.NeedSEO),
		fullState(models.BudgetUnder5K, models.TimelineThreeToSix, models.OrgForProfit, models.NeedSEO),
		fullState(models.BudgetOver50K, models.TimelineImmediate, models.OrgEnterprise,
			models.NeedSEO, models.NeedBranding, models.NeedAnalytics, models.NeedEcommerce),
	}
	for i, state := range states {
		q := EvaluateQualification(state)
		if q.Score < 0 || q.Score > 1 {
			t.Errorf("state %d: score %v out of [0,1]", i, q.Score)
		}
		if q.IsQualified != (q.Score > 0.6) {
			t.Errorf("state %d: IsQualified = %v inconsistent with score %v", i, q.IsQualified, q.Score)
		}
	}
}
