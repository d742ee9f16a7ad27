package engine

import (
	"testing"
	"time"

	"github.com/consultiq/consultiq/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// checkPendingInvariant asserts that for every tracked field the pending flag
// is false exactly when a collected value is present.
func checkPendingInvariant(t *testing.T, state models.ConversationState) {
	t.Helper()
	for _, f := range models.TrackedFields {
		has := state.Collected.Has(f)
		pending, ok := state.Pending[f]
		if !ok {
			t.Errorf("field %s missing from pending map", f)
			continue
		}
		if has == pending {
			t.Errorf("field %s: collected=%v pending=%v, want opposites", f, has, pending)
		}
	}
}

func TestInitializeDefaults(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)

	if state.Stage != models.StageGreeting {
		t.Errorf("Stage = %s, want greeting", state.Stage)
	}
	if !state.Context.StartTime.Equal(testNow) {
		t.Errorf("StartTime = %v, want %v", state.Context.StartTime, testNow)
	}
	if state.Flags.EmailVerified {
		t.Error("EmailVerified should be false without a seeded email")
	}
	checkPendingInvariant(t, state)
}

func TestInitializeWithSeed(t *testing.T) {
	seed := models.SessionSeed{
		Email:            "lead@example.org",
		Name:             "Sam Rivera",
		OrganizationName: "Riverside Shelter",
		OrganizationType: models.OrgNonprofit,
	}
	state := Initialize(seed, testNow)

	if state.Collected.Email != seed.Email {
		t.Errorf("Email = %q", state.Collected.Email)
	}
	if !state.Flags.EmailVerified {
		t.Error("EmailVerified should be true with a seeded email")
	}
	if state.Pending[models.FieldEmail] {
		t.Error("email should not be pending after seeding")
	}
	if state.Collected.OrganizationType != models.OrgNonprofit {
		t.Errorf("OrganizationType = %q", state.Collected.OrganizationType)
	}
	checkPendingInvariant(t, state)
}

func TestUpdateCollectedMaintainsInvariant(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)

	updates := []Attributes{
		{Email: "lead@example.org"},
		{OrganizationType: models.OrgNonprofit, BusinessNeeds: []models.Need{models.NeedFundraising}},
		{Timeline: models.TimelineOneToThree, Budget: models.Budget10To25K},
		{Name: "Sam", BusinessNeeds: []models.Need{models.NeedSEO, models.NeedFundraising}},
	}
	for _, attrs := range updates {
		var warnings []Warning
		state, warnings = UpdateCollected(state, attrs)
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		checkPendingInvariant(t, state)
	}

	if len(state.Collected.BusinessNeeds) != 2 {
		t.Errorf("BusinessNeeds = %v, want deduplicated union of 2", state.Collected.BusinessNeeds)
	}
}

func TestUpdateCollectedDiscardsInvalidEnums(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)

	next, warnings := UpdateCollected(state, Attributes{
		OrganizationType: "collective",
		Timeline:         "someday",
		Email:            "not-an-email",
	})

	if len(warnings) != 3 {
		t.Fatalf("warnings = %v, want 3", warnings)
	}
	if next.Collected.OrganizationType != "" || next.Collected.Timeline != "" || next.Collected.Email != "" {
		t.Errorf("invalid values were written: %+v", next.Collected)
	}
	checkPendingInvariant(t, next)
}

func TestUpdateCollectedDoesNotMutateInput(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)

	next, _ := UpdateCollected(state, Attributes{Email: "lead@example.org"})

	if state.Collected.Email != "" {
		t.Error("input state email was mutated")
	}
	if !state.Pending[models.FieldEmail] {
		t.Error("input state pending map was mutated")
	}
	if next.Collected.Email != "lead@example.org" {
		t.Errorf("next email = %q", next.Collected.Email)
	}
}

// Completion rate never decreases across reducer calls.
func TestCompletionRateMonotonic(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)

	updates := []Attributes{
		{Email: "lead@example.org"},
		{OrganizationType: models.OrgStartup},
		{BusinessNeeds: []models.Need{models.NeedSEO}},
		{Timeline: models.TimelineImmediate},
		{Budget: models.BudgetOver50K},
	}
	prev := CompletionRate(state)
	for _, attrs := range updates {
		state, _ = UpdateCollected(state, attrs)
		rate := CompletionRate(state)
		if rate < prev {
			t.Fatalf("completion rate dropped from %v to %v", prev, rate)
		}
		prev = rate
	}
	if prev != 1.0 {
		t.Errorf("final completion rate = %v, want 1.0", prev)
	}
}

// Budget is excluded from the completion denominator.
func TestCompletionRateIgnoresBudget(t *testing.T) {
	state := Initialize(models.SessionSeed{}, testNow)
	state, _ = UpdateCollected(state, Attributes{Budget: models.BudgetOver50K})
	if rate := CompletionRate(state); rate != 0 {
		t.Errorf("completion rate = %v, want 0 with only budget collected", rate)
	}
}
