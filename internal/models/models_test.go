package models

import (
	"errors"
	"testing"
)

func TestCreateSessionRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateSessionRequest
		wantErr error
	}{
		{"empty seed", CreateSessionRequest{}, nil},
		{"valid seed", CreateSessionRequest{Seed: SessionSeed{Email: "a@b.org", OrganizationType: OrgNonprofit}}, nil},
		{"bad email", CreateSessionRequest{Seed: SessionSeed{Email: "not-an-email"}}, ErrInvalidEmail},
		{"bad org type", CreateSessionRequest{Seed: SessionSeed{OrganizationType: "syndicate"}}, ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTurnRequestValidate(t *testing.T) {
	if err := (&TurnRequest{}).Validate(); !errors.Is(err, ErrEmptyUtterance) {
		t.Errorf("empty message error = %v", err)
	}
	long := make([]byte, MaxUtteranceLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := (&TurnRequest{Message: string(long)}).Validate(); !errors.Is(err, ErrUtteranceTooLong) {
		t.Errorf("oversized message error = %v", err)
	}
	if err := (&TurnRequest{Message: "hello"}).Validate(); err != nil {
		t.Errorf("valid message error = %v", err)
	}
}

func TestConversationStateCloneIsDeep(t *testing.T) {
	orig := ConversationState{
		Stage: StageDiscovery,
		Collected: Collected{
			BusinessNeeds: []Need{NeedWebsiteRedesign},
		},
		Pending: map[Field]bool{FieldTimeline: true},
		Context: StateContext{StageHistory: []Stage{StageGreeting}},
	}

	clone := orig.Clone()
	clone.Pending[FieldTimeline] = false
	clone.Collected.BusinessNeeds[0] = NeedFundraising
	clone.Context.StageHistory[0] = StageComplete

	if !orig.Pending[FieldTimeline] {
		t.Error("clone mutation leaked into original pending map")
	}
	if orig.Collected.BusinessNeeds[0] != NeedWebsiteRedesign {
		t.Error("clone mutation leaked into original needs slice")
	}
	if orig.Context.StageHistory[0] != StageGreeting {
		t.Error("clone mutation leaked into original stage history")
	}
}

func TestConversationStateValidate(t *testing.T) {
	valid := ConversationState{Stage: StageGreeting}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid state error = %v", err)
	}

	bad := ConversationState{Stage: "limbo"}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("bad stage error = %v", err)
	}

	badPending := ConversationState{Stage: StageGreeting, Pending: map[Field]bool{"favorite_color": true}}
	if err := badPending.Validate(); !errors.Is(err, ErrUnknownField) {
		t.Errorf("bad pending field error = %v", err)
	}
}

func TestCollectedHasAndFieldNames(t *testing.T) {
	c := Collected{Email: "a@b.org", BusinessNeeds: []Need{NeedSEO}}
	if !c.Has(FieldEmail) || !c.Has(FieldBusinessNeeds) {
		t.Error("Has missed present fields")
	}
	if c.Has(FieldBudget) {
		t.Error("Has reported absent budget")
	}
	names := c.FieldNames()
	if len(names) != 2 {
		t.Errorf("FieldNames = %v, want two entries", names)
	}
}

func TestIsInvalidTransition(t *testing.T) {
	err := &InvalidTransitionError{From: StageGreeting, To: StageComplete}
	if !IsInvalidTransition(err) {
		t.Error("IsInvalidTransition missed InvalidTransitionError")
	}
	if IsInvalidTransition(errors.New("other")) {
		t.Error("IsInvalidTransition matched unrelated error")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}

func TestIsValidEmail(t *testing.T) {
	if !IsValidEmail("lead@example.org") {
		t.Error("rejected plausible email")
	}
	for _, s := range []string{"", "plain", "a@b", "a b@c.org"} {
		if IsValidEmail(s) {
			t.Errorf("accepted %q", s)
		}
	}
}
