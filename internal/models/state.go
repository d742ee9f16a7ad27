// Package models defines state structures for ConsultIQ conversations.
package models

import "time"

// Collected holds the structured attributes extracted from the conversation.
// A zero value for a field means the attribute has not been collected yet.
type Collected struct {
	Email            string           `json:"email,omitempty"`
	OrganizationType OrganizationType `json:"organization_type,omitempty"`
	BusinessNeeds    []Need           `json:"business_needs,omitempty"`
	Timeline         Timeline         `json:"timeline,omitempty"`
	Budget           BudgetRange      `json:"budget,omitempty"`
	OrganizationName string           `json:"organization_name,omitempty"`
	Name             string           `json:"name,omitempty"`
}

// Has reports whether the attribute for the given field is present and non-empty.
func (c Collected) Has(f Field) bool {
	switch f {
	case FieldEmail:
		return c.Email != ""
	case FieldOrganizationType:
		return c.OrganizationType != ""
	case FieldBusinessNeeds:
		return len(c.BusinessNeeds) > 0
	case FieldTimeline:
		return c.Timeline != ""
	case FieldBudget:
		return c.Budget != ""
	case FieldOrganizationName:
		return c.OrganizationName != ""
	case FieldName:
		return c.Name != ""
	default:
		return false
	}
}

// FieldNames returns the names of all collected fields in canonical order.
func (c Collected) FieldNames() []string {
	var names []string
	for _, f := range TrackedFields {
		if c.Has(f) {
			names = append(names, string(f))
		}
	}
	return names
}

// StateFlags tracks boolean milestones of the conversation.
type StateFlags struct {
	EmailVerified   bool `json:"email_verified"`
	HasEngaged      bool `json:"has_engaged"`
	IsQualified     bool `json:"is_qualified"`
	ReadyForSummary bool `json:"ready_for_summary"`
}

// StateContext records timing and stage-history metadata.
type StateContext struct {
	StartTime      time.Time  `json:"start_time"`
	StageHistory   []Stage    `json:"stage_history,omitempty"`
	LastTransition time.Time  `json:"last_transition"`
	QualifiedAt    *time.Time `json:"qualified_at,omitempty"`
}

// ConversationState is the immutable-by-convention value describing one
// qualification session. Reducer and stage-machine operations return new
// values; callers must never mutate a state in place.
type ConversationState struct {
	Stage     Stage          `json:"stage"`
	Collected Collected      `json:"collected"`
	Pending   map[Field]bool `json:"pending"`
	Flags     StateFlags     `json:"flags"`
	Context   StateContext   `json:"context"`
}

// Clone returns a deep copy of the state. Maps and slices are copied so the
// clone can be modified without affecting the original.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.Pending = make(map[Field]bool, len(s.Pending))
	for k, v := range s.Pending {
		out.Pending[k] = v
	}
	if s.Collected.BusinessNeeds != nil {
		out.Collected.BusinessNeeds = append([]Need(nil), s.Collected.BusinessNeeds...)
	}
	if s.Context.StageHistory != nil {
		out.Context.StageHistory = append([]Stage(nil), s.Context.StageHistory...)
	}
	if s.Context.QualifiedAt != nil {
		t := *s.Context.QualifiedAt
		out.Context.QualifiedAt = &t
	}
	return out
}

// Validate performs shape validation on a deserialized state. It is called at
// the serialization boundary; the core assumes well-formed states.
func (s ConversationState) Validate() error {
	if !IsValidStage(s.Stage) {
		return ErrInvalidStage
	}
	for f := range s.Pending {
		if !IsValidField(f) {
			return ErrUnknownField
		}
	}
	for _, h := range s.Context.StageHistory {
		if !IsValidStage(h) {
			return ErrInvalidStage
		}
	}
	return nil
}

// Action is the single next step the dialogue should take.
type Action struct {
	Type     ActionType `json:"type"`
	Topic    Field      `json:"topic,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
	Data     []string   `json:"data,omitempty"`
}

// Qualification is the scorer's assessment of the lead.
type Qualification struct {
	IsQualified bool     `json:"is_qualified"`
	Score       float64  `json:"score"`
	Reasons     []string `json:"reasons,omitempty"`
	Priority    Priority `json:"priority"`
}

// Recommendation proposes a consulting service for an identified need.
type Recommendation struct {
	Service  string   `json:"service"`
	Reason   string   `json:"reason"`
	Priority Priority `json:"priority,omitempty"`
}
