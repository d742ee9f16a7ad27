// Package models defines the core data structures for ConsultIQ.
//
// It includes the conversation state, stage and attribute enums, action and
// recommendation types, which are shared across modules.
package models

// Stage represents a discrete phase of the qualification dialogue.
type Stage string

const (
	// StageGreeting is the initial stage before the visitor has engaged.
	StageGreeting Stage = "greeting"
	// StageDiscovery is the open-ended information gathering stage.
	StageDiscovery Stage = "discovery"
	// StageClarification resolves ambiguous or discarded attribute values.
	StageClarification Stage = "clarification"
	// StageQualification evaluates whether the lead is worth pursuing.
	StageQualification Stage = "qualification"
	// StageScheduling collects scheduling intent for qualified leads.
	StageScheduling Stage = "scheduling"
	// StageSummary produces the final summary of the conversation.
	StageSummary Stage = "summary"
	// StageComplete is the terminal stage.
	StageComplete Stage = "complete"
)

// IsValidStage checks if the given stage is supported.
func IsValidStage(s Stage) bool {
	switch s {
	case StageGreeting, StageDiscovery, StageClarification, StageQualification,
		StageScheduling, StageSummary, StageComplete:
		return true
	default:
		return false
	}
}

// Field identifies a collected attribute on the conversation state.
type Field string

const (
	FieldEmail            Field = "email"
	FieldOrganizationType Field = "organizationType"
	FieldBusinessNeeds    Field = "businessNeeds"
	FieldTimeline         Field = "timeline"
	FieldBudget           Field = "budget"
	FieldOrganizationName Field = "organizationName"
	FieldName             Field = "name"
)

// TrackedFields lists every attribute tracked in both the collected and
// pending maps, in canonical order.
var TrackedFields = []Field{
	FieldEmail,
	FieldOrganizationType,
	FieldBusinessNeeds,
	FieldTimeline,
	FieldBudget,
	FieldOrganizationName,
	FieldName,
}

// RequiredFields lists the fields counted toward the completion rate. Budget
// is deliberately excluded so early-stage leads are not over-penalized.
var RequiredFields = []Field{
	FieldEmail,
	FieldOrganizationType,
	FieldBusinessNeeds,
	FieldTimeline,
}

// IsValidField checks if the given field is tracked.
func IsValidField(f Field) bool {
	for _, t := range TrackedFields {
		if t == f {
			return true
		}
	}
	return false
}

// OrganizationType classifies the lead's organization.
type OrganizationType string

const (
	OrgNonprofit  OrganizationType = "nonprofit"
	OrgEnterprise OrganizationType = "enterprise"
	OrgStartup    OrganizationType = "startup"
	OrgGovernment OrganizationType = "government"
	OrgForProfit  OrganizationType = "for-profit"
)

// IsValidOrganizationType checks if the given organization type is supported.
func IsValidOrganizationType(o OrganizationType) bool {
	switch o {
	case OrgNonprofit, OrgEnterprise, OrgStartup, OrgGovernment, OrgForProfit:
		return true
	default:
		return false
	}
}

// Timeline buckets the lead's stated urgency.
type Timeline string

const (
	TimelineImmediate  Timeline = "immediate"
	TimelineUnderMonth Timeline = "< 1 month"
	TimelineOneToThree Timeline = "1-3 months"
	TimelineThreeToSix Timeline = "3-6 months"
)

// IsValidTimeline checks if the given timeline bucket is supported.
func IsValidTimeline(t Timeline) bool {
	switch t {
	case TimelineImmediate, TimelineUnderMonth, TimelineOneToThree, TimelineThreeToSix:
		return true
	default:
		return false
	}
}

// BudgetRange buckets the lead's stated budget in dollars.
type BudgetRange string

const (
	BudgetUnder5K BudgetRange = "< 5000"
	Budget5To10K  BudgetRange = "5000-10000"
	Budget10To25K BudgetRange = "10000-25000"
	Budget25To50K BudgetRange = "25000-50000"
	BudgetOver50K BudgetRange = "50000+"
)

// IsValidBudgetRange checks if the given budget bucket is supported.
func IsValidBudgetRange(b BudgetRange) bool {
	switch b {
	case BudgetUnder5K, Budget5To10K, Budget10To25K, Budget25To50K, BudgetOver50K:
		return true
	default:
		return false
	}
}

// Need tags a business need identified from the conversation.
type Need string

const (
	NeedWebsiteRedesign  Need = "website_redesign"
	NeedSEO              Need = "seo"
	NeedFundraising      Need = "fundraising"
	NeedDigitalMarketing Need = "digital_marketing"
	NeedBranding         Need = "branding"
	NeedEcommerce        Need = "ecommerce"
	NeedSocialMedia      Need = "social_media"
	NeedGrantWriting     Need = "grant_writing"
	NeedContentStrategy  Need = "content_strategy"
	NeedAnalytics        Need = "analytics"
	NeedVolunteerMgmt    Need = "volunteer_management"
)

// Priority ranks actions, recommendations, and lead follow-up.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ActionType identifies the next step the dialogue should take.
type ActionType string

const (
	// ActionCollectEmail asks for the lead's email address.
	ActionCollectEmail ActionType = "collect_email"
	// ActionAskQuestion asks about the first missing required field.
	ActionAskQuestion ActionType = "ask_question"
	// ActionGenerateSummary hands off to summary generation.
	ActionGenerateSummary ActionType = "generate_summary"
	// ActionEvaluateQualification re-runs the qualification scorer.
	ActionEvaluateQualification ActionType = "evaluate_qualification"
	// ActionContinueDiscovery keeps the open-ended conversation going.
	ActionContinueDiscovery ActionType = "continue_discovery"
)
