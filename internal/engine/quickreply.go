package engine

import "github.com/consultiq/consultiq/internal/models"

// MaxQuickReplies bounds every quick-reply list.
const MaxQuickReplies = 5

// defaultQuickReplies is the fallback for topics without a template. The
// generator is total, so an unknown topic still yields this list.
var defaultQuickReplies = []string{
	"Tell me more",
	"Schedule a call",
	"View our services",
	"Talk to a consultant",
}

var quickReplyTemplates = map[models.Field][]string{
	models.FieldEmail: {
		"I'll type it in",
		"Why do you need my email?",
		"Can we talk first?",
	},
	models.FieldOrganizationType: {
		"We're a nonprofit",
		"We're a small business",
		"We're a startup",
		"Government agency",
		"Large enterprise",
	},
	models.FieldBusinessNeeds: {
		"Website Redesign",
		"SEO & Search Visibility",
		"Digital Marketing",
		"Branding",
		"Analytics & Reporting",
	},
	models.FieldTimeline: {
		"As soon as possible",
		"Within a month",
		"1-3 months",
		"3-6 months",
		"Just exploring",
	},
	models.FieldBudget: {
		"Under $5,000",
		"$5,000 - $10,000",
		"$10,000 - $25,000",
		"$25,000 - $50,000",
		"$50,000+",
	},
}

// nonprofitQuickReplies specializes topics where nonprofits get a different
// menu than the default.
var nonprofitQuickReplies = map[models.Field][]string{
	models.FieldBusinessNeeds: {
		"Fundraising Support",
		"Volunteer Management",
		"Website Redesign",
		"Grant Writing",
		"Donor Communications",
	},
}

// GenerateQuickReplies returns suggested replies for the arbiter's chosen
// topic. The function is total: unknown topics fall back to the default list
// and the result is never empty and never longer than MaxQuickReplies.
func GenerateQuickReplies(topic models.Field, orgType models.OrganizationType) []string {
	var replies []string

	if orgType == models.OrgNonprofit {
		replies = nonprofitQuickReplies[topic]
	}
	if replies == nil {
		replies = quickReplyTemplates[topic]
	}
	if replies == nil {
		replies = defaultQuickReplies
	}

	if len(replies) > MaxQuickReplies {
		replies = replies[:MaxQuickReplies]
	}
	return append([]string(nil), replies...)
}
