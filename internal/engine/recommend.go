package engine

import "github.com/consultiq/consultiq/internal/models"

// serviceCatalog maps each need tag to the consulting service that addresses
// it, with a stock reason line.
var serviceCatalog = map[models.Need]models.Recommendation{
	models.NeedWebsiteRedesign: {
		Service: "Web Development Package",
		Reason:  "A modern, mobile-friendly site is the foundation for every other initiative",
	},
	models.NeedSEO: {
		Service: "SEO Optimization",
		Reason:  "Improve search visibility so prospects find you organically",
	},
	models.NeedFundraising: {
		Service: "Fundraising Strategy Consulting",
		Reason:  "Grow donor revenue with a structured campaign and outreach plan",
	},
	models.NeedDigitalMarketing: {
		Service: "Digital Marketing Campaign",
		Reason:  "Reach your audience with targeted paid and organic channels",
	},
	models.NeedBranding: {
		Service: "Brand Identity Package",
		Reason:  "A consistent brand builds trust across every touchpoint",
	},
	models.NeedEcommerce: {
		Service: "E-commerce Solution",
		Reason:  "Sell online with a storefront built for conversion",
	},
	models.NeedSocialMedia: {
		Service: "Social Media Management",
		Reason:  "Keep your channels active and on-message without the overhead",
	},
	models.NeedGrantWriting: {
		Service: "Grant Writing Services",
		Reason:  "Win more funding with professionally prepared applications",
	},
	models.NeedContentStrategy: {
		Service: "Content Strategy Consulting",
		Reason:  "Publish content that supports your goals instead of filling space",
	},
	models.NeedAnalytics: {
		Service: "Analytics & Reporting Setup",
		Reason:  "Measure what works so budget goes where it performs",
	},
	models.NeedVolunteerMgmt: {
		Service: "Volunteer Program Consulting",
		Reason:  "Recruit, coordinate, and retain volunteers at scale",
	},
}

// GenerateRecommendations maps identified needs to a ranked service list.
// Output preserves the first-seen order of the input needs and is
// deduplicated by service name. For nonprofits the fundraising
// recommendation is forced to high priority.
func GenerateRecommendations(needs []models.Need, orgType models.OrganizationType) []models.Recommendation {
	var recs []models.Recommendation
	seen := make(map[string]bool, len(needs))

	for _, need := range needs {
		rec, ok := serviceCatalog[need]
		if !ok {
			continue
		}
		if seen[rec.Service] {
			continue
		}
		seen[rec.Service] = true
		if orgType == models.OrgNonprofit && need == models.NeedFundraising {
			rec.Priority = models.PriorityHigh
		}
		recs = append(recs, rec)
	}

	return recs
}
