// Package engine implements the conversation state machine and qualification
// engine for ConsultIQ.
//
// Every function in this package is a pure transformation over value types:
// extraction, state reduction, stage transitions, scoring, action arbitration,
// and recommendation ranking. Persistence, transport, and text generation are
// external collaborators.
package engine

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/consultiq/consultiq/internal/models"
)

// Attributes is a partial attribute set extracted from a single utterance.
// Zero-valued fields mean the category did not match.
type Attributes struct {
	Email            string
	Name             string
	OrganizationType models.OrganizationType
	Timeline         models.Timeline
	Budget           models.BudgetRange
	BusinessNeeds    []models.Need
}

// Empty reports whether no category matched.
func (a Attributes) Empty() bool {
	return a.Email == "" && a.Name == "" && a.OrganizationType == "" &&
		a.Timeline == "" && a.Budget == "" && len(a.BusinessNeeds) == 0
}

// ---------- package-level compiled regexes ----------

var (
	emailRE      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	monthRangeRE = regexp.MustCompile(`(\d+)\s*(?:-|–|\bto\b)\s*(\d+)\s*months?`)
	monthCountRE = regexp.MustCompile(`(\d+)\s*months?`)
	underMonthRE = regexp.MustCompile(`\b(?:weeks?|this month|within (?:a|the|one) month|next month)\b`)
	amountRE     = regexp.MustCompile(`\$?(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*(k)?\b`)
)

// urgencyWords map directly to the immediate timeline bucket.
var urgencyWords = []string{"asap", "urgent", "immediate", "right away", "right now"}

// ---------- organization type patterns ----------

// orgTypePatterns is scanned in order; the first match wins. Nonprofit
// synonyms come first so "nonprofit organization" never falls through to the
// generic business patterns.
var orgTypePatterns = []struct {
	pattern string
	orgType models.OrganizationType
}{
	{"non-profit", models.OrgNonprofit},
	{"nonprofit", models.OrgNonprofit},
	{"not for profit", models.OrgNonprofit},
	{"charity", models.OrgNonprofit},
	{"charitable", models.OrgNonprofit},
	{"ngo", models.OrgNonprofit},
	{"501(c)", models.OrgNonprofit},
	{"501c", models.OrgNonprofit},
	{"foundation", models.OrgNonprofit},
	{"enterprise", models.OrgEnterprise},
	{"corporation", models.OrgEnterprise},
	{"start-up", models.OrgStartup},
	{"startup", models.OrgStartup},
	{"government", models.OrgGovernment},
	{"agency", models.OrgGovernment},
	{"municipality", models.OrgGovernment},
	{"business", models.OrgForProfit},
	{"company", models.OrgForProfit},
}

// ---------- business need patterns ----------

// needPatterns is scanned exhaustively; every matching tag is returned.
var needPatterns = []struct {
	pattern string
	need    models.Need
}{
	{"website", models.NeedWebsiteRedesign},
	{"web site", models.NeedWebsiteRedesign},
	{"redesign", models.NeedWebsiteRedesign},
	{"seo", models.NeedSEO},
	{"search engine", models.NeedSEO},
	{"donor", models.NeedFundraising},
	{"donation", models.NeedFundraising},
	{"fundrais", models.NeedFundraising},
	{"volunteer", models.NeedVolunteerMgmt},
	{"grant", models.NeedGrantWriting},
	{"social media", models.NeedSocialMedia},
	{"instagram", models.NeedSocialMedia},
	{"facebook", models.NeedSocialMedia},
	{"marketing", models.NeedDigitalMarketing},
	{"advertising", models.NeedDigitalMarketing},
	{"brand", models.NeedBranding},
	{"logo", models.NeedBranding},
	{"e-commerce", models.NeedEcommerce},
	{"ecommerce", models.NeedEcommerce},
	{"online store", models.NeedEcommerce},
	{"content", models.NeedContentStrategy},
	{"blog", models.NeedContentStrategy},
	{"copywriting", models.NeedContentStrategy},
	{"analytics", models.NeedAnalytics},
	{"reporting", models.NeedAnalytics},
	{"dashboard", models.NeedAnalytics},
}

// ---------- name extraction ----------

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)my name is\s+([A-Za-z][A-Za-z'\-]*(?:\s+[A-Za-z][A-Za-z'\-]*)?)`),
	regexp.MustCompile(`(?i)this is\s+([A-Za-z][A-Za-z'\-]*(?:\s+[A-Za-z][A-Za-z'\-]*)?)`),
	regexp.MustCompile(`(?i)\bi'?m\s+([A-Za-z][A-Za-z'\-]*)(?:\s|,|\.|!|$)`),
}

// nameStopwords filters pronoun-style replies that match the name patterns
// ("I'm interested", "I'm looking for help").
var nameStopwords = map[string]bool{
	"interested": true, "looking": true, "trying": true, "hoping": true,
	"wondering": true, "reaching": true, "writing": true, "calling": true,
	"not": true, "sure": true, "new": true, "here": true, "just": true,
	"a": true, "an": true, "the": true, "with": true, "so": true, "very": true,
}

// Extract maps raw utterance text to a partial attribute set. It is pure and
// never fails; unmatched categories are simply absent from the result.
func Extract(utterance string) Attributes {
	var attrs Attributes
	lower := strings.ToLower(utterance)

	attrs.Email = emailRE.FindString(utterance)
	attrs.Name = extractName(utterance)
	attrs.OrganizationType = extractOrganizationType(lower)
	attrs.Timeline = extractTimeline(lower)
	attrs.Budget = extractBudget(lower)
	attrs.BusinessNeeds = extractNeeds(lower)

	return attrs
}

func extractOrganizationType(lower string) models.OrganizationType {
	for _, p := range orgTypePatterns {
		if strings.Contains(lower, p.pattern) {
			return p.orgType
		}
	}
	return ""
}

func extractTimeline(lower string) models.Timeline {
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			return models.TimelineImmediate
		}
	}
	if m := monthRangeRE.FindStringSubmatch(lower); m != nil {
		upper, err := strconv.Atoi(m[2])
		if err == nil {
			return bucketMonths(upper)
		}
	}
	if m := monthCountRE.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return bucketMonths(n)
		}
	}
	if underMonthRE.MatchString(lower) {
		return models.TimelineUnderMonth
	}
	return ""
}

// bucketMonths maps a month count into the fixed timeline buckets. Counts
// above six clamp into the top bucket.
func bucketMonths(n int) models.Timeline {
	switch {
	case n <= 1:
		return models.TimelineUnderMonth
	case n <= 3:
		return models.TimelineOneToThree
	default:
		return models.TimelineThreeToSix
	}
}

// extractBudget parses the first numeric token into a dollar amount and
// buckets it. A token is bucketed even without a currency or "k" cue; unit
// ambiguity is not resolved beyond the optional suffix.
func extractBudget(lower string) models.BudgetRange {
	m := amountRE.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	if m[2] == "k" {
		amount *= 1000
	}
	return bucketBudget(amount)
}

// bucketBudget maps a dollar amount into the five fixed budget ranges.
func bucketBudget(amount float64) models.BudgetRange {
	switch {
	case amount < 5000:
		return models.BudgetUnder5K
	case amount < 10000:
		return models.Budget5To10K
	case amount < 25000:
		return models.Budget10To25K
	case amount < 50000:
		return models.Budget25To50K
	default:
		return models.BudgetOver50K
	}
}

func extractNeeds(lower string) []models.Need {
	var needs []models.Need
	seen := make(map[models.Need]bool)
	for _, p := range needPatterns {
		if !strings.Contains(lower, p.pattern) {
			continue
		}
		if seen[p.need] {
			continue
		}
		seen[p.need] = true
		needs = append(needs, p.need)
	}
	return needs
}

func extractName(utterance string) string {
	for _, re := range namePatterns {
		m := re.FindStringSubmatch(utterance)
		if m == nil {
			continue
		}
		words := strings.Fields(m[1])
		var kept []string
		for _, w := range words {
			if nameStopwords[strings.ToLower(w)] {
				break
			}
			kept = append(kept, capitalizeWord(w))
			if len(kept) == 2 {
				break
			}
		}
		if len(kept) > 0 {
			return strings.Join(kept, " ")
		}
	}
	return ""
}

func capitalizeWord(w string) string {
	if w == "" {
		return w
	}
	r := []rune(w)
	r[0] = unicode.ToUpper(r[0])
	for i := 1; i < len(r); i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}
