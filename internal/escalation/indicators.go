package escalation

import (
	"regexp"
	"sort"
	"strings"
)

// Risk indicators recognised in assessment text and flags.
const (
	IndicatorIrreversible    = "irreversible"
	IndicatorSurvivalThreat  = "survival_threat"
	IndicatorTimePressure    = "time_pressure"
	IndicatorSystemicImpact  = "systemic_impact"
	IndicatorFinancial       = "financial_exposure"
	IndicatorReputation      = "reputation"
	IndicatorTotalCommitment = "total_commitment"
)

// phraseMatcher matches whole words or phrases, case-insensitively. Text
// covered by an except pattern is blanked before matching, so "technical
// debt" does not read as financial debt.
type phraseMatcher struct {
	match  []*regexp.Regexp
	except []*regexp.Regexp
}

func words(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)\b(?:` + p + `)\b`)
	}
	return out
}

func (p phraseMatcher) find(text string) bool {
	for _, ex := range p.except {
		text = ex.ReplaceAllString(text, " ")
	}
	for _, re := range p.match {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var indicatorPhrases = map[string]phraseMatcher{
	IndicatorIrreversible: {
		match: words(`irreversibl[ey]`, `permanent(?:ly)?`, `can'?t be undone`, `cannot be undone`,
			`can'?t undo`, `cannot undo`, `no going back`, `point of no return`),
	},
	IndicatorSurvivalThreat: {
		match: words(`bankrupt(?:cy)?`, `ruin(?:ous)?`, `lose everything`, `survival`, `existential`,
			`fatal`, `catastroph(?:e|ic)`, `go(?:es|ing)? out of business`, `shut down the (?:company|business)`),
		except: words(`fatal (?:error|exception)s?`),
	},
	IndicatorTimePressure: {
		match:  words(`deadlines?`, `urgent(?:ly)?`, `running out of time`, `no time`),
		except: words(`in no time`),
	},
	IndicatorSystemicImpact: {
		match: words(`systemic`, `cascad(?:e|ing) failures?`, `affects everyone`,
			`entire (?:company|organi[sz]ation|industry)`, `whole (?:company|organi[sz]ation)`, `market-wide`),
	},
	IndicatorFinancial: {
		match:  words(`debts?`, `loans?`, `borrow(?:ed|ing)?`, `leveraged`, `margin call`, `mortgage`, `savings`),
		except: words(`(?:technical|design|tech) debt`, `(?:cost|time) savings`),
	},
	IndicatorReputation: {
		match: words(`reputation(?:al)?`, `public trust`, `credibility`, `(?:bad|negative) press`,
			`press coverage`, `headlines?`),
	},
}

// highStakes marks total-commitment or gambling language in a proposed
// action.
var highStakes = phraseMatcher{
	match: words(
		`bet (?:everything|the (?:company|farm|house))`,
		`(?:go|goes|going|went|be|are|is|am|we're|i'm|push|pushing)\s+all[- ]in`,
		`all-in (?:bet|move|wager)`,
		`(?:put|putting) everything on`,
		`everything on the line`,
		`no going back`,
		`gambl(?:e|ing)`,
		`double down`,
		`mortgage`,
		`life savings`,
	),
}

// ExtractIndicators returns the sorted, deduplicated indicators found in text.
func ExtractIndicators(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var out []string
	for ind, m := range indicatorPhrases {
		if m.find(text) {
			out = append(out, ind)
		}
	}
	sort.Strings(out)
	return out
}

// HighStakesLanguage reports whether action contains total-commitment or
// gambling language.
func HighStakesLanguage(action string) bool {
	return highStakes.find(action)
}

// mergeIndicators adds items to a sorted set.
func mergeIndicators(set []string, items ...string) []string {
	for _, it := range items {
		i := sort.SearchStrings(set, it)
		if i < len(set) && set[i] == it {
			continue
		}
		set = append(set, "")
		copy(set[i+1:], set[i:])
		set[i] = it
	}
	return set
}
