package bot

import (
	"sort"

	"github.com/trezcool/ongea/core"
)

// Confidence is an informational/debugging signal only; it never drives
// control flow.
const (
	confidenceStrict = 1.0 // ALL / EXACT matches
	confidenceLoose  = 0.8 // ANY matches
)

// RuleResult is the outcome of evaluating an utterance against a rule list.
type RuleResult struct {
	Response    string
	MatchedRule *Rule
	Confidence  float64
}

// Evaluate selects the highest-priority, most-specific rule matching the
// utterance, falling back to the first rule marked as fallback (or a generic
// response if none is defined).
//
// The evaluation order is a documented contract, not incidental iteration:
// candidates are sorted by descending priority, ties broken by descending
// keyword count (more specific rules win). The ordering is recomputed on
// every call since rules may have been edited since the last one.
// Evaluate is stateless: identical input always yields identical output.
func Evaluate(utterance string, rules []Rule) RuleResult {
	var fallback *Rule
	candidates := make([]Rule, 0, len(rules))
	for i := range rules {
		if rules[i].IsFallback {
			// at most one rule should be marked fallback; if several are,
			// the first found wins, deterministically
			if fallback == nil {
				fallback = &rules[i]
			}
			continue
		}
		if !hasKeywords(rules[i].Keywords) {
			continue // no usable keywords, never matches
		}
		candidates = append(candidates, rules[i])
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return len(candidates[i].Keywords) > len(candidates[j].Keywords)
	})

	for i := range candidates {
		r := &candidates[i]
		if MatchKeywords(utterance, r.Keywords, r.MatchMode) {
			conf := confidenceLoose
			if r.MatchMode == ModeAll || r.MatchMode == ModeExact {
				conf = confidenceStrict
			}
			return RuleResult{Response: r.Response, MatchedRule: r, Confidence: conf}
		}
	}

	if fallback != nil {
		return RuleResult{Response: fallback.Response}
	}
	return RuleResult{Response: respFallback}
}

func hasKeywords(keywords []string) bool {
	for _, kw := range keywords {
		if core.CleanString(kw) != "" {
			return true
		}
	}
	return false
}
