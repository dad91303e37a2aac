package bot

import (
	"strings"

	"github.com/trezcool/ongea/core"
)

// defaultMarkers are condition values that mean "catch-all". They are never
// evaluated as keywords: callers must special-case them as "always-default"
// (not "always-true") so specific edges and rules keep precedence.
var defaultMarkers = map[string]struct{}{
	"":        {},
	"default": {},
	"else":    {},
	"*":       {},
}

// IsDefaultCondition reports whether condition is a default/catch-all marker.
func IsDefaultCondition(condition string) bool {
	_, ok := defaultMarkers[core.CleanString(condition, true /* lower */)]
	return ok
}

// SplitCondition splits a comma-separated condition into its normalized
// (trimmed, lowercased) keywords, dropping empty entries.
func SplitCondition(condition string) []string {
	parts := strings.Split(condition, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := core.CleanString(p, true /* lower */); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// Matches tests a user utterance against a condition string under the given
// match mode. It is pure and never panics; empty or whitespace-only input is
// a no-match, and default/catch-all conditions are always a no-match.
func Matches(utterance, condition string, mode MatchMode) bool {
	if IsDefaultCondition(condition) {
		return false
	}
	return MatchKeywords(utterance, SplitCondition(condition), mode)
}

// MatchKeywords tests a user utterance against a keyword list:
//   - ModeAny: the utterance contains at least one keyword as a substring;
//   - ModeAll: the utterance contains every keyword as a substring;
//   - ModeExact: the normalized utterance equals some keyword.
//
// An unknown or empty mode falls back to ModeAny.
func MatchKeywords(utterance string, keywords []string, mode MatchMode) bool {
	utt := core.CleanString(utterance, true /* lower */)
	if utt == "" {
		return false
	}

	var matched int
	for _, kw := range keywords {
		kw = core.CleanString(kw, true /* lower */)
		if kw == "" {
			continue
		}
		switch mode {
		case ModeAll:
			if !strings.Contains(utt, kw) {
				return false
			}
			matched++
		case ModeExact:
			if utt == kw {
				return true
			}
		default: // ModeAny
			if strings.Contains(utt, kw) {
				return true
			}
		}
	}
	// ModeAll matches only if there was at least one keyword to satisfy.
	return mode == ModeAll && matched > 0
}
