package shows

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

// sequenceNumbers pulls standalone numbers out of a normalized name, so
// "cyber city 2" yields ["2"].
var sequenceNumbers = regexp.MustCompile(`\b(\d+)\b`)

// MatchConfidence bands a similarity score for callers that only care
// about "safe to merge" versus "needs review".
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // score < 0.70
	ConfidenceLow                           // score >= 0.70
	ConfidenceMedium                        // score >= 0.85
	ConfidenceHigh                          // score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

func confidenceFor(score float64) MatchConfidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// MatchResult is the best candidate for a show name with its score band.
type MatchResult struct {
	Name       string          // matched candidate, empty when confidence is none
	Score      float64         // Jaro-Winkler similarity, 0 to 1
	Confidence MatchConfidence
}

// Match scores name against every candidate and returns the best one.
// Jaro-Winkler favors shared prefixes, which suits show titles; a
// sequence-number check keeps "Show 2" from folding into "Show 3".
func Match(name string, candidates []string) MatchResult {
	normalized := Normalize(name)
	nums := sequenceNumbers.FindAllString(normalized, -1)

	var best MatchResult
	for _, candidate := range candidates {
		score := scoreCandidate(normalized, nums, candidate)
		if score > best.Score {
			best = MatchResult{Name: candidate, Score: score}
		}
	}

	best.Confidence = confidenceFor(best.Score)
	if best.Confidence == ConfidenceNone {
		best.Name = ""
	}
	return best
}

// scoreCandidate computes the similarity of one candidate, adjusted for
// sequence numbers when the name carries any.
func scoreCandidate(normalized string, nums []string, candidate string) float64 {
	normCand := Normalize(candidate)
	score := float64(edlib.JaroWinklerSimilarity(normalized, normCand))
	if len(nums) == 0 {
		return score
	}

	candNums := sequenceNumbers.FindAllString(normCand, -1)
	switch {
	case len(candNums) == 0:
		// The name is numbered and the candidate is not.
		return score * 0.85
	case sharesNumber(nums, candNums):
		return min(score*1.05, 1.0)
	default:
		// Both numbered with none in common: likely a sibling sequel.
		return score * 0.90
	}
}

func sharesNumber(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
