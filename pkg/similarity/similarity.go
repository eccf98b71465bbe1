// Package similarity scores normalized questions by token-set overlap and
// picks the best reusable cache entry.
package similarity

import (
	"time"

	"github.com/prepforge/aicache/pkg/normalize"
)

// Candidate is one live cache entry offered to the matcher. HitCount and
// CreatedAt participate in tie-breaking only.
type Candidate struct {
	Key        string
	Normalized string
	HitCount   int64
	CreatedAt  time.Time
}

// Jaccard returns |a ∩ b| / |a ∪ b| over token sets. It is symmetric,
// bounded in [0,1], and 1 only for identical non-empty sets. Either side
// empty scores 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Best returns the candidate that should be reused for the normalized
// question, or false when none reaches the threshold. A candidate is
// eligible at score >= threshold. Among eligible candidates the highest
// score wins; equal scores prefer the higher hit count, then the most
// recently created entry.
func Best(normalized string, candidates []Candidate, threshold float64) (Candidate, bool) {
	qTokens := normalize.Tokens(normalized)

	var best Candidate
	bestScore := -1.0
	found := false

	for _, c := range candidates {
		score := Jaccard(qTokens, normalize.Tokens(c.Normalized))
		if score < threshold {
			continue
		}
		if !found || better(score, c, bestScore, best) {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

func better(score float64, c Candidate, bestScore float64, best Candidate) bool {
	if score != bestScore {
		return score > bestScore
	}
	if c.HitCount != best.HitCount {
		return c.HitCount > best.HitCount
	}
	return c.CreatedAt.After(best.CreatedAt)
}
