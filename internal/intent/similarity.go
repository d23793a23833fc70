package intent

import (
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// Similarity weights: matching actions dominate, then tool overlap,
// then domain.
const (
	actionWeight = 0.3
	domainWeight = 0.2
	toolsWeight  = 0.5
)

// Similarity scores how alike two intents are, in [0,1]. Action and
// domain contribute fixed weights on exact match; tool overlap
// contributes proportionally via Jaccard similarity.
func Similarity(a, b *types.Intent) float64 {
	if a == nil || b == nil {
		return 0
	}

	var score float64
	if a.Primary.Action != "" && strings.EqualFold(a.Primary.Action, b.Primary.Action) {
		score += actionWeight
	}
	if a.Primary.Domain != "" && strings.EqualFold(a.Primary.Domain, b.Primary.Domain) {
		score += domainWeight
	}
	score += toolsWeight * toolOverlap(a.Primary.Tools, b.Primary.Tools)
	return score
}

// toolOverlap is the Jaccard similarity of two tool sets. Two empty
// sets count as identical; one empty set counts as disjoint.
func toolOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(a))
	for _, t := range a {
		seen[strings.ToLower(t)] = true
	}
	union := make(map[string]bool, len(a)+len(b))
	for k := range seen {
		union[k] = true
	}
	var shared int
	for _, t := range b {
		k := strings.ToLower(t)
		if seen[k] {
			shared++
			seen[k] = false
		}
		union[k] = true
	}
	return float64(shared) / float64(len(union))
}
