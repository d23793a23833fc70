package recommend

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// buildExplanation assembles the human-readable explanation from the
// already-computed match reasons, requirements, and top customization
// suggestions. Deterministic text only; no further inference.
func buildExplanation(w *types.Workflow, reasons []string, suggestions []types.CustomizationSuggestion) string {
	var b strings.Builder

	if len(reasons) > 0 {
		b.WriteString(fmt.Sprintf("%q is recommended because it %s.", w.Title, joinClauses(reasons)))
	} else {
		b.WriteString(fmt.Sprintf("%q is a popular workflow in the %s category.", w.Title, w.Category))
	}

	switch n := len(w.Requirements); n {
	case 0:
		b.WriteString(" It has no setup prerequisites.")
	case 1:
		b.WriteString(fmt.Sprintf(" Setup needs 1 prerequisite: %s.", w.Requirements[0].Description))
	default:
		b.WriteString(fmt.Sprintf(" Setup needs %d prerequisites, starting with: %s.", n, w.Requirements[0].Description))
	}

	if len(suggestions) > 0 {
		top := suggestions
		if len(top) > 3 {
			top = top[:3]
		}
		var texts []string
		for _, s := range top {
			texts = append(texts, strings.ToLower(s.Suggestion[:1])+s.Suggestion[1:])
		}
		b.WriteString(fmt.Sprintf(" To tailor it: %s.", joinClauses(texts)))
	}

	return b.String()
}

// joinClauses renders a list as natural prose: "a", "a and b",
// "a, b, and c".
func joinClauses(clauses []string) string {
	switch len(clauses) {
	case 0:
		return ""
	case 1:
		return clauses[0]
	case 2:
		return clauses[0] + " and " + clauses[1]
	default:
		return strings.Join(clauses[:len(clauses)-1], ", ") + ", and " + clauses[len(clauses)-1]
	}
}
