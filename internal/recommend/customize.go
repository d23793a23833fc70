package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

var impactWeight = map[string]int{"high": 3, "medium": 2, "low": 1}

var difficultyWeight = map[string]int{"easy": 3, "medium": 2, "hard": 1}

// customizationSuggestions runs the four generators and returns their
// combined output ordered by impact-weight × difficulty-weight, so the
// most valuable easy wins come first.
func customizationSuggestions(w *types.Workflow, rc *types.RecommendationContext) []types.CustomizationSuggestion {
	var suggestions []types.CustomizationSuggestion
	suggestions = append(suggestions, parameterSuggestions(w, rc)...)
	suggestions = append(suggestions, triggerSuggestions(w, rc)...)
	suggestions = append(suggestions, filterSuggestions(w, rc)...)
	suggestions = append(suggestions, integrationSuggestions(w, rc)...)

	sort.SliceStable(suggestions, func(i, j int) bool {
		wi := impactWeight[suggestions[i].Impact] * difficultyWeight[suggestions[i].Difficulty]
		wj := impactWeight[suggestions[j].Impact] * difficultyWeight[suggestions[j].Difficulty]
		return wi > wj
	})
	return suggestions
}

// parameterSuggestions proposes field-mapping and scheduling tweaks
// derived from the extracted entities.
func parameterSuggestions(w *types.Workflow, rc *types.RecommendationContext) []types.CustomizationSuggestion {
	var out []types.CustomizationSuggestion

	if len(rc.Intent.Entities.DataTypes) > 0 {
		out = append(out, types.CustomizationSuggestion{
			Type:       "parameter",
			Suggestion: fmt.Sprintf("Map the %s fields to match your data model", strings.Join(rc.Intent.Entities.DataTypes, ", ")),
			Impact:     "high",
			Difficulty: "easy",
			Reasoning:  "The request names specific data types the workflow should carry",
		})
	}
	if rc.Intent.Entities.Frequency != "" {
		out = append(out, types.CustomizationSuggestion{
			Type:       "parameter",
			Suggestion: fmt.Sprintf("Set the run schedule to %s", rc.Intent.Entities.Frequency),
			Impact:     "medium",
			Difficulty: "easy",
			Reasoning:  "The request specifies how often the automation should run",
		})
	}
	return out
}

// triggerSuggestions proposes trigger changes when the request names
// explicit triggers, or an event trigger for real-time phrasing.
func triggerSuggestions(w *types.Workflow, rc *types.RecommendationContext) []types.CustomizationSuggestion {
	var out []types.CustomizationSuggestion

	for _, trigger := range rc.Intent.Entities.Triggers {
		out = append(out, types.CustomizationSuggestion{
			Type:       "trigger",
			Suggestion: fmt.Sprintf("Configure the workflow to start on %s", trigger),
			Impact:     "high",
			Difficulty: "medium",
			Reasoning:  "The request names an explicit trigger condition",
		})
	}

	query := strings.ToLower(rc.Intent.NormalizedQuery)
	if len(out) == 0 && (strings.Contains(query, "real-time") || strings.Contains(query, "realtime") ||
		strings.Contains(query, "immediately") || strings.Contains(query, "instantly")) {
		out = append(out, types.CustomizationSuggestion{
			Type:       "trigger",
			Suggestion: "Switch from a polling schedule to an event-based trigger",
			Impact:     "high",
			Difficulty: "medium",
			Reasoning:  "The request asks for real-time behavior",
		})
	}
	return out
}

// filterSuggestions proposes record filtering when the request carries
// constraints.
func filterSuggestions(w *types.Workflow, rc *types.RecommendationContext) []types.CustomizationSuggestion {
	var out []types.CustomizationSuggestion
	for _, constraint := range rc.Intent.Entities.Constraints {
		out = append(out, types.CustomizationSuggestion{
			Type:       "filter",
			Suggestion: fmt.Sprintf("Add a filter step enforcing: %s", constraint),
			Impact:     "medium",
			Difficulty: "easy",
			Reasoning:  "The request constrains which records should flow through",
		})
	}
	return out
}

// integrationSuggestions proposes wiring in connected services the
// workflow does not already mention.
func integrationSuggestions(w *types.Workflow, rc *types.RecommendationContext) []types.CustomizationSuggestion {
	text := workflowText(w)
	requested := make(map[string]bool)
	for _, integration := range referencedIntegrations(rc.Intent) {
		requested[strings.ToLower(integration)] = true
	}

	var out []types.CustomizationSuggestion
	for _, service := range rc.Profile.ConnectedServices {
		lower := strings.ToLower(service)
		if requested[lower] || strings.Contains(text, lower) {
			continue
		}
		out = append(out, types.CustomizationSuggestion{
			Type:       "integration",
			Suggestion: fmt.Sprintf("Extend the workflow with your connected %s account", service),
			Impact:     "low",
			Difficulty: "hard",
			Reasoning:  "You already have this service connected",
		})
		if len(out) == 2 {
			break
		}
	}
	return out
}
