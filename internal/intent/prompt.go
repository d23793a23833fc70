package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// systemPrompt instructs the model to act as an intent extractor and
// pins down the JSON shape it must return.
const systemPrompt = `You are an automation intent analyzer. Given a user's free-text
request and a platform context, extract a structured interpretation.

Respond with a single JSON object, no prose, matching this shape:
{
  "confidence": 0.0-1.0,
  "normalized_query": "cleaned restatement of the request",
  "primary": {
    "action": "verb like sync|notify|create|update|backup|monitor|general_automation",
    "domain": "business area like sales|marketing|operations|unknown",
    "tools": ["referenced tool names"],
    "complexity": "simple|medium|complex",
    "priority": "low|medium|high"
  },
  "secondary": [{"action": "...", "domain": "...", "confidence": 0.0-1.0}],
  "entities": {
    "tools": [], "technologies": [], "data_types": [],
    "integrations": [], "triggers": [], "frequency": "", "constraints": []
  },
  "contextual_factors": {
    "user_skill_level": "beginner|intermediate|advanced",
    "urgency": "", "scope": "", "budget": "", "timeframe": ""
  },
  "hints": [{"category": "...", "suggestion": "...", "reasoning": "...", "confidence": 0.0-1.0}]
}`

// promptContext is the trimmed context slice embedded in the prompt.
// The full snapshot contains more than the model needs; sending only
// the relevant fields keeps the prompt inside the token budget.
type promptContext struct {
	Integrations  []string `json:"available_integrations"`
	Categories    []string `json:"workflow_categories"`
	Patterns      []string `json:"workflow_patterns"`
	SkillLevel    string   `json:"user_skill_level"`
	RecentQueries []string `json:"recent_queries"`
	LibrarySize   int64    `json:"library_size"`
}

// buildPrompt embeds the query and the context snapshot into the user
// prompt sent to the model.
func buildPrompt(query string, snapshot *types.Context) string {
	pc := promptContext{
		SkillLevel:    string(snapshot.User.SkillLevel),
		RecentQueries: snapshot.User.RecentQueries,
		Categories:    snapshot.Domain.Categories,
		LibrarySize:   snapshot.Library.TotalWorkflows,
	}
	for _, integration := range snapshot.Domain.Integrations {
		pc.Integrations = append(pc.Integrations, integration.Name)
	}
	for _, pattern := range snapshot.Domain.Patterns {
		pc.Patterns = append(pc.Patterns, fmt.Sprintf("%s (%s)", pattern.Name, pattern.Complexity))
	}

	contextJSON, err := json.Marshal(pc)
	if err != nil {
		contextJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("User request:\n")
	b.WriteString(query)
	b.WriteString("\n\nPlatform context:\n")
	b.Write(contextJSON)
	return b.String()
}
