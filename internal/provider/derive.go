package provider

import (
	"sort"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// patternSourceLimit bounds how many high-usage workflows seed the
// pattern list.
const patternSourceLimit = 10

// DeriveDomainKnowledge builds the platform-level context slice from
// the workflow catalog: tags become the integration vocabulary,
// categories form the taxonomy, and the most-used workflows contribute
// patterns.
func DeriveDomainKnowledge(workflows []types.Workflow) types.DomainKnowledge {
	tagCategories := make(map[string]string)
	categories := make(map[string]bool)
	for _, w := range workflows {
		if w.Category != "" {
			categories[w.Category] = true
		}
		for _, tag := range w.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, ok := tagCategories[tag]; !ok {
				tagCategories[tag] = w.Category
			}
		}
	}

	knowledge := types.DomainKnowledge{}
	for tag, category := range tagCategories {
		knowledge.Integrations = append(knowledge.Integrations, types.ToolIntegration{
			Name:     tag,
			Category: category,
		})
	}
	sort.Slice(knowledge.Integrations, func(i, j int) bool {
		return knowledge.Integrations[i].Name < knowledge.Integrations[j].Name
	})

	for category := range categories {
		knowledge.Categories = append(knowledge.Categories, category)
	}
	sort.Strings(knowledge.Categories)

	popular := append([]types.Workflow(nil), workflows...)
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].UsageCount > popular[j].UsageCount
	})
	if len(popular) > patternSourceLimit {
		popular = popular[:patternSourceLimit]
	}
	for _, w := range popular {
		knowledge.Patterns = append(knowledge.Patterns, types.WorkflowPattern{
			Name:        w.Title,
			Description: w.Description,
			Complexity:  w.Complexity,
			Tools:       w.Tags,
		})
	}

	return knowledge
}
