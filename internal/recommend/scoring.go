package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// Weights are the composite scoring weights. Each must be in [0,1];
// they need not sum to 1 because the final score is capped.
type Weights struct {
	IntentMatch     float64
	UserFit         float64
	Popularity      float64
	SetupSimplicity float64
	Compatibility   float64
}

// DefaultWeights is the out-of-the-box weighting.
var DefaultWeights = Weights{
	IntentMatch:     0.30,
	UserFit:         0.25,
	Popularity:      0.15,
	SetupSimplicity: 0.20,
	Compatibility:   0.10,
}

// Fixed sub-weights for the compatibility breakdown. Kept as given
// rather than renormalized against the outer weights.
const (
	compatSourceWeight = 0.25
	compatTargetWeight = 0.25
	compatActionWeight = 0.20
	compatSkillWeight  = 0.15
	compatToolsWeight  = 0.15
)

// actionKeywords maps a primary action onto the vocabulary that counts
// as a match in workflow text.
var actionKeywords = map[string][]string{
	"sync":    {"sync", "synchronize", "mirror", "replicate"},
	"notify":  {"notify", "notification", "alert", "message"},
	"create":  {"create", "generate", "add", "new"},
	"update":  {"update", "modify", "change", "edit"},
	"backup":  {"backup", "archive", "export", "copy"},
	"monitor": {"monitor", "track", "watch", "observe"},
	"import":  {"import", "ingest", "load", "fetch"},
	"report":  {"report", "summary", "digest", "dashboard"},
}

// workflowText is the lowercase searchable text of a workflow: title,
// description, category, and tags.
func workflowText(w *types.Workflow) string {
	parts := []string{w.Title, w.Description, w.Category}
	parts = append(parts, w.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// referencedIntegrations are the integrations the user asked about,
// falling back to the primary intent's tools when entity extraction
// produced none.
func referencedIntegrations(intent *types.Intent) []string {
	if len(intent.Entities.Integrations) > 0 {
		return intent.Entities.Integrations
	}
	return intent.Primary.Tools
}

// intentMatchScore measures how directly a workflow addresses the
// intent: first two integrations weigh 0.3 each, an action-keyword hit
// 0.2, a category match 0.1, and overall integration coverage up to 0.1.
// Returns the score with the human-readable reasons that earned it.
func intentMatchScore(w *types.Workflow, intent *types.Intent) (float64, []string) {
	text := workflowText(w)
	integrations := referencedIntegrations(intent)

	var score float64
	var reasons []string

	for i, integration := range integrations {
		if i >= 2 {
			break
		}
		if strings.Contains(text, strings.ToLower(integration)) {
			score += 0.3
			reasons = append(reasons, fmt.Sprintf("integrates with %s", strings.ToLower(integration)))
		}
	}

	if keywords, ok := actionKeywords[strings.ToLower(intent.Primary.Action)]; ok {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				score += 0.2
				reasons = append(reasons, fmt.Sprintf("supports the %s action", intent.Primary.Action))
				break
			}
		}
	}

	if intent.Primary.Domain != "" && strings.EqualFold(w.Category, intent.Primary.Domain) {
		score += 0.1
		reasons = append(reasons, fmt.Sprintf("matches the %s category", w.Category))
	}

	if len(integrations) > 0 {
		var found int
		for _, integration := range integrations {
			if strings.Contains(text, strings.ToLower(integration)) {
				found++
			}
		}
		score += 0.1 * float64(found) / float64(len(integrations))
	}

	return math.Min(score, 1.0), reasons
}

// userFitScore measures how well a workflow suits this particular user:
// skill alignment 0.4, connected-services coverage 0.3, domain match
// 0.2, historical success ratio 0.1.
func userFitScore(w *types.Workflow, profile *types.UserProfile) float64 {
	text := workflowText(w)

	tierGap := math.Abs(float64(types.ComplexityRank(w.Complexity) - types.SkillRank(profile.SkillLevel)))
	skillMatch := math.Max(0, 1.0-0.3*tierGap)

	var servicesMatch float64
	services := profile.ConnectedServices
	if len(services) > 5 {
		services = services[:5]
	}
	if len(services) > 0 {
		var found int
		for _, service := range services {
			if strings.Contains(text, strings.ToLower(service)) {
				found++
			}
		}
		servicesMatch = float64(found) / float64(len(services))
	}

	domainMatch := 0.5
	if len(profile.Domains) > 0 {
		domainMatch = 0.3
		category := strings.ToLower(w.Category)
		for _, domain := range profile.Domains {
			if strings.Contains(category, strings.ToLower(domain)) {
				domainMatch = 1.0
				break
			}
		}
	}

	successRatio := 1.0
	if total := profile.SuccessCount + profile.FailureCount; total > 0 {
		successRatio = float64(profile.SuccessCount) / float64(total)
	}

	return 0.4*skillMatch + 0.3*servicesMatch + 0.2*domainMatch + 0.1*successRatio
}

// popularityScore folds usage volume, rating, and review count into one
// signal, each saturating at a fixed ceiling.
func popularityScore(w *types.Workflow) float64 {
	usage := math.Min(float64(w.UsageCount)/1000.0, 1.0)
	rating := w.AverageRating / 5.0
	reviews := math.Min(float64(w.ReviewCount)/100.0, 1.0)
	return 0.5*usage + 0.3*rating + 0.2*reviews
}

// simplicityScore is neutral unless the caller asked to prioritize
// simplicity, in which case simpler structure earns a higher score.
func simplicityScore(w *types.Workflow, prefs *types.Preferences) float64 {
	if !prefs.PrioritizeSimplicity {
		return 0.5
	}

	var base float64
	switch w.Complexity {
	case types.ComplexitySimple:
		base = 0.5
	case types.ComplexityComplex:
		base = 0.1
	default:
		base = 0.3
	}

	nodeBonus := 0.3 * math.Max(0, 1.0-float64(w.NodeCount)/20.0)
	reqBonus := 0.2 * math.Max(0, 1.0-float64(len(w.Requirements))/5.0)
	return base + nodeBonus + reqBonus
}

// compatibilityScore produces the five-part breakdown surfaced on the
// recommendation, plus the fixed-weight overall.
func compatibilityScore(w *types.Workflow, rc *types.RecommendationContext) types.Compatibility {
	text := workflowText(w)
	integrations := referencedIntegrations(rc.Intent)

	source, target := 0.5, 0.5
	if len(integrations) > 0 {
		source = containsScore(text, integrations[0])
	}
	if len(integrations) > 1 {
		target = containsScore(text, integrations[1])
	}

	action := 0.5
	if keywords, ok := actionKeywords[strings.ToLower(rc.Intent.Primary.Action)]; ok {
		action = 0.2
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				action = 1.0
				break
			}
		}
	}

	tierGap := math.Abs(float64(types.ComplexityRank(w.Complexity) - types.SkillRank(rc.Profile.SkillLevel)))
	skill := math.Max(0, 1.0-0.3*tierGap)

	tools := 0.5
	if len(rc.AvailableIntegrations) > 0 {
		var found int
		for _, available := range rc.AvailableIntegrations {
			if strings.Contains(text, strings.ToLower(available)) {
				found++
			}
		}
		tools = float64(found) / float64(len(rc.AvailableIntegrations))
	}

	return types.Compatibility{
		SourceSystem:     source,
		TargetSystem:     target,
		Action:           action,
		UserSkill:        skill,
		ToolAvailability: tools,
		Overall: compatSourceWeight*source + compatTargetWeight*target +
			compatActionWeight*action + compatSkillWeight*skill + compatToolsWeight*tools,
	}
}

func containsScore(text, needle string) float64 {
	if strings.Contains(text, strings.ToLower(needle)) {
		return 1.0
	}
	return 0.2
}

// compositeScore combines the sub-scores under the configured weights,
// capped at 1.0.
func compositeScore(weights Weights, intentMatch, userFit, popularity, simplicity, compatibility float64) float64 {
	score := weights.IntentMatch*intentMatch +
		weights.UserFit*userFit +
		weights.Popularity*popularity +
		weights.SetupSimplicity*simplicity +
		weights.Compatibility*compatibility
	return math.Min(score, 1.0)
}

// calculateConfidence is the inclusion gate: it combines the intent
// match with small bonuses for proven usage, rating, and how much user
// data backs the fit estimate, capped at 1.0.
func calculateConfidence(intentMatch float64, w *types.Workflow, profile *types.UserProfile) float64 {
	confidence := intentMatch

	if w.UsageCount > 50 {
		confidence += 0.2
	} else {
		confidence += 0.1
	}
	if w.AverageRating > 4.0 {
		confidence += 0.2
	} else {
		confidence += 0.1
	}
	if len(profile.ConnectedServices) > 2 {
		confidence += 0.1
	} else {
		confidence += 0.05
	}

	return math.Min(confidence, 1.0)
}
