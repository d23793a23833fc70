package types

import (
	"encoding/json"
	"time"
)

// SkillLevel classifies a user's automation experience.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// Complexity classifies a workflow's setup difficulty.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Priority classifies the urgency tier of an intent.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ToolIntegration describes one tool the platform can connect to.
type ToolIntegration struct {
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases,omitempty"`
	Category string   `json:"category,omitempty"`
}

// WorkflowPattern describes a recurring automation shape in the library.
type WorkflowPattern struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Complexity  Complexity `json:"complexity"`
	Tools       []string   `json:"tools,omitempty"`
}

// DomainKnowledge is the platform-level slice of a Context: the tool
// catalog, known workflow patterns, and the category taxonomy.
type DomainKnowledge struct {
	Integrations []ToolIntegration `json:"integrations"`
	Patterns     []WorkflowPattern `json:"patterns"`
	Categories   []string          `json:"categories"`
}

// UserContext is the per-session slice of a Context.
type UserContext struct {
	SessionID      string     `json:"session_id"`
	RecentQueries  []string   `json:"recent_queries"`
	PreferredTools []string   `json:"preferred_tools"`
	SkillLevel     SkillLevel `json:"skill_level"`
	DomainFocus    []string   `json:"domain_focus"`
}

// UserContextUpdate carries preference changes pushed through the
// user-context provider.
type UserContextUpdate struct {
	PreferredTools []string   `json:"preferred_tools,omitempty"`
	SkillLevel     SkillLevel `json:"skill_level,omitempty"`
	DomainFocus    []string   `json:"domain_focus,omitempty"`
}

// LibraryStats summarizes the workflow library at snapshot time.
type LibraryStats struct {
	TotalWorkflows     int64            `json:"total_workflows"`
	CategoryCounts     map[string]int64 `json:"category_counts"`
	PopularWorkflowIDs []string         `json:"popular_workflow_ids"`
	RecentWorkflowIDs  []string         `json:"recent_workflow_ids"`
}

// Context is an immutable point-in-time snapshot of everything the
// intent analyzer and recommender need to know about the platform and
// the requesting session. Domain and Library are never mutated after
// build; only the user query history grows across rebuilds.
type Context struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Domain    DomainKnowledge `json:"domain"`
	User      UserContext     `json:"user"`
	Library   LibraryStats    `json:"library"`
}

// PrimaryIntent is the main interpretation of a query.
type PrimaryIntent struct {
	Action     string     `json:"action"`
	Domain     string     `json:"domain"`
	Tools      []string   `json:"tools"`
	Complexity Complexity `json:"complexity"`
	Priority   Priority   `json:"priority"`
}

// SecondaryIntent is an alternate interpretation with its own confidence.
type SecondaryIntent struct {
	Action     string  `json:"action"`
	Domain     string  `json:"domain,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Entities holds the concrete things extracted from a query.
type Entities struct {
	Tools        []string `json:"tools"`
	Technologies []string `json:"technologies"`
	DataTypes    []string `json:"data_types"`
	Integrations []string `json:"integrations"`
	Triggers     []string `json:"triggers"`
	Frequency    string   `json:"frequency,omitempty"`
	Constraints  []string `json:"constraints"`
}

// ContextualFactors captures the circumstances a query was made under.
type ContextualFactors struct {
	UserSkillLevel SkillLevel `json:"user_skill_level"`
	Urgency        string     `json:"urgency,omitempty"`
	Scope          string     `json:"scope,omitempty"`
	Budget         string     `json:"budget,omitempty"`
	Timeframe      string     `json:"timeframe,omitempty"`
}

// Hint is one recommendation hint attached to an intent.
type Hint struct {
	Category   string  `json:"category"`
	Suggestion string  `json:"suggestion"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Intent is the structured interpretation of a free-text query.
// Instances are immutable; refinement produces a new Intent with a new
// ID and a confidence no lower than the parent's.
type Intent struct {
	ID              string            `json:"id"`
	CreatedAt       time.Time         `json:"created_at"`
	Query           string            `json:"query"`
	NormalizedQuery string            `json:"normalized_query"`
	Confidence      float64           `json:"confidence"`
	Primary         PrimaryIntent     `json:"primary"`
	Secondary       []SecondaryIntent `json:"secondary"`
	Entities        Entities          `json:"entities"`
	Factors         ContextualFactors `json:"contextual_factors"`
	Hints           []Hint            `json:"hints"`
}

// Requirement is one prerequisite for setting up a workflow.
type Requirement struct {
	Type         string   `json:"type"`
	Description  string   `json:"description"`
	Difficulty   string   `json:"difficulty,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Compatibility breaks a workflow's fit down into five sub-scores,
// each in [0,1], plus the weighted overall.
type Compatibility struct {
	SourceSystem     float64 `json:"source_system"`
	TargetSystem     float64 `json:"target_system"`
	Action           float64 `json:"action"`
	UserSkill        float64 `json:"user_skill"`
	ToolAvailability float64 `json:"tool_availability"`
	Overall          float64 `json:"overall"`
}

// CustomizationSuggestion proposes one adjustment to a recommended workflow.
type CustomizationSuggestion struct {
	Type       string `json:"type"`
	Suggestion string `json:"suggestion"`
	Impact     string `json:"impact"`
	Difficulty string `json:"difficulty"`
	Reasoning  string `json:"reasoning,omitempty"`
}

// Recommendation is one ranked, explained candidate workflow.
type Recommendation struct {
	ID                 string                    `json:"id"`
	WorkflowID         string                    `json:"workflow_id"`
	Title              string                    `json:"title"`
	Description        string                    `json:"description"`
	Category           string                    `json:"category"`
	Score              float64                   `json:"score"`
	Confidence         float64                   `json:"confidence"`
	Explanation        string                    `json:"explanation"`
	MatchReasons       []string                  `json:"match_reasons"`
	SetupComplexity    Complexity                `json:"setup_complexity"`
	EstimatedSetupTime string                    `json:"estimated_setup_time"`
	Requirements       []Requirement             `json:"requirements"`
	Compatibility      Compatibility             `json:"compatibility"`
	Customizations     []CustomizationSuggestion `json:"customizations"`
	SimilarWorkflowIDs []string                  `json:"similar_workflow_ids"`
	PopularityRank     int                       `json:"popularity_rank"`
	UserFitScore       float64                   `json:"user_fit_score"`
}

// UserProfile describes the requesting user for scoring purposes.
type UserProfile struct {
	SkillLevel          SkillLevel `json:"skill_level"`
	PreferredComplexity Complexity `json:"preferred_complexity"`
	ConnectedServices   []string   `json:"connected_services"`
	PastWorkflowIDs     []string   `json:"past_workflow_ids"`
	SuccessCount        int        `json:"success_count"`
	FailureCount        int        `json:"failure_count"`
	AvgSetupMinutes     int        `json:"avg_setup_minutes,omitempty"`
	Domains             []string   `json:"domains"`
}

// Preferences tunes how recommendations are selected and ranked.
type Preferences struct {
	PrioritizeSimplicity bool `json:"prioritize_simplicity"`
	FavorPopularity      bool `json:"favor_popularity"`
	IncludeExperimental  bool `json:"include_experimental"`
	MaxSetupMinutes      int  `json:"max_setup_minutes,omitempty"`
	RequireDocumentation bool `json:"require_documentation"`
	AvoidPremium         bool `json:"avoid_premium"`
}

// RecommendationContext is the fully populated input to the recommender.
// Intent, Profile, and Prefs must all be present; partial contexts are
// rejected before any search is issued.
type RecommendationContext struct {
	Intent                *Intent      `json:"intent"`
	Profile               *UserProfile `json:"profile"`
	SearchHistory         []string     `json:"search_history,omitempty"`
	AvailableIntegrations []string     `json:"available_integrations,omitempty"`
	Prefs                 *Preferences `json:"preferences"`
}

// Workflow is one library entry as returned by the search collaborator.
type Workflow struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Category      string        `json:"category"`
	Complexity    Complexity    `json:"complexity"`
	UsageCount    int64         `json:"usage_count"`
	AverageRating float64       `json:"average_rating"`
	ReviewCount   int64         `json:"review_count"`
	NodeCount     int           `json:"node_count"`
	Tags          []string      `json:"tags"`
	Requirements  []Requirement `json:"requirements"`
	CreatedAt     time.Time     `json:"created_at"`
}

// MarshalJSON ensures nil slices in Intent marshal as [] not null.
func (i Intent) MarshalJSON() ([]byte, error) {
	if i.Secondary == nil {
		i.Secondary = []SecondaryIntent{}
	}
	if i.Hints == nil {
		i.Hints = []Hint{}
	}
	type Alias Intent
	return json.Marshal(Alias(i))
}

// MarshalJSON ensures nil slices in Recommendation marshal as [] not null.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	if r.MatchReasons == nil {
		r.MatchReasons = []string{}
	}
	if r.Requirements == nil {
		r.Requirements = []Requirement{}
	}
	if r.Customizations == nil {
		r.Customizations = []CustomizationSuggestion{}
	}
	if r.SimilarWorkflowIDs == nil {
		r.SimilarWorkflowIDs = []string{}
	}
	type Alias Recommendation
	return json.Marshal(Alias(r))
}

// MarshalJSON ensures nil collections in LibraryStats marshal as {} / [].
func (s LibraryStats) MarshalJSON() ([]byte, error) {
	if s.CategoryCounts == nil {
		s.CategoryCounts = map[string]int64{}
	}
	if s.PopularWorkflowIDs == nil {
		s.PopularWorkflowIDs = []string{}
	}
	if s.RecentWorkflowIDs == nil {
		s.RecentWorkflowIDs = []string{}
	}
	type Alias LibraryStats
	return json.Marshal(Alias(s))
}

// ComplexityRank maps complexity tiers onto an ordinal scale for
// distance comparisons. Unknown tiers rank as medium.
func ComplexityRank(c Complexity) int {
	switch c {
	case ComplexitySimple:
		return 0
	case ComplexityComplex:
		return 2
	default:
		return 1
	}
}

// SkillRank maps skill levels onto the same ordinal scale as
// ComplexityRank. Unknown levels rank as intermediate.
func SkillRank(s SkillLevel) int {
	switch s {
	case SkillBeginner:
		return 0
	case SkillAdvanced:
		return 2
	default:
		return 1
	}
}
