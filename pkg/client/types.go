// Package client is the Go SDK for the Waypoint recommendation API.
// It defines its own wire types so consumers outside this module can
// use it without reaching into internal packages.
package client

import "time"

// Health is the GET /health payload.
type Health struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Model         string `json:"model"`
	WorkflowCount int64  `json:"workflow_count"`
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

// RecommendRequest asks for ranked workflows for a free-text query.
type RecommendRequest struct {
	SessionID   string       `json:"session_id"`
	Query       string       `json:"query"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// Intent is the structured interpretation returned alongside the list.
type Intent struct {
	ID              string        `json:"id"`
	CreatedAt       time.Time     `json:"created_at"`
	Query           string        `json:"query"`
	NormalizedQuery string        `json:"normalized_query"`
	Confidence      float64       `json:"confidence"`
	Primary         PrimaryIntent `json:"primary"`
	Hints           []Hint        `json:"hints"`
}

// PrimaryIntent is the main interpretation of a query.
type PrimaryIntent struct {
	Action     string   `json:"action"`
	Domain     string   `json:"domain"`
	Tools      []string `json:"tools"`
	Complexity string   `json:"complexity"`
	Priority   string   `json:"priority"`
}

// Hint is one recommendation hint attached to an intent.
type Hint struct {
	Category   string  `json:"category"`
	Suggestion string  `json:"suggestion"`
	Reasoning  string  `json:"reasoning,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Recommendation is one ranked, explained candidate workflow.
type Recommendation struct {
	ID                 string   `json:"id"`
	WorkflowID         string   `json:"workflow_id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Score              float64  `json:"score"`
	Confidence         float64  `json:"confidence"`
	Explanation        string   `json:"explanation"`
	MatchReasons       []string `json:"match_reasons"`
	SetupComplexity    string   `json:"setup_complexity"`
	EstimatedSetupTime string   `json:"estimated_setup_time"`
	PopularityRank     int      `json:"popularity_rank"`
	UserFitScore       float64  `json:"user_fit_score"`
}

// RecommendResponse bundles the interpreted intent with the ranked list.
type RecommendResponse struct {
	Intent          *Intent          `json:"intent"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Feedback reports whether a recommended workflow was helpful.
type Feedback struct {
	WorkflowID string `json:"workflow_id"`
	Helpful    bool   `json:"helpful"`
	SessionID  string `json:"session_id,omitempty"`
}

// FeedbackTally is the running helpful/unhelpful count for a workflow.
type FeedbackTally struct {
	WorkflowID string `json:"workflow_id"`
	Helpful    int    `json:"helpful"`
	Unhelpful  int    `json:"unhelpful"`
}

// Refinement carries user corrections for an analyzed intent.
type Refinement struct {
	Tools      []string `json:"tools,omitempty"`
	Complexity string   `json:"complexity,omitempty"`
	Priority   string   `json:"priority,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Action     string   `json:"action,omitempty"`
}
