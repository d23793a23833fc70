package intent

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/waypoint/internal/types"
	"github.com/hyperengineering/waypoint/internal/validation"
)

// Fallback intent constants. A malformed model response must still
// produce a usable structured object for downstream consumers.
const (
	fallbackConfidence = 0.3
	fallbackAction     = "general_automation"
	fallbackDomain     = "unknown"

	// defaultConfidence is assumed when the model omits its own estimate.
	defaultConfidence = 0.5
)

// modelIntent mirrors the JSON shape the model is asked to return.
// Pointer fields distinguish "omitted" from zero values.
type modelIntent struct {
	Confidence      *float64                `json:"confidence"`
	NormalizedQuery string                  `json:"normalized_query"`
	Primary         types.PrimaryIntent     `json:"primary"`
	Secondary       []types.SecondaryIntent `json:"secondary"`
	Entities        types.Entities          `json:"entities"`
	Factors         types.ContextualFactors `json:"contextual_factors"`
	Hints           []types.Hint            `json:"hints"`
}

// parseIntent converts raw model output into a validated Intent, or
// returns false when the output is unusable and the caller must fall
// back.
func parseIntent(content, query string) (*types.Intent, bool) {
	var payload modelIntent
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return nil, false
	}

	confidence := defaultConfidence
	if payload.Confidence != nil {
		confidence = *payload.Confidence
	}
	normalized := payload.NormalizedQuery
	if normalized == "" {
		normalized = normalizeQuery(query)
	}
	if payload.Primary.Complexity == "" {
		payload.Primary.Complexity = types.ComplexityMedium
	}
	if payload.Primary.Priority == "" {
		payload.Primary.Priority = types.PriorityMedium
	}

	parsed := &types.Intent{
		ID:              ulid.Make().String(),
		CreatedAt:       time.Now().UTC(),
		Query:           query,
		NormalizedQuery: normalized,
		Confidence:      confidence,
		Primary:         payload.Primary,
		Secondary:       payload.Secondary,
		Entities:        payload.Entities,
		Factors:         payload.Factors,
		Hints:           payload.Hints,
	}

	if errs := validation.ValidateIntent(parsed); len(errs) > 0 {
		return nil, false
	}
	return parsed, true
}

// fallbackIntent is the low-confidence interpretation used whenever
// the model's response cannot be parsed or fails validation.
func fallbackIntent(query string) *types.Intent {
	return &types.Intent{
		ID:              ulid.Make().String(),
		CreatedAt:       time.Now().UTC(),
		Query:           query,
		NormalizedQuery: normalizeQuery(query),
		Confidence:      fallbackConfidence,
		Primary: types.PrimaryIntent{
			Action:     fallbackAction,
			Domain:     fallbackDomain,
			Complexity: types.ComplexityMedium,
			Priority:   types.PriorityMedium,
		},
		Hints: []types.Hint{
			{
				Category:   "fallback",
				Suggestion: "Ask the user to describe the automation goal in more detail",
				Reasoning:  "The request could not be interpreted with confidence",
				Confidence: 0.9,
			},
		},
	}
}

// normalizeQuery lowercases and collapses whitespace.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
