package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hyperengineering/waypoint/internal/llm"
	"github.com/hyperengineering/waypoint/internal/types"
)

// Config tunes the analyzer.
type Config struct {
	// HistorySize bounds the per-session intent history.
	HistorySize int
	// RefinementIncrement is added to confidence on each refinement.
	RefinementIncrement float64
	// Temperature and MaxTokens are passed through to the model call.
	Temperature float64
	MaxTokens   int64
}

func (c Config) withDefaults() Config {
	if c.HistorySize <= 0 {
		c.HistorySize = 50
	}
	if c.RefinementIncrement <= 0 {
		c.RefinementIncrement = 0.1
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1500
	}
	return c
}

// Feedback carries user corrections applied during refinement. Nil or
// empty fields leave the corresponding intent field untouched.
type Feedback struct {
	Tools      []string         `json:"tools,omitempty"`
	Complexity types.Complexity `json:"complexity,omitempty"`
	Priority   types.Priority   `json:"priority,omitempty"`
	Domain     string           `json:"domain,omitempty"`
	Action     string           `json:"action,omitempty"`
}

// Analyzer turns free-text queries into structured intents using a
// language model, enriches them against the context snapshot, and
// records them for later refinement.
type Analyzer struct {
	llm     llm.Client
	history *history
	cfg     Config
}

// NewAnalyzer creates an Analyzer backed by the given model client.
func NewAnalyzer(client llm.Client, cfg Config) *Analyzer {
	cfg = cfg.withDefaults()
	return &Analyzer{
		llm:     client,
		history: newHistory(cfg.HistorySize),
		cfg:     cfg,
	}
}

// Analyze interprets a query against the context snapshot. Transport
// failures surface as *LLMAnalysisError; malformed model output
// degrades to a low-confidence fallback intent rather than an error.
func (a *Analyzer) Analyze(ctx context.Context, query string, snapshot *types.Context) (*types.Intent, error) {
	resp, err := a.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       buildPrompt(query, snapshot),
		Temperature:  a.cfg.Temperature,
		MaxTokens:    a.cfg.MaxTokens,
		JSONResponse: true,
	})
	if err != nil {
		return nil, &LLMAnalysisError{
			Code:  CodeTransportFailure,
			Query: query,
			Context: map[string]any{
				"model":      a.llm.ModelName(),
				"session_id": snapshot.User.SessionID,
			},
			Err: err,
		}
	}

	intent, ok := parseIntent(resp.Content, query)
	if !ok {
		intent = fallbackIntent(query)
	}

	a.enrich(intent, snapshot)
	a.history.add(snapshot.User.SessionID, intent)
	return intent, nil
}

// Refine produces a new intent from a previously analyzed one with the
// user's corrections applied. The refined intent gets a fresh id and
// timestamp and a confidence raised by the configured increment, capped
// at 1.0. Empty feedback still bumps confidence: the user confirmed the
// interpretation.
func (a *Analyzer) Refine(intentID string, fb Feedback) (*types.Intent, error) {
	parent, sessionID, ok := a.history.get(intentID)
	if !ok {
		return nil, &IntentAnalysisError{
			Code:     CodeIntentNotFound,
			IntentID: intentID,
		}
	}

	refined := *parent
	refined.ID = ulid.Make().String()
	refined.CreatedAt = time.Now().UTC()
	refined.Confidence = min(1.0, parent.Confidence+a.cfg.RefinementIncrement)
	refined.Hints = append([]types.Hint(nil), parent.Hints...)

	var corrections []string
	if len(fb.Tools) > 0 {
		refined.Primary.Tools = append([]string(nil), fb.Tools...)
		corrections = append(corrections, fmt.Sprintf("tools set to %s", strings.Join(fb.Tools, ", ")))
	}
	if fb.Complexity != "" {
		refined.Primary.Complexity = fb.Complexity
		corrections = append(corrections, fmt.Sprintf("complexity set to %s", fb.Complexity))
	}
	if fb.Priority != "" {
		refined.Primary.Priority = fb.Priority
		corrections = append(corrections, fmt.Sprintf("priority set to %s", fb.Priority))
	}
	if fb.Domain != "" {
		refined.Primary.Domain = fb.Domain
		corrections = append(corrections, fmt.Sprintf("domain set to %s", fb.Domain))
	}
	if fb.Action != "" {
		refined.Primary.Action = fb.Action
		corrections = append(corrections, fmt.Sprintf("action set to %s", fb.Action))
	}
	if len(corrections) > 0 {
		refined.Hints = append(refined.Hints, types.Hint{
			Category:   "user_correction",
			Suggestion: strings.Join(corrections, "; "),
			Reasoning:  "Explicit user feedback overrides the model interpretation",
			Confidence: 0.95,
		})
	}

	a.history.add(sessionID, &refined)
	return &refined, nil
}

// Recent returns the session's analyzed intents, oldest first.
func (a *Analyzer) Recent(sessionID string) []*types.Intent {
	return a.history.recent(sessionID)
}

// enrich overlays snapshot-derived signals onto a parsed intent: the
// session's actual skill level always wins over the model's guess, and
// tool or pattern matches become recommendation hints.
func (a *Analyzer) enrich(intent *types.Intent, snapshot *types.Context) {
	if snapshot.User.SkillLevel != "" {
		intent.Factors.UserSkillLevel = snapshot.User.SkillLevel
	}

	for _, tool := range intent.Primary.Tools {
		if integration, ok := matchIntegration(tool, snapshot.Domain.Integrations); ok {
			intent.Hints = append(intent.Hints, types.Hint{
				Category:   "tool_compatibility",
				Suggestion: fmt.Sprintf("Use the native %s integration", integration.Name),
				Reasoning:  fmt.Sprintf("%q matches an available platform integration", tool),
				Confidence: 0.8,
			})
		}
	}

	for _, pattern := range snapshot.Domain.Patterns {
		if pattern.Complexity != intent.Primary.Complexity {
			continue
		}
		if !patternMentionsTools(pattern, intent.Primary.Tools) {
			continue
		}
		intent.Hints = append(intent.Hints, types.Hint{
			Category:   "pattern_alignment",
			Suggestion: fmt.Sprintf("Consider the %s pattern", pattern.Name),
			Reasoning:  "An established workflow pattern covers the same tools at this complexity",
			Confidence: 0.7,
		})
	}
}

// matchIntegration fuzzy-matches a mentioned tool against the platform
// integration catalog by name and alias substrings.
func matchIntegration(tool string, integrations []types.ToolIntegration) (types.ToolIntegration, bool) {
	needle := strings.ToLower(strings.TrimSpace(tool))
	if needle == "" {
		return types.ToolIntegration{}, false
	}
	for _, integration := range integrations {
		name := strings.ToLower(integration.Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return integration, true
		}
		for _, alias := range integration.Aliases {
			lower := strings.ToLower(alias)
			if strings.Contains(lower, needle) || strings.Contains(needle, lower) {
				return integration, true
			}
		}
	}
	return types.ToolIntegration{}, false
}

func patternMentionsTools(pattern types.WorkflowPattern, tools []string) bool {
	for _, tool := range tools {
		needle := strings.ToLower(tool)
		for _, pt := range pattern.Tools {
			if strings.Contains(strings.ToLower(pt), needle) {
				return true
			}
		}
	}
	return false
}
