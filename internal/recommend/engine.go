package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/waypoint/internal/search"
	"github.com/hyperengineering/waypoint/internal/types"
)

// Config tunes the recommendation engine.
type Config struct {
	// CacheTTL bounds how long a ranked list stays valid.
	CacheTTL time.Duration
	// MinConfidence gates which scored candidates are included.
	MinConfidence float64
	// MaxRecommendations truncates the final ranked list.
	MaxRecommendations int
	// SearchLimit is passed to each search strategy.
	SearchLimit int
	// Weights are the composite scoring weights.
	Weights Weights
}

func (c Config) withDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.3
	}
	if c.MaxRecommendations <= 0 {
		c.MaxRecommendations = 5
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = 20
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights
	}
	return c
}

// Engine generates ranked, explained workflow recommendations from a
// fully populated recommendation context.
type Engine struct {
	search   search.Searcher
	cache    *cache
	feedback *feedbackLog
	cfg      Config
	logger   *slog.Logger
}

// NewEngine creates an Engine backed by the given search collaborator.
func NewEngine(searcher search.Searcher, cfg Config, logger *slog.Logger) *Engine {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		search:   searcher,
		cache:    newCache(cfg.CacheTTL),
		feedback: newFeedbackLog(),
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate runs the full pipeline: validate, cache lookup, concurrent
// candidate retrieval, concurrent scoring, confidence gating, ranking,
// truncation, and cache store. The returned list is sorted descending
// by composite score.
func (e *Engine) Generate(ctx context.Context, rc *types.RecommendationContext) ([]types.Recommendation, error) {
	if err := validateContext(rc); err != nil {
		return nil, err
	}

	key := fingerprint(rc)
	if cached, ok := e.cache.get(key); ok {
		e.logger.Debug("recommendation cache hit", "fingerprint", key)
		return cached, nil
	}

	candidates, err := e.retrieveCandidates(ctx, rc)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &InsufficientDataError{Query: rc.Intent.Query}
	}

	recommendations := e.scoreCandidates(rc, candidates)

	filtered := recommendations[:0]
	for _, rec := range recommendations {
		if rec.Confidence >= e.cfg.MinConfidence {
			filtered = append(filtered, rec)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if len(filtered) > e.cfg.MaxRecommendations {
		filtered = filtered[:e.cfg.MaxRecommendations]
	}

	e.cache.put(key, filtered)
	e.logger.Debug("recommendations generated",
		"fingerprint", key,
		"candidates", len(candidates),
		"returned", len(filtered),
	)
	return filtered, nil
}

// RecordFeedback tallies one piece of user feedback and invalidates
// every cached list referencing the workflow. It never fails; feedback
// on an unknown workflow still counts and simply invalidates nothing.
func (e *Engine) RecordFeedback(workflowID string, helpful bool, sessionID string) {
	tally := e.feedback.record(workflowID, helpful)
	invalidated := e.cache.invalidateWorkflow(workflowID)
	e.logger.Info("feedback recorded",
		"workflow_id", workflowID,
		"helpful", helpful,
		"session_id", sessionID,
		"helpful_total", tally.Helpful,
		"unhelpful_total", tally.Unhelpful,
		"cache_entries_invalidated", invalidated,
	)
}

// FeedbackTally returns the running tally for a workflow.
func (e *Engine) FeedbackTally(workflowID string) FeedbackTally {
	return e.feedback.tally(workflowID)
}

// ClearCache drops all cached recommendation lists.
func (e *Engine) ClearCache() {
	e.cache.clear()
}

// SweepExpired removes expired cache entries and reports the count.
func (e *Engine) SweepExpired() int {
	return e.cache.sweepExpired()
}

// validateContext enforces presence of the three required sections.
// Presence checks only; field-level semantics are the scorer's problem.
func validateContext(rc *types.RecommendationContext) error {
	var missing []string
	if rc == nil {
		return &InvalidContextError{Missing: []string{"context"}}
	}
	if rc.Intent == nil {
		missing = append(missing, "intent")
	}
	if rc.Profile == nil {
		missing = append(missing, "profile")
	}
	if rc.Prefs == nil {
		missing = append(missing, "preferences")
	}
	if len(missing) > 0 {
		return &InvalidContextError{Missing: missing}
	}
	return nil
}

// retrieveCandidates runs the three search strategies concurrently and
// merges their results by workflow id, first strategy wins.
func (e *Engine) retrieveCandidates(ctx context.Context, rc *types.RecommendationContext) ([]types.Workflow, error) {
	requests := searchStrategies(rc, e.cfg.SearchLimit)
	results := make([]*search.Result, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		g.Go(func() error {
			res, err := e.search.SearchWorkflows(gctx, req)
			if err != nil {
				return fmt.Errorf("search strategy %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &RecommendationError{
			Code:    CodeSearchFailure,
			Context: map[string]any{"query": rc.Intent.Query},
			Err:     err,
		}
	}

	seen := make(map[string]bool)
	var merged []types.Workflow
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, w := range res.Workflows {
			if seen[w.ID] {
				continue
			}
			seen[w.ID] = true
			merged = append(merged, w)
		}
	}
	return merged, nil
}

// searchStrategies builds the three retrieval queries: the primary
// blended query, a connected-services query, and a popularity-sorted
// category query.
func searchStrategies(rc *types.RecommendationContext, limit int) []search.Request {
	integrations := referencedIntegrations(rc.Intent)

	var primary []string
	primary = append(primary, integrations...)
	if rc.Intent.Primary.Action != "" {
		primary = append(primary, rc.Intent.Primary.Action)
	}
	for i, service := range rc.Profile.ConnectedServices {
		if i >= 3 {
			break
		}
		primary = append(primary, service)
	}
	for i, available := range rc.AvailableIntegrations {
		if i >= 2 {
			break
		}
		primary = append(primary, available)
	}

	services := rc.Profile.ConnectedServices
	if len(services) > 5 {
		services = services[:5]
	}

	return []search.Request{
		{Query: strings.Join(primary, " "), Limit: limit},
		{Query: strings.Join(services, " "), Limit: limit},
		{Category: rc.Intent.Primary.Domain, SortBy: search.SortByPopularity, Limit: limit},
	}
}

// scoreCandidates scores and enriches all candidates concurrently.
// Scoring is pure, so each goroutine writes only its own slot.
func (e *Engine) scoreCandidates(rc *types.RecommendationContext, candidates []types.Workflow) []types.Recommendation {
	usageRank := rankByUsage(candidates)
	byCategory := groupByCategory(candidates)

	recommendations := make([]types.Recommendation, len(candidates))
	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := &candidates[i]
			recommendations[i] = e.buildRecommendation(w, rc, usageRank[w.ID], similarIDs(w, byCategory))
		}()
	}
	wg.Wait()
	return recommendations
}

// buildRecommendation scores one workflow and assembles its full
// recommendation record.
func (e *Engine) buildRecommendation(w *types.Workflow, rc *types.RecommendationContext, popularityRank int, similar []string) types.Recommendation {
	intentMatch, reasons := intentMatchScore(w, rc.Intent)
	userFit := userFitScore(w, rc.Profile)
	popularity := popularityScore(w)
	simplicity := simplicityScore(w, rc.Prefs)
	compatibility := compatibilityScore(w, rc)

	score := compositeScore(e.cfg.Weights, intentMatch, userFit, popularity, simplicity, compatibility.Overall)
	confidence := calculateConfidence(intentMatch, w, rc.Profile)
	suggestions := customizationSuggestions(w, rc)

	return types.Recommendation{
		ID:                 ulid.Make().String(),
		WorkflowID:         w.ID,
		Title:              w.Title,
		Description:        w.Description,
		Category:           w.Category,
		Score:              score,
		Confidence:         confidence,
		Explanation:        buildExplanation(w, reasons, suggestions),
		MatchReasons:       reasons,
		SetupComplexity:    w.Complexity,
		EstimatedSetupTime: estimateSetupTime(w),
		Requirements:       w.Requirements,
		Compatibility:      compatibility,
		Customizations:     suggestions,
		SimilarWorkflowIDs: similar,
		PopularityRank:     popularityRank,
		UserFitScore:       userFit,
	}
}

// estimateSetupTime derives a rough setup estimate from the complexity
// tier, stretched when the workflow has many nodes.
func estimateSetupTime(w *types.Workflow) string {
	switch w.Complexity {
	case types.ComplexitySimple:
		return "15-30 minutes"
	case types.ComplexityComplex:
		if w.NodeCount > 20 {
			return "3-8 hours"
		}
		return "1-3 hours"
	default:
		if w.NodeCount > 15 {
			return "1-2 hours"
		}
		return "30-60 minutes"
	}
}

// rankByUsage assigns 1-based popularity ranks within the candidate set.
func rankByUsage(candidates []types.Workflow) map[string]int {
	ordered := make([]*types.Workflow, len(candidates))
	for i := range candidates {
		ordered[i] = &candidates[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].UsageCount > ordered[j].UsageCount
	})
	ranks := make(map[string]int, len(ordered))
	for i, w := range ordered {
		ranks[w.ID] = i + 1
	}
	return ranks
}

func groupByCategory(candidates []types.Workflow) map[string][]string {
	groups := make(map[string][]string)
	for _, w := range candidates {
		groups[w.Category] = append(groups[w.Category], w.ID)
	}
	return groups
}

// similarIDs lists up to three other candidates from the same category.
func similarIDs(w *types.Workflow, byCategory map[string][]string) []string {
	var out []string
	for _, id := range byCategory[w.Category] {
		if id == w.ID {
			continue
		}
		out = append(out, id)
		if len(out) == 3 {
			break
		}
	}
	return out
}
