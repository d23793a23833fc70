package recommend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperengineering/waypoint/internal/search"
	"github.com/hyperengineering/waypoint/internal/types"
)

type mockSearcher struct {
	workflows []types.Workflow
	err       error
	calls     atomic.Int64
}

func (m *mockSearcher) SearchWorkflows(_ context.Context, req search.Request) (*search.Result, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return &search.Result{Workflows: m.workflows, Total: int64(len(m.workflows))}, nil
}

func leadSyncWorkflow() types.Workflow {
	return types.Workflow{
		ID:            "wf-lead-sync",
		Title:         "Salesforce to Mailchimp Lead Sync",
		Description:   "Keeps Mailchimp audiences in sync with Salesforce leads",
		Category:      "sales",
		Complexity:    types.ComplexityMedium,
		UsageCount:    500,
		AverageRating: 4.5,
		ReviewCount:   80,
		NodeCount:     8,
		Tags:          []string{"crm", "email"},
		Requirements: []types.Requirement{
			{Type: "credential", Description: "Salesforce API credentials", Difficulty: "easy"},
		},
	}
}

func syncContext() *types.RecommendationContext {
	return &types.RecommendationContext{
		Intent: &types.Intent{
			ID:              "intent-1",
			Query:           "Sync Salesforce contacts to Mailchimp",
			NormalizedQuery: "sync salesforce contacts to mailchimp",
			Confidence:      0.85,
			Primary: types.PrimaryIntent{
				Action:     "sync",
				Domain:     "sales",
				Tools:      []string{"salesforce", "mailchimp"},
				Complexity: types.ComplexityMedium,
				Priority:   types.PriorityHigh,
			},
			Entities: types.Entities{
				Integrations: []string{"salesforce", "mailchimp"},
				DataTypes:    []string{"contacts"},
			},
		},
		Profile: &types.UserProfile{
			SkillLevel:        types.SkillIntermediate,
			ConnectedServices: []string{"salesforce", "mailchimp", "slack"},
		},
		Prefs: &types.Preferences{},
	}
}

func newTestEngine(searcher search.Searcher, cfg Config) *Engine {
	return NewEngine(searcher, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerate_LeadSyncScenario(t *testing.T) {
	searcher := &mockSearcher{workflows: []types.Workflow{leadSyncWorkflow()}}
	engine := newTestEngine(searcher, Config{})

	recs, err := engine.Generate(context.Background(), syncContext())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}

	rec := recs[0]
	if rec.Score <= 0.6 {
		t.Errorf("Score = %v, want > 0.6", rec.Score)
	}
	reasons := strings.ToLower(strings.Join(rec.MatchReasons, " "))
	if !strings.Contains(reasons, "salesforce") {
		t.Errorf("match reasons %v missing salesforce", rec.MatchReasons)
	}
	if !strings.Contains(reasons, "mailchimp") {
		t.Errorf("match reasons %v missing mailchimp", rec.MatchReasons)
	}
	if rec.WorkflowID != "wf-lead-sync" {
		t.Errorf("WorkflowID = %q", rec.WorkflowID)
	}
	if rec.Explanation == "" {
		t.Error("Explanation is empty")
	}
	if rec.Compatibility.Overall <= 0 || rec.Compatibility.Overall > 1 {
		t.Errorf("Compatibility.Overall = %v, want (0,1]", rec.Compatibility.Overall)
	}
	if rec.PopularityRank != 1 {
		t.Errorf("PopularityRank = %d, want 1", rec.PopularityRank)
	}
}

func TestGenerate_NoCandidates(t *testing.T) {
	searcher := &mockSearcher{}
	engine := newTestEngine(searcher, Config{})

	_, err := engine.Generate(context.Background(), syncContext())
	var insufficientErr *InsufficientDataError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("error type = %T, want *InsufficientDataError", err)
	}
	if insufficientErr.Query != "Sync Salesforce contacts to Mailchimp" {
		t.Errorf("Query = %q", insufficientErr.Query)
	}
}

func TestGenerate_InvalidContext(t *testing.T) {
	engine := newTestEngine(&mockSearcher{}, Config{})

	tests := []struct {
		name    string
		rc      *types.RecommendationContext
		missing string
	}{
		{"nil intent", &types.RecommendationContext{Profile: &types.UserProfile{}, Prefs: &types.Preferences{}}, "intent"},
		{"nil profile", &types.RecommendationContext{Intent: &types.Intent{}, Prefs: &types.Preferences{}}, "profile"},
		{"nil preferences", &types.RecommendationContext{Intent: &types.Intent{}, Profile: &types.UserProfile{}}, "preferences"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Generate(context.Background(), tt.rc)
			var invalidErr *InvalidContextError
			if !errors.As(err, &invalidErr) {
				t.Fatalf("error type = %T, want *InvalidContextError", err)
			}
			if len(invalidErr.Missing) != 1 || invalidErr.Missing[0] != tt.missing {
				t.Errorf("Missing = %v, want [%s]", invalidErr.Missing, tt.missing)
			}
		})
	}
}

func TestGenerate_SearchFailure(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("index unavailable")}
	engine := newTestEngine(searcher, Config{})

	_, err := engine.Generate(context.Background(), syncContext())
	var recErr *RecommendationError
	if !errors.As(err, &recErr) {
		t.Fatalf("error type = %T, want *RecommendationError", err)
	}
	if recErr.Code != CodeSearchFailure {
		t.Errorf("Code = %q, want %q", recErr.Code, CodeSearchFailure)
	}
}

func TestGenerate_SimplicityRanking(t *testing.T) {
	simple := types.Workflow{
		ID: "wf-simple", Title: "Simple Slack Alert", Description: "Posts an alert message to Slack",
		Category: "messaging", Complexity: types.ComplexitySimple,
		UsageCount: 100, AverageRating: 4.2, ReviewCount: 20, NodeCount: 3,
	}
	complex := types.Workflow{
		ID: "wf-complex", Title: "Advanced Slack Alert Pipeline", Description: "Posts an alert message to Slack through a routing pipeline",
		Category: "messaging", Complexity: types.ComplexityComplex,
		UsageCount: 100, AverageRating: 4.2, ReviewCount: 20, NodeCount: 25,
		Requirements: []types.Requirement{
			{Type: "credential", Description: "Slack app token"},
			{Type: "setup", Description: "Routing rules"},
		},
	}
	searcher := &mockSearcher{workflows: []types.Workflow{complex, simple}}
	engine := newTestEngine(searcher, Config{})

	rc := &types.RecommendationContext{
		Intent: &types.Intent{
			Query:           "alert me on slack",
			NormalizedQuery: "alert me on slack",
			Primary:         types.PrimaryIntent{Action: "notify", Domain: "messaging", Tools: []string{"slack"}},
			Entities:        types.Entities{Integrations: []string{"slack"}},
		},
		Profile: &types.UserProfile{SkillLevel: types.SkillBeginner, ConnectedServices: []string{"slack", "gmail", "sheets"}},
		Prefs:   &types.Preferences{PrioritizeSimplicity: true},
	}

	recs, err := engine.Generate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if recs[0].WorkflowID != "wf-simple" {
		t.Errorf("top recommendation = %q, want wf-simple", recs[0].WorkflowID)
	}
}

func TestGenerate_SortedAndGated(t *testing.T) {
	workflows := []types.Workflow{
		leadSyncWorkflow(),
		{
			ID: "wf-irrelevant", Title: "Weekly Weather Digest", Description: "Emails a weather summary",
			Category: "lifestyle", Complexity: types.ComplexityMedium,
			UsageCount: 10, AverageRating: 3.0, ReviewCount: 2, NodeCount: 4,
		},
		{
			ID: "wf-partial", Title: "Salesforce Contact Backup", Description: "Exports Salesforce contacts nightly",
			Category: "sales", Complexity: types.ComplexityMedium,
			UsageCount: 200, AverageRating: 4.1, ReviewCount: 30, NodeCount: 6,
		},
	}
	searcher := &mockSearcher{workflows: workflows}
	engine := newTestEngine(searcher, Config{})

	rc := syncContext()
	// A sparse profile keeps the irrelevant candidate's confidence
	// below the floor.
	rc.Profile.ConnectedServices = []string{"salesforce", "mailchimp"}

	recs, err := engine.Generate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Errorf("recs not sorted: recs[%d].Score %v > recs[%d].Score %v", i, recs[i].Score, i-1, recs[i-1].Score)
		}
	}
	for _, rec := range recs {
		if rec.Confidence < 0.3 {
			t.Errorf("rec %q confidence %v below floor", rec.WorkflowID, rec.Confidence)
		}
		if rec.WorkflowID == "wf-irrelevant" {
			t.Error("irrelevant workflow passed the confidence gate")
		}
	}
	if recs[0].WorkflowID != "wf-lead-sync" {
		t.Errorf("top recommendation = %q, want wf-lead-sync", recs[0].WorkflowID)
	}
}

func TestGenerate_Truncation(t *testing.T) {
	var workflows []types.Workflow
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		workflows = append(workflows, types.Workflow{
			ID: "wf-" + id, Title: "Salesforce Mailchimp Sync " + id, Description: "sync tool",
			Category: "sales", Complexity: types.ComplexityMedium,
			UsageCount: 400, AverageRating: 4.4, ReviewCount: 50, NodeCount: 5,
		})
	}
	searcher := &mockSearcher{workflows: workflows}
	engine := newTestEngine(searcher, Config{MaxRecommendations: 5})

	recs, err := engine.Generate(context.Background(), syncContext())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(recs) != 5 {
		t.Errorf("len(recs) = %d, want 5", len(recs))
	}
}

func TestGenerate_CacheHit(t *testing.T) {
	searcher := &mockSearcher{workflows: []types.Workflow{leadSyncWorkflow()}}
	engine := newTestEngine(searcher, Config{})

	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	callsAfterFirst := searcher.calls.Load()

	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if got := searcher.calls.Load(); got != callsAfterFirst {
		t.Errorf("search calls = %d after cache hit, want %d", got, callsAfterFirst)
	}
	if got := engine.cache.len(); got != 1 {
		t.Errorf("cache entries = %d, want 1 for identical contexts", got)
	}
}

func TestGenerate_CacheExpiry(t *testing.T) {
	searcher := &mockSearcher{workflows: []types.Workflow{leadSyncWorkflow()}}
	engine := newTestEngine(searcher, Config{CacheTTL: 15 * time.Minute})

	now := time.Now()
	engine.cache.now = func() time.Time { return now }

	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	callsAfterFirst := searcher.calls.Load()

	now = now.Add(16 * time.Minute)
	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("Generate() after expiry error = %v", err)
	}
	if got := searcher.calls.Load(); got == callsAfterFirst {
		t.Error("expired cache entry was served without re-searching")
	}
}

func TestRecordFeedback_InvalidatesCache(t *testing.T) {
	searcher := &mockSearcher{workflows: []types.Workflow{leadSyncWorkflow()}}
	engine := newTestEngine(searcher, Config{})

	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	callsAfterFirst := searcher.calls.Load()

	engine.RecordFeedback("wf-lead-sync", false, "session-1")

	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("Generate() after feedback error = %v", err)
	}
	if got := searcher.calls.Load(); got == callsAfterFirst {
		t.Error("cache entry survived feedback on its workflow")
	}

	tally := engine.FeedbackTally("wf-lead-sync")
	if tally.Unhelpful != 1 || tally.Helpful != 0 {
		t.Errorf("tally = %+v, want 1 unhelpful", tally)
	}
}

func TestRecordFeedback_UnknownWorkflowIsNoOp(t *testing.T) {
	engine := newTestEngine(&mockSearcher{}, Config{})

	engine.RecordFeedback("wf-nonexistent", true, "session-1")
	if tally := engine.FeedbackTally("wf-nonexistent"); tally.Helpful != 1 {
		t.Errorf("tally = %+v, want 1 helpful", tally)
	}
}

func TestSweepExpired(t *testing.T) {
	searcher := &mockSearcher{workflows: []types.Workflow{leadSyncWorkflow()}}
	engine := newTestEngine(searcher, Config{CacheTTL: 15 * time.Minute})

	now := time.Now()
	engine.cache.now = func() time.Time { return now }

	if _, err := engine.Generate(context.Background(), syncContext()); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if removed := engine.SweepExpired(); removed != 0 {
		t.Errorf("SweepExpired() = %d before expiry, want 0", removed)
	}

	now = now.Add(time.Hour)
	if removed := engine.SweepExpired(); removed != 1 {
		t.Errorf("SweepExpired() = %d after expiry, want 1", removed)
	}
	if got := engine.cache.len(); got != 0 {
		t.Errorf("cache entries = %d after sweep, want 0", got)
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := syncContext()
	b := syncContext()
	if fingerprint(a) != fingerprint(b) {
		t.Error("identical contexts produced different fingerprints")
	}

	b.Prefs.PrioritizeSimplicity = true
	if fingerprint(a) == fingerprint(b) {
		t.Error("differing preferences produced the same fingerprint")
	}

	c := syncContext()
	c.Profile.ConnectedServices = []string{"slack", "mailchimp", "salesforce"}
	if fingerprint(a) != fingerprint(c) {
		t.Error("connected-service order changed the fingerprint")
	}

	d := syncContext()
	d.Intent.NormalizedQuery = "backup drive folders"
	if fingerprint(a) == fingerprint(d) {
		t.Error("differing queries produced the same fingerprint")
	}
}
