package intent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/hyperengineering/waypoint/internal/llm"
	"github.com/hyperengineering/waypoint/internal/types"
)

type mockLLM struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
	calls    int
}

func (m *mockLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.response, Model: "mock-model"}, nil
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func testSnapshot() *types.Context {
	return &types.Context{
		ID:        "snapshot-1",
		CreatedAt: time.Now().UTC(),
		Domain: types.DomainKnowledge{
			Integrations: []types.ToolIntegration{
				{Name: "Salesforce", Aliases: []string{"sfdc"}, Category: "crm"},
				{Name: "Mailchimp", Category: "marketing"},
				{Name: "Slack", Category: "messaging"},
			},
			Patterns: []types.WorkflowPattern{
				{Name: "CRM to Email Sync", Complexity: types.ComplexityMedium, Tools: []string{"salesforce", "mailchimp"}},
			},
			Categories: []string{"sales", "marketing"},
		},
		User: types.UserContext{
			SessionID:  "session-1",
			SkillLevel: types.SkillAdvanced,
		},
		Library: types.LibraryStats{TotalWorkflows: 120},
	}
}

const validModelResponse = `{
	"confidence": 0.85,
	"normalized_query": "sync salesforce contacts to mailchimp",
	"primary": {
		"action": "sync",
		"domain": "sales",
		"tools": ["salesforce", "mailchimp"],
		"complexity": "medium",
		"priority": "high"
	},
	"secondary": [{"action": "export", "domain": "sales", "confidence": 0.4}],
	"entities": {"tools": ["salesforce", "mailchimp"], "data_types": ["contacts"]},
	"contextual_factors": {"user_skill_level": "beginner"},
	"hints": []
}`

func TestAnalyze_ParsesModelResponse(t *testing.T) {
	mock := &mockLLM{response: validModelResponse}
	analyzer := NewAnalyzer(mock, Config{})

	intent, err := analyzer.Analyze(context.Background(), "Sync Salesforce contacts to Mailchimp", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if intent.ID == "" {
		t.Error("intent ID is empty")
	}
	if intent.Confidence != 0.85 {
		t.Errorf("Confidence = %v, want 0.85", intent.Confidence)
	}
	if intent.Primary.Action != "sync" {
		t.Errorf("Primary.Action = %q, want %q", intent.Primary.Action, "sync")
	}
	if intent.NormalizedQuery != "sync salesforce contacts to mailchimp" {
		t.Errorf("NormalizedQuery = %q", intent.NormalizedQuery)
	}
	if len(intent.Secondary) != 1 {
		t.Errorf("len(Secondary) = %d, want 1", len(intent.Secondary))
	}
	if !mock.lastReq.JSONResponse {
		t.Error("expected JSONResponse to be requested")
	}
}

func TestAnalyze_MalformedResponseFallsBack(t *testing.T) {
	mock := &mockLLM{response: "I think you want to sync some contacts, here is my advice..."}
	analyzer := NewAnalyzer(mock, Config{})

	intent, err := analyzer.Analyze(context.Background(), "sync my contacts somewhere", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v, want fallback intent", err)
	}
	if intent.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", intent.Confidence)
	}
	if intent.Primary.Action != "general_automation" {
		t.Errorf("Primary.Action = %q, want %q", intent.Primary.Action, "general_automation")
	}
	if intent.Primary.Domain != "unknown" {
		t.Errorf("Primary.Domain = %q, want %q", intent.Primary.Domain, "unknown")
	}
	var fallbackHint bool
	for _, h := range intent.Hints {
		if h.Category == "fallback" {
			fallbackHint = true
		}
	}
	if !fallbackHint {
		t.Error("expected a fallback-category hint")
	}
}

func TestAnalyze_OutOfRangeConfidenceFallsBack(t *testing.T) {
	mock := &mockLLM{response: `{"confidence": 1.7, "primary": {"action": "sync"}}`}
	analyzer := NewAnalyzer(mock, Config{})

	intent, err := analyzer.Analyze(context.Background(), "sync things", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if intent.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want fallback 0.3", intent.Confidence)
	}
}

func TestAnalyze_TransportFailure(t *testing.T) {
	mock := &mockLLM{err: errors.New("connection refused")}
	analyzer := NewAnalyzer(mock, Config{})

	_, err := analyzer.Analyze(context.Background(), "sync contacts", testSnapshot())
	if err == nil {
		t.Fatal("Analyze() error = nil, want transport failure")
	}
	var analysisErr *LLMAnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("error type = %T, want *LLMAnalysisError", err)
	}
	if analysisErr.Code != CodeTransportFailure {
		t.Errorf("Code = %q, want %q", analysisErr.Code, CodeTransportFailure)
	}
	if analysisErr.Query != "sync contacts" {
		t.Errorf("Query = %q", analysisErr.Query)
	}
}

func TestAnalyze_EnrichmentOverridesSkillLevel(t *testing.T) {
	mock := &mockLLM{response: validModelResponse}
	analyzer := NewAnalyzer(mock, Config{})

	intent, err := analyzer.Analyze(context.Background(), "sync salesforce to mailchimp", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// The model guessed beginner; the session snapshot says advanced.
	if intent.Factors.UserSkillLevel != types.SkillAdvanced {
		t.Errorf("UserSkillLevel = %q, want %q", intent.Factors.UserSkillLevel, types.SkillAdvanced)
	}
}

func TestAnalyze_EnrichmentAddsToolHints(t *testing.T) {
	mock := &mockLLM{response: validModelResponse}
	analyzer := NewAnalyzer(mock, Config{})

	intent, err := analyzer.Analyze(context.Background(), "sync salesforce to mailchimp", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	var toolHints, patternHints int
	for _, h := range intent.Hints {
		switch h.Category {
		case "tool_compatibility":
			toolHints++
		case "pattern_alignment":
			patternHints++
		}
	}
	if toolHints != 2 {
		t.Errorf("tool_compatibility hints = %d, want 2", toolHints)
	}
	if patternHints != 1 {
		t.Errorf("pattern_alignment hints = %d, want 1", patternHints)
	}
}

func TestRefine_AppliesCorrections(t *testing.T) {
	mock := &mockLLM{response: validModelResponse}
	analyzer := NewAnalyzer(mock, Config{RefinementIncrement: 0.1})

	parent, err := analyzer.Analyze(context.Background(), "sync salesforce to mailchimp", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	refined, err := analyzer.Refine(parent.ID, Feedback{
		Tools:      []string{"hubspot", "mailchimp"},
		Complexity: types.ComplexitySimple,
	})
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if refined.ID == parent.ID {
		t.Error("refined intent reused the parent id")
	}
	if got, want := refined.Confidence, parent.Confidence+0.1; math.Abs(got-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", got, want)
	}
	if refined.Primary.Tools[0] != "hubspot" {
		t.Errorf("Primary.Tools = %v, want corrected tools", refined.Primary.Tools)
	}
	if refined.Primary.Complexity != types.ComplexitySimple {
		t.Errorf("Primary.Complexity = %q, want simple", refined.Primary.Complexity)
	}
	// Unchanged fields carry over.
	if refined.Primary.Action != parent.Primary.Action {
		t.Errorf("Primary.Action = %q, want %q", refined.Primary.Action, parent.Primary.Action)
	}

	last := refined.Hints[len(refined.Hints)-1]
	if last.Category != "user_correction" {
		t.Errorf("last hint category = %q, want user_correction", last.Category)
	}
	if last.Confidence != 0.95 {
		t.Errorf("correction hint confidence = %v, want 0.95", last.Confidence)
	}
}

func TestRefine_ConfidenceCappedAtOne(t *testing.T) {
	mock := &mockLLM{response: validModelResponse}
	analyzer := NewAnalyzer(mock, Config{RefinementIncrement: 0.1})

	intent, err := analyzer.Analyze(context.Background(), "sync salesforce to mailchimp", testSnapshot())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		intent, err = analyzer.Refine(intent.ID, Feedback{})
		if err != nil {
			t.Fatalf("Refine() round %d error = %v", i, err)
		}
	}
	if intent.Confidence > 1.0 {
		t.Errorf("Confidence = %v, want <= 1.0", intent.Confidence)
	}
	if intent.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want capped at 1.0", intent.Confidence)
	}
}

func TestRefine_UnknownIntent(t *testing.T) {
	analyzer := NewAnalyzer(&mockLLM{}, Config{})

	_, err := analyzer.Refine("01JUNKNOWNABCDEF0123456789", Feedback{})
	var analysisErr *IntentAnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("error type = %T, want *IntentAnalysisError", err)
	}
	if analysisErr.Code != CodeIntentNotFound {
		t.Errorf("Code = %q, want %q", analysisErr.Code, CodeIntentNotFound)
	}
}

func TestHistory_BoundedEviction(t *testing.T) {
	mock := &mockLLM{response: validModelResponse}
	analyzer := NewAnalyzer(mock, Config{HistorySize: 3})
	snapshot := testSnapshot()

	var ids []string
	for i := 0; i < 5; i++ {
		intent, err := analyzer.Analyze(context.Background(), fmt.Sprintf("query %d", i), snapshot)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		ids = append(ids, intent.ID)
	}

	if got := analyzer.Recent(snapshot.User.SessionID); len(got) != 3 {
		t.Fatalf("len(Recent) = %d, want 3", len(got))
	}
	// Evicted intents can no longer be refined.
	if _, err := analyzer.Refine(ids[0], Feedback{}); err == nil {
		t.Error("Refine() on evicted intent succeeded, want INTENT_NOT_FOUND")
	}
	if _, err := analyzer.Refine(ids[4], Feedback{}); err != nil {
		t.Errorf("Refine() on retained intent error = %v", err)
	}
}

func TestSimilarity(t *testing.T) {
	base := &types.Intent{Primary: types.PrimaryIntent{
		Action: "sync", Domain: "sales", Tools: []string{"salesforce", "mailchimp"},
	}}

	tests := []struct {
		name  string
		other *types.Intent
		want  float64
	}{
		{
			name: "identical",
			other: &types.Intent{Primary: types.PrimaryIntent{
				Action: "sync", Domain: "sales", Tools: []string{"salesforce", "mailchimp"},
			}},
			want: 1.0,
		},
		{
			name: "action and domain only",
			other: &types.Intent{Primary: types.PrimaryIntent{
				Action: "sync", Domain: "sales", Tools: []string{"hubspot"},
			}},
			want: 0.5,
		},
		{
			name: "half tool overlap",
			other: &types.Intent{Primary: types.PrimaryIntent{
				Action: "notify", Domain: "marketing", Tools: []string{"salesforce", "slack", "mailchimp", "teams"},
			}},
			want: 0.25,
		},
		{
			name:  "nothing shared",
			other: &types.Intent{Primary: types.PrimaryIntent{Action: "backup", Domain: "it", Tools: []string{"dropbox"}}},
			want:  0,
		},
		{
			name:  "one empty tool set",
			other: &types.Intent{Primary: types.PrimaryIntent{Action: "sync", Domain: "sales"}},
			want:  0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(base, tt.other); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarity_BothToolSetsEmpty(t *testing.T) {
	a := &types.Intent{Primary: types.PrimaryIntent{Action: "backup"}}
	b := &types.Intent{Primary: types.PrimaryIntent{Action: "backup"}}
	if got := Similarity(a, b); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Similarity() = %v, want 0.8", got)
	}
}

func TestNormalizeQuery(t *testing.T) {
	got := normalizeQuery("  Sync   Salesforce  TO Mailchimp ")
	if got != "sync salesforce to mailchimp" {
		t.Errorf("normalizeQuery() = %q", got)
	}
}
