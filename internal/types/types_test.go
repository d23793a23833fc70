package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIntentMarshalJSON_NilSlices(t *testing.T) {
	data, err := json.Marshal(Intent{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	if strings.Contains(s, `"secondary":null`) {
		t.Error("secondary marshaled as null, want []")
	}
	if strings.Contains(s, `"hints":null`) {
		t.Error("hints marshaled as null, want []")
	}
}

func TestRecommendationMarshalJSON_NilSlices(t *testing.T) {
	data, err := json.Marshal(Recommendation{WorkflowID: "wf-1"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	s := string(data)
	for _, field := range []string{"match_reasons", "requirements", "customizations", "similar_workflow_ids"} {
		if strings.Contains(s, `"`+field+`":null`) {
			t.Errorf("%s marshaled as null, want []", field)
		}
	}
}

func TestLibraryStatsMarshalJSON_NilMap(t *testing.T) {
	data, err := json.Marshal(LibraryStats{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), `"category_counts":null`) {
		t.Error("category_counts marshaled as null, want {}")
	}
}

func TestComplexityRank(t *testing.T) {
	tests := []struct {
		complexity Complexity
		want       int
	}{
		{ComplexitySimple, 0},
		{ComplexityMedium, 1},
		{ComplexityComplex, 2},
		{Complexity("unknown"), 1},
		{Complexity(""), 1},
	}
	for _, tt := range tests {
		if got := ComplexityRank(tt.complexity); got != tt.want {
			t.Errorf("ComplexityRank(%q) = %d, want %d", tt.complexity, got, tt.want)
		}
	}
}

func TestSkillRank(t *testing.T) {
	tests := []struct {
		skill SkillLevel
		want  int
	}{
		{SkillBeginner, 0},
		{SkillIntermediate, 1},
		{SkillAdvanced, 2},
		{SkillLevel(""), 1},
	}
	for _, tt := range tests {
		if got := SkillRank(tt.skill); got != tt.want {
			t.Errorf("SkillRank(%q) = %d, want %d", tt.skill, got, tt.want)
		}
	}
}
