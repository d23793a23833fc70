package intent

import "fmt"

// Error codes carried by analyzer errors.
const (
	CodeTransportFailure = "LLM_TRANSPORT_FAILURE"
	CodeIntentNotFound   = "INTENT_NOT_FOUND"
)

// LLMAnalysisError reports a failed language-model call. It is raised
// only for transport-level failures; malformed model output degrades to
// a fallback intent instead.
type LLMAnalysisError struct {
	Code    string         `json:"code"`
	Query   string         `json:"query"`
	Context map[string]any `json:"context,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface.
func (e *LLMAnalysisError) Error() string {
	return fmt.Sprintf("llm analysis failed (%s): %v", e.Code, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LLMAnalysisError) Unwrap() error {
	return e.Err
}

// IntentAnalysisError reports an analyzer-internal failure, such as a
// refinement against an unknown intent id.
type IntentAnalysisError struct {
	Code     string         `json:"code"`
	IntentID string         `json:"intent_id,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *IntentAnalysisError) Error() string {
	if e.IntentID != "" {
		return fmt.Sprintf("intent analysis failed (%s): intent %s", e.Code, e.IntentID)
	}
	return fmt.Sprintf("intent analysis failed (%s)", e.Code)
}
