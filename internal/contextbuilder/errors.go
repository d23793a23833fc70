package contextbuilder

import "fmt"

// Error codes carried by ContextBuildError.
const (
	CodeProviderFailure   = "PROVIDER_FAILURE"
	CodeValidationFailure = "VALIDATION_FAILURE"
)

// ContextBuildError reports a failed context assembly, carrying a
// machine-readable code and enough context to log and diagnose.
type ContextBuildError struct {
	Code      string         `json:"code"`
	SessionID string         `json:"session_id"`
	Context   map[string]any `json:"context,omitempty"`
	Err       error          `json:"-"`
}

// Error implements the error interface.
func (e *ContextBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("context build failed (%s) for session %s: %v", e.Code, e.SessionID, e.Err)
	}
	return fmt.Sprintf("context build failed (%s) for session %s", e.Code, e.SessionID)
}

// Unwrap returns the underlying cause.
func (e *ContextBuildError) Unwrap() error {
	return e.Err
}
