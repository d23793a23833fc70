package recommend

import (
	"fmt"
	"strings"
)

// Error codes carried by recommender errors.
const (
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeInvalidContext   = "INVALID_CONTEXT"
	CodeSearchFailure    = "SEARCH_FAILURE"
)

// RecommendationError is the base error for recommender failures.
type RecommendationError struct {
	Code    string         `json:"code"`
	Context map[string]any `json:"context,omitempty"`
	Err     error          `json:"-"`
}

// Error implements the error interface.
func (e *RecommendationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recommendation failed (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("recommendation failed (%s)", e.Code)
}

// Unwrap returns the underlying cause.
func (e *RecommendationError) Unwrap() error {
	return e.Err
}

// InsufficientDataError reports that no candidate workflows were found
// after running all search strategies.
type InsufficientDataError struct {
	Query string `json:"query"`
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no candidate workflows found for query %q", e.Query)
}

// InvalidContextError reports a recommendation context missing one or
// more required fields.
type InvalidContextError struct {
	Missing []string `json:"missing"`
}

// Error implements the error interface.
func (e *InvalidContextError) Error() string {
	return fmt.Sprintf("invalid recommendation context: missing %s", strings.Join(e.Missing, ", "))
}
