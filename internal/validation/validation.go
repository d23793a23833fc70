package validation

import (
	"fmt"
	"strings"

	"github.com/hyperengineering/waypoint/internal/types"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Messages flattens accumulated errors into "field: message" strings.
func (c *Collector) Messages() []string {
	msgs := make([]string, 0, len(c.errors))
	for _, e := range c.errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return msgs
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateEnum returns an error if the value is not in the allowed list.
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateRange returns an error if the value is outside [min, max].
func ValidateRange(field string, value, min, max float64) *ValidationError {
	if value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %.1f and %.1f", min, max),
		}
	}
	return nil
}

// ValidateConfidence returns an error if the value is outside [0,1].
func ValidateConfidence(field string, value float64) *ValidationError {
	return ValidateRange(field, value, 0, 1)
}

// ValidateULID returns an error if the value is not a valid ULID format.
// ULIDs are 26 characters using Crockford Base32 (excludes I, L, O, U).
func ValidateULID(field, value string) *ValidationError {
	if len(value) != 26 {
		return &ValidationError{
			Field:   field,
			Message: "must be a valid ULID (26 characters)",
		}
	}

	const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
	for _, r := range value {
		upper := strings.ToUpper(string(r))
		if !strings.Contains(crockfordBase32, upper) {
			return &ValidationError{
				Field:   field,
				Message: "must be a valid ULID (invalid character)",
			}
		}
	}
	return nil
}

// ValidateContext checks an assembled context snapshot before caching.
func ValidateContext(c *types.Context) []ValidationError {
	var collector Collector
	collector.Add(ValidateULID("id", c.ID))
	collector.Add(ValidateRequired("user.session_id", c.User.SessionID))
	collector.Add(ValidateEnum("user.skill_level", string(c.User.SkillLevel), []string{
		string(types.SkillBeginner),
		string(types.SkillIntermediate),
		string(types.SkillAdvanced),
	}))
	if c.CreatedAt.IsZero() {
		collector.Add(&ValidationError{Field: "created_at", Message: "is required"})
	}
	if c.Library.TotalWorkflows < 0 {
		collector.Add(&ValidationError{Field: "library.total_workflows", Message: "must not be negative"})
	}
	return collector.Errors()
}

// ValidateIntent checks a structured intent, including every
// sub-confidence carried by secondary intents and hints.
func ValidateIntent(i *types.Intent) []ValidationError {
	var collector Collector
	collector.Add(ValidateRequired("primary.action", i.Primary.Action))
	collector.Add(ValidateRequired("primary.domain", i.Primary.Domain))
	collector.Add(ValidateConfidence("confidence", i.Confidence))
	for idx, s := range i.Secondary {
		collector.Add(ValidateConfidence(fmt.Sprintf("secondary[%d].confidence", idx), s.Confidence))
	}
	for idx, h := range i.Hints {
		collector.Add(ValidateConfidence(fmt.Sprintf("hints[%d].confidence", idx), h.Confidence))
	}
	return collector.Errors()
}
