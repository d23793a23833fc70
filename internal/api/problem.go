package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/waypoint/internal/contextbuilder"
	"github.com/hyperengineering/waypoint/internal/intent"
	"github.com/hyperengineering/waypoint/internal/recommend"
	"github.com/hyperengineering/waypoint/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://waypoint.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: "https://waypoint.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://waypoint.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusInternalServerError: {
		typeURI: "https://waypoint.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://waypoint.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusBadGateway: {
		typeURI: "https://waypoint.dev/errors/upstream-failure",
		title:   "Upstream Failure",
	},
	http.StatusTooManyRequests: {
		typeURI: "https://waypoint.dev/errors/rate-limit",
		title:   "Too Many Requests",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://waypoint.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapEngineError converts recommendation-pipeline errors to Problem
// Details responses.
func MapEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidCtx   *recommend.InvalidContextError
		insufficient *recommend.InsufficientDataError
		notFound     *intent.IntentAnalysisError
		llmErr       *intent.LLMAnalysisError
		buildErr     *contextbuilder.ContextBuildError
	)
	switch {
	case errors.As(err, &invalidCtx):
		WriteProblem(w, r, http.StatusBadRequest, invalidCtx.Error())
	case errors.As(err, &insufficient):
		WriteProblem(w, r, http.StatusNotFound, "No matching workflows found")
	case errors.As(err, &notFound) && notFound.Code == intent.CodeIntentNotFound:
		WriteProblem(w, r, http.StatusNotFound, "Intent not found")
	case errors.As(err, &llmErr):
		WriteProblem(w, r, http.StatusBadGateway, "Intent analysis is temporarily unavailable")
	case errors.As(err, &buildErr):
		WriteProblem(w, r, http.StatusInternalServerError, "Failed to assemble request context")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
