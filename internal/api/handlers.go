package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/waypoint/internal/contextbuilder"
	"github.com/hyperengineering/waypoint/internal/intent"
	"github.com/hyperengineering/waypoint/internal/provider"
	"github.com/hyperengineering/waypoint/internal/recommend"
	"github.com/hyperengineering/waypoint/internal/types"
	"github.com/hyperengineering/waypoint/internal/validation"
)

// Handler implements the API handlers
type Handler struct {
	builder  *contextbuilder.Builder
	analyzer *intent.Analyzer
	engine   *recommend.Engine
	users    provider.UserContext
	library  provider.Library
	apiKey   string
	version  string
	model    string
}

// NewHandler wires the three pipeline components behind the HTTP surface.
func NewHandler(
	builder *contextbuilder.Builder,
	analyzer *intent.Analyzer,
	engine *recommend.Engine,
	users provider.UserContext,
	library provider.Library,
	apiKey, version, model string,
) *Handler {
	return &Handler{
		builder:  builder,
		analyzer: analyzer,
		engine:   engine,
		users:    users,
		library:  library,
		apiKey:   apiKey,
		version:  version,
		model:    model,
	}
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Model         string `json:"model"`
	WorkflowCount int64  `json:"workflow_count"`
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.library.Stats(r.Context())
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		Model:         h.model,
		WorkflowCount: stats.TotalWorkflows,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// RecommendationRequest is the POST /recommendations payload.
type RecommendationRequest struct {
	SessionID   string             `json:"session_id"`
	Query       string             `json:"query"`
	Preferences *types.Preferences `json:"preferences,omitempty"`
}

// RecommendationResponse bundles the interpreted intent with the
// ranked list so callers can refine without a second round trip.
type RecommendationResponse struct {
	Intent          *types.Intent          `json:"intent"`
	Recommendations []types.Recommendation `json:"recommendations"`
}

// Recommendations handles POST /api/v1/recommendations
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var collector validation.Collector
	collector.Add(validation.ValidateRequired("session_id", req.SessionID))
	collector.Add(validation.ValidateRequired("query", req.Query))
	if collector.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", collector.Errors())
		return
	}

	snapshot, err := h.builder.Build(r.Context(), req.SessionID, req.Query)
	if err != nil {
		slog.Error("context build failed", "error", err, "session_id", req.SessionID)
		MapEngineError(w, r, err)
		return
	}

	analyzed, err := h.analyzer.Analyze(r.Context(), req.Query, snapshot)
	if err != nil {
		slog.Error("intent analysis failed", "error", err, "session_id", req.SessionID)
		MapEngineError(w, r, err)
		return
	}

	profile, err := h.users.Profile(r.Context(), req.SessionID)
	if err != nil {
		slog.Error("profile lookup failed", "error", err, "session_id", req.SessionID)
		MapEngineError(w, r, err)
		return
	}

	prefs := req.Preferences
	if prefs == nil {
		prefs = &types.Preferences{}
	}
	var available []string
	for _, integration := range snapshot.Domain.Integrations {
		available = append(available, integration.Name)
	}

	recommendations, err := h.engine.Generate(r.Context(), &types.RecommendationContext{
		Intent:                analyzed,
		Profile:               profile,
		SearchHistory:         snapshot.User.RecentQueries,
		AvailableIntegrations: available,
		Prefs:                 prefs,
	})
	if err != nil {
		slog.Error("recommendation failed", "error", err, "session_id", req.SessionID, "intent_id", analyzed.ID)
		MapEngineError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecommendationResponse{
		Intent:          analyzed,
		Recommendations: recommendations,
	})
}

// FeedbackRequest is the POST /feedback payload.
type FeedbackRequest struct {
	WorkflowID string `json:"workflow_id"`
	Helpful    bool   `json:"helpful"`
	SessionID  string `json:"session_id,omitempty"`
}

// FeedbackResponse reports the running tally after recording.
type FeedbackResponse struct {
	WorkflowID string `json:"workflow_id"`
	Helpful    int    `json:"helpful"`
	Unhelpful  int    `json:"unhelpful"`
}

// Feedback handles POST /api/v1/feedback
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if req.WorkflowID == "" {
		WriteProblem(w, r, http.StatusBadRequest, "workflow_id is required")
		return
	}

	h.engine.RecordFeedback(req.WorkflowID, req.Helpful, req.SessionID)

	tally := h.engine.FeedbackTally(req.WorkflowID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FeedbackResponse{
		WorkflowID: req.WorkflowID,
		Helpful:    tally.Helpful,
		Unhelpful:  tally.Unhelpful,
	})
}

// RefineRequest is the POST /intents/{id}/refine payload.
type RefineRequest struct {
	Tools      []string         `json:"tools,omitempty"`
	Complexity types.Complexity `json:"complexity,omitempty"`
	Priority   types.Priority   `json:"priority,omitempty"`
	Domain     string           `json:"domain,omitempty"`
	Action     string           `json:"action,omitempty"`
}

// RefineIntent handles POST /api/v1/intents/{id}/refine
func (h *Handler) RefineIntent(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "id")

	var req RefineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var collector validation.Collector
	collector.Add(validation.ValidateULID("id", intentID))
	if req.Complexity != "" {
		collector.Add(validation.ValidateEnum("complexity", string(req.Complexity), []string{"simple", "medium", "complex"}))
	}
	if req.Priority != "" {
		collector.Add(validation.ValidateEnum("priority", string(req.Priority), []string{"low", "medium", "high"}))
	}
	if collector.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", collector.Errors())
		return
	}

	refined, err := h.analyzer.Refine(intentID, intent.Feedback{
		Tools:      req.Tools,
		Complexity: req.Complexity,
		Priority:   req.Priority,
		Domain:     req.Domain,
		Action:     req.Action,
	})
	if err != nil {
		MapEngineError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(refined)
}

// ClearContexts handles DELETE /api/v1/context
func (h *Handler) ClearContexts(w http.ResponseWriter, r *http.Request) {
	h.builder.ClearCache()
	h.engine.ClearCache()
	slog.Info("all caches cleared")
	w.WriteHeader(http.StatusNoContent)
}

// ClearContext handles DELETE /api/v1/context/{sessionID}
func (h *Handler) ClearContext(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		WriteProblem(w, r, http.StatusBadRequest, "session id is required")
		return
	}
	h.builder.ClearCache(sessionID)
	slog.Info("context cache cleared", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}
