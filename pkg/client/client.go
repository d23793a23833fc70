package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config configures a Client.
type Config struct {
	// BaseURL is the Waypoint server root, e.g. "http://localhost:8080".
	BaseURL string
	// APIKey authenticates protected endpoints.
	APIKey string
	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
	// HTTPClient overrides the default transport when set.
	HTTPClient *http.Client
}

// Client is the Waypoint API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// APIError is a decoded RFC 7807 problem response.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("waypoint: %s (%d): %s", e.Title, e.Status, e.Detail)
}

// New creates a Client.
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		http:    httpClient,
	}, nil
}

// Health checks connectivity and reports server status.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Recommend returns ranked workflow recommendations for a query.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResponse, error) {
	var resp RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/recommendations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitFeedback records whether a recommendation was helpful.
func (c *Client) SubmitFeedback(ctx context.Context, fb Feedback) (*FeedbackTally, error) {
	var tally FeedbackTally
	if err := c.do(ctx, http.MethodPost, "/api/v1/feedback", fb, &tally); err != nil {
		return nil, err
	}
	return &tally, nil
}

// RefineIntent applies corrections to a previously analyzed intent and
// returns the refined version.
func (c *Client) RefineIntent(ctx context.Context, intentID string, r Refinement) (*Intent, error) {
	if intentID == "" {
		return nil, errors.New("intent id is required")
	}
	var refined Intent
	path := "/api/v1/intents/" + url.PathEscape(intentID) + "/refine"
	if err := c.do(ctx, http.MethodPost, path, r, &refined); err != nil {
		return nil, err
	}
	return &refined, nil
}

// ClearContext drops the server-side context cache for one session, or
// for all sessions when sessionID is empty.
func (c *Client) ClearContext(ctx context.Context, sessionID string) error {
	path := "/api/v1/context"
	if sessionID != "" {
		path += "/" + url.PathEscape(sessionID)
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do issues one request, decoding either the success payload or an
// RFC 7807 problem into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		// Problem bodies are best-effort; the status code stands alone.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
