package search

import (
	"context"

	"github.com/hyperengineering/waypoint/internal/types"
)

// SortByPopularity requests results ordered by usage count instead of
// text relevance.
const SortByPopularity = "popularity"

// Request describes one search against the workflow library.
type Request struct {
	Query    string
	Category string
	SortBy   string
	Limit    int
}

// Result holds the matching workflows and the total hit count.
type Result struct {
	Workflows []types.Workflow
	Total     int64
}

// Searcher defines the interface contract for workflow search backends.
type Searcher interface {
	SearchWorkflows(ctx context.Context, req Request) (*Result, error)
}
