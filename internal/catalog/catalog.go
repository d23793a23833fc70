// Package catalog persists the workflow library backing the search
// index and the library-statistics provider.
package catalog

import (
	"context"
	"errors"

	"github.com/hyperengineering/waypoint/internal/types"
)

// ErrNotFound is returned when a workflow id is unknown.
var ErrNotFound = errors.New("workflow not found")

// Catalog defines the interface contract for workflow library storage.
type Catalog interface {
	Put(ctx context.Context, w types.Workflow) error
	Get(ctx context.Context, id string) (*types.Workflow, error)
	List(ctx context.Context) ([]types.Workflow, error)
	Stats(ctx context.Context) (*types.LibraryStats, error)
	Close() error
}
