// Package provider defines the narrow contracts for the upstream data
// sources consumed during context assembly.
package provider

import (
	"context"

	"github.com/hyperengineering/waypoint/internal/types"
)

// DomainKnowledge exposes the platform-level tool catalog, workflow
// patterns, and category taxonomy.
type DomainKnowledge interface {
	DomainKnowledge(ctx context.Context) (*types.DomainKnowledge, error)
}

// UserContext exposes per-session user state, with a write path for
// preference updates.
type UserContext interface {
	UserContext(ctx context.Context, sessionID string) (*types.UserContext, error)
	UpdateUserContext(ctx context.Context, sessionID string, update types.UserContextUpdate) error
	Profile(ctx context.Context, sessionID string) (*types.UserProfile, error)
}

// Library exposes aggregate workflow-library statistics.
type Library interface {
	Stats(ctx context.Context) (*types.LibraryStats, error)
}
