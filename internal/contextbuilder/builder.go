// Package contextbuilder assembles immutable per-session context
// snapshots from the domain, user, and library providers, with a
// staleness- and similarity-aware session cache.
package contextbuilder

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/waypoint/internal/provider"
	"github.com/hyperengineering/waypoint/internal/types"
	"github.com/hyperengineering/waypoint/internal/validation"
)

const (
	// similarityWindow is how many recorded queries a new query is
	// compared against when deciding whether a cached context still fits.
	similarityWindow = 3

	// minTokenLength filters short words out of the overlap heuristic.
	minTokenLength = 3
)

// Config tunes cache behavior.
type Config struct {
	// Staleness is the maximum age before a cached context is rebuilt.
	Staleness time.Duration

	// MaxRecentQueries bounds the per-session recent-query list.
	MaxRecentQueries int
}

func (c Config) withDefaults() Config {
	if c.Staleness <= 0 {
		c.Staleness = 30 * time.Minute
	}
	if c.MaxRecentQueries <= 0 {
		c.MaxRecentQueries = 10
	}
	return c
}

// Builder assembles Context snapshots and owns the session cache.
type Builder struct {
	domain  provider.DomainKnowledge
	users   provider.UserContext
	library provider.Library
	cfg     Config

	mu    sync.RWMutex
	cache map[string]*types.Context

	// now is swappable for staleness tests.
	now func() time.Time
}

// NewBuilder creates a context builder over the given providers.
func NewBuilder(domain provider.DomainKnowledge, users provider.UserContext, library provider.Library, cfg Config) *Builder {
	return &Builder{
		domain:  domain,
		users:   users,
		library: library,
		cfg:     cfg.withDefaults(),
		cache:   make(map[string]*types.Context),
		now:     time.Now,
	}
}

// Build returns the session's context snapshot, reusing the cached one
// when it is fresh and the query (if any) resembles recent session
// queries. Any provider failure or schema violation aborts with
// *ContextBuildError.
func (b *Builder) Build(ctx context.Context, sessionID, query string) (*types.Context, error) {
	b.mu.RLock()
	cached := b.cache[sessionID]
	b.mu.RUnlock()

	if cached != nil && b.now().Sub(cached.CreatedAt) < b.cfg.Staleness {
		if query == "" || similarToRecent(query, cached.User.RecentQueries) {
			return cached, nil
		}
	}

	snapshot, err := b.assemble(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Query history survives rebuilds; everything else is a fresh read.
	if cached != nil && len(cached.User.RecentQueries) > len(snapshot.User.RecentQueries) {
		snapshot.User.RecentQueries = cached.User.RecentQueries
	}
	if query != "" {
		snapshot.User.RecentQueries = appendBounded(snapshot.User.RecentQueries, query, b.cfg.MaxRecentQueries)
	}

	if errs := validation.ValidateContext(snapshot); len(errs) > 0 {
		return nil, &ContextBuildError{
			Code:      CodeValidationFailure,
			SessionID: sessionID,
			Context:   map[string]any{"validation_errors": errs},
		}
	}

	b.mu.Lock()
	b.cache[sessionID] = snapshot
	b.mu.Unlock()

	slog.Debug("context built",
		"component", "contextbuilder",
		"session_id", sessionID,
		"context_id", snapshot.ID,
	)
	return snapshot, nil
}

// assemble fetches the three provider slices concurrently and joins
// them into a new snapshot.
func (b *Builder) assemble(ctx context.Context, sessionID string) (*types.Context, error) {
	var (
		domain  *types.DomainKnowledge
		user    *types.UserContext
		library *types.LibraryStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		domain, err = b.domain.DomainKnowledge(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = b.users.UserContext(gctx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		library, err = b.library.Stats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &ContextBuildError{
			Code:      CodeProviderFailure,
			SessionID: sessionID,
			Err:       err,
		}
	}

	return &types.Context{
		ID:        ulid.Make().String(),
		CreatedAt: b.now().UTC(),
		Domain:    *domain,
		User:      *user,
		Library:   *library,
	}, nil
}

// UpdateUserContext pushes preference changes to the user-context
// provider and invalidates the session's cached snapshot.
func (b *Builder) UpdateUserContext(ctx context.Context, sessionID string, update types.UserContextUpdate) error {
	if err := b.users.UpdateUserContext(ctx, sessionID, update); err != nil {
		return &ContextBuildError{
			Code:      CodeProviderFailure,
			SessionID: sessionID,
			Err:       err,
		}
	}

	b.mu.Lock()
	delete(b.cache, sessionID)
	b.mu.Unlock()
	return nil
}

// ClearCache removes cached contexts for the given sessions, or every
// session when none are named.
func (b *Builder) ClearCache(sessionIDs ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(sessionIDs) == 0 {
		b.cache = make(map[string]*types.Context)
		return
	}
	for _, id := range sessionIDs {
		delete(b.cache, id)
	}
}

// SweepExpired evicts contexts older than the staleness window and
// returns the number removed.
func (b *Builder) SweepExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	cutoff := b.now().Add(-b.cfg.Staleness)
	for id, c := range b.cache {
		if c.CreatedAt.Before(cutoff) {
			delete(b.cache, id)
			removed++
		}
	}
	return removed
}

// similarToRecent reports whether the query shares at least one
// significant word with any of the last few recorded queries.
func similarToRecent(query string, recent []string) bool {
	start := len(recent) - similarityWindow
	if start < 0 {
		start = 0
	}
	for _, prev := range recent[start:] {
		if tokenOverlap(query, prev) {
			return true
		}
	}
	return false
}

// tokenOverlap normalizes both strings, keeps words longer than
// minTokenLength, and requires at least one shared word.
func tokenOverlap(a, b string) bool {
	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(a)) {
		if len(word) > minTokenLength {
			seen[word] = true
		}
	}
	for _, word := range strings.Fields(strings.ToLower(b)) {
		if len(word) > minTokenLength && seen[word] {
			return true
		}
	}
	return false
}

func appendBounded(list []string, value string, max int) []string {
	out := append(append([]string(nil), list...), value)
	if len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
