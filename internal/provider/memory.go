package provider

import (
	"context"
	"sync"

	"github.com/hyperengineering/waypoint/internal/catalog"
	"github.com/hyperengineering/waypoint/internal/types"
)

// Compile-time interface checks
var (
	_ DomainKnowledge = (*StaticDomain)(nil)
	_ UserContext     = (*MemoryUserContext)(nil)
	_ Library         = (*CatalogLibrary)(nil)
)

// StaticDomain serves a fixed domain-knowledge snapshot. Production
// deployments seed it once at startup; tests construct it inline.
type StaticDomain struct {
	knowledge types.DomainKnowledge
}

// NewStaticDomain creates a provider serving the given knowledge.
func NewStaticDomain(knowledge types.DomainKnowledge) *StaticDomain {
	return &StaticDomain{knowledge: knowledge}
}

// DomainKnowledge returns a copy of the configured snapshot.
func (p *StaticDomain) DomainKnowledge(ctx context.Context) (*types.DomainKnowledge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := p.knowledge
	return &k, nil
}

// MemoryUserContext keeps per-session user state in memory. Sessions
// without recorded state resolve to a beginner default rather than an
// error; the engine must work for first-time users.
type MemoryUserContext struct {
	mu       sync.RWMutex
	contexts map[string]types.UserContext
	profiles map[string]types.UserProfile
}

// NewMemoryUserContext creates an empty user-context provider.
func NewMemoryUserContext() *MemoryUserContext {
	return &MemoryUserContext{
		contexts: make(map[string]types.UserContext),
		profiles: make(map[string]types.UserProfile),
	}
}

// UserContext returns the session's user context, defaulting unknown
// sessions to a beginner profile.
func (p *MemoryUserContext) UserContext(ctx context.Context, sessionID string) (*types.UserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if uc, ok := p.contexts[sessionID]; ok {
		out := uc
		return &out, nil
	}
	return &types.UserContext{
		SessionID:  sessionID,
		SkillLevel: types.SkillBeginner,
	}, nil
}

// UpdateUserContext merges non-zero update fields into the session state.
func (p *MemoryUserContext) UpdateUserContext(ctx context.Context, sessionID string, update types.UserContextUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	uc, ok := p.contexts[sessionID]
	if !ok {
		uc = types.UserContext{SessionID: sessionID, SkillLevel: types.SkillBeginner}
	}
	if update.PreferredTools != nil {
		uc.PreferredTools = update.PreferredTools
	}
	if update.SkillLevel != "" {
		uc.SkillLevel = update.SkillLevel
	}
	if update.DomainFocus != nil {
		uc.DomainFocus = update.DomainFocus
	}
	p.contexts[sessionID] = uc
	return nil
}

// SetProfile stores a scoring profile for a session.
func (p *MemoryUserContext) SetProfile(sessionID string, profile types.UserProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[sessionID] = profile
}

// Profile returns the session's scoring profile, defaulting unknown
// sessions to a beginner profile with no history.
func (p *MemoryUserContext) Profile(ctx context.Context, sessionID string) (*types.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if profile, ok := p.profiles[sessionID]; ok {
		out := profile
		return &out, nil
	}

	skill := types.SkillBeginner
	if uc, ok := p.contexts[sessionID]; ok {
		skill = uc.SkillLevel
	}
	return &types.UserProfile{
		SkillLevel:          skill,
		PreferredComplexity: types.ComplexitySimple,
	}, nil
}

// CatalogLibrary serves library statistics from the workflow catalog.
type CatalogLibrary struct {
	catalog catalog.Catalog
}

// NewCatalogLibrary creates a library provider backed by the catalog.
func NewCatalogLibrary(c catalog.Catalog) *CatalogLibrary {
	return &CatalogLibrary{catalog: c}
}

// Stats returns aggregate library statistics.
func (p *CatalogLibrary) Stats(ctx context.Context) (*types.LibraryStats, error) {
	return p.catalog.Stats(ctx)
}
