package intent

import (
	"sync"

	"github.com/hyperengineering/waypoint/internal/types"
)

// historyEntry ties an intent to the session it was analyzed under so
// refinements land back in the same session's ring.
type historyEntry struct {
	intent    *types.Intent
	sessionID string
}

// history keeps a bounded per-session ring of analyzed intents plus a
// flat id index for cross-session lookup during refinement.
type history struct {
	mu       sync.Mutex
	limit    int
	sessions map[string][]*types.Intent
	byID     map[string]historyEntry
}

func newHistory(limit int) *history {
	return &history{
		limit:    limit,
		sessions: make(map[string][]*types.Intent),
		byID:     make(map[string]historyEntry),
	}
}

// add appends an intent to the session ring, evicting the oldest entry
// once the ring exceeds its limit.
func (h *history) add(sessionID string, intent *types.Intent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ring := append(h.sessions[sessionID], intent)
	if len(ring) > h.limit {
		evicted := ring[0]
		ring = ring[1:]
		delete(h.byID, evicted.ID)
	}
	h.sessions[sessionID] = ring
	h.byID[intent.ID] = historyEntry{intent: intent, sessionID: sessionID}
}

// get looks an intent up by id across all sessions.
func (h *history) get(id string) (*types.Intent, string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.byID[id]
	if !ok {
		return nil, "", false
	}
	return entry.intent, entry.sessionID, true
}

// recent returns the session's intents, newest last.
func (h *history) recent(sessionID string) []*types.Intent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ring := h.sessions[sessionID]
	out := make([]*types.Intent, len(ring))
	copy(out, ring)
	return out
}

// clear drops all recorded history.
func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions = make(map[string][]*types.Intent)
	h.byID = make(map[string]historyEntry)
}
