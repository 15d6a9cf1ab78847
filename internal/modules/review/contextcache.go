package review

import (
	"sync"
	"time"
)

// ContextKey identifies one cached conversation context. A conversation is
// cached per reviewer/target direction so the two parties' summaries stay
// independent.
type ContextKey struct {
	ConversationID string
	ReviewerID     string
	TargetID       string
}

// ConversationContext is the incrementally-built summary of a conversation,
// maintained by the background builder and read by the fast suggestion path.
type ConversationContext struct {
	Key               ContextKey
	Summary           string
	ImageDescriptions []string
	ProcessedImages   map[string]struct{}
	MessageCount      int
	LastMessageAt     time.Time
	UpdatedAt         time.Time
}

// Clone deep-copies the context so cached state is never shared with callers.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	out := *c
	out.ImageDescriptions = append([]string(nil), c.ImageDescriptions...)
	out.ProcessedImages = make(map[string]struct{}, len(c.ProcessedImages))
	for id := range c.ProcessedImages {
		out.ProcessedImages[id] = struct{}{}
	}
	return &out
}

// ContextCache stores conversation contexts. Get returns a snapshot; mutating
// the returned value never affects the cached copy.
type ContextCache interface {
	Get(key ContextKey) (*ConversationContext, bool)
	Put(cctx *ConversationContext)
	Sweep(olderThan time.Duration) int
}

// MemoryContextCache is the in-process ContextCache.
type MemoryContextCache struct {
	mu      sync.RWMutex
	entries map[ContextKey]*ConversationContext
}

// NewMemoryContextCache returns an empty in-process cache.
func NewMemoryContextCache() *MemoryContextCache {
	return &MemoryContextCache{entries: make(map[ContextKey]*ConversationContext)}
}

func (m *MemoryContextCache) Get(key ContextKey) (*ConversationContext, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cctx, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return cctx.Clone(), true
}

func (m *MemoryContextCache) Put(cctx *ConversationContext) {
	if cctx == nil {
		return
	}
	stored := cctx.Clone()
	stored.UpdatedAt = time.Now()
	m.mu.Lock()
	m.entries[stored.Key] = stored
	m.mu.Unlock()
}

// Sweep drops entries not updated within olderThan and reports how many were
// removed.
func (m *MemoryContextCache) Sweep(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, cctx := range m.entries {
		if cctx.UpdatedAt.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of cached contexts.
func (m *MemoryContextCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
