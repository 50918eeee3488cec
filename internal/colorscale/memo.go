package colorscale

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// Memo is a bounded LRU cache over ColorFor lookups, keyed by scale name
// and the exact value. It is a pure optimization: a memoized lookup
// always equals the uncached computation, and the cache is safe to
// clear at any time.
type Memo struct {
	mu         sync.Mutex
	registry   *Registry
	entries    map[string]string
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	hits       atomic.Int64
	misses     atomic.Int64
}

// MemoStats contains cache performance counters.
type MemoStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewMemo creates a Memo over the given registry with the given capacity.
func NewMemo(registry *Registry, maxEntries int) *Memo {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	return &Memo{
		registry:   registry,
		entries:    make(map[string]string),
		maxEntries: maxEntries,
	}
}

// memoKey keys on the value's exact bit pattern. Rounding the key would
// let a value just past a ladder threshold collide with one just under
// it, so the cache could diverge from the uncached mapping.
func memoKey(scale string, v float64) string {
	return fmt.Sprintf("%s/%x", scale, math.Float64bits(v))
}

// ColorFor returns the memoized color for (scale, v). Unknown scale
// names and non-finite values bypass the cache.
func (m *Memo) ColorFor(scale string, v float64) string {
	s, ok := m.registry.Scale(scale)
	if !ok {
		return neutralGray
	}
	if !finite(v) {
		return s.Neutral()
	}

	key := memoKey(scale, v)

	m.mu.Lock()
	if color, ok := m.entries[key]; ok {
		m.removeFromOrder(key)
		m.order = append(m.order, key)
		m.mu.Unlock()
		m.hits.Add(1)
		return color
	}
	m.mu.Unlock()
	m.misses.Add(1)

	color := s.ColorFor(v)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		for len(m.entries) >= m.maxEntries && len(m.order) > 0 {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.entries, oldest)
		}
		m.entries[key] = color
		m.order = append(m.order, key)
	}
	return color
}

// Clear drops all cached entries. Counters are preserved.
func (m *Memo) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
	m.order = nil
}

// Stats returns cache performance counters.
func (m *Memo) Stats() MemoStats {
	m.mu.Lock()
	entries := len(m.entries)
	maxEntries := m.maxEntries
	m.mu.Unlock()

	hits := m.hits.Load()
	misses := m.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return MemoStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (m *Memo) removeFromOrder(key string) {
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
