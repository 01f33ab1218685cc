// Package cache stores successful match assessments between requests.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/spigell/placement-engine/internal/types"
)

const (
	// DefaultTTL bounds how long an assessment is reused.
	DefaultTTL = 6 * time.Hour
	// DefaultMaxEntries bounds the in-process cache size.
	DefaultMaxEntries = 10000

	maxSweepInterval = time.Minute
)

// Cache is consulted by the match scorer. Implementations treat every failure as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*types.Assessment, bool)
	Set(ctx context.Context, key string, assessment *types.Assessment)
}

type memoryEntry struct {
	assessment types.Assessment
	expires    time.Time
}

// Memory is an in-process Cache used when redis is not configured. Expired
// entries are swept from Set at most once per sweep interval, and the entry
// closest to expiry is evicted when the cache is full.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]memoryEntry
	nextSweep  time.Time
	now        func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithLimit(ttl, DefaultMaxEntries)
}

// NewMemoryWithLimit is NewMemory with an explicit entry cap.
func NewMemoryWithLimit(ttl time.Duration, maxEntries int) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{ttl: ttl, maxEntries: maxEntries, entries: make(map[string]memoryEntry), now: time.Now}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Get(_ context.Context, key string) (*types.Assessment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expires) {
		delete(m.entries, key)
		return nil, false
	}

	out := cloneAssessment(entry.assessment)
	return &out, true
}

func (m *Memory) Set(_ context.Context, key string, assessment *types.Assessment) {
	if assessment == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !now.Before(m.nextSweep) || len(m.entries) >= m.maxEntries {
		m.sweep(now)
	}
	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.evictOldest()
	}

	m.entries[key] = memoryEntry{assessment: cloneAssessment(*assessment), expires: now.Add(m.ttl)}
}

func (m *Memory) sweep(now time.Time) {
	for key, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, key)
		}
	}
	m.nextSweep = now.Add(min(m.ttl, maxSweepInterval))
}

func (m *Memory) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range m.entries {
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey, oldest = key, entry.expires
		}
	}
	delete(m.entries, oldestKey)
}

func cloneAssessment(a types.Assessment) types.Assessment {
	a.MatchedSkills = append([]string(nil), a.MatchedSkills...)
	a.MissingSkills = append([]string(nil), a.MissingSkills...)
	return a
}
