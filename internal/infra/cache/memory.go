package cache

import (
	"context"
	"sync"
	"time"

	domain "github.com/Gokhanagingil/grc-sub001/internal/domain/advisory"
)

// Memory is the default advisory cache: a process-local keyed map with an
// explicit TTL. Entries are checked lazily on Get and swept periodically,
// the same way the rate limiter sweeps idle buckets. Results are lost on
// restart; the Badger backend exists for deployments that need durability.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

type memoryEntry struct {
	res       *domain.AdvisoryResult
	expiresAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
	go m.sweep()
	return m
}

func cacheKey(tenant, riskID string) string {
	return tenant + ":" + riskID
}

// Put overwrites any prior entry for the same (tenant, risk) key
func (m *Memory) Put(_ context.Context, tenant, riskID string, res *domain.AdvisoryResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(tenant, riskID)] = memoryEntry{
		res:       res,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

func (m *Memory) Get(_ context.Context, tenant, riskID string) (*domain.AdvisoryResult, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[cacheKey(tenant, riskID)]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, cacheKey(tenant, riskID))
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.res, true, nil
}

func (m *Memory) Delete(_ context.Context, tenant, riskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cacheKey(tenant, riskID))
	return nil
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for key, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, key)
			}
		}
		m.mu.Unlock()
	}
}
