package llm

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"glance/internal/models"
	"glance/internal/repositories"
)

const modelCacheTTL = 10 * time.Minute

type cacheEntry struct {
	fetchedAt time.Time
	models    []string
}

// ModelCache keeps recent model listings per provider+key-prefix so
// redundant listing calls are skipped for ten minutes. Entries are held
// in memory and, when a repository is provided, mirrored to SQLite so
// restarts inside the TTL also skip the call.
type ModelCache struct {
	ttl  time.Duration
	now  func() time.Time
	repo repositories.ModelCacheRepository

	mu  sync.Mutex
	mem map[string]cacheEntry
}

// NewModelCache builds a cache; repo may be nil for memory-only caching.
func NewModelCache(repo repositories.ModelCacheRepository) *ModelCache {
	return &ModelCache{
		ttl:  modelCacheTTL,
		now:  time.Now,
		repo: repo,
		mem:  map[string]cacheEntry{},
	}
}

func cacheKey(providerID, apiKey string) string {
	prefix := apiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return providerID + ":" + prefix
}

// Get returns the cached listing when present and fresh.
func (c *ModelCache) Get(providerID, apiKey string) ([]string, bool) {
	key := cacheKey(providerID, apiKey)

	c.mu.Lock()
	entry, ok := c.mem[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.models, true
	}

	if c.repo == nil {
		return nil, false
	}
	stored, err := c.repo.Get(key)
	if err != nil || stored == nil {
		return nil, false
	}
	if c.now().Sub(stored.FetchedAt) >= c.ttl {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(stored.ModelsJSON), &ids); err != nil {
		return nil, false
	}
	c.mu.Lock()
	c.mem[key] = cacheEntry{fetchedAt: stored.FetchedAt, models: ids}
	c.mu.Unlock()
	return ids, true
}

// Put records a fresh listing. Persistence failures only cost a future
// network call, so they are logged and swallowed.
func (c *ModelCache) Put(providerID, apiKey string, ids []string) {
	key := cacheKey(providerID, apiKey)
	fetchedAt := c.now()

	c.mu.Lock()
	c.mem[key] = cacheEntry{fetchedAt: fetchedAt, models: ids}
	c.mu.Unlock()

	if c.repo == nil {
		return
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.repo.Put(&models.ModelListCache{
		Key:        key,
		ProviderID: providerID,
		FetchedAt:  fetchedAt,
		ModelsJSON: string(encoded),
	}); err != nil {
		log.Printf("model cache: persist: %v", err)
	}
}

// PurgeStale evicts persisted listings that have outlived the TTL. Called
// once at startup; failures only leave dead rows behind.
func (c *ModelCache) PurgeStale() {
	if c.repo == nil {
		return
	}
	if err := c.repo.Purge(c.now().Add(-c.ttl)); err != nil {
		log.Printf("model cache: purge: %v", err)
	}
}
