// Package cache implements the AI-response cache: a provider-partitioned,
// persisted question/answer store with similarity matching, time-based
// expiry, bounded size, and cost accounting.
package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepforge/aicache/pkg/accounting"
	"github.com/prepforge/aicache/pkg/models"
	"github.com/prepforge/aicache/pkg/normalize"
	"github.com/prepforge/aicache/pkg/similarity"
)

// Persister durably stores the full per-provider snapshot. Both the sqlite
// and snapshot subpackages implement it.
type Persister interface {
	Load(provider models.Provider) ([]models.CacheEntry, models.AccountingState, error)
	Save(provider models.Provider, entries []models.CacheEntry, state models.AccountingState) error
	Close() error
}

// Config holds the immutable cache parameters, loaded once at startup.
type Config struct {
	SimilarityThreshold float64
	MaxAge              time.Duration
	MaxEntries          int
	SweepInterval       time.Duration
	StripPrefixes       []string
	Pricing             models.PriceTable
}

const (
	DefaultSimilarityThreshold = 0.8
	DefaultMaxAge              = 24 * time.Hour
	DefaultMaxEntries          = 1000
)

func (c Config) withDefaults() Config {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	return c
}

// providerCache owns one provider's entries. Each instance has its own
// lock, so providers never contend with each other. The order slice tracks
// keys oldest-created first; refresh moves a key to the tail, keeping the
// slice in createdAt order so expiry and eviction both pop from the head.
type providerCache struct {
	mu       sync.Mutex
	provider models.Provider
	entries  map[string]*models.CacheEntry
	order    []string
	dirty    bool
}

// Cache is the single entry point consumed by AI-calling code. Construct
// with New; there is no package-level instance.
type Cache struct {
	cfg     Config
	norm    *normalize.Normalizer
	acct    *accounting.Accountant
	persist Persister
	log     zerolog.Logger

	mu        sync.RWMutex
	providers map[models.Provider]*providerCache

	done      chan struct{}
	sweeperWG sync.WaitGroup
	closeOnce sync.Once
}

// New builds a Cache, rehydrating each known provider from the persister.
// Unreadable persisted state degrades to an empty partition with a warning,
// never an error. When cfg.SweepInterval is positive a background sweeper
// purges expired entries and flushes pending hit counts on that cadence.
func New(cfg Config, persist Persister, log zerolog.Logger) *Cache {
	cfg = cfg.withDefaults()
	c := &Cache{
		cfg:       cfg,
		norm:      normalize.New(cfg.StripPrefixes),
		acct:      accounting.New(cfg.Pricing, log),
		persist:   persist,
		log:       log.With().Str("component", "cache").Logger(),
		providers: make(map[models.Provider]*providerCache),
		done:      make(chan struct{}),
	}

	for _, p := range models.KnownProviders() {
		c.providers[p] = c.rehydrate(p)
	}

	if cfg.SweepInterval > 0 {
		c.sweeperWG.Add(1)
		go c.sweepLoop(cfg.SweepInterval)
	}
	return c
}

func (c *Cache) rehydrate(p models.Provider) *providerCache {
	pc := &providerCache{
		provider: p,
		entries:  make(map[string]*models.CacheEntry),
	}

	entries, state, err := c.persist.Load(p)
	if err != nil {
		c.log.Warn().Err(err).Str("provider", string(p)).Msg("persisted cache unreadable, starting empty")
		persistErrors.WithLabelValues("load").Inc()
		return pc
	}
	c.acct.Restore(p, state)

	now := time.Now()
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	for i := range entries {
		e := entries[i]
		if e.Expired(now, c.cfg.MaxAge) {
			continue
		}
		if _, dup := pc.entries[e.NormalizedKey]; dup {
			continue
		}
		pc.entries[e.NormalizedKey] = &e
		pc.order = append(pc.order, e.NormalizedKey)
	}
	// Enforce the cap on load in case it was lowered between runs.
	for len(pc.entries) > c.cfg.MaxEntries {
		oldest := pc.order[0]
		pc.order = pc.order[1:]
		delete(pc.entries, oldest)
	}

	c.log.Info().
		Str("provider", string(p)).
		Int("entries", len(pc.entries)).
		Msg("cache rehydrated")
	return pc
}

// partition returns the provider's cache, creating one on first use so a
// provider outside the stock set still gets its own isolated partition.
func (c *Cache) partition(p models.Provider) *providerCache {
	c.mu.RLock()
	pc, ok := c.providers[p]
	c.mu.RUnlock()
	if ok {
		return pc
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pc, ok = c.providers[p]; ok {
		return pc
	}
	pc = c.rehydrate(p)
	c.providers[p] = pc
	return pc
}

// Get returns the cached answer for the question, trying an exact lookup on
// the normalized key first and a similarity scan over live entries second.
// The boolean is false on a miss; a miss is a normal outcome, not an error.
// Get never performs network I/O.
func (c *Cache) Get(question string, provider models.Provider, model string) (json.RawMessage, bool) {
	key := c.norm.Normalize(question)
	pc := c.partition(provider)
	now := time.Now()

	pc.mu.Lock()
	entry, kind := pc.lookup(key, now, c.cfg.MaxAge, c.cfg.SimilarityThreshold)
	var answer json.RawMessage
	if entry != nil {
		entry.HitCount++
		pc.dirty = true
		answer = append(json.RawMessage(nil), entry.Answer...)
	}
	pc.mu.Unlock()

	c.acct.RecordRequest(provider)
	if entry == nil {
		misses.WithLabelValues(string(provider)).Inc()
		c.log.Debug().Str("provider", string(provider)).Str("key", key).Msg("cache miss")
		return nil, false
	}

	saved := c.acct.RecordHit(provider, model)
	hits.WithLabelValues(string(provider), kind).Inc()
	costSaved.WithLabelValues(string(provider)).Add(saved)
	c.log.Debug().
		Str("provider", string(provider)).
		Str("key", key).
		Str("kind", kind).
		Float64("saved", saved).
		Msg("cache hit")
	return answer, true
}

// lookup must run under pc.mu. kind is "exact" or "similar".
func (pc *providerCache) lookup(key string, now time.Time, maxAge time.Duration, threshold float64) (*models.CacheEntry, string) {
	if e, ok := pc.entries[key]; ok && !e.Expired(now, maxAge) {
		return e, "exact"
	}

	candidates := make([]similarity.Candidate, 0, len(pc.entries))
	for _, e := range pc.entries {
		if e.Expired(now, maxAge) {
			continue
		}
		candidates = append(candidates, similarity.Candidate{
			Key:        e.NormalizedKey,
			Normalized: e.NormalizedKey,
			HitCount:   e.HitCount,
			CreatedAt:  e.CreatedAt,
		})
	}
	best, ok := similarity.Best(key, candidates, threshold)
	if !ok {
		return nil, ""
	}
	return pc.entries[best.Key], "similar"
}

// Put records a freshly computed answer. A put for an already-present
// normalized key refreshes the entry: the answer is overwritten and
// createdAt reset. Expired entries are purged and the oldest entries
// evicted before the snapshot is flushed. Persistence failures are logged
// and counted, never returned: the entry stays valid in memory for the
// rest of the process lifetime.
func (c *Cache) Put(question string, provider models.Provider, model string, answer json.RawMessage) {
	c.PutTokens(question, provider, model, answer, 0)
}

// PutTokens is Put with the provider-reported token count attached to the
// entry for diagnostics.
func (c *Cache) PutTokens(question string, provider models.Provider, model string, answer json.RawMessage, tokensUsed int) {
	key := c.norm.Normalize(question)
	if key == "" {
		c.log.Debug().Str("provider", string(provider)).Msg("refusing to cache empty normalized key")
		return
	}
	pc := c.partition(provider)
	now := time.Now()

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if e, ok := pc.entries[key]; ok {
		e.OriginalQuestion = question
		e.Answer = append(json.RawMessage(nil), answer...)
		e.Model = model
		e.TokensUsed = tokensUsed
		e.CreatedAt = now
		pc.moveToTail(key)
	} else {
		pc.entries[key] = &models.CacheEntry{
			NormalizedKey:    key,
			OriginalQuestion: question,
			Answer:           append(json.RawMessage(nil), answer...),
			Provider:         provider,
			Model:            model,
			TokensUsed:       tokensUsed,
			CreatedAt:        now,
		}
		pc.order = append(pc.order, key)
	}

	c.purgeLocked(pc, now)
	for len(pc.entries) > c.cfg.MaxEntries {
		oldest := pc.order[0]
		pc.order = pc.order[1:]
		delete(pc.entries, oldest)
		evictions.WithLabelValues(string(provider)).Inc()
		c.log.Debug().Str("provider", string(provider)).Str("key", oldest).Msg("evicted oldest entry")
	}

	c.flushLocked(pc)
}

func (pc *providerCache) moveToTail(key string) {
	for i, k := range pc.order {
		if k == key {
			pc.order = append(pc.order[:i], pc.order[i+1:]...)
			break
		}
	}
	pc.order = append(pc.order, key)
}

// purgeLocked removes expired entries. The order slice is createdAt-sorted,
// so expired entries are a prefix.
func (c *Cache) purgeLocked(pc *providerCache, now time.Time) int {
	purged := 0
	for len(pc.order) > 0 {
		e := pc.entries[pc.order[0]]
		if !e.Expired(now, c.cfg.MaxAge) {
			break
		}
		delete(pc.entries, pc.order[0])
		pc.order = pc.order[1:]
		purged++
		expirations.WithLabelValues(string(pc.provider)).Inc()
	}
	return purged
}

// flushLocked writes the provider's full snapshot. Must run under pc.mu so
// saves serialize per provider and the last writer wins.
func (c *Cache) flushLocked(pc *providerCache) {
	entries := make([]models.CacheEntry, 0, len(pc.order))
	for _, key := range pc.order {
		entries = append(entries, *pc.entries[key])
	}
	if err := c.persist.Save(pc.provider, entries, c.acct.State(pc.provider)); err != nil {
		persistErrors.WithLabelValues("save").Inc()
		c.log.Warn().Err(err).
			Str("provider", string(pc.provider)).
			Msg("snapshot flush failed, entries remain valid in memory")
		return
	}
	pc.dirty = false
}

// PurgeExpired removes every expired entry for the provider and flushes if
// anything was removed.
func (c *Cache) PurgeExpired(provider models.Provider) int {
	pc := c.partition(provider)
	pc.mu.Lock()
	defer pc.mu.Unlock()

	purged := c.purgeLocked(pc, time.Now())
	if purged > 0 || pc.dirty {
		c.flushLocked(pc)
	}
	return purged
}

// Clear drops every entry for the provider. When resetStats is set the
// accounting counters are zeroed as well.
func (c *Cache) Clear(provider models.Provider, resetStats bool) {
	pc := c.partition(provider)
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.entries = make(map[string]*models.CacheEntry)
	pc.order = nil
	if resetStats {
		c.acct.Reset(provider)
	}
	c.flushLocked(pc)
}

// Stats returns the provider's accounting stats plus its live entry count.
func (c *Cache) Stats(provider models.Provider) models.ProviderStats {
	pc := c.partition(provider)
	pc.mu.Lock()
	live := 0
	now := time.Now()
	for _, e := range pc.entries {
		if !e.Expired(now, c.cfg.MaxAge) {
			live++
		}
	}
	pc.mu.Unlock()

	return models.ProviderStats{
		Provider: provider,
		Entries:  live,
		Stats:    c.acct.Stats(provider),
	}
}

// AggregateStats sums the accounting counters across all providers.
func (c *Cache) AggregateStats() models.Stats {
	return c.acct.Aggregate()
}

// Providers lists the partitions currently held, sorted for stable output.
func (c *Cache) Providers() []models.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ps := make([]models.Provider, 0, len(c.providers))
	for p := range c.providers {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}

// Flush persists every provider's snapshot, including hit counts and
// accounting updates accumulated since the last write.
func (c *Cache) Flush() {
	for _, p := range c.Providers() {
		pc := c.partition(p)
		pc.mu.Lock()
		c.flushLocked(pc)
		pc.mu.Unlock()
	}
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer c.sweeperWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			for _, p := range c.Providers() {
				pc := c.partition(p)
				pc.mu.Lock()
				purged := c.purgeLocked(pc, time.Now())
				if purged > 0 || pc.dirty {
					c.flushLocked(pc)
				}
				pc.mu.Unlock()
			}
		}
	}
}

// Close stops the sweeper, flushes all providers, and closes the persister.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.sweeperWG.Wait()
		c.Flush()
		err = c.persist.Close()
	})
	return err
}
