// Package accounting tracks request counts, cache hits, and the estimated
// dollar value of avoided AI calls, per provider.
package accounting

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/prepforge/aicache/pkg/models"
)

// Accountant owns the per-provider counters. All methods are safe for
// concurrent use. Aggregate figures are always derived by summing the
// per-provider states, never kept separately.
type Accountant struct {
	mu     sync.Mutex
	prices models.PriceTable
	states map[models.Provider]*models.AccountingState
	warned map[string]struct{}
	log    zerolog.Logger
}

// New creates an Accountant with the given price table. A nil table uses
// the built-in defaults.
func New(prices models.PriceTable, log zerolog.Logger) *Accountant {
	if prices == nil {
		prices = models.DefaultPriceTable()
	}
	return &Accountant{
		prices: prices,
		states: make(map[models.Provider]*models.AccountingState),
		warned: make(map[string]struct{}),
		log:    log.With().Str("component", "accounting").Logger(),
	}
}

func (a *Accountant) state(p models.Provider) *models.AccountingState {
	s, ok := a.states[p]
	if !ok {
		s = &models.AccountingState{}
		a.states[p] = s
	}
	return s
}

// RecordRequest counts one cache lookup attempt, hit or miss.
func (a *Accountant) RecordRequest(p models.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state(p).TotalRequests++
}

// RecordHit counts one cache hit and credits the configured per-request
// price for the provider/model pair. An unpriced model falls back to the
// provider's default price; the fallback is logged once per pair, not per
// request. The credited price is returned.
func (a *Accountant) RecordHit(p models.Provider, model string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	price, exact := a.prices.PriceFor(p, model)
	if !exact {
		key := string(p) + "/" + model
		if _, seen := a.warned[key]; !seen {
			a.warned[key] = struct{}{}
			a.log.Warn().
				Str("provider", string(p)).
				Str("model", model).
				Float64("fallback_price", price).
				Msg("no configured price for model, using provider fallback")
		}
	}

	s := a.state(p)
	s.CacheHits++
	s.EstimatedCostSaved += price
	return price
}

// Stats returns the reporting view for one provider.
func (a *Accountant) Stats(p models.Provider) models.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return models.StatsFrom(*a.state(p))
}

// Aggregate sums every provider's counters into one view.
func (a *Accountant) Aggregate() models.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total models.AccountingState
	for _, s := range a.states {
		total.TotalRequests += s.TotalRequests
		total.CacheHits += s.CacheHits
		total.EstimatedCostSaved += s.EstimatedCostSaved
	}
	return models.StatsFrom(total)
}

// State returns a copy of the raw counters for persistence.
func (a *Accountant) State(p models.Provider) models.AccountingState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.state(p)
}

// Restore replaces a provider's counters from a persisted snapshot. Called
// during rehydration, before the cache serves traffic.
func (a *Accountant) Restore(p models.Provider, s models.AccountingState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	*a.state(p) = s
}

// Reset zeroes a provider's counters. Explicit operator action only.
func (a *Accountant) Reset(p models.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	*a.state(p) = models.AccountingState{}
}
