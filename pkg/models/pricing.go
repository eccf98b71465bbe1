package models

// ProviderPricing holds per-request prices for one provider's models.
// Prices are flat per-request estimates, not token-metered: the cache only
// needs a credible savings figure, not a billing-grade one.
type ProviderPricing struct {
	// DefaultModel names the model whose price is used when a request's
	// model has no configured entry.
	DefaultModel string             `json:"default_model" yaml:"default_model"`
	PerRequest   map[string]float64 `json:"per_request" yaml:"per_request"`
}

// PriceTable maps providers to their model price lists.
type PriceTable map[Provider]ProviderPricing

// DefaultPriceTable returns built-in per-request estimates for the stock
// providers. Values approximate one cached Q&A round trip (short prompt,
// ~1K output tokens) at published 2024 list prices.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		ProviderOpenAI: {
			DefaultModel: "gpt-4o-mini",
			PerRequest: map[string]float64{
				"gpt-4o-mini": 0.0007,
				"gpt-4o":      0.0125,
			},
		},
		ProviderClaude: {
			DefaultModel: "claude-3-5-haiku-20241022",
			PerRequest: map[string]float64{
				"claude-3-5-haiku-20241022":  0.0014,
				"claude-3-5-sonnet-20241022": 0.0180,
			},
		},
	}
}

// PriceFor resolves the per-request price for a provider/model pair. The
// second return is false when the exact model had no entry and a fallback
// was used: first the provider's default model, then the cheapest model it
// lists, then zero.
func (t PriceTable) PriceFor(provider Provider, model string) (float64, bool) {
	pp, ok := t[provider]
	if !ok {
		return 0, false
	}
	if price, ok := pp.PerRequest[model]; ok {
		return price, true
	}
	if price, ok := pp.PerRequest[pp.DefaultModel]; ok {
		return price, false
	}
	cheapest := 0.0
	found := false
	for _, price := range pp.PerRequest {
		if !found || price < cheapest {
			cheapest = price
			found = true
		}
	}
	return cheapest, false
}
