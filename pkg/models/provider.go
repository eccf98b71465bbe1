package models

// Provider identifies an external AI answer-generation service. Cache
// entries are partitioned by provider and never shared across the boundary.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderClaude Provider = "claude"
)

// KnownProviders returns the providers configured out of the box. The type
// is open: a Provider value outside this list gets its own cache partition
// at first use.
func KnownProviders() []Provider {
	return []Provider{ProviderOpenAI, ProviderClaude}
}

func (p Provider) String() string {
	return string(p)
}
