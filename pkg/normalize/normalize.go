// Package normalize canonicalizes raw questions into comparable cache keys.
package normalize

import (
	"sort"
	"strings"
)

// DefaultStripPrefixes lists the interrogative and imperative openers that
// are removed before comparison, so "What is X?" and "Explain X" collapse to
// the same key as "X". The list is configuration data; override it via
// New to tune matching for a corpus.
var DefaultStripPrefixes = []string{
	"what do you know about",
	"can you explain",
	"tell me about",
	"what is",
	"what are",
	"how does",
	"how do",
	"explain",
	"describe",
}

// Normalizer canonicalizes question strings. The zero value is not usable;
// construct with New.
type Normalizer struct {
	prefixes []string
}

// New returns a Normalizer with the given strip-prefix table. A nil or
// empty table selects DefaultStripPrefixes.
func New(prefixes []string) *Normalizer {
	if len(prefixes) == 0 {
		prefixes = DefaultStripPrefixes
	}
	sorted := make([]string, len(prefixes))
	for i, p := range prefixes {
		sorted[i] = strings.ToLower(strings.TrimSpace(p))
	}
	// Longest first so "what do you know about" wins over "what".
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return &Normalizer{prefixes: sorted}
}

// Normalize lowercases, trims, collapses whitespace runs, drops trailing
// punctuation, and strips leading opener phrases. The pass is applied until
// a fixpoint so Normalize is idempotent: Normalize(Normalize(q)) ==
// Normalize(q) for every input, including stacked openers.
func (n *Normalizer) Normalize(question string) string {
	s := question
	for {
		next := n.pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func (n *Normalizer) pass(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, "?.!")
	s = strings.TrimSpace(s)

	for _, p := range n.prefixes {
		if s == p {
			return ""
		}
		if strings.HasPrefix(s, p+" ") {
			return s[len(p)+1:]
		}
	}
	return s
}

// Tokens splits a normalized string into its word set.
func Tokens(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
