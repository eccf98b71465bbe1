package normalize

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// Normalization must be a projection: applying it twice never changes the
// result of applying it once.
func TestProperty_NormalizeIdempotent(t *testing.T) {
	n := New(nil)

	rapid.Check(t, func(rt *rapid.T) {
		q := rapid.String().Draw(rt, "question")

		once := n.Normalize(q)
		twice := n.Normalize(once)
		if once != twice {
			rt.Fatalf("not idempotent: %q -> %q -> %q", q, once, twice)
		}
	})
}

func TestProperty_NormalizeOutputShape(t *testing.T) {
	n := New(nil)

	rapid.Check(t, func(rt *rapid.T) {
		q := rapid.String().Draw(rt, "question")
		out := n.Normalize(q)

		if out != strings.TrimSpace(out) {
			rt.Fatalf("output has surrounding whitespace: %q", out)
		}
		if strings.Contains(out, "  ") {
			rt.Fatalf("output has a whitespace run: %q", out)
		}
		if out != strings.ToLower(out) {
			rt.Fatalf("output not lowercased: %q", out)
		}
	})
}
