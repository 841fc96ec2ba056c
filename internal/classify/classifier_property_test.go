//go:build property

package classify

import (
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestClassifierProperties validates classification invariants over randomly
// generated path shapes.
func TestClassifierProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	segment := gen.RegexMatch(`[a-z][a-z0-9]{0,8}`)

	// Property: classification is stable under repetition
	properties.Property("repeated classification returns the first result", prop.ForAll(
		func(segments []string) bool {
			eval := newRecordingEvaluator()
			c := New([]Root{{Name: "a", Path: "/src/a"}}, "node_modules", eval)

			path := filepath.Join(append([]string{"/src/a"}, segments...)...)
			first := c.Classify(path)
			for i := 0; i < 10; i++ {
				if c.Classify(path) != first {
					return false
				}
			}
			return true
		},
		gen.SliceOf(segment),
	))

	// Property: paths outside every root are always ignored
	properties.Property("paths outside all roots are ignored", prop.ForAll(
		func(segments []string) bool {
			eval := newRecordingEvaluator()
			c := New([]Root{{Name: "a", Path: "/src/a"}}, "node_modules", eval)

			path := filepath.Join(append([]string{"/elsewhere"}, segments...)...)
			return c.Classify(path) && eval.callCount(path) == 0
		},
		gen.SliceOf(segment),
	))

	// Property: the evaluator runs at most once per path regardless of call count
	properties.Property("evaluator is idempotent per path", prop.ForAll(
		func(segments []string, calls int) bool {
			if calls < 1 || calls > 200 {
				return true
			}

			eval := newRecordingEvaluator()
			c := New([]Root{{Name: "a", Path: "/src/a"}}, "node_modules", eval)

			path := filepath.Join(append([]string{"/src/a"}, segments...)...)
			for i := 0; i < calls; i++ {
				c.Classify(path)
			}
			return eval.callCount(path) <= 1
		},
		gen.SliceOf(segment),
		gen.IntRange(1, 200),
	))

	// Property: any path containing the marker segment under a root is ignored
	properties.Property("marker segment forces ignored", prop.ForAll(
		func(before, after []string) bool {
			eval := newRecordingEvaluator()
			c := New([]Root{{Name: "a", Path: "/src/a"}}, "node_modules", eval)

			parts := append([]string{"/src/a"}, before...)
			parts = append(parts, "node_modules")
			parts = append(parts, after...)
			path := filepath.Join(parts...)

			return c.Classify(path) && eval.callCount(path) == 0
		},
		gen.SliceOf(segment),
		gen.SliceOf(segment),
	))

	properties.TestingRun(t)
}
