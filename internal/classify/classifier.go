// Package classify decides which filesystem paths are relevant to live
// rebuilding. A path is relevant when it falls inside a registered watch root
// and is not buried under a dependency-exclusion segment; everything else is
// ignored and excluded from real OS-level watching.
package classify

import (
	"path/filepath"
	"strings"
	"sync"
)

// Root is one registered watch root. Roots are registered once at
// construction and are immutable for the lifetime of the classifier.
type Root struct {
	Name string
	Path string
}

// MirrorEvaluator receives every path classified as relevant, so that the
// mirror layer can decide whether the file needs a sync task. Implementations
// must be idempotent: classification may report the same path more than once
// across classifier instances.
type MirrorEvaluator interface {
	Evaluate(localPath, rootName, suffix string)
}

// Classifier memoizes ignored/relevant decisions for paths against a fixed
// root table. The cache is load-bearing for correctness, not just speed: a
// cached hit guarantees the mirror evaluator runs at most once per path.
type Classifier struct {
	roots     []Root
	marker    string
	evaluator MirrorEvaluator

	cache map[string]bool
	mutex sync.Mutex
}

// New creates a classifier over the given root table. The marker is the
// directory-name segment (conventionally "node_modules") that disables
// watching beneath it even inside a root. The evaluator may be nil when no
// mirroring is wanted.
func New(roots []Root, marker string, evaluator MirrorEvaluator) *Classifier {
	return &Classifier{
		roots:     roots,
		marker:    marker,
		evaluator: evaluator,
		cache:     make(map[string]bool),
	}
}

// Classify reports whether path is ignored. Results are cached per resolved
// absolute path and never evicted; the root set is fixed for the process
// lifetime, so entries cannot go stale.
func (c *Classifier) Classify(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		// A path that cannot be resolved cannot be inside any root.
		return true
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if ignored, ok := c.cache[abs]; ok {
		return ignored
	}

	ignored := true
	for _, root := range c.roots {
		suffix, contained := containedSuffix(abs, root.Path)
		if !contained {
			continue
		}

		// First matching root wins.
		if !hasSegment(suffix, c.marker) {
			ignored = false
			if c.evaluator != nil {
				c.evaluator.Evaluate(abs, root.Name, suffix)
			}
		}
		break
	}

	c.cache[abs] = ignored

	return ignored
}

// CacheSize returns the number of memoized classification results.
func (c *Classifier) CacheSize() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.cache)
}

// containedSuffix reports whether path equals root or is nested under it,
// returning the relative suffix (empty for the root itself).
func containedSuffix(path, root string) (string, bool) {
	if path == root {
		return "", true
	}
	prefix := root + string(filepath.Separator)
	if strings.HasPrefix(path, prefix) {
		return path[len(prefix):], true
	}
	return "", false
}

// hasSegment reports whether any path segment of suffix equals marker.
func hasSegment(suffix, marker string) bool {
	if marker == "" || suffix == "" {
		return false
	}
	for _, seg := range strings.Split(suffix, string(filepath.Separator)) {
		if seg == marker {
			return true
		}
	}
	return false
}
