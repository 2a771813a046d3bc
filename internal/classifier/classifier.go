// Package classifier decides whether a log line is known noise.
package classifier

import "github.com/hmkim/logsift/internal/catalog"

// Classifier tests lines against one module's compiled pattern set.
//
// A line is noise when any pattern matches anywhere in it: unanchored
// containment, single-line, case-sensitive. An empty pattern set never
// matches, so every line passes through as novel.
type Classifier struct {
	set *catalog.ModuleSet
}

// New creates a Classifier over the given pattern set.
func New(set *catalog.ModuleSet) *Classifier {
	return &Classifier{set: set}
}

// Match returns the source text of the first pattern found in line.
// Evaluation short-circuits on the first hit, but the noise decision is a
// pure OR and does not depend on pattern order.
func (c *Classifier) Match(line string) (string, bool) {
	for _, p := range c.set.Patterns {
		if p.Regexp.MatchString(line) {
			return p.Source, true
		}
	}
	return "", false
}

// IsNoise reports whether line matches any pattern in the set.
func (c *Classifier) IsNoise(line string) bool {
	_, ok := c.Match(line)
	return ok
}
