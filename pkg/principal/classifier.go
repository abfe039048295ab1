// Package principal decides which member of each duplicate set is kept.
//
// Folders are first classified against an ordered list of deprioritization
// patterns. The selector then prefers non-deprioritized folders, earlier input
// folders and shorter file names, and remembers every decision per tie
// scenario so identically distributed sets resolve to the same folder.
package principal

import (
	"regexp"
	"strings"
	"sync"
)

// NoRank is the rank of a folder no pattern matched
const NoRank = -1

// Decision is the priority classification of one folder
type Decision struct {
	Deprioritized bool
	// Rank is the index of the last matching pattern, NoRank when none matched
	Rank int
}

// Classifier matches folders against precompiled deprioritization patterns
type Classifier struct {
	patterns []*regexp.Regexp
	source   []string

	mu    sync.RWMutex
	cache map[string]Decision
}

// NewClassifier compiles patterns once; their order defines the rank
func NewClassifier(patterns []string) (*Classifier, error) {
	c := &Classifier{
		source: append([]string(nil), patterns...),
		cache:  make(map[string]Decision),
	}
	for _, p := range patterns {
		re, err := compileGlob(strings.ToLower(p))
		if err != nil {
			return nil, err
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

// Patterns returns the configured patterns in rank order
func (c *Classifier) Patterns() []string {
	return c.source
}

// Classify returns the memoized decision for folder.
// When several patterns match, the one listed last sets the rank.
func (c *Classifier) Classify(folder string) Decision {
	key := strings.ToLower(folder)

	c.mu.RLock()
	d, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return d
	}

	d = Decision{Rank: NoRank}
	for i, re := range c.patterns {
		if re.MatchString(key) {
			d.Deprioritized = true
			d.Rank = i
		}
	}

	c.mu.Lock()
	c.cache[key] = d
	c.mu.Unlock()
	return d
}
