package matcher

import (
	"regexp"

	"github.com/cespare/xxhash/v2"
	"github.com/onboardbase/securelog/internal/types"
)

type entry struct {
	rule string
	re   *regexp.Regexp
	err  error
}

// Cache remembers compiled rules, including the ones that failed, keyed by the
// xxhash of the rule text. A Cache is not safe for concurrent use: it belongs to
// a single worker goroutine and compiled values never leave it.
type Cache struct {
	entries map[uint64]entry
	hits    int
	misses  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]entry)}
}

// Match behaves like the package-level Match but reuses compiled rules.
func (c *Cache) Match(text string, patterns []types.SecretPattern, origin string) []types.Result {
	return match(text, patterns, origin, c.compile)
}

// Len reports how many distinct rules are cached.
func (c *Cache) Len() int { return len(c.entries) }

// Stats reports cache hits and misses since creation.
func (c *Cache) Stats() (hits, misses int) { return c.hits, c.misses }

func (c *Cache) compile(rule string) (*regexp.Regexp, error) {
	key := xxhash.Sum64String(rule)
	if e, ok := c.entries[key]; ok {
		if e.rule == rule {
			c.hits++
			return e.re, e.err
		}
		// hash collision: compile without replacing the resident entry
		c.misses++
		return compileRule(rule)
	}
	c.misses++
	re, err := compileRule(rule)
	c.entries[key] = entry{rule: rule, re: re, err: err}
	return re, err
}
