package isotope

import (
	"sort"
	"strings"
)

// Key identifies an envelope in a Cache
type Key struct {
	Composition string
	Charge      int
	Modifiers   string // sorted, comma separated
	Carrier     string
	Epsilon     float64
	MinTotal    float64
	MinContrib  float64
}

// NewKey creates a cache key. The order of the modifiers doesn't matter.
func NewKey(composition string, charge int, modifiers []string, carrier string,
	epsilon, minTotal, minContribution float64) Key {
	mods := make([]string, len(modifiers))
	copy(mods, modifiers)
	sort.Strings(mods)
	return Key{
		Composition: composition,
		Charge:      charge,
		Modifiers:   strings.Join(mods, ","),
		Carrier:     carrier,
		Epsilon:     epsilon,
		MinTotal:    minTotal,
		MinContrib:  minContribution,
	}
}

// Cache memoizes envelopes. It is not safe for concurrent use.
type Cache struct {
	envelopes map[Key]Envelope
	hits      int
	misses    int
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{envelopes: make(map[Key]Envelope)}
}

// Get returns the envelope for k, calling build when it is not cached
// yet. Errors are not cached.
func (c *Cache) Get(k Key, build func() (Envelope, error)) (Envelope, error) {
	if env, ok := c.envelopes[k]; ok {
		c.hits++
		return env, nil
	}
	c.misses++
	env, err := build()
	if err != nil {
		return nil, err
	}
	c.envelopes[k] = env
	return env, nil
}

// Len returns the number of cached envelopes
func (c *Cache) Len() int {
	return len(c.envelopes)
}

// Stats returns the number of cache hits and misses
func (c *Cache) Stats() (hits, misses int) {
	return c.hits, c.misses
}
