// Package match compiles the name filters used to list functions, such as
// the pattern given to the REPL's :funcs command. Patterns are regular
// expressions matched anywhere in a name; the empty pattern matches
// everything.
package match

import (
	"sync"

	"github.com/coregx/coregex"
)

// Filter is a compiled name pattern.
type Filter struct {
	pattern string
	re      *coregex.Regexp // nil matches everything
}

// Compile returns a filter for pattern.
func Compile(pattern string) (*Filter, error) {
	if pattern == "" {
		return &Filter{}, nil
	}
	re, err := coregex.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Filter{pattern: pattern, re: re}, nil
}

// Pattern returns the source pattern.
func (f *Filter) Pattern() string {
	return f.pattern
}

// Match reports whether name passes the filter.
func (f *Filter) Match(name string) bool {
	return f.re == nil || f.re.MatchString(name)
}

// Select returns the names that pass the filter, in order.
func (f *Filter) Select(names []string) []string {
	var out []string
	for _, name := range names {
		if f.Match(name) {
			out = append(out, name)
		}
	}
	return out
}

// Cache keeps compiled filters with FIFO eviction. It is safe for
// concurrent use.
type Cache struct {
	cache   sync.Map // map[string]*Filter
	orderMu sync.Mutex
	order   []string
	maxSize int
}

// NewCache returns a cache holding at most maxSize filters (default 32).
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 32
	}
	return &Cache{maxSize: maxSize}
}

// Get returns the filter for pattern, compiling it on a miss.
func (c *Cache) Get(pattern string) (*Filter, error) {
	if f, ok := c.cache.Load(pattern); ok {
		return f.(*Filter), nil
	}
	f, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	if existing, loaded := c.cache.LoadOrStore(pattern, f); loaded {
		return existing.(*Filter), nil
	}

	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	c.order = append(c.order, pattern)
	for len(c.order) > c.maxSize {
		c.cache.Delete(c.order[0])
		c.order = c.order[1:]
	}
	return f, nil
}

// Len returns the number of cached filters.
func (c *Cache) Len() int {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	return len(c.order)
}
