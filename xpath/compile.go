// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import "sync"

// compileCache memoises Parse results keyed by expression text and the
// namespace context that text was compiled under — the same "must"
// expression text written on two different statements can resolve its
// prefixes to different modules, so the cache key has to include the
// context's identity, not just the source string (spec section 4.C:
// "XPath-compile caching keyed on (string, namespace context)").
type compileCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

type cacheKey struct {
	expr string
	ns   NamespaceContext
}

type cacheEntry struct {
	expr *Expr
	err  error
}

// NewCompileCache returns an empty cache ready for concurrent use by
// multiple sessions (spec section "Concurrency & Resource Model": the
// cache is the one piece of component C state shared across sessions,
// everything else is evaluated against a caller-supplied Context).
func NewCompileCache() *compileCache {
	return &compileCache{entries: make(map[cacheKey]*cacheEntry)}
}

// Compile parses expr under ns, returning a cached result when this
// exact (expr, ns) pair has been compiled before.
func (c *compileCache) Compile(expr string, ns NamespaceContext) (*Expr, error) {
	key := cacheKey{expr: expr, ns: ns}
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.expr, e.err
	}
	c.mu.Unlock()

	parsed, err := Parse(expr, ns)

	c.mu.Lock()
	c.entries[key] = &cacheEntry{expr: parsed, err: err}
	c.mu.Unlock()

	return parsed, err
}
