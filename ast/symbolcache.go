package ast

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Symbol is the opaque compiler symbol a SymbolWrapper resolves against.
// Like compiler.Node, astkit never inspects it — only compares identity
// and hands it back to the frontend for alias/type queries a higher layer
// might add.
type Symbol any

// SymbolWrapper is the cache entry's payload: a stable handle over a
// compiler symbol, analogous to *Node but for symbols rather than nodes.
type SymbolWrapper struct {
	symbol    Symbol
	container *GlobalContainer
	disposed  bool
}

// Symbol returns the wrapped compiler symbol, or nil if disposed.
func (s *SymbolWrapper) Symbol() Symbol {
	if s.disposed {
		return nil
	}
	return s.symbol
}

func (s *SymbolWrapper) disposeOnlyThis() { s.disposed = true }

// AliasedSymbol returns the symbol s ultimately names, following through an
// import-rename declaration. This grammar has no such construct (no
// `import { x as y }`-shaped declaration kind in compiler.SyntaxKind's
// closed set), so there is never an alias indirection to follow: this
// always returns s itself. A grammar that did model import aliasing would
// resolve through that declaration's original-name child instead.
func (s *SymbolWrapper) AliasedSymbol() *SymbolWrapper { return s }

// SymbolCache maps compiler symbol identity to SymbolWrapper with the same
// uniqueness invariant as the node Factory. It is bounded by an LRU that
// disposes the evicted wrapper in its eviction callback, so a long-lived
// GlobalContainer never accumulates symbol wrappers for source files that
// have long since been closed.
type SymbolCache struct {
	container *GlobalContainer
	lru       *lru.Cache[Symbol, *SymbolWrapper]
}

func newSymbolCache(capacity int, gc *GlobalContainer) *SymbolCache {
	sc := &SymbolCache{container: gc}
	cache, err := lru.NewWithEvict(capacity, func(_ Symbol, w *SymbolWrapper) {
		w.disposeOnlyThis()
	})
	if err != nil {
		// Only possible for a non-positive capacity, which newSymbolCache
		// never passes.
		panic(err)
	}
	sc.lru = cache
	return sc
}

// GetSymbol returns the unique SymbolWrapper for cs, creating one on miss
// and touching its recency so it survives the LRU's eviction pressure.
func (c *SymbolCache) GetSymbol(cs Symbol) *SymbolWrapper {
	if cs == nil {
		return nil
	}
	if w, ok := c.lru.Get(cs); ok {
		return w
	}
	w := &SymbolWrapper{symbol: cs, container: c.container}
	c.lru.Add(cs, w)
	return w
}

// Len reports how many symbols are currently cached, for tests asserting
// eviction behavior.
func (c *SymbolCache) Len() int { return c.lru.Len() }
