package ast

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/synlang/astkit/compiler"
)

// Factory is the wrapper cache: a bijection between live compiler.Node
// values and the *Node wrappers the rest of the engine hands out. It is
// backed by an order-preserving map (gods' linkedhashmap) rather than a
// bare Go map so that any iteration over the cache sees wrappers in the
// order they were first resolved. Nothing in the package iterates it
// today: disposal walks the tree through GetChildren, not the cache.
type Factory struct {
	container *GlobalContainer
	nodes     *linkedhashmap.Map // compiler.Node -> *Node
}

func newFactory(gc *GlobalContainer) *Factory {
	return &Factory{
		container: gc,
		nodes:     linkedhashmap.New(),
	}
}

// GetNodeFromCompilerNode returns the unique wrapper for cn, creating one
// on first lookup. cn must come from sf's current tree.
func (f *Factory) GetNodeFromCompilerNode(cn compiler.Node, sf *SourceFile) *Node {
	if cn == nil {
		return nil
	}
	if existing, found := f.nodes.Get(cn); found {
		return existing.(*Node)
	}

	n := &Node{
		compilerNode: cn,
		sourceFile:   sf,
		container:    f.container,
	}
	f.nodes.Put(cn, n)
	return n
}

// lookup returns the cached wrapper for cn without creating one.
func (f *Factory) lookup(cn compiler.Node) (*Node, bool) {
	if cn == nil {
		return nil, false
	}
	v, found := f.nodes.Get(cn)
	if !found {
		return nil, false
	}
	return v.(*Node), true
}

// removeNodeFromCache deletes w's cache entry. A no-op if w (or its
// compiler node) is already absent.
func (f *Factory) removeNodeFromCache(w *Node) {
	if w == nil || w.compilerNode == nil {
		return
	}
	f.nodes.Remove(w.compilerNode)
}

// replaceCompilerNode atomically rebinds w from its current compiler node
// to cnNew: the old cache entry is removed, w's internal pointer is
// updated, and a new entry is inserted — preserving w's identity across a
// reparse. It fails with InvalidOperation if cnNew is already mapped to a
// different wrapper, which indicates a reconciler bug rather than anything
// a caller can recover from.
func (f *Factory) replaceCompilerNode(w *Node, cnNew compiler.Node) error {
	if w.compilerNode == nil {
		return newInvalidOperation("replaceCompilerNode: wrapper is already disposed")
	}
	if existing, exists := f.nodes.Get(w.compilerNode); !exists || existing.(*Node) != w {
		return newInvalidOperation("replaceCompilerNode: wrapper's current key is not present in the cache")
	}
	if existing, exists := f.nodes.Get(cnNew); exists && existing.(*Node) != w {
		return newInvalidOperation("replaceCompilerNode: target key is already bound to a different wrapper")
	}

	f.nodes.Remove(w.compilerNode)
	w.compilerNode = cnNew
	f.nodes.Put(cnNew, w)
	return nil
}
