// Package compiler defines the seam between astkit's tree manipulation
// engine and an external, opaque compiler frontend. astkit treats the
// frontend as a service: it parses text into a Node tree and reparses
// edited text into a new one; it never inspects how that tree was produced.
package compiler

import "context"

// Node is a single immutable node produced by a compiler frontend. Nodes
// from two separate parses of the same text are distinct values (Equal
// reports false between them), which is exactly why ast.Factory exists:
// after a reparse the reconciler pairs old and new nodes by position and
// moves each surviving wrapper onto its new node, so callers keep a stable
// wrapper across reparses.
type Node interface {
	Kind() SyntaxKind
	Pos() int
	End() int
	Children() []Node
	Parent() Node
	Equal(other Node) bool
}

// Frontend parses and reparses source text into Node trees. Parse always
// builds from scratch; Reparse is given the previous tree so an
// incremental frontend can reuse unaffected subtrees, but callers must not
// assume any particular reuse behavior — only that the resulting tree is
// structurally consistent with the new text.
type Frontend interface {
	Parse(ctx context.Context, path string, text []byte) (Node, error)
	Reparse(ctx context.Context, path string, text []byte, old Node) (Node, error)
}
