package ast

import (
	"iter"

	"github.com/synlang/astkit/compiler"
)

// Node is the stable wrapper handle: a possibly-disposed reference to a
// compiler.Node, plus the SourceFile and GlobalContainer it belongs to.
// Every navigation method below resolves through the container's Factory,
// so two calls that reach the same underlying compiler.Node always return
// the identical *Node.
type Node struct {
	compilerNode compiler.Node // nil once disposed
	sourceFile   *SourceFile
	container    *GlobalContainer
}

// CompilerNode returns the wrapped compiler.Node, or InvalidOperation if
// this wrapper has been disposed.
func (n *Node) CompilerNode() (compiler.Node, error) {
	if n.compilerNode == nil {
		return nil, newInvalidOperation("attempted to access a disposed wrapper's compiler node")
	}
	return n.compilerNode, nil
}

// IsDisposed reports whether Dispose has already run on this wrapper.
// On a disposed wrapper, identity comparison (Equal), IsDisposed, Kind
// (which reports Unknown), SourceFile, Container and Dispose (a no-op)
// still work and the iterators yield nothing; every other method fails
// with InvalidOperation.
func (n *Node) IsDisposed() bool { return n.compilerNode == nil }

// SourceFile returns the source file this node belongs to.
func (n *Node) SourceFile() *SourceFile { return n.sourceFile }

// Container returns the GlobalContainer this node was resolved through.
func (n *Node) Container() *GlobalContainer { return n.container }

// Kind returns Unknown rather than erroring on a disposed node: Kind is
// cheap metadata callers often want to log right after a dispose-related
// failure.
func (n *Node) Kind() compiler.SyntaxKind {
	if n.compilerNode == nil {
		return compiler.KindUnknown
	}
	return n.compilerNode.Kind()
}

// Equal compares wrapper identity, which is equivalent to comparing the
// underlying compiler nodes while both are live.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.compilerNode == nil || other.compilerNode == nil {
		return false
	}
	return n.compilerNode.Equal(other.compilerNode)
}

// ---- positional queries ----

// GetPos returns the node's start including leading trivia.
func (n *Node) GetPos() (int, error) {
	cn, err := n.CompilerNode()
	if err != nil {
		return 0, err
	}
	return cn.Pos(), nil
}

// GetEnd returns the node's end offset.
func (n *Node) GetEnd() (int, error) {
	cn, err := n.CompilerNode()
	if err != nil {
		return 0, err
	}
	return cn.End(), nil
}

// GetStart returns the node's start excluding leading trivia: the first
// non-whitespace byte at or after Pos().
func (n *Node) GetStart() (int, error) {
	pos, err := n.GetPos()
	if err != nil {
		return 0, err
	}
	return getNextNonWhitespacePos(n.sourceFile.fullText, pos), nil
}

// GetWidth returns End()-Start(): the width excluding leading trivia.
func (n *Node) GetWidth() (int, error) {
	start, err := n.GetStart()
	if err != nil {
		return 0, err
	}
	end, err := n.GetEnd()
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// GetFullWidth returns End()-Pos(): the width including leading trivia.
func (n *Node) GetFullWidth() (int, error) {
	pos, err := n.GetPos()
	if err != nil {
		return 0, err
	}
	end, err := n.GetEnd()
	if err != nil {
		return 0, err
	}
	return end - pos, nil
}

// ContainsRange reports whether [pos, end) falls entirely within this
// node's full range.
func (n *Node) ContainsRange(pos, end int) (bool, error) {
	p, err := n.GetPos()
	if err != nil {
		return false, err
	}
	e, err := n.GetEnd()
	if err != nil {
		return false, err
	}
	return p <= pos && end <= e, nil
}

// GetText returns the node's source text excluding leading trivia.
func (n *Node) GetText() (string, error) {
	start, err := n.GetStart()
	if err != nil {
		return "", err
	}
	end, err := n.GetEnd()
	if err != nil {
		return "", err
	}
	return n.sourceFile.fullText[start:end], nil
}

// GetFullText returns the node's source text including leading trivia.
func (n *Node) GetFullText() (string, error) {
	pos, err := n.GetPos()
	if err != nil {
		return "", err
	}
	end, err := n.GetEnd()
	if err != nil {
		return "", err
	}
	return n.sourceFile.fullText[pos:end], nil
}

// GetIndentationText walks backward from Start() collecting contiguous
// space/tab characters.
func (n *Node) GetIndentationText() (string, error) {
	start, err := n.GetStart()
	if err != nil {
		return "", err
	}
	return getIndentationText(n.sourceFile.fullText, start), nil
}

// GetChildIndentationText returns the indentation text a new direct child
// of n should be inserted with: n's own indentation plus one level of
// container.Settings.IndentationText.
func (n *Node) GetChildIndentationText() (string, error) {
	own, err := n.GetIndentationText()
	if err != nil {
		return "", err
	}
	return own + n.container.Settings.GetChildIndentationText(), nil
}

// IsFirstNodeOnLine reports whether only whitespace precedes Start() on
// its line.
func (n *Node) IsFirstNodeOnLine() (bool, error) {
	start, err := n.GetStart()
	if err != nil {
		return false, err
	}
	return isFirstNodeOnLine(n.sourceFile.fullText, start), nil
}

// ---- structural navigation ----

// GetParent wraps the compiler node's parent, or returns (nil, nil) at the
// root (no error — absence of a parent is a valid structural answer).
func (n *Node) GetParent() (*Node, error) {
	cn, err := n.CompilerNode()
	if err != nil {
		return nil, err
	}
	parent := cn.Parent()
	if parent == nil {
		return nil, nil
	}
	return n.container.Factory.GetNodeFromCompilerNode(parent, n.sourceFile), nil
}

// GetParentOrThrow panics with InvalidOperation if there is no parent
// (called on the root) or the wrapper is disposed.
func (n *Node) GetParentOrThrow() *Node {
	p, err := n.GetParent()
	if err != nil {
		panic(err)
	}
	if p == nil {
		panic(newInvalidOperation("node has no parent (it is the source file root)"))
	}
	return p
}

// GetChildren materializes this node's direct children in source order.
func (n *Node) GetChildren() ([]*Node, error) {
	cn, err := n.CompilerNode()
	if err != nil {
		return nil, err
	}
	kids := cn.Children()
	out := make([]*Node, 0, len(kids))
	for _, k := range kids {
		out = append(out, n.container.Factory.GetNodeFromCompilerNode(k, n.sourceFile))
	}
	return out, nil
}

// GetChildrenIterator is the lazy counterpart to GetChildren: it visits
// children in source order exactly once, stopping early if the consumer's
// yield returns false.
func (n *Node) GetChildrenIterator() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		children, err := n.GetChildren()
		if err != nil {
			return
		}
		for _, c := range children {
			if !yield(c) {
				return
			}
		}
	}
}

// GetAncestors walks from this node's parent up to (and including) the
// source file root.
func (n *Node) GetAncestors() ([]*Node, error) {
	var out []*Node
	cur, err := n.GetParent()
	if err != nil {
		return nil, err
	}
	for cur != nil {
		out = append(out, cur)
		cur, err = cur.GetParent()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetDescendants returns every node under this one in preorder: equivalent
// to recursively traversing GetChildren.
func (n *Node) GetDescendants() ([]*Node, error) {
	if _, err := n.CompilerNode(); err != nil {
		return nil, err
	}
	var out []*Node
	for d := range n.GetDescendantsIterator() {
		out = append(out, d)
	}
	return out, nil
}

// GetDescendantsIterator is the lazy, preorder counterpart to
// GetDescendants.
func (n *Node) GetDescendantsIterator() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(*Node) bool
		walk = func(cur *Node) bool {
			children, err := cur.GetChildren()
			if err != nil {
				return true
			}
			for _, c := range children {
				if !yield(c) {
					return false
				}
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(n)
	}
}

// GetParentSyntaxList returns the parent's direct child of kind SyntaxList
// whose [pos, end) range contains this node, or nil if the parent has no
// such child (e.g. this node's parent groups children directly, with no
// intervening list).
func (n *Node) GetParentSyntaxList() (*Node, error) {
	parent, err := n.GetParent()
	if err != nil || parent == nil {
		return nil, err
	}
	pos, err := n.GetPos()
	if err != nil {
		return nil, err
	}
	end, err := n.GetEnd()
	if err != nil {
		return nil, err
	}
	siblings, err := parent.GetChildren()
	if err != nil {
		return nil, err
	}
	for _, s := range siblings {
		if s.Kind() != compiler.KindSyntaxList {
			continue
		}
		sp, _ := s.GetPos()
		se, _ := s.GetEnd()
		if sp <= pos && end <= se {
			return s, nil
		}
	}
	return nil, nil
}

// GetChildSyntaxList returns the first direct child of kind SyntaxList:
// the canonical insertion point for a body-bearing node, since
// variable-length child sequences are where edits land.
func (n *Node) GetChildSyntaxList() (*Node, error) {
	children, err := n.GetChildren()
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.Kind() == compiler.KindSyntaxList {
			return c, nil
		}
	}
	return nil, nil
}

// siblingSet returns the sequence this node participates in: its parent
// SyntaxList's children if one wraps it, else its direct parent's children.
func (n *Node) siblingSet() ([]*Node, error) {
	list, err := n.GetParentSyntaxList()
	if err != nil {
		return nil, err
	}
	if list != nil {
		return list.GetChildren()
	}
	parent, err := n.GetParent()
	if err != nil || parent == nil {
		return nil, err
	}
	return parent.GetChildren()
}

func indexOfNode(nodes []*Node, target *Node) int {
	for i, c := range nodes {
		if c.Equal(target) {
			return i
		}
	}
	return -1
}

// GetPreviousSiblings returns siblings before this node, closest-first.
func (n *Node) GetPreviousSiblings() ([]*Node, error) {
	siblings, err := n.siblingSet()
	if err != nil {
		return nil, err
	}
	idx := indexOfNode(siblings, n)
	if idx <= 0 {
		return nil, nil
	}
	out := make([]*Node, idx)
	for i := 0; i < idx; i++ {
		out[i] = siblings[idx-1-i]
	}
	return out, nil
}

// GetNextSiblings returns siblings after this node, in source order.
func (n *Node) GetNextSiblings() ([]*Node, error) {
	siblings, err := n.siblingSet()
	if err != nil {
		return nil, err
	}
	idx := indexOfNode(siblings, n)
	if idx == -1 || idx == len(siblings)-1 {
		return nil, nil
	}
	out := make([]*Node, len(siblings)-idx-1)
	copy(out, siblings[idx+1:])
	return out, nil
}

// GetPreviousSibling returns the nearest preceding sibling, or nil.
func (n *Node) GetPreviousSibling() (*Node, error) {
	prev, err := n.GetPreviousSiblings()
	if err != nil || len(prev) == 0 {
		return nil, err
	}
	return prev[0], nil
}

// GetNextSibling returns the nearest following sibling, or nil.
func (n *Node) GetNextSibling() (*Node, error) {
	next, err := n.GetNextSiblings()
	if err != nil || len(next) == 0 {
		return nil, err
	}
	return next[0], nil
}

// ---- positional descent ----

// GetChildAtPos returns the unique direct child c with
// c.GetPos() <= pos < c.GetEnd(), or nil if none matches.
func (n *Node) GetChildAtPos(pos int) (*Node, error) {
	children, err := n.GetChildren()
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		cp, err := c.GetPos()
		if err != nil {
			return nil, err
		}
		ce, err := c.GetEnd()
		if err != nil {
			return nil, err
		}
		if cp <= pos && pos < ce {
			return c, nil
		}
	}
	return nil, nil
}

// GetDescendantAtPos iterates GetChildAtPos from this node until it comes
// up empty, returning the deepest match.
func (n *Node) GetDescendantAtPos(pos int) (*Node, error) {
	cur := n
	for {
		next, err := cur.GetChildAtPos(pos)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return cur, nil
		}
		cur = next
	}
}

// GetDescendantAtStartWithWidth descends toward start by child containment,
// recording the deepest node visited whose own (Start, Width) equals
// (start, width). It stops descending once a node visited after the last
// match no longer matches, and returns that deepest match (nil if none of
// the nodes on the path ever matched).
func (n *Node) GetDescendantAtStartWithWidth(start, width int) (*Node, error) {
	var best *Node
	cur := n
	for {
		s, err := cur.GetStart()
		if err != nil {
			return nil, err
		}
		w, err := cur.GetWidth()
		if err != nil {
			return nil, err
		}
		if s == start && w == width {
			best = cur
		} else if best != nil {
			break
		}

		child, err := cur.GetChildAtPos(start)
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		cur = child
	}
	return best, nil
}

// ---- kind-filtered convenience shapes ----
//
// ByKind variants match anywhere among the candidates; IfKind variants
// match only if the immediate candidate (first child, last child, parent,
// nearest sibling) already has that kind. Descendants have a ByKind
// variant only, with no IfKind counterpart. OrThrow counterparts, which
// panic with a typed InvalidOperation naming the expected kind, exist for
// GetFirstChildByKind, GetFirstAncestorByKind and GetFirstDescendantByKind
// only; the other variants have none.

// GetFirstChildByKind returns the first direct child of kind k, or nil.
func (n *Node) GetFirstChildByKind(k compiler.SyntaxKind) (*Node, error) {
	children, err := n.GetChildren()
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.Kind() == k {
			return c, nil
		}
	}
	return nil, nil
}

// GetFirstChildByKindOrThrow panics if no direct child has kind k.
func (n *Node) GetFirstChildByKindOrThrow(k compiler.SyntaxKind) *Node {
	c, err := n.GetFirstChildByKind(k)
	if err != nil {
		panic(err)
	}
	if c == nil {
		panic(newInvalidOperation("expected a child of kind %s", k))
	}
	return c
}

// GetFirstChildIfKind returns the first direct child only if it already
// has kind k.
func (n *Node) GetFirstChildIfKind(k compiler.SyntaxKind) (*Node, error) {
	children, err := n.GetChildren()
	if err != nil {
		return nil, err
	}
	if len(children) == 0 || children[0].Kind() != k {
		return nil, nil
	}
	return children[0], nil
}

// GetLastChildByKind returns the last direct child of kind k, or nil.
func (n *Node) GetLastChildByKind(k compiler.SyntaxKind) (*Node, error) {
	children, err := n.GetChildren()
	if err != nil {
		return nil, err
	}
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Kind() == k {
			return children[i], nil
		}
	}
	return nil, nil
}

// GetLastChildIfKind returns the last direct child only if it already has
// kind k.
func (n *Node) GetLastChildIfKind(k compiler.SyntaxKind) (*Node, error) {
	children, err := n.GetChildren()
	if err != nil {
		return nil, err
	}
	if len(children) == 0 || children[len(children)-1].Kind() != k {
		return nil, nil
	}
	return children[len(children)-1], nil
}

// GetFirstAncestorByKind returns the nearest ancestor of kind k, or nil.
func (n *Node) GetFirstAncestorByKind(k compiler.SyntaxKind) (*Node, error) {
	ancestors, err := n.GetAncestors()
	if err != nil {
		return nil, err
	}
	for _, a := range ancestors {
		if a.Kind() == k {
			return a, nil
		}
	}
	return nil, nil
}

// GetFirstAncestorByKindOrThrow panics if no ancestor has kind k.
func (n *Node) GetFirstAncestorByKindOrThrow(k compiler.SyntaxKind) *Node {
	a, err := n.GetFirstAncestorByKind(k)
	if err != nil {
		panic(err)
	}
	if a == nil {
		panic(newInvalidOperation("expected an ancestor of kind %s", k))
	}
	return a
}

// GetFirstAncestorIfKind returns the direct parent only if it already has
// kind k.
func (n *Node) GetFirstAncestorIfKind(k compiler.SyntaxKind) (*Node, error) {
	parent, err := n.GetParent()
	if err != nil || parent == nil || parent.Kind() != k {
		return nil, err
	}
	return parent, nil
}

// GetFirstDescendantByKind returns the first node in preorder with kind k.
func (n *Node) GetFirstDescendantByKind(k compiler.SyntaxKind) (*Node, error) {
	if _, err := n.CompilerNode(); err != nil {
		return nil, err
	}
	for d := range n.GetDescendantsIterator() {
		if d.Kind() == k {
			return d, nil
		}
	}
	return nil, nil
}

// GetFirstDescendantByKindOrThrow panics if no descendant has kind k.
func (n *Node) GetFirstDescendantByKindOrThrow(k compiler.SyntaxKind) *Node {
	d, err := n.GetFirstDescendantByKind(k)
	if err != nil {
		panic(err)
	}
	if d == nil {
		panic(newInvalidOperation("expected a descendant of kind %s", k))
	}
	return d
}

// GetPreviousSiblingByKind returns the nearest preceding sibling of kind k.
func (n *Node) GetPreviousSiblingByKind(k compiler.SyntaxKind) (*Node, error) {
	siblings, err := n.GetPreviousSiblings()
	if err != nil {
		return nil, err
	}
	for _, s := range siblings {
		if s.Kind() == k {
			return s, nil
		}
	}
	return nil, nil
}

// GetPreviousSiblingIfKind returns the nearest preceding sibling only if it
// already has kind k.
func (n *Node) GetPreviousSiblingIfKind(k compiler.SyntaxKind) (*Node, error) {
	s, err := n.GetPreviousSibling()
	if err != nil || s == nil || s.Kind() != k {
		return nil, err
	}
	return s, nil
}

// GetNextSiblingByKind returns the nearest following sibling of kind k.
func (n *Node) GetNextSiblingByKind(k compiler.SyntaxKind) (*Node, error) {
	siblings, err := n.GetNextSiblings()
	if err != nil {
		return nil, err
	}
	for _, s := range siblings {
		if s.Kind() == k {
			return s, nil
		}
	}
	return nil, nil
}

// GetNextSiblingIfKind returns the nearest following sibling only if it
// already has kind k.
func (n *Node) GetNextSiblingIfKind(k compiler.SyntaxKind) (*Node, error) {
	s, err := n.GetNextSibling()
	if err != nil || s == nil || s.Kind() != k {
		return nil, err
	}
	return s, nil
}

// ---- disposal protocol ----

// Dispose recursively disposes every wrapped descendant, then this
// wrapper: after Dispose returns, every wrapper in the subtree has a nil
// compiler node and no cache entry.
func (n *Node) Dispose() {
	if n.IsDisposed() {
		return
	}
	children, err := n.GetChildren()
	if err == nil {
		for _, c := range children {
			c.Dispose()
		}
	}
	n.disposeOnlyThis()
}

// disposeOnlyThis removes this wrapper from the cache and nulls its
// compiler node, without recursing into children.
func (n *Node) disposeOnlyThis() {
	if n.IsDisposed() {
		return
	}
	n.container.Factory.removeNodeFromCache(n)
	n.compilerNode = nil
}

// GetSymbol resolves this identifier to the SymbolWrapper over the compiler
// node that declared it (or, if this identifier is itself a declaration's
// own name, over itself), within the enclosing source file's lexical
// symbol table. It returns nil with no error if this identifier does not
// resolve to any declaration in this file — a reference to a built-in or a
// name this file never declares.
func (n *Node) GetSymbol() (*SymbolWrapper, error) {
	cn, err := n.CompilerNode()
	if err != nil {
		return nil, err
	}
	if cn.Kind() != compiler.KindIdentifier {
		return nil, newInvalidOperation("GetSymbol: node is not an identifier (%s)", cn.Kind())
	}

	table := n.sourceFile.symbolTableFor()
	decl, ok := table.references[cn]
	if !ok {
		return nil, nil
	}
	return n.container.Symbols.GetSymbol(decl), nil
}
