package langts

import (
	"context"

	"github.com/pkg/errors"

	"github.com/synlang/astkit/compiler"
	"github.com/synlang/astkit/cstree"
)

// Frontend parses and reparses TypeScript source text using the
// tree-sitter grammar registered by this package's init. It is the
// concrete TypeScript realization of compiler.Frontend; callers pass it to
// project.New or ast.NewGlobalContainer.
type Frontend struct{}

// NewFrontend returns a ready-to-use Frontend. There is no state to own:
// each call builds its own cstree.Parser and closes it when done.
func NewFrontend() *Frontend { return &Frontend{} }

var _ compiler.Frontend = (*Frontend)(nil)

// Parse builds a fresh tree from text, with no prior tree to reuse against.
func (f *Frontend) Parse(ctx context.Context, path string, text []byte) (compiler.Node, error) {
	return f.parse(ctx, text, nil)
}

// Reparse re-runs the grammar against the edited text. When old is a *Node
// produced by this frontend, its underlying cstree.Tree is primed with
// Tree.Edit (tree-sitter's incremental-reparse contract: the old tree's
// byte/point bookkeeping must be shifted to match the new text before it is
// handed back to the parser, or reused subtrees keep stale offsets) and then
// passed back to the parser so tree-sitter can reuse unaffected subtrees;
// any other compiler.Node implementation is rejected, since astkit never
// mixes frontends within one source file.
func (f *Frontend) Reparse(ctx context.Context, path string, text []byte, old compiler.Node) (compiler.Node, error) {
	var oldTree *cstree.Tree
	if old != nil {
		oldNode, ok := old.(*Node)
		if !ok {
			return nil, errors.Errorf("langts: Reparse given a compiler.Node not produced by this frontend (%T)", old)
		}
		oldTree = oldNode.tw.tree
		oldTree.Edit(editInputFor(oldNode.tw.source, text))
	}
	return f.parse(ctx, text, oldTree)
}

// editInputFor computes the tree-sitter EditInput describing how oldText
// became newText, by locating the shared prefix/suffix around the changed
// span. It doesn't need the exact edit astkit's planner made — tree-sitter
// only uses this to invalidate byte ranges ahead of the incremental parse,
// and any edit description that identifies the same changed span produces
// the same invalidation.
func editInputFor(oldText, newText []byte) cstree.EditInput {
	prefix := commonPrefixLen(oldText, newText)
	suffix := commonSuffixLen(oldText[prefix:], newText[prefix:])

	startIndex := prefix
	oldEndIndex := len(oldText) - suffix
	newEndIndex := len(newText) - suffix
	if oldEndIndex < startIndex {
		oldEndIndex = startIndex
	}
	if newEndIndex < startIndex {
		newEndIndex = startIndex
	}

	return cstree.EditInput{
		StartIndex:  startIndex,
		OldEndIndex: oldEndIndex,
		NewEndIndex: newEndIndex,
		StartPoint:  pointAt(oldText, startIndex),
		OldEndPoint: pointAt(oldText, oldEndIndex),
		NewEndPoint: pointAt(newText, newEndIndex),
	}
}

func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

// pointAt computes the row/column tree-sitter expects for a byte offset
// into text: row is the number of newlines before index, column is the
// byte distance back to the last one (or to the start of text).
func pointAt(text []byte, index int) cstree.Point {
	row, lineStart := 0, 0
	for i := 0; i < index && i < len(text); i++ {
		if text[i] == '\n' {
			row++
			lineStart = i + 1
		}
	}
	return cstree.Point{Row: row, Column: index - lineStart}
}

func (f *Frontend) parse(ctx context.Context, text []byte, oldTree *cstree.Tree) (compiler.Node, error) {
	p := cstree.NewParser("typescript")
	defer p.Close()

	tree, err := p.Parse(ctx, oldTree, text)
	if err != nil {
		return nil, errors.Wrap(err, "langts: parse failed")
	}

	tw := &treeWrapper{
		tree:           tree,
		source:         text,
		nodes:          make(map[uintptr]*Node),
		exportKeywords: make(map[uintptr]*exportKeywordNode),
	}
	return tw.wrap(tree.RootNode()), nil
}

// treeWrapper owns one parsed cstree.Tree and memoizes the *Node built for
// each raw cstree.Node it has seen, keyed by the raw node's stable ID.
// Without this, every Children()/Parent() call would mint a fresh *Node for
// the same tree-sitter position, and ast.Factory's wrapper cache — which
// keys on compiler.Node identity — would hand out a distinct *ast.Node each
// time instead of the single stable wrapper the rest of astkit assumes.
type treeWrapper struct {
	tree   *cstree.Tree
	source []byte
	nodes  map[uintptr]*Node

	// exportKeywords memoizes the synthetic "export" token wrap produces
	// for each export_statement it unwraps, keyed by that statement's own
	// stable ID (the wrapped declaration has its own ID already covered by
	// nodes).
	exportKeywords map[uintptr]*exportKeywordNode
}

// wrap adapts a raw cstree.Node into the stable *Node astkit navigates.
// tree-sitter-typescript wraps an exported declaration in an
// export_statement node (export_statement.declaration: class_declaration,
// not a modifier token on the declaration itself). astkit's edit surface
// expects the opposite shape — hasExportKeyword()/setIsExported() look for
// a direct KindExportKeyword child of the declaration, matching how the
// grammar's own export-modifier tokens (e.g. "public"/"static") are always
// modeled as sibling children rather than wrapper nodes. wrap reconciles
// the two by skipping the export_statement wrapper entirely: it returns
// the declaration's own *Node, with a synthetic KindExportKeyword child
// spliced in front of its real children and its Parent() resolved through
// to the statement's own parent.
func (tw *treeWrapper) wrap(raw cstree.Node) *Node {
	if raw.IsNull() {
		return nil
	}
	if raw.Type() == "export_statement" {
		if decl := raw.ChildByFieldName("declaration"); !decl.IsNull() {
			return tw.wrapExported(decl, raw)
		}
	}
	return tw.wrapPlain(raw)
}

func (tw *treeWrapper) wrapPlain(raw cstree.Node) *Node {
	id := raw.ID()
	if existing, ok := tw.nodes[id]; ok {
		return existing
	}
	n := &Node{tw: tw, raw: raw}
	tw.nodes[id] = n
	return n
}

func (tw *treeWrapper) wrapExported(decl, exportStmt cstree.Node) *Node {
	id := decl.ID()
	if existing, ok := tw.nodes[id]; ok {
		return existing
	}
	n := &Node{tw: tw, raw: decl, exportStmt: exportStmt}
	tw.nodes[id] = n
	return n
}

// exportKeywordFor returns the memoized synthetic export-keyword child of
// decl, creating it on first request. Its span is the statement's own
// start up to the declaration's start — covering the "export " (and,
// for a default export, "export default ") text the grammar folds into
// the wrapper node rather than a child token.
func (tw *treeWrapper) exportKeywordFor(decl *Node) *exportKeywordNode {
	id := decl.exportStmt.ID()
	if existing, ok := tw.exportKeywords[id]; ok {
		return existing
	}
	kw := &exportKeywordNode{
		parent: decl,
		pos:    decl.exportStmt.StartByte(),
		end:    decl.raw.StartByte(),
	}
	tw.exportKeywords[id] = kw
	return kw
}

// Node adapts a cstree.Node into compiler.Node, carrying the source bytes
// along so Pos/End-derived text extraction and kind lookups don't need a
// second round trip through the frontend.
type Node struct {
	tw  *treeWrapper
	raw cstree.Node

	// exportStmt is the enclosing export_statement this node's declaration
	// was unwrapped from, or the zero Node if none. See treeWrapper.wrap.
	exportStmt cstree.Node
}

// exportKeywordNode is the synthetic KindExportKeyword token astkit's edit
// surface expects as a direct child of an exported declaration. It has no
// backing cstree.Node of its own — only the byte span the grammar spent on
// the "export" text before its declaration field — so it carries just
// enough to satisfy compiler.Node's read-only contract.
type exportKeywordNode struct {
	parent   *Node
	pos, end int
}

var _ compiler.Node = (*exportKeywordNode)(nil)

func (k *exportKeywordNode) Kind() compiler.SyntaxKind { return compiler.KindExportKeyword }
func (k *exportKeywordNode) Pos() int                  { return k.pos }
func (k *exportKeywordNode) End() int                  { return k.end }
func (k *exportKeywordNode) Children() []compiler.Node { return nil }
func (k *exportKeywordNode) Parent() compiler.Node     { return k.parent }

func (k *exportKeywordNode) Equal(other compiler.Node) bool {
	o, ok := other.(*exportKeywordNode)
	return ok && k.pos == o.pos && k.end == o.end
}

var _ compiler.Node = (*Node)(nil)

func (n *Node) Kind() compiler.SyntaxKind { return kindOf(n.raw.Type()) }
func (n *Node) Pos() int                  { return n.raw.StartByte() }
func (n *Node) End() int                  { return n.raw.EndByte() }

func (n *Node) Children() []compiler.Node {
	count := n.raw.ChildCount()
	out := make([]compiler.Node, 0, count+1)
	if !n.exportStmt.IsNull() {
		out = append(out, n.tw.exportKeywordFor(n))
	}
	for i := 0; i < count; i++ {
		if child := n.tw.wrap(n.raw.Child(i)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (n *Node) Parent() compiler.Node {
	if !n.exportStmt.IsNull() {
		return n.tw.wrap(n.exportStmt.Parent())
	}
	return n.tw.wrap(n.raw.Parent())
}

func (n *Node) Equal(other compiler.Node) bool {
	o, ok := other.(*Node)
	if !ok {
		return false
	}
	return n.raw.Equal(o.raw)
}

// Text returns the node's source slice, the TypeScript-frontend-specific
// counterpart to the generic compiler.Node seam (which has no notion of
// "source text", only positions).
func (n *Node) Text() string { return n.raw.Text(n.tw.source) }

// TSType exposes the grammar's raw type string for diagnostics; astkit's
// core never calls this, but callers debugging a kind-mapping gap need it.
func (n *Node) TSType() string { return n.raw.Type() }
