package ast

import (
	"context"
	"strings"

	"github.com/synlang/astkit/compiler"
)

// mockNode is a tiny, self-contained compiler.Node used to exercise the
// reconciler and edit planner without linking tree-sitter. mockFrontend
// below reparses from scratch on every call: it never reuses subtrees, so
// these tests verify the reconciler's own bookkeeping rather than anything
// about incremental parsing.
type mockNode struct {
	kind     compiler.SyntaxKind
	pos, end int
	children []*mockNode
	parent   *mockNode
}

func (n *mockNode) Kind() compiler.SyntaxKind { return n.kind }
func (n *mockNode) Pos() int                  { return n.pos }
func (n *mockNode) End() int                  { return n.end }

func (n *mockNode) Children() []compiler.Node {
	out := make([]compiler.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *mockNode) Parent() compiler.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *mockNode) Equal(other compiler.Node) bool {
	o, ok := other.(*mockNode)
	return ok && o == n
}

// mockFrontend implements compiler.Frontend over a minimal hand-rolled
// grammar covering exactly the shapes astkit's own test scenarios need:
// class declarations (with an optional leading decorator and export
// keyword), variable statements, namespace declarations, and method
// bodies.
type mockFrontend struct{}

func (f *mockFrontend) Parse(_ context.Context, _ string, text []byte) (compiler.Node, error) {
	return parseMock(string(text))
}

func (f *mockFrontend) Reparse(_ context.Context, _ string, text []byte, _ compiler.Node) (compiler.Node, error) {
	return parseMock(string(text))
}

type mockParser struct {
	text string
	pos  int
}

func parseMock(text string) (compiler.Node, error) {
	p := &mockParser{text: text}
	items := p.parseItems(func() bool { return p.pos >= len(p.text) })
	root := &mockNode{kind: compiler.KindSyntaxList, pos: 0, end: len(text), children: items}
	for _, c := range items {
		c.parent = root
	}
	return root, nil
}

func (p *mockParser) skipSpace() {
	for p.pos < len(p.text) && (p.text[p.pos] == ' ' || p.text[p.pos] == '\n' || p.text[p.pos] == '\t' || p.text[p.pos] == '\r') {
		p.pos++
	}
}

func (p *mockParser) peekWord(word string) bool {
	save := p.pos
	p.skipSpace()
	ok := strings.HasPrefix(p.text[p.pos:], word)
	p.pos = save
	return ok
}

func (p *mockParser) consumeWord(word string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.text[p.pos:], word) {
		p.pos += len(word)
		return true
	}
	return false
}

func (p *mockParser) parseIdentifier() *mockNode {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.text) && isIdentChar(p.text[p.pos]) {
		p.pos++
	}
	return &mockNode{kind: compiler.KindIdentifier, pos: start, end: p.pos}
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *mockParser) parseItems(stop func() bool) []*mockNode {
	var items []*mockNode
	for {
		p.skipSpace()
		if stop() {
			break
		}
		item := p.parseItem()
		if item == nil {
			break
		}
		items = append(items, item)
	}
	return items
}

func (p *mockParser) parseItem() *mockNode {
	p.skipSpace()
	start := p.pos

	var decorator *mockNode
	if p.consumeWord("@") {
		name := p.parseIdentifier()
		decorator = &mockNode{kind: compiler.KindDecorator, pos: start, end: name.end, children: []*mockNode{name}}
		name.parent = decorator
	}

	p.skipSpace()
	exportStart := p.pos
	hasExport := p.consumeWord("export")
	var exportKw *mockNode
	if hasExport {
		exportKw = &mockNode{kind: compiler.KindExportKeyword, pos: exportStart, end: p.pos}
	}

	switch {
	case p.peekWord("class"):
		return p.parseClass(start, decorator, exportKw)
	case p.peekWord("namespace"):
		return p.parseNamespace(start)
	case p.peekWord("const"), p.peekWord("let"):
		return p.parseVariableStatement(start)
	default:
		return nil
	}
}

func (p *mockParser) parseClass(start int, decorator, exportKw *mockNode) *mockNode {
	p.consumeWord("class")
	name := p.parseIdentifier()
	p.consumeWord("{")
	bodyStart := p.pos
	membersAsNodes := p.parseClassMembers(bodyStart)
	p.consumeWord("}")
	end := p.pos

	list := &mockNode{kind: compiler.KindSyntaxList, pos: bodyStart, end: end - 1, children: membersAsNodes}
	for _, m := range membersAsNodes {
		m.parent = list
	}

	var children []*mockNode
	if decorator != nil {
		children = append(children, decorator)
	}
	if exportKw != nil {
		children = append(children, exportKw)
	}
	children = append(children, name, list)

	cls := &mockNode{kind: compiler.KindClassDeclaration, pos: start, end: end, children: children}
	for _, c := range children {
		c.parent = cls
	}
	return cls
}

// parseClassMembers re-scans the class body for method declarations: a
// bare identifier followed by "()" and a brace block.
func (p *mockParser) parseClassMembers(_ int) []*mockNode {
	var out []*mockNode
	for {
		p.skipSpace()
		if p.pos >= len(p.text) || p.text[p.pos] == '}' {
			break
		}
		mStart := p.pos
		name := p.parseIdentifier()
		if name.pos == name.end {
			break
		}
		p.consumeWord("(")
		p.consumeWord(")")
		p.consumeWord("{")
		bodyStart := p.pos
		body := p.parseItems(func() bool { p.skipSpace(); return strings.HasPrefix(p.text[p.pos:], "}") })
		p.consumeWord("}")
		list := &mockNode{kind: compiler.KindSyntaxList, pos: bodyStart, end: p.pos - 1, children: body}
		for _, b := range body {
			b.parent = list
		}
		method := &mockNode{kind: compiler.KindMethodDeclaration, pos: mStart, end: p.pos, children: []*mockNode{name, list}}
		name.parent = method
		list.parent = method
		out = append(out, method)
	}
	return out
}

func (p *mockParser) parseVariableStatement(start int) *mockNode {
	p.consumeWord("const")
	p.consumeWord("let")
	declStart := p.pos
	name := p.parseIdentifier()
	p.consumeWord("=")
	p.skipSpace()
	valStart := p.pos
	var value *mockNode
	if p.pos < len(p.text) && p.text[p.pos] >= '0' && p.text[p.pos] <= '9' {
		for p.pos < len(p.text) && p.text[p.pos] >= '0' && p.text[p.pos] <= '9' {
			p.pos++
		}
		value = &mockNode{kind: compiler.KindNumericLiteral, pos: valStart, end: p.pos}
	} else {
		value = p.parseIdentifier()
	}
	p.consumeWord(";")
	decl := &mockNode{kind: compiler.KindVariableDeclaration, pos: declStart, end: p.pos, children: []*mockNode{name, value}}
	name.parent = decl
	value.parent = decl
	stmt := &mockNode{kind: compiler.KindVariableStatement, pos: start, end: p.pos, children: []*mockNode{decl}}
	decl.parent = stmt
	return stmt
}

func (p *mockParser) parseNamespace(start int) *mockNode {
	p.consumeWord("namespace")
	name := p.parseIdentifier()
	p.consumeWord("{")
	bodyStart := p.pos
	body := p.parseItems(func() bool { p.skipSpace(); return strings.HasPrefix(p.text[p.pos:], "}") })
	p.consumeWord("}")
	end := p.pos
	list := &mockNode{kind: compiler.KindSyntaxList, pos: bodyStart, end: end - 1, children: body}
	for _, b := range body {
		b.parent = list
	}
	ns := &mockNode{kind: compiler.KindNamespaceDeclaration, pos: start, end: end, children: []*mockNode{name, list}}
	name.parent = ns
	list.parent = ns
	return ns
}

func newMockSourceFile(t interface{ Fatalf(string, ...any) }, text string) *SourceFile {
	gc := NewGlobalContainer(&mockFrontend{}, nil)
	sf, err := NewSourceFile(gc, "mock.ts", []byte(text))
	if err != nil {
		t.Fatalf("parsing mock source: %v", err)
	}
	return sf
}
