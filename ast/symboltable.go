package ast

import "github.com/synlang/astkit/compiler"

// symbolDeclKinds names which node kinds introduce a declared name. The
// name itself is taken from the first direct Identifier child, the
// convention every grammar kind in compiler.SyntaxKind's closed set follows.
var symbolDeclKinds = map[compiler.SyntaxKind]bool{
	compiler.KindClassDeclaration:     true,
	compiler.KindMethodDeclaration:    true,
	compiler.KindPropertyDeclaration:  true,
	compiler.KindVariableDeclaration:  true,
	compiler.KindNamespaceDeclaration: true,
	compiler.KindParameter:            true,
}

// symbolScopeKinds names which declaration kinds also open a new lexical
// scope for names declared inside their body, so a method's parameters
// don't leak into its enclosing class and a class's members don't leak
// into its enclosing namespace.
var symbolScopeKinds = map[compiler.SyntaxKind]bool{
	compiler.KindClassDeclaration:     true,
	compiler.KindNamespaceDeclaration: true,
	compiler.KindMethodDeclaration:    true,
}

// symbolScope is one lexical scope: names declared directly within it, with
// a parent pointer for outward resolution.
type symbolScope struct {
	parent *symbolScope
	names  map[string]compiler.Node
}

func (s *symbolScope) declare(name string, decl compiler.Node) {
	if _, exists := s.names[name]; exists {
		// First declaration in a scope wins; astkit does not need to model
		// redeclaration/shadowing diagnostics.
		return
	}
	s.names[name] = decl
}

func (s *symbolScope) resolve(name string) (compiler.Node, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if decl, ok := scope.names[name]; ok {
			return decl, true
		}
	}
	return nil, false
}

// symbolTable maps every Identifier compiler.Node that names or refers to a
// declaration, within one parsed tree, to the compiler.Node of the
// identifier that declared it. It is same-file and lexically scoped only:
// there is no cross-file import resolution here, since tree-sitter's
// grammar carries no semantic/type-checking layer to delegate to — this is
// as far as a purely syntactic frontend can honestly take symbol
// resolution. A declaration's own name identifier resolves to itself.
type symbolTable struct {
	references map[compiler.Node]compiler.Node
}

func buildSymbolTable(root compiler.Node, fullText string) *symbolTable {
	st := &symbolTable{references: make(map[compiler.Node]compiler.Node)}
	rootScope := &symbolScope{names: make(map[string]compiler.Node)}
	st.walk(root, rootScope, fullText)
	return st
}

func nameIdentifier(n compiler.Node) compiler.Node {
	for _, c := range n.Children() {
		if c.Kind() == compiler.KindIdentifier {
			return c
		}
	}
	return nil
}

func identifierText(id compiler.Node, fullText string) string {
	pos, end := id.Pos(), id.End()
	if pos < 0 || end > len(fullText) || pos > end {
		return ""
	}
	return fullText[pos:end]
}

func (st *symbolTable) walk(n compiler.Node, scope *symbolScope, fullText string) {
	childScope := scope
	if symbolScopeKinds[n.Kind()] {
		childScope = &symbolScope{parent: scope, names: make(map[string]compiler.Node)}
	}

	var ownName compiler.Node
	if symbolDeclKinds[n.Kind()] {
		if id := nameIdentifier(n); id != nil {
			ownName = id
			scope.declare(identifierText(id, fullText), id)
			st.references[id] = id
		}
	}

	for _, c := range n.Children() {
		if c.Kind() == compiler.KindIdentifier {
			if c.Equal(ownName) {
				continue
			}
			if decl, ok := childScope.resolve(identifierText(c, fullText)); ok {
				st.references[c] = decl
			}
			continue
		}
		st.walk(c, childScope, fullText)
	}
}
