package ast

import (
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synlang/astkit/compiler"
)

// hasExportKeyword and setIsExported are thin client-side helpers built
// entirely on the navigation/edit surface above; they exist only to drive
// the scenario below, not as part of the engine itself.
func hasExportKeyword(cls *Node) (bool, error) {
	kw, err := cls.GetFirstChildByKind(compiler.KindExportKeyword)
	if err != nil {
		return false, err
	}
	return kw != nil, nil
}

func setIsExported(cls *Node) error {
	already, err := hasExportKeyword(cls)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	childIndex := 0
	if d, err := cls.GetFirstChildIfKind(compiler.KindDecorator); err != nil {
		return err
	} else if d != nil {
		childIndex = 1
	}

	pos, err := cls.GetPos()
	if err != nil {
		return err
	}
	return insertIntoParent(cls, pos, "export ", childIndex, 1, nil)
}

func TestScenarioAddExportModifier(t *testing.T) {
	sf := newMockSourceFile(t, "class A {}")

	cls, err := sf.RootNode().GetFirstChildByKind(compiler.KindClassDeclaration)
	require.NoError(t, err)
	require.NotNil(t, cls)

	require.NoError(t, setIsExported(cls))

	assert.Equal(t, "export class A {}", sf.GetFullText())
	assert.False(t, cls.IsDisposed())
	exported, err := hasExportKeyword(cls)
	require.NoError(t, err)
	assert.True(t, exported)
}

func TestScenarioRemoveDecoratorOnOwnLine(t *testing.T) {
	sf := newMockSourceFile(t, "@dec\nclass A {}")

	cls, err := sf.RootNode().GetFirstChildByKind(compiler.KindClassDeclaration)
	require.NoError(t, err)
	require.NotNil(t, cls)

	decorator, err := cls.GetFirstChildByKind(compiler.KindDecorator)
	require.NoError(t, err)
	require.NotNil(t, decorator)

	require.NoError(t, decorator.Remove())

	assert.Equal(t, "class A {}", sf.GetFullText())
	assert.True(t, decorator.IsDisposed())
	assert.False(t, cls.IsDisposed())

	start, err := cls.GetStart()
	require.NoError(t, err)
	assert.Equal(t, 0, start)
}

func TestScenarioReplaceIdentifierText(t *testing.T) {
	sf := newMockSourceFile(t, "const x = 1;")

	stmt, err := sf.RootNode().GetFirstChildByKind(compiler.KindVariableStatement)
	require.NoError(t, err)
	decl, err := stmt.GetFirstChildByKind(compiler.KindVariableDeclaration)
	require.NoError(t, err)
	ident, err := decl.GetFirstChildByKind(compiler.KindIdentifier)
	require.NoError(t, err)
	require.NotNil(t, ident)

	require.NoError(t, ident.ReplaceWithText("yy"))

	assert.Equal(t, "const yy = 1;", sf.GetFullText())
	assert.True(t, ident.IsDisposed())

	renamed, err := sf.RootNode().GetDescendantAtStartWithWidth(6, 2)
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, compiler.KindIdentifier, renamed.Kind())
	text, err := renamed.GetText()
	require.NoError(t, err)
	assert.Equal(t, "yy", text)
}

func TestScenarioInsertMethodIntoClass(t *testing.T) {
	sf := newMockSourceFile(t, "class A {\n}")

	cls, err := sf.RootNode().GetFirstChildByKind(compiler.KindClassDeclaration)
	require.NoError(t, err)
	clsCompilerNode, err := cls.CompilerNode()
	require.NoError(t, err)

	body, err := cls.GetChildSyntaxList()
	require.NoError(t, err)
	require.NotNil(t, body)

	require.NoError(t, insertIntoParent(body, 10, "    m() {}\n", 0, 1, nil))

	assert.Equal(t, "class A {\n    m() {}\n}", sf.GetFullText())
	assert.False(t, cls.IsDisposed())

	rebound, err := cls.CompilerNode()
	require.NoError(t, err)
	assert.NotEqual(t, clsCompilerNode, rebound, "class compiler node should have been rebound to the reparsed tree")

	newBody, err := cls.GetChildSyntaxList()
	require.NoError(t, err)
	members, err := newBody.GetChildren()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, compiler.KindMethodDeclaration, members[0].Kind())
}

func TestScenarioReplaceCompilerNodeRenamesCacheKey(t *testing.T) {
	gc := NewGlobalContainer(&mockFrontend{}, nil)
	sf := &SourceFile{container: gc, path: "x.ts", fullText: ""}

	k1 := &mockNode{kind: compiler.KindIdentifier}
	k2 := &mockNode{kind: compiler.KindIdentifier}

	w := gc.Factory.GetNodeFromCompilerNode(k1, sf)

	require.NoError(t, gc.Factory.replaceCompilerNode(w, k2))

	_, foundOld := gc.Factory.lookup(k1)
	assert.False(t, foundOld)
	got, foundNew := gc.Factory.lookup(k2)
	require.True(t, foundNew)
	assert.Same(t, w, got)

	kMissing := &mockNode{kind: compiler.KindIdentifier}
	orphan := &Node{compilerNode: kMissing, sourceFile: sf, container: gc}
	err := gc.Factory.replaceCompilerNode(orphan, &mockNode{kind: compiler.KindIdentifier})
	require.Error(t, err)
	assert.IsType(t, &InvalidOperation{}, pkgerrors.Cause(err))
}

func TestScenarioUnwrapNamespace(t *testing.T) {
	sf := newMockSourceFile(t, "namespace N {\n    const x = 1;\n}")

	ns, err := sf.RootNode().GetFirstChildByKind(compiler.KindNamespaceDeclaration)
	require.NoError(t, err)
	require.NotNil(t, ns)

	nsBody, err := ns.GetChildSyntaxList()
	require.NoError(t, err)
	innerStmt, err := nsBody.GetFirstChildByKind(compiler.KindVariableStatement)
	require.NoError(t, err)
	require.NotNil(t, innerStmt)

	require.NoError(t, ns.Unwrap())

	assert.Equal(t, "const x = 1;\n", sf.GetFullText())
	assert.True(t, ns.IsDisposed())
	assert.False(t, innerStmt.IsDisposed())

	survivingStmt, err := sf.RootNode().GetFirstChildByKind(compiler.KindVariableStatement)
	require.NoError(t, err)
	assert.Same(t, innerStmt, survivingStmt)
}
