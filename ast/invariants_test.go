package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synlang/astkit/compiler"
)

// shape is a structural fingerprint of one node used only to diff two
// independently parsed trees of the same text against each other.
type shape struct {
	Kind     compiler.SyntaxKind
	Pos, End int
	Children []shape
}

func snapshotShape(t *testing.T, n *Node) shape {
	t.Helper()
	pos, err := n.GetPos()
	require.NoError(t, err)
	end, err := n.GetEnd()
	require.NoError(t, err)
	children, err := n.GetChildren()
	require.NoError(t, err)
	s := shape{Kind: n.Kind(), Pos: pos, End: end}
	for _, c := range children {
		s.Children = append(s.Children, snapshotShape(t, c))
	}
	return s
}

const lawFixtureText = `namespace N {
    class A {
        m() {}
    }
    const x = 1;
}
`

// collectAll walks n and every descendant via GetChildren, mirroring what
// GetDescendants is supposed to produce.
func collectAll(t *testing.T, n *Node) []*Node {
	t.Helper()
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		children, err := cur.GetChildren()
		require.NoError(t, err)
		for _, c := range children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(n)
	return out
}

func TestLawWrapperUniqueness(t *testing.T) {
	sf := newMockSourceFile(t, lawFixtureText)
	root := sf.RootNode()

	again := sf.RootNode()
	assert.Same(t, root, again, "resolving the root twice must return the identical wrapper")

	ns, err := root.GetFirstChildByKind(compiler.KindNamespaceDeclaration)
	require.NoError(t, err)
	require.NotNil(t, ns)

	viaParent, err := ns.GetParent()
	require.NoError(t, err)
	assert.Same(t, root, viaParent, "reaching the root via GetParent must return the identical wrapper")

	body, err := ns.GetChildSyntaxList()
	require.NoError(t, err)
	cls, err := body.GetFirstChildByKind(compiler.KindClassDeclaration)
	require.NoError(t, err)
	require.NotNil(t, cls)

	// The same class node reached by two different navigation paths
	// (children-of-body vs descendants-of-root) must be the same wrapper.
	var viaDescendants *Node
	for d := range root.GetDescendantsIterator() {
		if d.Kind() == compiler.KindClassDeclaration {
			viaDescendants = d
			break
		}
	}
	require.NotNil(t, viaDescendants)
	assert.Same(t, cls, viaDescendants)
}

func TestLawTreeConsistencyTracksLastReparse(t *testing.T) {
	sf := newMockSourceFile(t, "const x = 1;")
	assert.Equal(t, "const x = 1;", sf.GetFullText())

	stmt, err := sf.RootNode().GetFirstChildByKind(compiler.KindVariableStatement)
	require.NoError(t, err)
	decl, err := stmt.GetFirstChildByKind(compiler.KindVariableDeclaration)
	require.NoError(t, err)
	ident, err := decl.GetFirstChildByKind(compiler.KindIdentifier)
	require.NoError(t, err)

	require.NoError(t, ident.ReplaceWithText("renamed"))
	assert.Equal(t, "const renamed = 1;", sf.GetFullText())
}

func TestLawPositionalMonotonicity(t *testing.T) {
	sf := newMockSourceFile(t, lawFixtureText)
	root := sf.RootNode()

	for _, n := range collectAll(t, root) {
		pos, err := n.GetPos()
		require.NoError(t, err)
		start, err := n.GetStart()
		require.NoError(t, err)
		end, err := n.GetEnd()
		require.NoError(t, err)
		assert.LessOrEqual(t, pos, start, "pos must not exceed start")
		assert.LessOrEqual(t, start, end, "start must not exceed end")

		children, err := n.GetChildren()
		require.NoError(t, err)
		for i := 0; i+1 < len(children); i++ {
			curEnd, err := children[i].GetEnd()
			require.NoError(t, err)
			nextPos, err := children[i+1].GetPos()
			require.NoError(t, err)
			assert.LessOrEqual(t, curEnd, nextPos, "sibling %d must end at or before the next sibling begins", i)
		}
	}
}

func TestLawDisposeIsIdempotent(t *testing.T) {
	sf := newMockSourceFile(t, "const x = 1;")
	stmt, err := sf.RootNode().GetFirstChildByKind(compiler.KindVariableStatement)
	require.NoError(t, err)

	stmt.Dispose()
	assert.True(t, stmt.IsDisposed())

	// A second Dispose on an already-disposed wrapper must not panic and
	// must leave it disposed.
	assert.NotPanics(t, func() { stmt.Dispose() })
	assert.True(t, stmt.IsDisposed())

	_, err = stmt.CompilerNode()
	assert.Error(t, err)
}

// TestLawSiblingIdentityPreservedWithinEditedList confirms that inserting a
// new child into a list doesn't disturb the wrappers of siblings elsewhere
// in that same list: one paired before the insertion index, one paired
// after. The mock frontend reparses from scratch on every call (see
// mockfrontend_test.go), so this identity survives purely because
// childIndexHandler explicitly re-pairs and rebinds old/new children by
// position — nothing here depends on the frontend reusing subtrees.
func TestLawSiblingIdentityPreservedWithinEditedList(t *testing.T) {
	sf := newMockSourceFile(t, "class A {\n    a() {}\n    b() {}\n}")

	cls, err := sf.RootNode().GetFirstChildByKind(compiler.KindClassDeclaration)
	require.NoError(t, err)
	body, err := cls.GetChildSyntaxList()
	require.NoError(t, err)

	members, err := body.GetChildren()
	require.NoError(t, err)
	require.Len(t, members, 2)
	a, b := members[0], members[1]

	insertPos, err := b.GetPos()
	require.NoError(t, err)

	require.NoError(t, insertIntoParent(body, insertPos, "    c() {}\n    ", 1, 1, nil))

	assert.False(t, a.IsDisposed())
	assert.False(t, b.IsDisposed())

	newBody, err := cls.GetChildSyntaxList()
	require.NoError(t, err)
	newMembers, err := newBody.GetChildren()
	require.NoError(t, err)
	require.Len(t, newMembers, 3)

	assert.Same(t, a, newMembers[0], "the method paired before the insertion index keeps its wrapper identity")
	assert.Same(t, b, newMembers[2], "the method paired after the insertion index keeps its wrapper identity")
}

func TestLawDescendantsEqualsRecursiveChildren(t *testing.T) {
	sf := newMockSourceFile(t, lawFixtureText)
	root := sf.RootNode()

	expected := collectAll(t, root)
	actual, err := root.GetDescendants()
	require.NoError(t, err)

	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.Same(t, expected[i], actual[i])
	}
}

func TestLawSiblingSequenceReconstructsParentChildren(t *testing.T) {
	sf := newMockSourceFile(t, lawFixtureText)
	root := sf.RootNode()

	ns, err := root.GetFirstChildByKind(compiler.KindNamespaceDeclaration)
	require.NoError(t, err)
	body, err := ns.GetChildSyntaxList()
	require.NoError(t, err)

	members, err := body.GetChildren()
	require.NoError(t, err)
	require.NotEmpty(t, members)

	for _, self := range members {
		prev, err := self.GetPreviousSiblings()
		require.NoError(t, err)
		next, err := self.GetNextSiblings()
		require.NoError(t, err)

		var reconstructed []*Node
		for i := len(prev) - 1; i >= 0; i-- {
			reconstructed = append(reconstructed, prev[i])
		}
		reconstructed = append(reconstructed, self)
		reconstructed = append(reconstructed, next...)

		require.Len(t, reconstructed, len(members))
		for i := range members {
			assert.Same(t, members[i], reconstructed[i])
		}
	}
}

// TestLawParseIsDeterministic confirms that parsing the same text twice
// (through two independent SourceFiles, hence two independent Factorys)
// produces structurally identical trees, comparing full shape snapshots
// with cmp.Diff rather than spot-checking a few fields.
func TestLawParseIsDeterministic(t *testing.T) {
	first := newMockSourceFile(t, lawFixtureText)
	second := newMockSourceFile(t, lawFixtureText)

	a := snapshotShape(t, first.RootNode())
	b := snapshotShape(t, second.RootNode())

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("two parses of identical text produced different shapes (-first +second):\n%s", diff)
	}
}

func TestLawDescendantAtPosContainsPos(t *testing.T) {
	sf := newMockSourceFile(t, lawFixtureText)
	root := sf.RootNode()

	end, err := root.GetEnd()
	require.NoError(t, err)

	for pos := 0; pos < end; pos++ {
		d, err := root.GetDescendantAtPos(pos)
		require.NoError(t, err)
		require.NotNil(t, d)
		contains, err := d.ContainsRange(pos, pos)
		require.NoError(t, err)
		assert.True(t, contains, "descendant at pos %d must contain that position", pos)
	}
}
