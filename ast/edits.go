package ast

// ReplaceWithText replaces this node's entire text span with text and
// disposes this wrapper. A lookup at the replacement's position afterward
// resolves a fresh wrapper for whatever the reparse produced there.
func (n *Node) ReplaceWithText(text string) error {
	pos, err := n.GetPos()
	if err != nil {
		return err
	}
	end, err := n.GetEnd()
	if err != nil {
		return err
	}

	parent, childIndex, err := n.editParentAndIndex()
	if err != nil {
		return err
	}

	insertItemsCount := 0
	if text != "" {
		insertItemsCount = 1
	}

	return insertIntoParent(parent, pos, text, childIndex, insertItemsCount, &replacing{
		TextLength: end - pos,
		Nodes:      []*Node{n},
	})
}

// Remove deletes this node's text span, swallowing one trailing line
// terminator (per container.Settings.NewLineKind) when the node sits alone
// on its own line, and disposes this wrapper.
func (n *Node) Remove() error {
	pos, err := n.GetPos()
	if err != nil {
		return err
	}
	end, err := n.GetEnd()
	if err != nil {
		return err
	}

	alone, err := n.IsFirstNodeOnLine()
	if err != nil {
		return err
	}
	if alone {
		term := n.container.Settings.NewLineKind.String()
		if rest := n.sourceFile.fullText[end:]; len(rest) >= len(term) && rest[:len(term)] == term {
			end += len(term)
		}
	}

	parent, childIndex, err := n.editParentAndIndex()
	if err != nil {
		return err
	}

	return insertIntoParent(parent, pos, "", childIndex, 0, &replacing{
		TextLength: end - pos,
		Nodes:      []*Node{n},
	})
}

// Unwrap replaces this body-bearing node with the contents of its own
// child SyntaxList, lifted one level up into its parent's child sequence.
// This node, the SyntaxList, and every other descendant outside the
// SyntaxList's children and their subtrees are disposed; those children
// keep their wrappers.
func (n *Node) Unwrap() error {
	return unwrapNode(n)
}

// editParentAndIndex resolves the child sequence n participates in (its
// parent SyntaxList if one wraps it, else its direct parent) and n's index
// within it — the (parent, childIndex) pair insertIntoParent needs.
func (n *Node) editParentAndIndex() (*Node, int, error) {
	container, err := n.GetParentSyntaxList()
	if err != nil {
		return nil, 0, err
	}
	if container == nil {
		container, err = n.GetParent()
		if err != nil {
			return nil, 0, err
		}
	}
	if container == nil {
		return nil, 0, newInvalidOperation("node has no parent to edit through")
	}

	siblings, err := container.GetChildren()
	if err != nil {
		return nil, 0, err
	}
	idx := indexOfNode(siblings, n)
	if idx == -1 {
		return nil, 0, newInvalidOperation("node not found among its own parent's children")
	}
	return container, idx, nil
}
