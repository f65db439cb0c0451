package ast

import "context"

// replacing describes the nodes and text span an edit removes, when the
// edit is a replacement rather than a pure insertion.
type replacing struct {
	TextLength int
	Nodes      []*Node
}

// insertIntoParent is the edit planner's entry point for inserting,
// removing and replacing children at a known index: ReplaceWithText and
// Remove funnel through it, while Unwrap goes through unwrapNode and
// SourceFile.ReplaceText reparses on its own. It patches the
// source file's full text, requests a reparse, and hands the reconciler
// enough information to rebind every surviving wrapper.
//
//   - parent is the wrapper under which insertion happens, typically a
//     SyntaxList.
//   - insertPos is the absolute text offset where newText is inserted.
//   - childIndex is where the first inserted compiler node will appear
//     among parent's children in the new tree.
//   - insertItemsCount is how many new children will be created; it may
//     be 0 for a pure replacement.
//   - repl, when non-nil, describes TextLength characters at insertPos
//     being replaced rather than inserted, and the wrappers thereby made
//     obsolete.
//
// The planner relies on the reparse producing a tree whose structural
// prefix and suffix around parent match the original, shifted only by
// len(newText) - repl.TextLength.
func insertIntoParent(parent *Node, insertPos int, newText string, childIndex, insertItemsCount int, repl *replacing) error {
	sf := parent.sourceFile

	replaceLen := 0
	if repl != nil {
		replaceLen = repl.TextLength
	}
	if insertPos < 0 || insertPos > len(sf.fullText) || insertPos+replaceLen > len(sf.fullText) {
		return newArgumentError("insertIntoParent: edit range [%d,%d) out of bounds", insertPos, insertPos+replaceLen)
	}

	patched := sf.fullText[:insertPos] + newText + sf.fullText[insertPos+replaceLen:]

	oldParentCN, err := parent.CompilerNode()
	if err != nil {
		return err
	}
	path := ancestorPath(oldParentCN)

	sf.container.Logger.WithFields(map[string]any{
		"parentKind":       oldParentCN.Kind(),
		"childIndex":       childIndex,
		"insertItemsCount": insertItemsCount,
	}).Debug("planner: requesting reparse for insertIntoParent")

	oldRoot := sf.rootCompilerNode
	newRoot, err := sf.container.Frontend.Reparse(context.Background(), sf.path, []byte(patched), oldRoot)
	if err != nil {
		sf.container.Logger.WithFields(map[string]any{
			"parentKind": oldParentCN.Kind(),
			"err":        err,
		}).Debug("planner: reparse failed, raising TreeReplacementError")
		return newTreeReplacementError("reparse failed: %v", err)
	}

	newParentCN, err := followPath(sf, newRoot, path)
	if err != nil {
		return err
	}

	var replacingNodes []*Node
	if repl != nil {
		replacingNodes = repl.Nodes
	}

	handler := &childIndexHandler{
		r:                &reconciler{sf: sf},
		childIndex:       childIndex,
		insertItemsCount: insertItemsCount,
		replacing:        replacingNodes,
	}
	if err := handler.HandleNode(oldParentCN, newParentCN); err != nil {
		return err
	}

	sf.fullText = patched
	sf.rootCompilerNode = newRoot
	return nil
}

// unwrapNode replaces n's entire span with the text of n's own child
// SyntaxList (trivia-trimmed, so the lifted content starts clean), then
// reconciles via UnwrapParentHandler so the lifted children's wrappers
// keep their identity.
func unwrapNode(n *Node) error {
	sf := n.sourceFile

	list, err := n.GetChildSyntaxList()
	if err != nil {
		return err
	}
	if list == nil {
		return newInvalidOperation("unwrap: node has no child SyntaxList to lift")
	}
	liftedText, err := list.GetText()
	if err != nil {
		return err
	}

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
	oldParentCN, err := parent.CompilerNode()
	if err != nil {
		return err
	}
	path := ancestorPath(oldParentCN)

	patched := sf.fullText[:pos] + liftedText + sf.fullText[end:]

	sf.container.Logger.WithFields(map[string]any{
		"parentKind": oldParentCN.Kind(),
		"childIndex": childIndex,
	}).Debug("planner: requesting reparse for unwrapNode")

	oldRoot := sf.rootCompilerNode
	newRoot, err := sf.container.Frontend.Reparse(context.Background(), sf.path, []byte(patched), oldRoot)
	if err != nil {
		sf.container.Logger.WithFields(map[string]any{
			"parentKind": oldParentCN.Kind(),
			"err":        err,
		}).Debug("planner: reparse failed, raising TreeReplacementError")
		return newTreeReplacementError("reparse failed: %v", err)
	}
	newParentCN, err := followPath(sf, newRoot, path)
	if err != nil {
		return err
	}

	handler := &unwrapParentHandler{r: &reconciler{sf: sf}, childIndex: childIndex}
	if err := handler.HandleNode(oldParentCN, newParentCN); err != nil {
		return err
	}

	sf.fullText = patched
	sf.rootCompilerNode = newRoot
	return nil
}
