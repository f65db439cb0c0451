package ast

import (
	"github.com/synlang/astkit/compiler"
)

// NodeHandler rebinds wrappers from the current (pre-edit) compiler tree
// onto the freshly reparsed tree rooted at the same logical position.
// Three variants compose depending on what kind of structural change an
// edit made at its insertion point.
type NodeHandler interface {
	HandleNode(current, next compiler.Node) error
}

// reconciler carries the shared state every handler variant needs: the
// source file whose Factory owns the wrappers being rebound.
type reconciler struct {
	sf *SourceFile
}

func (r *reconciler) lookup(cn compiler.Node) (*Node, bool) {
	return r.sf.container.Factory.lookup(cn)
}

// disposeWrapper disposes w (recursively, via Node.Dispose) and logs it at
// debug level, naming the kind the wrapper was disposed for while it was
// still resolvable.
func (r *reconciler) disposeWrapper(w *Node) {
	kind := w.Kind()
	r.sf.container.Logger.WithFields(map[string]any{"kind": kind}).Debug("reconciler: disposing wrapper")
	w.Dispose()
}

// disposeWrapperShallow is the disposeOnlyThis counterpart: used when a
// wrapper's children have already been rebound or disposed individually and
// only the wrapper's own cache entry needs to go.
func (r *reconciler) disposeWrapperShallow(w *Node) {
	kind := w.Kind()
	r.sf.container.Logger.WithFields(map[string]any{"kind": kind}).Debug("reconciler: disposing wrapper (shallow)")
	w.disposeOnlyThis()
}

// logTreeReplacementError logs, at debug level, the details of a
// TreeReplacementError about to be raised — before the typed error itself
// is constructed and returned to the caller.
func (r *reconciler) logTreeReplacementError(reason string, parentKind compiler.SyntaxKind, details map[string]any) {
	fields := map[string]any{"parentKind": parentKind}
	for k, v := range details {
		fields[k] = v
	}
	r.sf.container.Logger.WithFields(fields).Debug("reconciler: " + reason)
}

// rebindAncestors walks from current/next up through their parents to the
// source file root, rebinding each ancestor's wrapper. Ancestors above an
// edit are guaranteed to keep the same kind and child count — only their
// positions shift — so no recursive shape-checking is needed here.
func (r *reconciler) rebindAncestors(current, next compiler.Node) error {
	for current != nil && next != nil {
		if w, ok := r.lookup(current); ok {
			if err := r.sf.container.Factory.replaceCompilerNode(w, next); err != nil {
				return err
			}
		}
		current = current.Parent()
		next = next.Parent()
	}
	return nil
}

// straightReplacementHandler assumes current and next have identical
// shape: the same number of children, with matching kinds in the same
// order. It rebinds depth-first, children before parent, so the cache
// never observes a parent pointing at a stale child entry.
type straightReplacementHandler struct {
	r *reconciler
}

func (h *straightReplacementHandler) HandleNode(current, next compiler.Node) error {
	curChildren := current.Children()
	nextChildren := next.Children()
	if len(curChildren) != len(nextChildren) {
		h.r.logTreeReplacementError("straight replacement: child count changed", current.Kind(),
			map[string]any{"before": len(curChildren), "after": len(nextChildren)})
		return newTreeReplacementError(
			"straight replacement: child count changed (%d -> %d) with no structural edit at this node",
			len(curChildren), len(nextChildren))
	}
	for i := range curChildren {
		if curChildren[i].Kind() != nextChildren[i].Kind() {
			h.r.logTreeReplacementError("straight replacement: child kind changed", current.Kind(),
				map[string]any{"index": i, "before": curChildren[i].Kind(), "after": nextChildren[i].Kind()})
			return newTreeReplacementError(
				"straight replacement: child %d kind changed (%s -> %s)",
				i, curChildren[i].Kind(), nextChildren[i].Kind())
		}
		if err := h.HandleNode(curChildren[i], nextChildren[i]); err != nil {
			return err
		}
	}
	if w, ok := h.r.lookup(current); ok {
		return h.r.sf.container.Factory.replaceCompilerNode(w, next)
	}
	return nil
}

// childIndexHandler is used whenever an edit inserts, removes, or replaces
// children at a known index within one parent's child sequence.
// insertItemsCount new children may appear on the new side (left
// unwrapped — callers resolve them to wrappers lazily) and/or
// len(replacing) old children may be removed and disposed.
type childIndexHandler struct {
	r                *reconciler
	childIndex       int
	insertItemsCount int
	replacing        []*Node
}

func (h *childIndexHandler) HandleNode(current, next compiler.Node) error {
	straight := &straightReplacementHandler{r: h.r}

	curChildren := current.Children()
	nextChildren := next.Children()

	if h.childIndex < 0 || h.childIndex > len(curChildren) || h.childIndex > len(nextChildren) {
		h.r.logTreeReplacementError("child index handler: childIndex out of range", current.Kind(),
			map[string]any{"childIndex": h.childIndex})
		return newTreeReplacementError("child index handler: childIndex %d out of range", h.childIndex)
	}

	for i := 0; i < h.childIndex; i++ {
		if err := straight.HandleNode(curChildren[i], nextChildren[i]); err != nil {
			return err
		}
	}

	curCursor := h.childIndex
	if len(h.replacing) > 0 {
		for _, w := range h.replacing {
			h.r.disposeWrapper(w)
		}
		curCursor += len(h.replacing)
	}
	nextCursor := h.childIndex + h.insertItemsCount

	remainingCur := curChildren[curCursor:]
	remainingNext := nextChildren[nextCursor:]
	if len(remainingCur) != len(remainingNext) {
		h.r.logTreeReplacementError("child index handler: trailing child count mismatch after edit", current.Kind(),
			map[string]any{"before": len(remainingCur), "after": len(remainingNext)})
		return newTreeReplacementError(
			"child index handler: trailing child count mismatch after edit (%d -> %d)",
			len(remainingCur), len(remainingNext))
	}
	for i := range remainingCur {
		if err := straight.HandleNode(remainingCur[i], remainingNext[i]); err != nil {
			return err
		}
	}

	if w, ok := h.r.lookup(current); ok {
		if err := h.r.sf.container.Factory.replaceCompilerNode(w, next); err != nil {
			return err
		}
	}
	return h.r.rebindAncestors(current.Parent(), next.Parent())
}

// unwrapParentHandler implements removal of a body-bearing node that lifts
// its own child SyntaxList's contents into its parent's SyntaxList — the
// shape a namespace-unwrap or similar flattening edit produces.
type unwrapParentHandler struct {
	r          *reconciler
	childIndex int
}

func (h *unwrapParentHandler) HandleNode(current, next compiler.Node) error {
	straight := &straightReplacementHandler{r: h.r}

	curChildren := current.Children()
	nextChildren := next.Children()

	if h.childIndex < 0 || h.childIndex >= len(curChildren) {
		h.r.logTreeReplacementError("unwrap handler: childIndex out of range", current.Kind(),
			map[string]any{"childIndex": h.childIndex})
		return newTreeReplacementError("unwrap handler: childIndex %d out of range", h.childIndex)
	}

	for i := 0; i < h.childIndex; i++ {
		if err := straight.HandleNode(curChildren[i], nextChildren[i]); err != nil {
			return err
		}
	}

	unwrapped := curChildren[h.childIndex]
	var list compiler.Node
	for _, c := range unwrapped.Children() {
		if c.Kind() == compiler.KindSyntaxList {
			list = c
			break
		}
	}
	if list == nil {
		h.r.logTreeReplacementError("unwrap handler: unwrapped node has no child SyntaxList", current.Kind(), nil)
		return newTreeReplacementError("unwrap handler: unwrapped node has no child SyntaxList")
	}

	listChildren := list.Children()
	n := len(listChildren)
	if h.childIndex+n > len(nextChildren) {
		h.r.logTreeReplacementError("unwrap handler: not enough new children to receive unwrapped contents", current.Kind(),
			map[string]any{"childIndex": h.childIndex, "liftedCount": n, "nextChildCount": len(nextChildren)})
		return newTreeReplacementError("unwrap handler: not enough new children to receive unwrapped contents")
	}
	for i := 0; i < n; i++ {
		if err := straight.HandleNode(listChildren[i], nextChildren[h.childIndex+i]); err != nil {
			return err
		}
	}

	if err := h.disposeUnwrapped(unwrapped, list); err != nil {
		return err
	}

	remainingCur := curChildren[h.childIndex+1:]
	remainingNext := nextChildren[h.childIndex+n:]
	if len(remainingCur) != len(remainingNext) {
		h.r.logTreeReplacementError("unwrap handler: trailing child count mismatch", current.Kind(),
			map[string]any{"before": len(remainingCur), "after": len(remainingNext)})
		return newTreeReplacementError(
			"unwrap handler: trailing child count mismatch (%d -> %d)",
			len(remainingCur), len(remainingNext))
	}
	for i := range remainingCur {
		if err := straight.HandleNode(remainingCur[i], remainingNext[i]); err != nil {
			return err
		}
	}

	return h.r.rebindAncestors(current, next)
}

// disposeUnwrapped disposes every wrapper under the unwrapped node except
// the child SyntaxList, whose own children were just re-hosted one level
// up. The SyntaxList's wrapper and the unwrapped node's own wrapper are
// removed from the cache without touching their (already-handled)
// children, via disposeOnlyThis.
func (h *unwrapParentHandler) disposeUnwrapped(unwrapped, list compiler.Node) error {
	for _, c := range unwrapped.Children() {
		if c.Equal(list) {
			continue
		}
		if w, ok := h.r.lookup(c); ok {
			h.r.disposeWrapper(w)
		}
	}
	if w, ok := h.r.lookup(list); ok {
		h.r.disposeWrapperShallow(w)
	}
	if w, ok := h.r.lookup(unwrapped); ok {
		h.r.disposeWrapperShallow(w)
	}
	return nil
}

// ancestorPath records, for cn, the child index chosen at every ancestor
// from the source file root down to cn's parent. Applying the same
// indices to a structurally-equivalent tree (followPath) finds the node
// occupying the same position.
func ancestorPath(cn compiler.Node) []int {
	var indices []int
	for {
		parent := cn.Parent()
		if parent == nil {
			break
		}
		idx := -1
		for i, c := range parent.Children() {
			if c.Equal(cn) {
				idx = i
				break
			}
		}
		indices = append(indices, idx)
		cn = parent
	}
	for i, j := 0, len(indices)-1; i < j; i, j = i+1, j-1 {
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices
}

// followPath walks down from root by the child indices ancestorPath
// recorded, returning the node occupying the corresponding position in a
// structurally-equivalent tree. sf is used only to log the about-to-be-raised
// TreeReplacementError at debug level; it never affects the walk itself.
func followPath(sf *SourceFile, root compiler.Node, path []int) (compiler.Node, error) {
	cur := root
	for i, idx := range path {
		children := cur.Children()
		if idx < 0 || idx >= len(children) {
			sf.container.Logger.WithFields(map[string]any{
				"pathIndex":  i,
				"childIndex": idx,
				"childCount": len(children),
			}).Debug("reconciler: reparsed tree missing expected child, raising TreeReplacementError")
			return nil, newTreeReplacementError("reparsed tree missing expected child at index %d", idx)
		}
		cur = children[idx]
	}
	return cur, nil
}
