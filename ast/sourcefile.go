package ast

import (
	"context"

	"github.com/pkg/errors"

	"github.com/synlang/astkit/ast/fshost"
	"github.com/synlang/astkit/compiler"
)

// SourceFile owns the current compiler tree and authoritative text buffer
// of one file. Every wrapper reachable from its root holds a pointer back
// to this struct; since Go passes that pointer by reference, mutating
// fullText and rootCompilerNode in place after a reparse is visible to
// every surviving wrapper immediately, with no separate propagation walk
// required.
type SourceFile struct {
	container        *GlobalContainer
	path             string
	fullText         string
	rootCompilerNode compiler.Node

	// symTable is a lazily-built, same-file lexical symbol table; symTableRoot
	// records which rootCompilerNode it was built against so a reparse
	// (which always replaces rootCompilerNode with a new value) invalidates
	// it without needing an explicit "dirty" flag.
	symTable     *symbolTable
	symTableRoot compiler.Node
}

// NewSourceFile parses text through gc's frontend and returns a SourceFile
// ready for navigation and edits.
func NewSourceFile(gc *GlobalContainer, path string, text []byte) (*SourceFile, error) {
	root, err := gc.Frontend.Parse(context.Background(), path, text)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &SourceFile{
		container:        gc,
		path:             path,
		fullText:         string(text),
		rootCompilerNode: root,
	}, nil
}

// Path returns the file's path as given to the frontend.
func (sf *SourceFile) Path() string { return sf.path }

// GetFullText returns the authoritative text buffer: always exactly the
// text last handed to the compiler for this file.
func (sf *SourceFile) GetFullText() string { return sf.fullText }

// RootNode returns the wrapper for this file's top-level node.
func (sf *SourceFile) RootNode() *Node {
	return sf.container.Factory.GetNodeFromCompilerNode(sf.rootCompilerNode, sf)
}

// ReplaceText replaces the text in [pos, end) with newText, reparses the
// whole file, and migrates every surviving wrapper via
// StraightReplacementHandler. Use this for edits that aren't mediated by
// a specific tree-shaped insertion (Node.ReplaceWithText / Node.Remove
// cover that case more cheaply, since they know the exact child-index
// shift involved).
func (sf *SourceFile) ReplaceText(pos, end int, newText string) error {
	if pos < 0 || end < pos || end > len(sf.fullText) {
		return newArgumentError("ReplaceText: invalid range [%d,%d)", pos, end)
	}

	patched := sf.fullText[:pos] + newText + sf.fullText[end:]

	sf.container.Logger.WithFields(map[string]any{
		"path": sf.path,
		"pos":  pos,
		"end":  end,
	}).Debug("source file: reparsing after full-text replace")

	newRoot, err := sf.container.Frontend.Reparse(context.Background(), sf.path, []byte(patched), sf.rootCompilerNode)
	if err != nil {
		return errors.Wrapf(err, "reparsing %s", sf.path)
	}

	h := &straightReplacementHandler{r: &reconciler{sf: sf}}
	if err := h.HandleNode(sf.rootCompilerNode, newRoot); err != nil {
		return err
	}

	sf.fullText = patched
	sf.rootCompilerNode = newRoot
	return nil
}

// symbolTableFor returns this file's lexical symbol table, rebuilding it if
// the tree has been reparsed since the last build.
func (sf *SourceFile) symbolTableFor() *symbolTable {
	if sf.symTable == nil || sf.symTableRoot != sf.rootCompilerNode {
		sf.symTable = buildSymbolTable(sf.rootCompilerNode, sf.fullText)
		sf.symTableRoot = sf.rootCompilerNode
	}
	return sf.symTable
}

// Save writes GetFullText() through host at this file's path.
func (sf *SourceFile) Save(ctx context.Context, host fshost.Host) error {
	return host.WriteFile(ctx, sf.path, []byte(sf.fullText))
}
