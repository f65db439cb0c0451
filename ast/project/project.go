// Package project is the workspace layer above a single SourceFile: it
// owns a GlobalContainer, a filesystem host, and the set of currently-open
// source files, and is the entry point embedding applications construct
// first.
package project

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/synlang/astkit/ast"
	"github.com/synlang/astkit/ast/fshost"
	"github.com/synlang/astkit/compiler"
)

// Project holds every source file currently open against one
// GlobalContainer and filesystem host.
type Project struct {
	Container *ast.GlobalContainer
	Host      fshost.Host

	files map[string]*ast.SourceFile
}

// New constructs a Project around frontend and host. settings may be nil
// to take ast.DefaultManipulationSettings().
func New(frontend compiler.Frontend, host fshost.Host, settings *ast.ManipulationSettings) *Project {
	return &Project{
		Container: ast.NewGlobalContainer(frontend, settings),
		Host:      host,
		files:     make(map[string]*ast.SourceFile),
	}
}

// AddSourceFileAtPath reads path through the host, parses it, and adds it
// to the project's open set, returning its SourceFile.
func (p *Project) AddSourceFileAtPath(ctx context.Context, path string) (*ast.SourceFile, error) {
	text, err := p.Host.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	sf, err := ast.NewSourceFile(p.Container, path, text)
	if err != nil {
		return nil, err
	}
	p.files[path] = sf
	return sf, nil
}

// AddSourceFilesAtPaths expands patterns against the host's filesystem and
// adds every matching file, returning the SourceFiles it opened.
func (p *Project) AddSourceFilesAtPaths(ctx context.Context, patterns []string) ([]*ast.SourceFile, error) {
	paths, err := p.Host.Glob(ctx, patterns)
	if err != nil {
		return nil, err
	}

	out := make([]*ast.SourceFile, 0, len(paths))
	for _, path := range paths {
		// Glob reports cwd-relative paths; resolve them against the host's
		// current directory before reading.
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.Host.GetCurrentDirectory(), filepath.FromSlash(path))
		}
		sf, err := p.AddSourceFileAtPath(ctx, path)
		if err != nil {
			return nil, err
		}
		out = append(out, sf)
	}
	return out, nil
}

// GetSourceFile returns the open SourceFile at path, if any.
func (p *Project) GetSourceFile(path string) (*ast.SourceFile, bool) {
	sf, ok := p.files[path]
	return sf, ok
}

// SourceFiles returns every currently-open SourceFile.
func (p *Project) SourceFiles() []*ast.SourceFile {
	out := make([]*ast.SourceFile, 0, len(p.files))
	for _, sf := range p.files {
		out = append(out, sf)
	}
	return out
}

// Save writes every open source file's current text back through the
// host, stopping at the first failure.
func (p *Project) Save(ctx context.Context) error {
	for path, sf := range p.files {
		if err := sf.Save(ctx, p.Host); err != nil {
			return errors.Wrapf(err, "saving %s", path)
		}
	}
	return nil
}
