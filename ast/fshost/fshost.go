// Package fshost is the narrow filesystem boundary astkit's core programs
// against: read, write, mkdir, existence checks, current directory, and
// glob. The default implementation wraps the host OS through afero; test
// code gets an equally real implementation backed by an in-memory afero
// filesystem rather than hand-rolled mocks.
package fshost

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Host is the filesystem contract a Project is built against.
type Host interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	Mkdir(ctx context.Context, path string) error
	FileExists(ctx context.Context, path string) bool
	DirectoryExists(ctx context.Context, path string) bool
	GetCurrentDirectory() string
	Glob(ctx context.Context, patterns []string) ([]string, error)
}

type aferoHost struct {
	fs  afero.Fs
	cwd string
}

// OS returns a Host backed by the real operating system filesystem, rooted
// at cwd (the value GetCurrentDirectory reports).
func OS(cwd string) Host {
	return &aferoHost{fs: afero.NewOsFs(), cwd: cwd}
}

// InMemory returns a Host backed by an in-memory filesystem, for tests
// that exercise Project/SourceFile edits without touching disk.
func InMemory(cwd string) Host {
	return &aferoHost{fs: afero.NewMemMapFs(), cwd: cwd}
}

func (h *aferoHost) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(h.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &fileNotFoundError{path: path}
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return data, nil
}

func (h *aferoHost) WriteFile(_ context.Context, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := h.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", path)
		}
	}
	if err := afero.WriteFile(h.fs, path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func (h *aferoHost) Mkdir(_ context.Context, path string) error {
	if err := h.fs.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "creating directory %s", path)
	}
	return nil
}

func (h *aferoHost) FileExists(_ context.Context, path string) bool {
	info, err := h.fs.Stat(path)
	return err == nil && !info.IsDir()
}

func (h *aferoHost) DirectoryExists(_ context.Context, path string) bool {
	info, err := h.fs.Stat(path)
	return err == nil && info.IsDir()
}

func (h *aferoHost) GetCurrentDirectory() string { return h.cwd }

// Glob expands patterns (doublestar syntax: ** matches across directory
// boundaries) against every file under h's current directory, matching and
// returning cwd-relative, slash-separated paths. Results are grouped by
// pattern in the order given, each group in walk (lexical) order, with
// duplicates removed.
func (h *aferoHost) Glob(_ context.Context, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, pattern := range patterns {
		err := afero.Walk(h.fs, h.cwd, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(h.cwd, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)
			match, matchErr := doublestar.Match(pattern, rel)
			if matchErr != nil {
				return errors.Wrapf(matchErr, "bad glob pattern %q", pattern)
			}
			if match && !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "globbing %q", pattern)
		}
	}

	return out, nil
}

type fileNotFoundError struct {
	path string
}

func (e *fileNotFoundError) Error() string { return "file not found: " + e.path }

// IsNotFound reports whether err is the not-found error a Host.ReadFile
// returns for a missing path.
func IsNotFound(err error) bool {
	_, ok := err.(*fileNotFoundError)
	return ok
}
