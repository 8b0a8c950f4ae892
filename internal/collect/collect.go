// Package collect discovers dependency manifests and candidate source files
// in a workspace. Discovery order is unspecified; downstream consumers must
// not depend on it.
package collect

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ManifestCollector discovers dependency-declaration files.
type ManifestCollector interface {
	DiscoverManifests(ctx context.Context) ([]string, error)
}

// SourceCollector discovers candidate source files, filtered by a fixed
// allow-list of source extensions.
type SourceCollector interface {
	DiscoverSourceFiles(ctx context.Context) ([]string, error)
}

// manifestNames are the dependency manifests the scanner understands.
var manifestNames = map[string]bool{
	"package.json":     true,
	"requirements.txt": true,
	"go.mod":           true,
}

// DefaultExtensions is the source-file allow-list.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".go", ".java", ".rb", ".php", ".c", ".cpp", ".cs",
}

// defaultExcludes are directory names never descended into.
var defaultExcludes = map[string]bool{
	".git":         true,
	".codescanner": true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"__pycache__":  true,
}

// Walker implements both collectors over one workspace root.
type Walker struct {
	root       string
	extensions map[string]bool
	excludes   map[string]bool
	// walkers bounds the fan-out of the parallel source walk.
	walkers int
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithExtensions replaces the source extension allow-list.
func WithExtensions(exts []string) WalkerOption {
	return func(w *Walker) {
		w.extensions = make(map[string]bool, len(exts))
		for _, e := range exts {
			w.extensions[e] = true
		}
	}
}

// WithExcludes adds directory names to skip during walks.
func WithExcludes(names []string) WalkerOption {
	return func(w *Walker) {
		for _, n := range names {
			w.excludes[n] = true
		}
	}
}

// NewWalker returns a Walker rooted at root.
func NewWalker(root string, opts ...WalkerOption) *Walker {
	w := &Walker{
		root:       root,
		extensions: make(map[string]bool, len(DefaultExtensions)),
		excludes:   make(map[string]bool, len(defaultExcludes)),
		walkers:    4,
	}
	for _, e := range DefaultExtensions {
		w.extensions[e] = true
	}
	for n := range defaultExcludes {
		w.excludes[n] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DiscoverManifests walks the workspace for known dependency manifests.
func (w *Walker) DiscoverManifests(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && w.excludes[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if manifestNames[d.Name()] {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover manifests: %w", err)
	}
	return out, nil
}

// DiscoverSourceFiles walks the workspace for files matching the extension
// allow-list. Top-level entries are walked by a bounded worker group, so
// the returned order is nondeterministic.
func (w *Walker) DiscoverSourceFiles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("read workspace root: %w", err)
	}

	var mu sync.Mutex
	var out []string
	collect := func(path string) {
		mu.Lock()
		out = append(out, path)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.walkers)

	for _, e := range entries {
		if !e.IsDir() {
			if w.extensions[filepath.Ext(e.Name())] {
				collect(filepath.Join(w.root, e.Name()))
			}
			continue
		}
		if w.excludes[e.Name()] {
			continue
		}
		dir := filepath.Join(w.root, e.Name())
		g.Go(func() error {
			return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					if w.excludes[d.Name()] {
						return filepath.SkipDir
					}
					return nil
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if w.extensions[filepath.Ext(d.Name())] {
					collect(path)
				}
				return nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discover source files: %w", err)
	}
	return out, nil
}
