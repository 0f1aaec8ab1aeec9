// Package tree decides which paths under a root are displayed and renders
// the surviving ones as an ASCII tree.
package tree

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"showfiles/pkg/ignore"
)

// FS is the filesystem query capability the decision engine needs.
// Names are slash-separated and relative to the root; the root itself is ".".
type FS interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	Lstat(name string) (fs.FileInfo, error)
}

// DirFS answers FS queries from the operating system below a root directory.
type DirFS string

func (d DirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(d.join(name))
}

func (d DirFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(d.join(name))
}

func (d DirFS) join(name string) string {
	return filepath.Join(string(d), filepath.FromSlash(name))
}

// Engine is the display predicate. It holds no state between calls; every
// answer is computed from the filesystem at call time.
type Engine struct {
	FS       FS
	Patterns *ignore.PatternSet
	MaxDepth int // <= 0 means unlimited
}

// NewEngine creates an Engine over the directory root.
func NewEngine(root string, maxDepth int, patterns *ignore.PatternSet) *Engine {
	return &Engine{FS: DirFS(root), Patterns: patterns, MaxDepth: maxDepth}
}

// ShouldDisplay reports whether rel, a root-relative path, is displayed.
// A file is displayed when it is not ignored and passes the include filter.
// A directory is displayed when some child is, or when it matches an include
// rule itself.
func (e *Engine) ShouldDisplay(rel string) bool {
	rel = Clean(rel)
	info, err := e.FS.Lstat(rel)
	if err != nil {
		return false
	}
	return e.display(rel, info.IsDir())
}

// VisibleChildren returns the displayed children of the directory rel in
// listing order. Unreadable directories have no children.
func (e *Engine) VisibleChildren(rel string) []fs.DirEntry {
	rel = Clean(rel)
	entries, err := e.FS.ReadDir(rel)
	if err != nil {
		return nil
	}
	visible := make([]fs.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if e.display(path.Join(rel, entry.Name()), entry.IsDir()) {
			visible = append(visible, entry)
		}
	}
	return visible
}

// AtDepthLimit reports whether a directory at rel may not be descended into.
func (e *Engine) AtDepthLimit(rel string) bool {
	return e.MaxDepth > 0 && Depth(Clean(rel)) >= e.MaxDepth
}

func (e *Engine) display(rel string, isDir bool) bool {
	isRoot := rel == "."
	if !isRoot && e.Patterns.Ignored(rel) {
		return false
	}

	selfIncluded := e.Patterns.HasInclude() && e.Patterns.Included(rel)
	if !isDir {
		return !e.Patterns.HasInclude() || selfIncluded
	}

	if e.AtDepthLimit(rel) {
		if !e.Patterns.HasInclude() {
			return true
		}
		return e.Patterns.IncludedExactly(rel)
	}

	entries, err := e.FS.ReadDir(rel)
	if err == nil {
		for _, entry := range entries {
			if e.display(path.Join(rel, entry.Name()), entry.IsDir()) {
				return true
			}
		}
	}
	return !isRoot && selfIncluded
}

// Depth is the number of slashes in rel: the root "." and its direct
// entries have depth 0, "a/b" has depth 1.
func Depth(rel string) int {
	return strings.Count(Clean(rel), "/")
}

// Clean normalizes rel to a slash-separated path relative to the root.
func Clean(rel string) string {
	rel = path.Clean(filepath.ToSlash(rel))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return "."
	}
	return rel
}
