// File: pkg/enumerate/git.go
package enumerate

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"go.uber.org/zap"

	"showfiles/pkg/tree"
)

// GitLister lists tracked files plus untracked files that the repository's
// ignore rules do not exclude, restricted to the part of the work tree under Root.
type GitLister struct {
	Root     string
	MaxDepth int

	// Fallback is used when the repository cannot be listed.
	Fallback Enumerator

	repo   *git.Repository
	logger *zap.Logger
}

// NewGitLister opens the repository containing root, searching parent
// directories for the .git directory.
func NewGitLister(root string, maxDepth int, logger *zap.Logger) (*GitLister, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return &GitLister{Root: root, MaxDepth: maxDepth, repo: repo, logger: logger}, nil
}

// Enumerate returns the listing sorted by path.
func (g *GitLister) Enumerate() ([]string, error) {
	files, err := g.list()
	if err != nil {
		if g.Fallback == nil {
			return nil, err
		}
		g.logger.Warn("Git listing failed, walking the filesystem instead", zap.String("root", g.Root), zap.Error(err))
		return g.Fallback.Enumerate()
	}
	return files, nil
}

func (g *GitLister) list() ([]string, error) {
	wt, err := g.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open work tree: %w", err)
	}
	prefix, err := worktreePrefix(wt.Filesystem.Root(), g.Root)
	if err != nil {
		return nil, err
	}

	idx, err := g.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to compute status: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, entry := range idx.Entries {
		if entry.Mode == filemode.Submodule {
			continue
		}
		if st, ok := status[entry.Name]; ok && st.Worktree == git.Deleted {
			continue
		}
		add(entry.Name)
	}
	for name, st := range status {
		if st.Worktree == git.Untracked {
			add(name)
		}
	}
	sort.Strings(names)

	files := make([]string, 0, len(names))
	for _, name := range names {
		rel, ok := underPrefix(name, prefix)
		if !ok {
			continue
		}
		if g.MaxDepth > 0 && tree.Depth(rel) > g.MaxDepth {
			continue
		}
		files = append(files, rel)
	}

	g.logger.Debug("Listed files from git",
		zap.String("worktree", wt.Filesystem.Root()),
		zap.String("prefix", prefix),
		zap.Int("indexEntries", len(idx.Entries)),
		zap.Int("files", len(files)))
	return files, nil
}

// worktreePrefix returns root relative to the work tree top, slash-separated.
func worktreePrefix(top, root string) (string, error) {
	realTop, err := filepath.EvalSymlinks(top)
	if err != nil {
		return "", fmt.Errorf("failed to resolve work tree: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	rel, err := filepath.Rel(realTop, realRoot)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("root %s is outside work tree %s", realRoot, realTop)
	}
	return rel, nil
}

// underPrefix maps a work-tree path to a root-relative one.
func underPrefix(name, prefix string) (string, bool) {
	name = path.Clean(filepath.ToSlash(name))
	if prefix == "." {
		return name, true
	}
	if !strings.HasPrefix(name, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(name, prefix+"/"), true
}
