// Package enumerate produces the ordered list of candidate files for a run.
//
// One strategy is chosen per run: a single named file, a raw filesystem walk,
// or a listing taken from the git repository containing the root. The walk is
// used when raw mode is forced or no repository is found.
package enumerate

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"showfiles/pkg/ignore"
)

// Enumerator lists root-relative, slash-separated candidate file paths.
type Enumerator interface {
	Enumerate() ([]string, error)
}

// Options selects and configures an Enumerator.
type Options struct {
	Root           string // Directory all returned paths are relative to.
	File           string // When set, the single root-relative file to list.
	ForceWalk      bool   // Skip the git listing even inside a repository.
	MaxDepth       int    // <= 0 means unlimited.
	FollowSymlinks bool

	// Prune, when set, stops the walk from entering directories it accepts.
	Prune func(rel string) bool
}

// Select picks the enumeration strategy for opts.
func Select(opts Options, logger *zap.Logger) (Enumerator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.File != "" {
		logger.Debug("Enumerating a single file", zap.String("file", opts.File))
		return SingleFile(opts.File), nil
	}

	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", opts.Root)
	}

	walker := NewWalker(opts, logger)
	if opts.ForceWalk {
		logger.Debug("Raw walk forced", zap.String("root", opts.Root))
		return walker, nil
	}

	lister, err := NewGitLister(opts.Root, opts.MaxDepth, logger)
	if err != nil {
		logger.Debug("No git repository, walking the filesystem", zap.String("root", opts.Root), zap.Error(err))
		return walker, nil
	}
	lister.Fallback = walker
	logger.Debug("Listing files from git", zap.String("root", opts.Root))
	return lister, nil
}

// Filter drops every path the ignore rules match, keeping order.
func Filter(paths []string, patterns *ignore.PatternSet) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if patterns.Ignored(p) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// SingleFile lists exactly one file.
type SingleFile string

func (s SingleFile) Enumerate() ([]string, error) {
	return []string{filepath.ToSlash(string(s))}, nil
}
