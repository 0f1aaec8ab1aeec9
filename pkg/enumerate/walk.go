// File: pkg/enumerate/walk.go
package enumerate

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"showfiles/pkg/tree"
)

// Walker lists regular files and symlinks by reading the filesystem directly.
type Walker struct {
	Root           string
	MaxDepth       int
	FollowSymlinks bool
	Prune          func(rel string) bool

	logger *zap.Logger
}

// NewWalker creates a Walker from opts.
func NewWalker(opts Options, logger *zap.Logger) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Walker{
		Root:           opts.Root,
		MaxDepth:       opts.MaxDepth,
		FollowSymlinks: opts.FollowSymlinks,
		Prune:          opts.Prune,
		logger:         logger,
	}
}

// Enumerate walks the root in directory listing order. Errors reading a
// directory are logged and the directory is treated as empty.
func (w *Walker) Enumerate() ([]string, error) {
	var files []string
	w.walk(".", make(map[string]bool), &files)
	w.logger.Debug("Completed filesystem walk", zap.String("root", w.Root), zap.Int("files", len(files)))
	return files, nil
}

// walk lists rel. ancestors holds the real paths of the directories being
// walked and is only maintained when symlinks are followed.
func (w *Walker) walk(rel string, ancestors map[string]bool, files *[]string) {
	dir := filepath.Join(w.Root, filepath.FromSlash(rel))
	if w.FollowSymlinks {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			if ancestors[real] {
				w.logger.Debug("Skipping symlink loop", zap.String("path", rel), zap.String("target", real))
				return
			}
			ancestors[real] = true
			defer delete(ancestors, real)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.logger.Warn("Error reading directory during walk", zap.String("directory", dir), zap.Error(err))
		return
	}

	for _, entry := range entries {
		childRel := path.Join(rel, entry.Name())
		mode := entry.Type()

		switch {
		case entry.IsDir():
			if w.pruned(childRel) || w.atDepthLimit(childRel) {
				continue
			}
			w.walk(childRel, ancestors, files)

		case mode&fs.ModeSymlink != 0:
			if w.FollowSymlinks && w.linksToDir(childRel) {
				if !w.pruned(childRel) && !w.atDepthLimit(childRel) {
					w.walk(childRel, ancestors, files)
				}
				continue
			}
			*files = append(*files, childRel)

		case mode.IsRegular():
			*files = append(*files, childRel)

		default:
			w.logger.Debug("Skipping special file", zap.String("path", childRel), zap.String("mode", mode.String()))
		}
	}
}

// atDepthLimit reports whether the directory rel may not be entered.
func (w *Walker) atDepthLimit(rel string) bool {
	return w.MaxDepth > 0 && tree.Depth(rel) >= w.MaxDepth
}

func (w *Walker) pruned(rel string) bool {
	if w.Prune != nil && w.Prune(rel) {
		w.logger.Debug("Skipping pruned directory", zap.String("directory", rel))
		return true
	}
	return false
}

func (w *Walker) linksToDir(rel string) bool {
	info, err := os.Stat(filepath.Join(w.Root, filepath.FromSlash(rel)))
	return err == nil && info.IsDir()
}
