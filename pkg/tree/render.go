// File: pkg/tree/render.go
package tree

import (
	"fmt"
	"io"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"showfiles/pkg/ignore"
)

// Renderer prints the displayed part of a directory as an ASCII tree.
type Renderer struct {
	Engine *Engine
	Root   string // Root as given by the user; printed on the first line.
	Color  bool

	// External is the path of a tree(1) binary to delegate to. Empty disables
	// delegation. The built-in renderer is used whenever the active rules
	// cannot be expressed to tree(1) or the command fails.
	External string

	logger *zap.Logger
}

// NewRenderer creates a Renderer for root using the built-in renderer.
func NewRenderer(root string, maxDepth int, patterns *ignore.PatternSet, colorEnabled bool, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		Engine: NewEngine(root, maxDepth, patterns),
		Root:   root,
		Color:  colorEnabled,
		logger: logger,
	}
}

// RenderTree writes the tree of rootDir to w with the built-in renderer.
func RenderTree(w io.Writer, rootDir string, maxDepth int, patterns *ignore.PatternSet, colorEnabled bool) error {
	return NewRenderer(rootDir, maxDepth, patterns, colorEnabled, nil).Render(w)
}

// Render writes the tree to w.
func (r *Renderer) Render(w io.Writer) error {
	if r.External != "" {
		if args, ok := r.externalArgs(); ok {
			out, err := exec.Command(r.External, args...).Output()
			if err == nil {
				_, err = w.Write(out)
				return err
			}
			r.logger.Warn("External tree command failed, using built-in renderer",
				zap.String("command", r.External), zap.Error(err))
		} else {
			r.logger.Debug("Rules not expressible to external tree, using built-in renderer")
		}
	}

	var b strings.Builder
	b.WriteString(r.dirLabel(rootLabel(r.Root)))
	b.WriteString("\n")
	r.renderDir(&b, ".", "")
	_, err := io.WriteString(w, b.String())
	return err
}

// renderDir writes the displayed children of rel with connectors and the
// prefix accumulated from enclosing levels.
func (r *Renderer) renderDir(b *strings.Builder, rel, prefix string) {
	children := r.Engine.VisibleChildren(rel)
	for i, child := range children {
		connector := "├── "
		extension := "│   "
		if i == len(children)-1 {
			connector = "└── "
			extension = "    "
		}

		childRel := path.Join(rel, child.Name())
		if child.IsDir() {
			fmt.Fprintf(b, "%s%s%s\n", prefix, connector, r.dirLabel(child.Name()+"/"))
			if !r.Engine.AtDepthLimit(childRel) {
				r.renderDir(b, childRel, prefix+extension)
			}
			continue
		}
		fmt.Fprintf(b, "%s%s%s\n", prefix, connector, child.Name())
	}
}

func (r *Renderer) dirLabel(name string) string {
	if !r.Color {
		return name
	}
	c := color.New(color.FgBlue, color.Bold)
	c.EnableColor()
	return c.Sprint(name)
}

// externalArgs translates the active rules into tree(1) arguments. tree(1)
// matches -I and -P against entry names only, so rules containing '/' cannot
// be translated.
func (r *Renderer) externalArgs() ([]string, bool) {
	ps := r.Engine.Patterns
	ignores := ps.IgnoreGlobs()
	includes := ps.IncludeGlobs()
	for _, g := range append(append([]string(nil), ignores...), includes...) {
		if strings.Contains(g, "/") || strings.Contains(g, "|") {
			return nil, false
		}
	}

	args := []string{"-a", "-F", "--noreport", "--charset", "UTF-8"}
	if r.Color {
		args = append(args, "-C")
	} else {
		args = append(args, "-n")
	}
	if len(ignores) > 0 {
		args = append(args, "-I", strings.Join(ignores, "|"))
	}
	if len(includes) > 0 {
		args = append(args, "-P", strings.Join(includes, "|"), "--matchdirs", "--prune")
	} else {
		args = append(args, "--prune")
	}
	if ps.IgnoreCase() {
		args = append(args, "--ignore-case")
	}
	if r.Engine.MaxDepth > 0 {
		// tree(1) counts the root's entries as level 1.
		args = append(args, "-L", strconv.Itoa(r.Engine.MaxDepth+1))
	}
	return append(args, r.Root), true
}

func rootLabel(root string) string {
	if root == "" {
		root = "."
	}
	if strings.HasSuffix(root, "/") || strings.HasSuffix(root, string(filepath.Separator)) {
		return root
	}
	return root + "/"
}
