package tree

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showfiles/pkg/ignore"
)

func mkTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		if f[len(f)-1] == '/' {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x\n"), 0o644))
	}
	return root
}

func patterns(ignores, includes []string) *ignore.PatternSet {
	c := ignore.NewCollector(".", false, nil)
	c.AddIgnore(ignores...)
	c.AddInclude(includes...)
	return c.PatternSet()
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth("."))
	assert.Equal(t, 0, Depth(""))
	assert.Equal(t, 0, Depth("a"))
	assert.Equal(t, 1, Depth("a/b"))
	assert.Equal(t, 1, Depth("./a/b/"))
	assert.Equal(t, 2, Depth("a/b/c.txt"))
}

func TestShouldDisplayDirectoryNeedsVisibleDescendant(t *testing.T) {
	root := mkTree(t, "src/main.go", "empty/", "logs/app.log", "deep/a/b/c.txt")
	e := NewEngine(root, 0, patterns([]string{"*.log"}, nil))

	assert.True(t, e.ShouldDisplay("."))
	assert.True(t, e.ShouldDisplay("src"))
	assert.True(t, e.ShouldDisplay("src/main.go"))
	assert.False(t, e.ShouldDisplay("empty"), "empty directory has nothing to show")
	assert.False(t, e.ShouldDisplay("logs"), "all children ignored")
	assert.False(t, e.ShouldDisplay("logs/app.log"))
	assert.True(t, e.ShouldDisplay("deep"))
	assert.False(t, e.ShouldDisplay("missing"))
}

func TestIgnoreWinsOverInclude(t *testing.T) {
	root := mkTree(t, "a/keep.go", "a/gen.go")
	e := NewEngine(root, 0, patterns([]string{"gen.go"}, []string{"*.go"}))

	assert.True(t, e.ShouldDisplay("a/keep.go"))
	assert.False(t, e.ShouldDisplay("a/gen.go"))
}

func TestIncludeAsymmetryBetweenFilesAndDirectories(t *testing.T) {
	root := mkTree(t, "pkg/inner/main.go", "pkg/readme.md", "notes.txt")
	e := NewEngine(root, 0, patterns(nil, []string{"*.go"}))

	// An unmatched directory survives through a matching descendant.
	assert.True(t, e.ShouldDisplay("pkg"))
	assert.True(t, e.ShouldDisplay("pkg/inner"))
	// An unmatched file is dropped even though a sibling matches.
	assert.False(t, e.ShouldDisplay("pkg/readme.md"))
	assert.False(t, e.ShouldDisplay("notes.txt"))
}

func TestIncludedDirectoryWithoutDescendantsIsShown(t *testing.T) {
	root := mkTree(t, "docs/", "other/")
	e := NewEngine(root, 0, patterns(nil, []string{"docs"}))

	assert.True(t, e.ShouldDisplay("docs"))
	assert.False(t, e.ShouldDisplay("other"))

	e = NewEngine(root, 0, patterns([]string{"docs"}, []string{"docs"}))
	assert.False(t, e.ShouldDisplay("docs"))
}

func TestDepthLimit(t *testing.T) {
	root := mkTree(t, "top.txt", "a/mid.txt", "a/main.go", "a/b/low.txt", "docs/x/readme.md")

	e := NewEngine(root, 1, patterns(nil, nil))
	assert.True(t, e.ShouldDisplay("top.txt"))
	assert.True(t, e.ShouldDisplay("a"))
	assert.True(t, e.ShouldDisplay("a/b"), "no include filter: directory at the limit is shown")
	assert.False(t, e.AtDepthLimit("."))
	assert.False(t, e.AtDepthLimit("a"))
	assert.True(t, e.AtDepthLimit("a/b"))

	e = NewEngine(root, 1, patterns(nil, []string{"*.go"}))
	assert.True(t, e.ShouldDisplay("a"), "top-level directory is descended at depth 1")
	assert.True(t, e.ShouldDisplay("a/main.go"))

	e = NewEngine(root, 1, patterns(nil, []string{"*.txt"}))
	assert.True(t, e.ShouldDisplay("a"))
	assert.False(t, e.ShouldDisplay("a/b"), "no descent past the limit, and no exact include match")
	assert.True(t, e.ShouldDisplay("top.txt"))

	e = NewEngine(root, 1, patterns(nil, []string{"docs/x"}))
	assert.True(t, e.ShouldDisplay("docs/x"), "exact include match at the limit")
	assert.True(t, e.ShouldDisplay("docs"))

	e = NewEngine(root, 2, patterns(nil, []string{"*.txt"}))
	assert.True(t, e.ShouldDisplay("a"))
	assert.True(t, e.ShouldDisplay("a/b"))
}

type countingFS struct {
	FS
	reads int
}

func (c *countingFS) ReadDir(name string) ([]os.DirEntry, error) {
	c.reads++
	return c.FS.ReadDir(name)
}

func TestDepthLimitNeverReadsPastLimit(t *testing.T) {
	root := mkTree(t, "a/b/c/d/e.txt")
	cfs := &countingFS{FS: DirFS(root)}
	e := &Engine{FS: cfs, Patterns: patterns(nil, nil), MaxDepth: 2}

	assert.True(t, e.ShouldDisplay("."))
	// ".", "a" and "a/b" are read; "a/b/c" sits at the limit.
	assert.Equal(t, 3, cfs.reads)
}

func TestUnreadableDirectoryHasNoChildren(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := mkTree(t, "locked/secret.txt", "open/file.txt")
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	e := NewEngine(root, 0, patterns(nil, nil))
	assert.False(t, e.ShouldDisplay("locked"))
	assert.True(t, e.ShouldDisplay("."))
}

func TestSymlinkIsALeaf(t *testing.T) {
	root := mkTree(t, "real/file.txt")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	e := NewEngine(root, 0, patterns(nil, []string{"file.txt"}))
	assert.False(t, e.ShouldDisplay("link"), "symlinks are not descended")
	assert.True(t, e.ShouldDisplay("real"))
}

func TestRenderBuiltin(t *testing.T) {
	root := mkTree(t, "b.txt", "a/one.go", "a/two.log", "a/sub/three.go", "z/only.log")
	r := NewRenderer(root, 0, patterns([]string{"*.log"}, nil), false, nil)
	r.Root = "proj"

	var out bytes.Buffer
	require.NoError(t, r.Render(&out))

	want := "proj/\n" +
		"├── a/\n" +
		"│   ├── one.go\n" +
		"│   └── sub/\n" +
		"│       └── three.go\n" +
		"└── b.txt\n"
	assert.Equal(t, want, out.String())
}

func TestRenderRespectsDepthLimit(t *testing.T) {
	root := mkTree(t, "a/b/c.txt", "top.txt")
	r := NewRenderer(root, 1, patterns(nil, nil), false, nil)
	r.Root = "."

	var out bytes.Buffer
	require.NoError(t, r.Render(&out))
	assert.Equal(t, "./\n├── a/\n│   └── b/\n└── top.txt\n", out.String())
}

func TestRenderAgreesWithShouldDisplay(t *testing.T) {
	root := mkTree(t, "pkg/x.go", "pkg/x_test.go", "pkg/doc.md", "cmd/main.go", "web/index.html")
	ps := patterns([]string{"*_test.go"}, []string{"*.go"})
	e := NewEngine(root, 0, ps)

	var out bytes.Buffer
	require.NoError(t, RenderTree(&out, root, 0, ps, false))
	text := out.String()

	for _, rel := range []string{"pkg", "pkg/x.go", "pkg/x_test.go", "pkg/doc.md", "cmd", "cmd/main.go", "web", "web/index.html"} {
		name := filepath.Base(rel)
		if info, err := os.Stat(filepath.Join(root, rel)); err == nil && info.IsDir() {
			name += "/"
		}
		assert.Equal(t, e.ShouldDisplay(rel), bytes.Contains([]byte(text), []byte("── "+name+"\n")), rel)
	}
}

func TestRenderColorMarksDirectories(t *testing.T) {
	root := mkTree(t, "a/x.txt")
	var out bytes.Buffer
	require.NoError(t, RenderTree(&out, root, 0, patterns(nil, nil), true))
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "x.txt\n")
}

func TestExternalArgs(t *testing.T) {
	r := NewRenderer("proj", 2, patterns([]string{".git", "*.log"}, []string{"*.go"}), false, nil)
	args, ok := r.externalArgs()
	require.True(t, ok)
	assert.Contains(t, args, ".git|*.log")
	assert.Contains(t, args, "*.go")
	require.Contains(t, args, "-L")
	for i, arg := range args {
		if arg == "-L" {
			assert.Equal(t, "3", args[i+1], "tree(1) levels count the root's entries as 1")
		}
	}
	assert.Contains(t, args, "-n")
	assert.Equal(t, "proj", args[len(args)-1])

	r = NewRenderer("proj", 0, patterns([]string{"sub/*.tmp"}, nil), false, nil)
	_, ok = r.externalArgs()
	assert.False(t, ok, "anchored rules cannot be passed to tree(1)")
}

func TestRenderFallsBackWhenExternalFails(t *testing.T) {
	root := mkTree(t, "a.txt")
	r := NewRenderer(root, 0, patterns(nil, nil), false, nil)
	r.External = filepath.Join(t.TempDir(), "no-such-tree")
	r.Root = "."

	var out bytes.Buffer
	require.NoError(t, r.Render(&out))
	assert.Equal(t, "./\n└── a.txt\n", out.String())
}
