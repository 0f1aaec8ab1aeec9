package enumerate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showfiles/pkg/ignore"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestSingleFile(t *testing.T) {
	e, err := Select(Options{Root: t.TempDir(), File: "main.go"}, nil)
	require.NoError(t, err)
	files, err := e.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, files)
}

func TestWalkerListsFilesInWalkOrder(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b.txt":       "b",
		"a/z.txt":     "z",
		"a/b/deep.go": "d",
		"c.md":        "c",
	})

	w := NewWalker(Options{Root: root}, nil)
	files, err := w.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/deep.go", "a/z.txt", "b.txt", "c.md"}, files)
}

func TestWalkerMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"top.txt":     "t",
		"a/mid.txt":   "m",
		"a/b/low.txt": "l",
	})

	files, err := NewWalker(Options{Root: root, MaxDepth: 1}, nil).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/mid.txt", "top.txt"}, files)

	files, err = NewWalker(Options{Root: root, MaxDepth: 2}, nil).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/low.txt", "a/mid.txt", "top.txt"}, files)
}

func TestWalkerPrune(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/x/index.js": "x",
		"src/app.js":              "a",
	})

	files, err := NewWalker(Options{
		Root:  root,
		Prune: func(rel string) bool { return rel == "node_modules" },
	}, nil).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.js"}, files)
}

func TestWalkerSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"real/file.txt": "f"})
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "file.txt"), filepath.Join(root, "linkfile")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken")))

	files, err := NewWalker(Options{Root: root}, nil).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "linkdir", "linkfile", "real/file.txt"}, files)

	files, err = NewWalker(Options{Root: root, FollowSymlinks: true}, nil).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "linkdir/file.txt", "linkfile", "real/file.txt"}, files)
}

func TestWalkerSymlinkLoop(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a/file.txt": "f"})
	require.NoError(t, os.Symlink(root, filepath.Join(root, "a", "loop")))

	files, err := NewWalker(Options{Root: root, FollowSymlinks: true}, nil).Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/file.txt"}, files)
}

func TestFilter(t *testing.T) {
	c := ignore.NewCollector(".", false, nil)
	c.AddIgnore(".git", "*.bin")
	files := Filter([]string{"a.txt", ".git/HEAD", "b.bin", "dir/c.txt"}, c.PatternSet())
	assert.Equal(t, []string{"a.txt", "dir/c.txt"}, files)
}

func TestSelectWithoutRepositoryWalks(t *testing.T) {
	root := t.TempDir()
	e, err := Select(Options{Root: root}, nil)
	require.NoError(t, err)
	_, isWalker := e.(*Walker)
	// TempDir could live inside a repository on some machines.
	if !isWalker {
		_, isGit := e.(*GitLister)
		assert.True(t, isGit)
	}
}

func TestSelectForceWalk(t *testing.T) {
	root := initRepo(t)
	e, err := Select(Options{Root: root, ForceWalk: true}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Walker{}, e)
}

func TestSelectMissingRoot(t *testing.T) {
	_, err := Select(Options{Root: filepath.Join(t.TempDir(), "missing")}, nil)
	assert.Error(t, err)
}

func initRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	writeFiles(t, root, map[string]string{
		".gitignore":     "*.bin\nbuild/\n",
		"tracked.txt":    "t",
		"sub/tracked.go": "package sub",
		"sub/deep/x.go":  "package deep",
		"gone.txt":       "g",
		"other/skip.txt": "s",
	})

	wt, err := repo.Worktree()
	require.NoError(t, err)
	for _, p := range []string{".gitignore", "tracked.txt", "sub/tracked.go", "sub/deep/x.go", "gone.txt", "other/skip.txt"} {
		_, err := wt.Add(p)
		require.NoError(t, err)
	}
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))
	writeFiles(t, root, map[string]string{
		"untracked.txt": "u",
		"sub/new.go":    "package sub",
		"blob.bin":      "\x00\x01",
		"build/out.txt": "o",
	})
	return root
}

func TestGitListerListsTrackedAndUntracked(t *testing.T) {
	root := initRepo(t)

	e, err := Select(Options{Root: root}, nil)
	require.NoError(t, err)
	require.IsType(t, &GitLister{}, e)

	files, err := e.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{
		".gitignore",
		"other/skip.txt",
		"sub/deep/x.go",
		"sub/new.go",
		"sub/tracked.go",
		"tracked.txt",
		"untracked.txt",
	}, files)
}

func TestGitListerSubdirectoryAndDepth(t *testing.T) {
	root := initRepo(t)

	lister, err := NewGitLister(filepath.Join(root, "sub"), 0, nil)
	require.NoError(t, err)
	files, err := lister.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{"deep/x.go", "new.go", "tracked.go"}, files)

	lister, err = NewGitLister(root, 1, nil)
	require.NoError(t, err)
	files, err = lister.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, []string{
		".gitignore",
		"other/skip.txt",
		"sub/new.go",
		"sub/tracked.go",
		"tracked.txt",
		"untracked.txt",
	}, files, "sub/deep is below the depth limit")
}

func TestUnderPrefix(t *testing.T) {
	rel, ok := underPrefix("a/b/c.go", ".")
	assert.True(t, ok)
	assert.Equal(t, "a/b/c.go", rel)

	rel, ok = underPrefix("a/b/c.go", "a")
	assert.True(t, ok)
	assert.Equal(t, "b/c.go", rel)

	_, ok = underPrefix("ab/c.go", "a")
	assert.False(t, ok)
}
