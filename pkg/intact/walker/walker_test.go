package walker

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intact-tools/intact/pkg/intact/ignore"
)

// writeTree creates files under root from a map of relative path to
// content.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestWalkSortedEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.txt":        "bb",
		"a/nested.txt": "nested",
		"a.txt":        "a",
	})

	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	assert.Equal(t, "a.txt", res.Entries[0].Path)
	assert.Equal(t, "a/nested.txt", res.Entries[1].Path)
	assert.Equal(t, "b.txt", res.Entries[2].Path)
	assert.Equal(t, int64(9), res.TotalBytes)
	assert.Empty(t, res.Warnings)
}

func TestWalkRecordsMetadata(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"f.txt": "hello"})

	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)

	info, err := os.Stat(filepath.Join(root, "f.txt"))
	require.NoError(t, err)

	e := res.Entries[0]
	assert.Equal(t, int64(5), e.Size)
	assert.Equal(t, info.ModTime().UnixMilli(), e.ModTime)
	assert.Empty(t, e.Digest, "the walker never hashes")
}

func TestWalkHonorsMatcher(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt":        "k",
		"skip.tmp":        "s",
		"build/out.bin":   "o",
		"build/inner/x.o": "x",
	})

	m, err := compileMatcher("*.tmp", "build/**", "build")
	require.NoError(t, err)

	res, err := Walk(context.Background(), Options{Root: root, Matcher: m})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "keep.txt", res.Entries[0].Path)
}

func TestWalkSkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]string{"real.txt": "real"})
	require.NoError(t, os.Symlink(
		filepath.Join(root, "real.txt"),
		filepath.Join(root, "link.txt")))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

	res, err := Walk(context.Background(), Options{Root: root})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "real.txt", res.Entries[0].Path)
}

func TestWalkRootNotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"f.txt": "x"})

	_, err := Walk(context.Background(), Options{Root: filepath.Join(root, "f.txt")})
	require.Error(t, err)
}

func TestWalkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Walk(ctx, Options{Root: t.TempDir()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWalkProgress(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "aa", "b.txt": "bbb"})

	// Callbacks arrive concurrently; track the high-water marks.
	var mu sync.Mutex
	var maxFiles, maxBytes int64
	_, err := Walk(context.Background(), Options{
		Root: root,
		OnProgress: func(files, bytes int64) {
			mu.Lock()
			if files > maxFiles {
				maxFiles = files
			}
			if bytes > maxBytes {
				maxBytes = bytes
			}
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), maxFiles)
	assert.Equal(t, int64(5), maxBytes)
}

func compileMatcher(patterns ...string) (*ignore.Matcher, error) {
	var rules []ignore.Rule
	for _, p := range patterns {
		rule, err := ignore.Compile(p, false)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return ignore.NewMatcher(rules), nil
}
