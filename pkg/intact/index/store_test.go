package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intact-tools/intact/pkg/intact/ignore"
)

// hexDigest builds a well-formed 64-character digest from a seed byte.
func hexDigest(seed byte) string {
	return strings.Repeat(fmt.Sprintf("%02x", seed), 32)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()

	original, err := FromEntries([]Entry{
		{Path: "docs/readme.md", Size: 120, ModTime: 1700000000123, Digest: hexDigest(0x11)},
		{Path: "a.txt", Size: 5, ModTime: 1700000000456, Digest: hexDigest(0x22)},
		{Path: "nested/deep/file with spaces.bin", Size: 0, ModTime: 0, Digest: hexDigest(0x33)},
	})
	require.NoError(t, err)

	require.NoError(t, Save(root, original))
	require.True(t, Exists(root))

	loaded, err := Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, original.Entries(), loaded.Entries())
}

func TestSaveWritesSha256sumFormat(t *testing.T) {
	root := t.TempDir()
	digest := hexDigest(0xde)
	ix, err := FromEntries([]Entry{
		{Path: "a.txt", Size: 1, ModTime: 42, Digest: digest},
	})
	require.NoError(t, err)
	require.NoError(t, Save(root, ix))

	hashData, err := os.ReadFile(filepath.Join(root, HashIndexName))
	require.NoError(t, err)
	assert.Equal(t, digest+"  a.txt\n", string(hashData))

	metaData, err := os.ReadFile(filepath.Join(root, MetaIndexName))
	require.NoError(t, err)
	assert.Equal(t, "42  1  a.txt\n", string(metaData))
}

func TestLoadNoIndex(t *testing.T) {
	_, err := Load(t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNoIndex)
}

func TestLoadCorruptIndex(t *testing.T) {
	good := hexDigest(0xaa)

	tests := []struct {
		name string
		hash string
		meta string
	}{
		{
			name: "hash line without separator",
			hash: good + " a.txt\n",
			meta: "42  1  a.txt\n",
		},
		{
			name: "digest too short",
			hash: "deadbeef  a.txt\n",
			meta: "42  1  a.txt\n",
		},
		{
			name: "digest with non-hex characters",
			hash: strings.Repeat("zz", 32) + "  a.txt\n",
			meta: "42  1  a.txt\n",
		},
		{
			name: "digest with uppercase hex",
			hash: strings.ToUpper(good) + "  a.txt\n",
			meta: "42  1  a.txt\n",
		},
		{
			name: "meta line with too few fields",
			hash: good + "  a.txt\n",
			meta: "42  a.txt\n",
		},
		{
			name: "meta line with non-numeric timestamp",
			hash: good + "  a.txt\n",
			meta: "soon  1  a.txt\n",
		},
		{
			name: "meta line with non-numeric size",
			hash: good + "  a.txt\n",
			meta: "42  big  a.txt\n",
		},
		{
			name: "entry count mismatch",
			hash: good + "  a.txt\n" + hexDigest(0xbb) + "  b.txt\n",
			meta: "42  1  a.txt\n",
		},
		{
			name: "path mismatch between files",
			hash: good + "  a.txt\n",
			meta: "42  1  b.txt\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(root, HashIndexName), []byte(tt.hash), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(root, MetaIndexName), []byte(tt.meta), 0o644))

			_, err := Load(root, nil)
			require.ErrorIs(t, err, ErrCorruptIndex)
		})
	}
}

func TestLoadMissingCounterpart(t *testing.T) {
	// One file present, the other absent: the index exists but cannot be
	// joined, so loading fails rather than trusting half a baseline.
	root := t.TempDir()
	line := hexDigest(0xaa) + "  a.txt\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, HashIndexName), []byte(line), 0o644))

	require.True(t, Exists(root))
	_, err := Load(root, nil)
	require.Error(t, err)
}

func TestLoadAppliesMatcher(t *testing.T) {
	root := t.TempDir()
	ix, err := FromEntries([]Entry{
		{Path: "keep.txt", Size: 1, ModTime: 1, Digest: hexDigest(0xaa)},
		{Path: "skip.tmp", Size: 2, ModTime: 2, Digest: hexDigest(0xbb)},
	})
	require.NoError(t, err)
	require.NoError(t, Save(root, ix))

	rule, err := ignore.Compile("*.tmp", false)
	require.NoError(t, err)

	loaded, err := Load(root, ignore.NewMatcher([]ignore.Rule{rule}))
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())

	_, ok := loaded.Get("keep.txt")
	assert.True(t, ok)
	_, ok = loaded.Get("skip.tmp")
	assert.False(t, ok)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	root := t.TempDir()

	first, err := FromEntries([]Entry{{Path: "a.txt", Size: 1, ModTime: 1, Digest: hexDigest(0xaa)}})
	require.NoError(t, err)
	require.NoError(t, Save(root, first))

	second, err := FromEntries([]Entry{{Path: "b.txt", Size: 2, ModTime: 2, Digest: hexDigest(0xbb)}})
	require.NoError(t, err)
	require.NoError(t, Save(root, second))

	loaded, err := Load(root, nil)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	_, ok := loaded.Get("b.txt")
	assert.True(t, ok)

	// No temporary files left behind.
	matches, err := filepath.Glob(filepath.Join(root, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLoadSkipsBlankLines(t *testing.T) {
	root := t.TempDir()
	line := hexDigest(0xaa) + "  a.txt\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, HashIndexName), []byte(line+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, MetaIndexName), []byte("\n42  1  a.txt\n"), 0o644))

	loaded, err := Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestValidDigest(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "well-formed", input: hexDigest(0x5f), want: true},
		{name: "too short", input: "deadbeef", want: false},
		{name: "too long", input: hexDigest(0x5f) + "00", want: false},
		{name: "uppercase", input: strings.ToUpper(hexDigest(0x5f)), want: false},
		{name: "non-hex", input: strings.Repeat("g", 64), want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, validDigest(tt.input))
		})
	}
}
