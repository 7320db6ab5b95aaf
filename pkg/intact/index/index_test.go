package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEntriesSortsByPath(t *testing.T) {
	ix, err := FromEntries([]Entry{
		{Path: "b/two.txt", Digest: "d2"},
		{Path: "a/one.txt", Digest: "d1"},
		{Path: "c", Digest: "d3"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, ix.Len())

	entries := ix.Entries()
	assert.Equal(t, "a/one.txt", entries[0].Path)
	assert.Equal(t, "b/two.txt", entries[1].Path)
	assert.Equal(t, "c", entries[2].Path)
}

func TestFromEntriesRejectsDuplicates(t *testing.T) {
	_, err := FromEntries([]Entry{
		{Path: "same.txt", Digest: "d1"},
		{Path: "same.txt", Digest: "d2"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same.txt")
}

func TestGet(t *testing.T) {
	ix, err := FromEntries([]Entry{
		{Path: "a.txt", Size: 10, ModTime: 1000, Digest: "d1"},
	})
	require.NoError(t, err)

	got, ok := ix.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, int64(10), got.Size)
	assert.Equal(t, "d1", got.Digest)

	_, ok = ix.Get("missing.txt")
	assert.False(t, ok)
}

func TestPathsByDigest(t *testing.T) {
	ix, err := FromEntries([]Entry{
		{Path: "copy1.bin", Digest: "dd"},
		{Path: "copy2.bin", Digest: "dd"},
		{Path: "other.bin", Digest: "xx"},
		{Path: "pending.bin"}, // digest not yet computed
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"copy1.bin", "copy2.bin"}, ix.PathsByDigest("dd"))
	assert.Equal(t, []string{"other.bin"}, ix.PathsByDigest("xx"))
	assert.Empty(t, ix.PathsByDigest("absent"))
	assert.Empty(t, ix.PathsByDigest(""))
}

func TestSameMetaSameDigest(t *testing.T) {
	base := Entry{Path: "f", Size: 5, ModTime: 100, Digest: "d"}

	assert.True(t, base.SameMeta(Entry{Size: 5, ModTime: 100}))
	assert.False(t, base.SameMeta(Entry{Size: 6, ModTime: 100}))
	assert.False(t, base.SameMeta(Entry{Size: 5, ModTime: 101}))

	assert.True(t, base.SameDigest(Entry{Digest: "d"}))
	assert.False(t, base.SameDigest(Entry{Digest: "e"}))
}
