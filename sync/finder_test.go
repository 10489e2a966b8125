package sync

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marksync/bookmarks"
)

func TestNodeFinder_TieBreak(t *testing.T) {
	m := bookmarks.NewModel()
	bar := m.PermanentNode(bookmarks.TypeBookmarkBar)

	var dups []*bookmarks.Node
	for i := 0; i < 3; i++ {
		n, err := m.Create(bar, i, "Go", "https://go.dev", false)
		require.NoError(t, err)
		dups = append(dups, n)
	}

	f := newNodeFinder(bar)

	got, ok := f.find("https://go.dev", "Go", false, dups[2].ID)
	require.True(t, ok)
	assert.Same(t, dups[2], got, "preferred id wins")

	got, ok = f.find("https://go.dev", "Go", false, 0)
	require.True(t, ok)
	assert.Same(t, dups[0], got, "otherwise earliest sibling wins")

	got, ok = f.find("https://go.dev", "Go", false, 12345)
	require.True(t, ok)
	assert.Same(t, dups[1], got)

	_, ok = f.find("https://go.dev", "Go", false, 0)
	assert.False(t, ok, "each candidate matches once")
}

func TestNodeFinder_Equality(t *testing.T) {
	m := bookmarks.NewModel()
	bar := m.PermanentNode(bookmarks.TypeBookmarkBar)
	_, err := m.Create(bar, 0, "Docs", "", true)
	require.NoError(t, err)
	_, err = m.Create(bar, 1, "Docs", "https://docs", false)
	require.NoError(t, err)

	f := newNodeFinder(bar)

	_, ok := f.find("https://other", "Docs", false, 0)
	assert.False(t, ok, "url must match")

	_, ok = f.find("", "Missing", true, 0)
	assert.False(t, ok, "empty bucket")

	folder, ok := f.find("", "Docs", true, 0)
	require.True(t, ok)
	assert.True(t, folder.IsFolder())

	leaf, ok := f.find("https://docs", "Docs", false, 0)
	require.True(t, ok)
	assert.False(t, leaf.IsFolder())
}

func TestNodeFinder_NormalizesTitles(t *testing.T) {
	m := bookmarks.NewModel()
	bar := m.PermanentNode(bookmarks.TypeBookmarkBar)

	long := strings.Repeat("x", 300)
	n, err := m.Create(bar, 0, long, "https://long", false)
	require.NoError(t, err)
	dot, err := m.Create(bar, 1, ".", "https://dot", false)
	require.NoError(t, err)

	f := newNodeFinder(bar)

	got, ok := f.find("https://long", strings.Repeat("x", 255), false, 0)
	require.True(t, ok, "stored titles are truncated")
	assert.Same(t, n, got)

	got, ok = f.find("https://dot", ".", false, 0)
	require.True(t, ok)
	assert.Same(t, dot, got)
}

func TestContentHash(t *testing.T) {
	if ContentHash("a", "b") != ContentHash("a", "b") {
		t.Fatal("hash must be deterministic")
	}
	if ContentHash("ab", "c") == ContentHash("a", "bc") {
		t.Fatal("title/url boundary must be part of the hash")
	}
	if ContentHash(strings.Repeat("t", 300), "") != ContentHash(strings.Repeat("t", 256), "") {
		t.Fatal("titles are normalized before hashing")
	}
}
