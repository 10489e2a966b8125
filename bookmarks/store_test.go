package bookmarks

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testdb "github.com/teranos/marksync/internal/testing"
)

const sampleOutline = `
bookmark_bar:
  - title: Go
    url: https://go.dev
  - title: Reading
    children:
      - title: Blog
        url: https://go.dev/blog
      - title: Empty
        folder: true
other:
  - title: Example
    url: https://example.com
mobile:
  - title: Phone
    url: https://m.example.com
`

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	db := testdb.CreateMigratedTestDB(t)

	m := NewModel()
	o, err := ParseOutline(strings.NewReader(sampleOutline))
	require.NoError(t, err)
	_, err = m.Import(o)
	require.NoError(t, err)
	reading := m.PermanentNode(TypeBookmarkBar).Child(1)
	m.SetVersionStamps(12, reading)

	require.NoError(t, Save(ctx, db, m))

	loaded, err := Load(ctx, db)
	require.NoError(t, err)

	assert.Equal(t, m.Outline(), loaded.Outline())
	assert.Equal(t, m.TotalNodeCount(), loaded.TotalNodeCount())
	assert.Equal(t, int64(12), loaded.Root().VersionStamp())
	assert.True(t, loaded.PermanentNode(TypeMobile).IsVisible())

	loadedReading := loaded.NodeByID(reading.ID)
	require.NotNil(t, loadedReading)
	assert.Equal(t, int64(12), loadedReading.VersionStamp())

	// ids keep advancing after a reload
	n, err := loaded.Create(loaded.PermanentNode(TypeOther), 0, "new", "https://new", false)
	require.NoError(t, err)
	m.Walk(func(existing *Node, _ int) {
		assert.NotEqual(t, existing.ID, n.ID)
	})
}

func TestLoad_Empty(t *testing.T) {
	db := testdb.CreateMigratedTestDB(t)

	m, err := Load(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 4, m.TotalNodeCount())
}

func TestLoad_MissingPermanentFolder(t *testing.T) {
	db := testdb.CreateMigratedTestDB(t)
	_, err := db.Exec(`INSERT INTO local_bookmarks (id, parent_id, position, node_type) VALUES (1, NULL, 0, 'root')`)
	require.NoError(t, err)

	_, err = Load(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bookmark_bar")
}
