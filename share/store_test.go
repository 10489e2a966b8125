package share

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	testdb "github.com/teranos/marksync/internal/testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(testdb.CreateMigratedTestDB(t), "")
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.EnsurePermanentFolders(false)
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)
	return s
}

func childTitles(t *testing.T, tx *Tx, id int64) []string {
	t.Helper()
	nodes, err := tx.Children(id)
	require.NoError(t, err)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Title)
	}
	return out
}

func TestEnsurePermanentFolders(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	bar, err := tx.LookupByTag(TagBookmarkBar)
	require.NoError(t, err)
	assert.True(t, bar.IsFolder)

	_, err = tx.LookupByTag(TagMobile)
	assert.True(t, errors.IsNotFoundError(err))

	created, err := tx.EnsurePermanentFolders(true)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "only mobile was missing")

	root, err := tx.LookupByTag(TagRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bookmarks bar", "Other bookmarks", "Mobile bookmarks"}, childTitles(t, tx, root.ID))
}

func TestCreateAndRemove(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	bar, err := tx.LookupByTag(TagBookmarkBar)
	require.NoError(t, err)

	a, err := tx.Create(bar.ID, 0, Entry{Title: "a", URL: "https://a"})
	require.NoError(t, err)
	_, err = tx.Create(bar.ID, 0, Entry{Title: "b", URL: "https://b"})
	require.NoError(t, err)
	dir, err := tx.Create(bar.ID, 99, Entry{Title: "dir", IsFolder: true, URL: "dropped"})
	require.NoError(t, err)
	_, err = tx.Create(dir, 0, Entry{Title: "inner", URL: "https://inner"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "dir"}, childTitles(t, tx, bar.ID))

	node, err := tx.LookupByID(dir)
	require.NoError(t, err)
	assert.Empty(t, node.URL)
	assert.Equal(t, 2, node.Position)

	_, err = tx.Create(a, 0, Entry{Title: "x"})
	assert.True(t, errors.IsInvalidRequestError(err))

	removed, err := tx.RemoveSubtree(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = tx.RemoveSubtree(a)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	children, err := tx.Children(bar.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, 0, children[0].Position, "positions are compacted")

	_, err = tx.RemoveSubtree(bar.ID)
	assert.True(t, errors.IsPreconditionError(err), "permanent folders cannot be removed")

	journal, err := tx.Journal()
	require.NoError(t, err)
	assert.Empty(t, journal, "local-driven removals are not journaled")
}

func TestCreateNormalizesTitle(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	bar, err := tx.LookupByTag(TagBookmarkBar)
	require.NoError(t, err)
	id, err := tx.Create(bar.ID, 0, Entry{Title: "..", URL: "https://dots"})
	require.NoError(t, err)

	n, err := tx.LookupByID(id)
	require.NoError(t, err)
	assert.Equal(t, ".. ", n.Title)
	assert.Equal(t, "..", n.ClientTitle())

	_, err = tx.CreateFromLocal(bar.ID, 0, Entry{Title: "no id"})
	assert.True(t, errors.IsPreconditionError(err))
}

func TestApplyRemoteDeletionJournals(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	bar, err := tx.LookupByTag(TagBookmarkBar)
	require.NoError(t, err)
	dir, err := tx.CreateFromLocal(bar.ID, 0, Entry{Title: "dir", IsFolder: true, ExternalID: 10})
	require.NoError(t, err)
	leaf, err := tx.CreateFromLocal(dir, 0, Entry{Title: "leaf", URL: "https://leaf", ExternalID: 11})
	require.NoError(t, err)

	removed, err := tx.ApplyRemoteDeletion(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	journal, err := tx.Journal()
	require.NoError(t, err)
	require.Len(t, journal, 2)
	byID := map[int64]Tombstone{}
	for _, e := range journal {
		byID[e.RemoteID] = e
	}
	assert.Equal(t, int64(10), byID[dir].ExternalID)
	assert.True(t, byID[dir].IsFolder)
	assert.Equal(t, "https://leaf", byID[leaf].URL)

	require.NoError(t, tx.PurgeJournal(dir))
	journal, err = tx.Journal()
	require.NoError(t, err)
	require.Len(t, journal, 1)
	assert.Equal(t, leaf, journal[0].RemoteID)
}

func TestCommitBumpsVersionOnlyWhenChanged(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v, err := s.ModelVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "seeding the permanent folders is one transaction")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.PurgeJournal(12345))
	v, err = tx.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	bar, err := tx.LookupByTag(TagBookmarkBar)
	require.NoError(t, err)
	id, err := tx.Create(bar.ID, 0, Entry{Title: "a", URL: "https://a"})
	require.NoError(t, err)
	require.NoError(t, tx.SetExternalID(id, 42))
	assert.True(t, tx.Changed())
	v, err = tx.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	assert.NoError(t, tx.Rollback(), "rollback after commit is a no-op")
	_, err = tx.Commit()
	assert.Error(t, err)
}

func TestRollbackDiscards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	bar, err := tx.LookupByTag(TagBookmarkBar)
	require.NoError(t, err)
	_, err = tx.Create(bar.ID, 0, Entry{Title: "a", URL: "https://a"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	ids, err := tx.ChildrenOf(bar.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = tx.SetExternalID(9999, 1)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestImportOutline(t *testing.T) {
	s := newTestStore(t)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	o, err := bookmarks.ParseOutline(strings.NewReader(`
bookmark_bar:
  - title: Go
    url: https://go.dev
  - title: Reading
    children:
      - {title: Blog, url: https://go.dev/blog}
other:
  - {title: Example, url: https://example.com}
`))
	require.NoError(t, err)

	created, err := tx.ImportOutline(o)
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	n, err := tx.CountNodes()
	require.NoError(t, err)
	assert.Equal(t, 7, n, "root, bar, other and four imported nodes")

	out, err := tx.Outline()
	require.NoError(t, err)
	assert.Equal(t, o.BookmarkBar[0].Title, out.BookmarkBar[0].Title)
	require.Len(t, out.BookmarkBar[1].Children, 1)
	assert.Equal(t, "https://go.dev/blog", out.BookmarkBar[1].Children[0].URL)
	assert.Empty(t, out.Mobile)

	_, err = tx.ImportOutline(&bookmarks.Outline{Mobile: []bookmarks.OutlineNode{{Title: "m", URL: "https://m"}}})
	assert.True(t, errors.IsNotFoundError(err), "mobile folder was never created")
}

func TestBegin_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	s := NewStore(db, "bookmarks")

	mock.ExpectBegin().WillReturnError(errors.New("disk gone"))
	_, err = s.Begin(context.Background())
	assert.Error(t, err)

	// the store lock was released on failure
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT version FROM model_versions").
		WithArgs("bookmarks").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(7)))
	mock.ExpectCommit()

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	v, err := tx.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestCommitFailure_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	s := NewStore(db, "bookmarks")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE remote_nodes SET external_id").
		WithArgs(int64(5), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO model_versions").
		WithArgs("bookmarks").
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.SetExternalID(3, 5))
	_, err = tx.Commit()
	assert.Error(t, err)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
