package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teranos/marksync/bookmarks"
	testdb "github.com/teranos/marksync/internal/testing"
	"github.com/teranos/marksync/share"
)

// manualRunner queues posted tasks until the test runs them.
type manualRunner struct {
	tasks []func()
}

func (m *manualRunner) Post(task func()) { m.tasks = append(m.tasks, task) }

func (m *manualRunner) runAll() int {
	tasks := m.tasks
	m.tasks = nil
	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

type recordingErrorHandler struct {
	errs []error
}

func (h *recordingErrorHandler) OnUnrecoverableError(err error) { h.errs = append(h.errs, err) }

type fixture struct {
	t       *testing.T
	ctx     context.Context
	model   *bookmarks.Model
	store   *share.Store
	runner  *manualRunner
	handler *recordingErrorHandler
	assoc   *Associator
}

func newFixture(t *testing.T, remoteMobile bool, cfg Config, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		model:   bookmarks.NewModel(),
		store:   share.NewStore(testdb.CreateMigratedTestDB(t), share.DefaultCategory),
		runner:  &manualRunner{},
		handler: &recordingErrorHandler{},
	}

	tx, err := f.store.Begin(f.ctx)
	require.NoError(t, err)
	_, err = tx.EnsurePermanentFolders(remoteMobile)
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	opts = append([]Option{WithTaskRunner(f.runner), WithErrorHandler(f.handler)}, opts...)
	f.assoc = NewAssociator(f.model, f.store, cfg, opts...)
	return f
}

func (f *fixture) seedLocal(outline string) {
	f.t.Helper()
	o, err := bookmarks.ParseOutline(strings.NewReader(outline))
	require.NoError(f.t, err)
	_, err = f.model.Import(o)
	require.NoError(f.t, err)
}

func (f *fixture) seedRemote(outline string) {
	f.t.Helper()
	o, err := bookmarks.ParseOutline(strings.NewReader(outline))
	require.NoError(f.t, err)
	f.withTx(func(tx *share.Tx) {
		_, err := tx.ImportOutline(o)
		require.NoError(f.t, err)
	})
}

// withTx runs fn in a committed remote transaction.
func (f *fixture) withTx(fn func(tx *share.Tx)) int64 {
	f.t.Helper()
	tx, err := f.store.Begin(f.ctx)
	require.NoError(f.t, err)
	fn(tx)
	version, err := tx.Commit()
	require.NoError(f.t, err)
	return version
}

// associate runs Associate and then the queued flush.
func (f *fixture) associate() *MergeStats {
	f.t.Helper()
	stats, err := f.assoc.Associate(f.ctx)
	require.NoError(f.t, err)
	f.runner.runAll()
	require.Empty(f.t, f.handler.errs)
	return stats
}

func (f *fixture) remoteFolder(tag string) *share.Node {
	f.t.Helper()
	var node *share.Node
	f.withTx(func(tx *share.Tx) {
		var err error
		node, err = tx.LookupByTag(tag)
		require.NoError(f.t, err)
	})
	return node
}

func (f *fixture) remoteTitles(parentID int64) []string {
	f.t.Helper()
	var out []string
	f.withTx(func(tx *share.Tx) {
		children, err := tx.Children(parentID)
		require.NoError(f.t, err)
		for _, c := range children {
			out = append(out, c.ClientTitle())
		}
	})
	return out
}

func (f *fixture) remoteChildren(parentID int64) []*share.Node {
	f.t.Helper()
	var out []*share.Node
	f.withTx(func(tx *share.Tx) {
		var err error
		out, err = tx.Children(parentID)
		require.NoError(f.t, err)
	})
	return out
}

func (f *fixture) bar() *bookmarks.Node {
	return f.model.PermanentNode(bookmarks.TypeBookmarkBar)
}

func localTitles(n *bookmarks.Node) []string {
	var out []string
	for _, c := range n.Children() {
		out = append(out, c.Title)
	}
	return out
}

func childByTitle(n *bookmarks.Node, title string) *bookmarks.Node {
	for _, c := range n.Children() {
		if c.Title == title {
			return c
		}
	}
	return nil
}

// requireDigestsMatch checks every permanent folder pair compares equal.
func (f *fixture) requireDigestsMatch() {
	f.t.Helper()
	reports, err := f.assoc.Verify(f.ctx)
	require.NoError(f.t, err)
	require.NotEmpty(f.t, reports)
	for _, r := range reports {
		require.Truef(f.t, r.Match, "digest mismatch for %s", r.Folder)
	}
}

// associationSnapshot maps every local node to its remote id and every
// remote node to its local id, leaving out nodes with no association.
type associationSnapshot struct {
	toRemote map[int64]int64
	toLocal  map[int64]int64
}

func (f *fixture) snapshotAssociations() associationSnapshot {
	f.t.Helper()
	snap := associationSnapshot{toRemote: map[int64]int64{}, toLocal: map[int64]int64{}}
	f.model.Walk(func(n *bookmarks.Node, _ int) {
		if id, ok := f.assoc.RemoteFor(n.ID); ok {
			snap.toRemote[n.ID] = id
		}
	})

	f.withTx(func(tx *share.Tx) {
		root, err := tx.LookupByTag(share.TagRoot)
		require.NoError(f.t, err)
		var visit func(id int64)
		visit = func(id int64) {
			if localID, ok := f.assoc.LocalFor(id); ok {
				snap.toLocal[id] = localID
			}
			children, err := tx.ChildrenOf(id)
			require.NoError(f.t, err)
			for _, c := range children {
				visit(c)
			}
		}
		visit(root.ID)
	})

	// both directions describe the same bijection
	require.Len(f.t, snap.toLocal, len(snap.toRemote))
	for localID, remoteID := range snap.toRemote {
		require.Equal(f.t, localID, snap.toLocal[remoteID])
	}
	return snap
}
