package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

func TestFlush_Coalesces(t *testing.T) {
	f := newFixture(t, false, Config{})
	f.seedRemote(`
bookmark_bar:
  - {title: A, url: https://a}
  - {title: B, url: https://b}
  - {title: C, url: https://c}
`)

	stats, err := f.assoc.Associate(f.ctx)
	require.NoError(t, err)
	assert.Len(t, f.runner.tasks, 1, "five dirty associations, one queued flush")
	assert.Equal(t, int64(2), stats.Version)
	assert.Equal(t, 5, f.assoc.assoc.dirtyCount())

	require.Equal(t, 1, f.runner.runAll())
	require.Empty(t, f.handler.errs)

	version, err := f.store.ModelVersion(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version, "one transaction for the whole batch")
	assert.Equal(t, version, f.model.Root().VersionStamp())
	for _, child := range f.bar().Children() {
		assert.Equal(t, version, child.VersionStamp())
	}

	remoteBar := f.remoteFolder(share.TagBookmarkBar)
	assert.Equal(t, f.bar().ID, remoteBar.ExternalID)

	// nothing left to write: no transaction, no version bump
	require.NoError(t, f.assoc.Flush(f.ctx))
	after, err := f.store.ModelVersion(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, version, after)
}

func TestFlush_SynchronousFlushClearsPending(t *testing.T) {
	f := newFixture(t, false, Config{})
	f.seedRemote(`bookmark_bar: [{title: A, url: https://a}]`)

	_, err := f.assoc.Associate(f.ctx)
	require.NoError(t, err)
	require.NoError(t, f.assoc.Flush(f.ctx))
	assert.Zero(t, f.assoc.assoc.dirtyCount())

	// the queued task finds nothing to do
	f.runner.runAll()
	assert.Empty(t, f.handler.errs)

	// and a new dirty mark can queue again
	f.model.SetVersionStamps(0)
	_, err = f.assoc.Associate(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, f.runner.tasks, "every ExternalID is already current")
}

func TestFlush_VanishedRemoteNode(t *testing.T) {
	f := newFixture(t, false, Config{})
	f.seedRemote(`bookmark_bar: [{title: A, url: https://a}]`)

	_, err := f.assoc.Associate(f.ctx)
	require.NoError(t, err)

	remoteBar := f.remoteFolder(share.TagBookmarkBar)
	children := f.remoteChildren(remoteBar.ID)
	require.Len(t, children, 1)
	f.withTx(func(tx *share.Tx) {
		_, err := tx.RemoveSubtree(children[0].ID)
		require.NoError(t, err)
	})

	f.runner.runAll()
	require.Len(t, f.handler.errs, 1)
	err = f.handler.errs[0]
	assert.True(t, errors.IsNotFoundError(err))
	assert.True(t, errors.IsUnrecoverable(err))

	// the failed batch was rolled back
	assert.Zero(t, f.remoteFolder(share.TagBookmarkBar).ExternalID)
}

func TestDelayedRunner(t *testing.T) {
	done := make(chan struct{})
	start := time.Now()
	delayedRunner{delay: 5 * time.Millisecond}.Post(func() { close(done) })

	select {
	case <-done:
		if time.Since(start) < 5*time.Millisecond {
			t.Error("task ran before its delay")
		}
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}
