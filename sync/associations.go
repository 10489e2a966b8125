package sync

import (
	gosync "sync"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

// associations is the local<->remote id bijection plus the set of remote
// ids whose stored ExternalID does not yet name their local node.
type associations struct {
	mu       gosync.RWMutex
	toRemote map[int64]int64
	toLocal  map[int64]int64
	dirty    map[int64]struct{}
}

func newAssociations() *associations {
	return &associations{
		toRemote: make(map[int64]int64),
		toLocal:  make(map[int64]int64),
		dirty:    make(map[int64]struct{}),
	}
}

func (a *associations) add(localID, remoteID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.toRemote[localID]; ok {
		return errors.NewPreconditionError("local node %d already associated with remote %d", localID, existing)
	}
	if existing, ok := a.toLocal[remoteID]; ok {
		return errors.NewPreconditionError("remote node %d already associated with local %d", remoteID, existing)
	}
	a.toRemote[localID] = remoteID
	a.toLocal[remoteID] = localID
	return nil
}

func (a *associations) remove(remoteID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if localID, ok := a.toLocal[remoteID]; ok {
		delete(a.toRemote, localID)
	}
	delete(a.toLocal, remoteID)
	delete(a.dirty, remoteID)
}

func (a *associations) clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.toRemote = make(map[int64]int64)
	a.toLocal = make(map[int64]int64)
	a.dirty = make(map[int64]struct{})
}

func (a *associations) localOf(remoteID int64) (int64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.toLocal[remoteID]
	return id, ok
}

func (a *associations) remoteOf(localID int64) (int64, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	id, ok := a.toRemote[localID]
	return id, ok
}

// markDirtyIfStale records remote as needing an ExternalID write and
// reports whether it did.
func (a *associations) markDirtyIfStale(local *bookmarks.Node, remote *share.Node) bool {
	if remote.ExternalID == local.ID {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dirty[remote.ID] = struct{}{}
	return true
}

// takeDirty snapshots the dirty set with the local id each entry should
// carry and clears it. Entries no longer associated are dropped.
func (a *associations) takeDirty() map[int64]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[int64]int64, len(a.dirty))
	for remoteID := range a.dirty {
		if localID, ok := a.toLocal[remoteID]; ok {
			out[remoteID] = localID
		}
	}
	a.dirty = make(map[int64]struct{})
	return out
}

func (a *associations) dirtyCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.dirty)
}
