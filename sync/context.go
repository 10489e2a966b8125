package sync

import (
	"github.com/teranos/marksync/bookmarks"
)

// SyncState is the outcome of comparing the local version stamp with the
// remote model version.
type SyncState int

const (
	// StateUnset means the local tree was never stamped.
	StateUnset SyncState = iota
	// StateInSync means both sides agree on the last committed version.
	StateInSync
	// StateAhead means the local stamp is newer than anything the remote
	// store committed.
	StateAhead
	// StateBehind means the remote store committed after the local stamp.
	StateBehind
)

func (s SyncState) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateInSync:
		return "in_sync"
	case StateAhead:
		return "ahead"
	case StateBehind:
		return "behind"
	}
	return "unknown"
}

// mergeContext is the scratch state of one Associate run.
type mergeContext struct {
	stack []int64

	state SyncState
	roots []*bookmarks.Node

	seen           map[Hash]struct{}
	duplicateCount int
	newDuplicates  int

	idIndex map[int64]*bookmarks.Node

	stats *MergeStats
}

func newMergeContext(stats *MergeStats) *mergeContext {
	return &mergeContext{
		seen:  make(map[Hash]struct{}),
		stats: stats,
	}
}

func (c *mergeContext) push(remoteID int64) {
	c.stack = append(c.stack, remoteID)
}

func (c *mergeContext) pop() (int64, bool) {
	if len(c.stack) == 0 {
		return 0, false
	}
	id := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return id, true
}

// countDuplicate records a url or folder and reports whether an identical
// one was seen earlier in the run.
func (c *mergeContext) countDuplicate(title, url string) bool {
	h := ContentHash(title, url)
	if _, ok := c.seen[h]; ok {
		c.duplicateCount++
		return true
	}
	c.seen[h] = struct{}{}
	return false
}

// lookupLocal resolves a local id under the permanent roots. The index is
// built on first use and reflects the tree at that moment.
func (c *mergeContext) lookupLocal(id int64) *bookmarks.Node {
	if c.idIndex == nil {
		c.idIndex = make(map[int64]*bookmarks.Node)
		for _, root := range c.roots {
			indexSubtree(c.idIndex, root)
		}
	}
	return c.idIndex[id]
}

func indexSubtree(index map[int64]*bookmarks.Node, n *bookmarks.Node) {
	index[n.ID] = n
	for _, child := range n.Children() {
		indexSubtree(index, child)
	}
}
