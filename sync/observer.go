package sync

import (
	gosync "sync"

	"github.com/teranos/marksync/bookmarks"
)

// touchObserver collects the local nodes a run created, moved or changed
// so they can be stamped together once the remote transaction commits.
type touchObserver struct {
	bookmarks.BaseObserver

	mu    gosync.Mutex
	seen  map[*bookmarks.Node]struct{}
	order []*bookmarks.Node
}

func newTouchObserver() *touchObserver {
	return &touchObserver{seen: make(map[*bookmarks.Node]struct{})}
}

func (o *touchObserver) NodeAdded(parent *bookmarks.Node, index int) {
	o.touch(parent.Child(index))
}

func (o *touchObserver) NodeMoved(_ *bookmarks.Node, _ int, newParent *bookmarks.Node, newIndex int) {
	o.touch(newParent.Child(newIndex))
}

func (o *touchObserver) NodeChanged(node *bookmarks.Node) {
	o.touch(node)
}

func (o *touchObserver) NodeRemoved(_ *bookmarks.Node, _ int, node *bookmarks.Node) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.seen[node]; !ok {
		return
	}
	delete(o.seen, node)
	for i, n := range o.order {
		if n == node {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *touchObserver) touch(node *bookmarks.Node) {
	if node == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.seen[node]; ok {
		return
	}
	o.seen[node] = struct{}{}
	o.order = append(o.order, node)
}

// nodes returns the touched nodes in first-touch order.
func (o *touchObserver) nodes() []*bookmarks.Node {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*bookmarks.Node(nil), o.order...)
}
