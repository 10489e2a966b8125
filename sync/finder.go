package sync

import (
	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/share"
)

// nodeFinder matches remote children against the children of one local
// folder. Candidates are bucketed by normalized title and each bucket keeps
// child-index order, so ties always resolve to the earliest sibling.
type nodeFinder struct {
	buckets map[string][]*bookmarks.Node
}

func newNodeFinder(parent *bookmarks.Node) *nodeFinder {
	f := &nodeFinder{buckets: make(map[string][]*bookmarks.Node, parent.ChildCount())}
	for _, child := range parent.Children() {
		key := share.NormalizeTitle(child.Title)
		f.buckets[key] = append(f.buckets[key], child)
	}
	return f
}

// find returns the best local match for a remote node and removes it from
// the candidates. A candidate whose id equals preferredID wins outright.
func (f *nodeFinder) find(url, title string, isFolder bool, preferredID int64) (*bookmarks.Node, bool) {
	key := share.NormalizeTitle(title)
	bucket := f.buckets[key]
	if len(bucket) == 0 {
		return nil, false
	}

	match := -1
	for i, candidate := range bucket {
		if candidate.IsFolder() != isFolder || candidate.URL != url {
			continue
		}
		if preferredID != 0 && candidate.ID == preferredID {
			match = i
			break
		}
		if match < 0 {
			match = i
		}
	}
	if match < 0 {
		return nil, false
	}

	node := bucket[match]
	f.buckets[key] = append(bucket[:match], bucket[match+1:]...)
	return node, true
}
