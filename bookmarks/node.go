// Package bookmarks is the local, user-visible bookmark hierarchy.
//
// A Model owns a root node with three permanent children (bookmark bar,
// other bookmarks, mobile bookmarks). Everything below them is created,
// moved and removed through Model methods so observers see every change.
// Node accessors are not synchronized; callers that mutate from several
// goroutines serialize through the Model.
package bookmarks

import "github.com/teranos/marksync/errors"

// InvalidVersion is the "unset" version stamp.
const InvalidVersion int64 = -1

// NodeType distinguishes urls, user folders, the root and the permanent folders.
type NodeType int

const (
	TypeURL NodeType = iota
	TypeFolder
	TypeRoot
	TypeBookmarkBar
	TypeOther
	TypeMobile
)

// PermanentKinds lists the permanent folders in traversal order.
var PermanentKinds = []NodeType{TypeBookmarkBar, TypeOther, TypeMobile}

var nodeTypeNames = map[NodeType]string{
	TypeURL:         "url",
	TypeFolder:      "folder",
	TypeRoot:        "root",
	TypeBookmarkBar: "bookmark_bar",
	TypeOther:       "other",
	TypeMobile:      "mobile",
}

func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseNodeType is the inverse of NodeType.String.
func ParseNodeType(s string) (NodeType, error) {
	for t, name := range nodeTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, errors.NewInvalidRequestError("unknown node type %q", s)
}

// IsPermanent reports whether nodes of this type are created by the model itself.
func (t NodeType) IsPermanent() bool {
	return t == TypeBookmarkBar || t == TypeOther || t == TypeMobile
}

// Node is one entry of the local tree.
type Node struct {
	ID    int64
	Title string
	URL   string
	Type  NodeType

	parent       *Node
	children     []*Node
	versionStamp int64
	visible      bool
}

// IsFolder reports whether the node can hold children.
func (n *Node) IsFolder() bool { return n.Type != TypeURL }

// IsPermanent reports whether the node is the root or a permanent folder.
func (n *Node) IsPermanent() bool { return n.Type == TypeRoot || n.Type.IsPermanent() }

// Parent returns the containing folder, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the ordered children. The slice belongs to the node.
func (n *Node) Children() []*Node { return n.children }

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns the child at index i.
func (n *Node) Child(i int) *Node { return n.children[i] }

// IndexOf returns the position of child under n, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// VersionStamp returns the sync transaction version last written to the node.
func (n *Node) VersionStamp() int64 { return n.versionStamp }

// IsVisible reports the visibility flag. Only permanent folders toggle it.
func (n *Node) IsVisible() bool { return n.visible }

// TotalNodeCount counts n and all of its descendants.
func (n *Node) TotalNodeCount() int {
	count := 1
	for _, c := range n.children {
		count += c.TotalNodeCount()
	}
	return count
}

// HasAncestor reports whether a is n or one of n's ancestors.
func (n *Node) HasAncestor(a *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

func (n *Node) insertChild(child *Node, index int) {
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	child.parent = n
}

func (n *Node) removeChildAt(index int) *Node {
	child := n.children[index]
	copy(n.children[index:], n.children[index+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	child.parent = nil
	return child
}
