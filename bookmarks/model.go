package bookmarks

import (
	gosync "sync"

	"go.uber.org/zap"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

// Model is the local bookmark tree.
type Model struct {
	mu        gosync.Mutex
	root      *Node
	permanent map[NodeType]*Node
	nextID    int64
	observers []Observer
	extensive int
	logger    *zap.SugaredLogger
}

// NewModel creates a model holding only the root and the permanent folders.
// The mobile folder starts hidden.
func NewModel() *Model {
	m := &Model{
		permanent: make(map[NodeType]*Node, len(PermanentKinds)),
		logger:    logger.ComponentLogger("bookmarks"),
	}
	m.root = &Node{ID: 1, Type: TypeRoot, versionStamp: InvalidVersion, visible: true}
	m.nextID = 2
	titles := map[NodeType]string{
		TypeBookmarkBar: "Bookmarks bar",
		TypeOther:       "Other bookmarks",
		TypeMobile:      "Mobile bookmarks",
	}
	for _, kind := range PermanentKinds {
		n := &Node{
			ID:           m.nextID,
			Title:        titles[kind],
			Type:         kind,
			versionStamp: InvalidVersion,
			visible:      kind != TypeMobile,
		}
		m.nextID++
		m.root.insertChild(n, m.root.ChildCount())
		m.permanent[kind] = n
	}
	return m
}

// Root returns the root node.
func (m *Model) Root() *Node { return m.root }

// PermanentNode returns the permanent folder of the given kind, nil for other kinds.
func (m *Model) PermanentNode(kind NodeType) *Node { return m.permanent[kind] }

// NodeByID searches the tree for id.
func (m *Model) NodeByID(id int64) *Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return findByID(m.root, id)
}

func findByID(n *Node, id int64) *Node {
	if n.ID == id {
		return n
	}
	for _, c := range n.children {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// TotalNodeCount counts every node, root included.
func (m *Model) TotalNodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root.TotalNodeCount()
}

// Create adds a new url or folder under parent at index.
func (m *Model) Create(parent *Node, index int, title, url string, isFolder bool) (*Node, error) {
	m.mu.Lock()
	if parent == nil || !parent.IsFolder() || parent.Type == TypeRoot {
		m.mu.Unlock()
		return nil, errors.NewInvalidRequestError("cannot create a child of %s", describe(parent))
	}
	if index < 0 || index > parent.ChildCount() {
		m.mu.Unlock()
		return nil, errors.NewInvalidRequestError("index %d out of range [0, %d] in folder %d", index, parent.ChildCount(), parent.ID)
	}

	n := &Node{ID: m.nextID, Title: title, Type: TypeURL, versionStamp: InvalidVersion, visible: true}
	if isFolder {
		n.Type = TypeFolder
	} else {
		n.URL = url
	}
	m.nextID++
	parent.insertChild(n, index)
	observers := m.observerSnapshot()
	m.mu.Unlock()

	for _, o := range observers {
		o.NodeAdded(parent, index)
	}
	return n, nil
}

// Move relocates node so it ends up at index under newParent. As with a
// list insert, index refers to positions before node is taken out.
func (m *Model) Move(node, newParent *Node, index int) error {
	m.mu.Lock()
	if node == nil || node.IsPermanent() {
		m.mu.Unlock()
		return errors.NewInvalidRequestError("cannot move %s", describe(node))
	}
	if newParent == nil || !newParent.IsFolder() || newParent.Type == TypeRoot {
		m.mu.Unlock()
		return errors.NewInvalidRequestError("cannot move into %s", describe(newParent))
	}
	if newParent.HasAncestor(node) {
		m.mu.Unlock()
		return errors.NewInvalidRequestError("cannot move node %d into its own subtree", node.ID)
	}
	if index < 0 || index > newParent.ChildCount() {
		m.mu.Unlock()
		return errors.NewInvalidRequestError("index %d out of range [0, %d] in folder %d", index, newParent.ChildCount(), newParent.ID)
	}

	oldParent := node.parent
	oldIndex := oldParent.IndexOf(node)
	if oldParent == newParent && (index == oldIndex || index == oldIndex+1) {
		m.mu.Unlock()
		return nil
	}

	oldParent.removeChildAt(oldIndex)
	if oldParent == newParent && index > oldIndex {
		index--
	}
	newParent.insertChild(node, index)
	observers := m.observerSnapshot()
	m.mu.Unlock()

	for _, o := range observers {
		o.NodeMoved(oldParent, oldIndex, newParent, index)
	}
	return nil
}

// Remove deletes node and its subtree.
func (m *Model) Remove(node *Node) error {
	m.mu.Lock()
	if node == nil || node.IsPermanent() || node.parent == nil {
		m.mu.Unlock()
		return errors.NewInvalidRequestError("cannot remove %s", describe(node))
	}
	parent := node.parent
	index := parent.IndexOf(node)
	parent.removeChildAt(index)
	observers := m.observerSnapshot()
	m.mu.Unlock()

	for _, o := range observers {
		o.NodeRemoved(parent, index, node)
	}
	return nil
}

// Update overwrites the title and, for urls, the url.
func (m *Model) Update(node *Node, title, url string) {
	m.mu.Lock()
	changed := node.Title != title
	node.Title = title
	if !node.IsFolder() && node.URL != url {
		node.URL = url
		changed = true
	}
	observers := m.observerSnapshot()
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, o := range observers {
		o.NodeChanged(node)
	}
}

// SetVersionStamps writes version onto the root and every given node in
// one step. Passing InvalidVersion with no nodes resets the root stamp.
func (m *Model) SetVersionStamps(version int64, nodes ...*Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.root.versionStamp = version
	for _, n := range nodes {
		if n != nil {
			n.versionStamp = version
		}
	}
}

// SetPermanentNodeVisible toggles the visibility of a permanent folder.
func (m *Model) SetPermanentNodeVisible(kind NodeType, visible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := m.permanent[kind]; n != nil {
		n.visible = visible
	}
}

// BeginExtensiveChanges starts a batch of changes. Observers hear about the
// outermost begin/end pair only.
func (m *Model) BeginExtensiveChanges() {
	m.mu.Lock()
	m.extensive++
	first := m.extensive == 1
	observers := m.observerSnapshot()
	m.mu.Unlock()

	if first {
		for _, o := range observers {
			o.ExtensiveChangesBeginning()
		}
	}
}

// EndExtensiveChanges closes a batch opened by BeginExtensiveChanges.
func (m *Model) EndExtensiveChanges() {
	m.mu.Lock()
	if m.extensive == 0 {
		m.mu.Unlock()
		m.logger.Warnw("EndExtensiveChanges without matching begin")
		return
	}
	m.extensive--
	last := m.extensive == 0
	observers := m.observerSnapshot()
	m.mu.Unlock()

	if last {
		for _, o := range observers {
			o.ExtensiveChangesEnded()
		}
	}
}

// IsDoingExtensiveChanges reports whether a batch is open.
func (m *Model) IsDoingExtensiveChanges() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extensive > 0
}

// AddObserver registers o for change notifications.
func (m *Model) AddObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// RemoveObserver unregisters o.
func (m *Model) RemoveObserver(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.observers {
		if existing == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *Model) observerSnapshot() []Observer {
	if len(m.observers) == 0 {
		return nil
	}
	out := make([]Observer, len(m.observers))
	copy(out, m.observers)
	return out
}

// Walk visits every node depth-first, parents before children.
func (m *Model) Walk(fn func(n *Node, depth int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	walk(m.root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int)) {
	fn(n, depth)
	for _, c := range n.children {
		walk(c, depth+1, fn)
	}
}

func describe(n *Node) string {
	if n == nil {
		return "nil node"
	}
	return n.Type.String() + " node"
}
