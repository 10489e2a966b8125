package bookmarks

// Observer is notified after every structural change to a Model.
// Notifications are delivered without the model lock held.
type Observer interface {
	ExtensiveChangesBeginning()
	ExtensiveChangesEnded()
	NodeAdded(parent *Node, index int)
	NodeMoved(oldParent *Node, oldIndex int, newParent *Node, newIndex int)
	NodeRemoved(parent *Node, oldIndex int, node *Node)
	NodeChanged(node *Node)
}

// BaseObserver implements Observer with no-ops. Embed it and override
// the notifications you need.
type BaseObserver struct{}

func (BaseObserver) ExtensiveChangesBeginning() {}
func (BaseObserver) ExtensiveChangesEnded() {}
func (BaseObserver) NodeAdded(*Node, int) {}
func (BaseObserver) NodeMoved(*Node, int, *Node, int) {}
func (BaseObserver) NodeRemoved(*Node, int, *Node) {}
func (BaseObserver) NodeChanged(*Node) {}
