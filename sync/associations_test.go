package sync

import (
	"testing"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

func (a *associations) len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.toLocal)
}

func TestAssociations_Bijection(t *testing.T) {
	a := newAssociations()

	if err := a.add(10, 100); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := a.add(10, 101); !errors.IsPreconditionError(err) {
		t.Fatalf("expected precondition error for reused local id, got %v", err)
	}
	if err := a.add(11, 100); !errors.IsPreconditionError(err) {
		t.Fatalf("expected precondition error for reused remote id, got %v", err)
	}

	if id, ok := a.localOf(100); !ok || id != 10 {
		t.Errorf("localOf(100) = %d, %v", id, ok)
	}
	if id, ok := a.remoteOf(10); !ok || id != 100 {
		t.Errorf("remoteOf(10) = %d, %v", id, ok)
	}

	a.remove(100)
	if _, ok := a.remoteOf(10); ok {
		t.Error("remove must drop both directions")
	}
	if err := a.add(10, 101); err != nil {
		t.Errorf("re-add after remove: %v", err)
	}
	if a.len() != 1 {
		t.Errorf("len = %d, want 1", a.len())
	}
}

func TestAssociations_Dirty(t *testing.T) {
	a := newAssociations()
	local := &bookmarks.Node{ID: 7}

	if err := a.add(7, 70); err != nil {
		t.Fatal(err)
	}
	if a.markDirtyIfStale(local, &share.Node{ID: 70, ExternalID: 7}) {
		t.Error("matching external id is not stale")
	}
	if !a.markDirtyIfStale(local, &share.Node{ID: 70, ExternalID: 0}) {
		t.Error("unset external id is stale")
	}

	// dirty entries without an association are dropped on take
	a.dirty[99] = struct{}{}
	got := a.takeDirty()
	if len(got) != 1 || got[70] != 7 {
		t.Errorf("takeDirty = %v", got)
	}
	if a.dirtyCount() != 0 {
		t.Error("takeDirty must clear the set")
	}

	a.markDirtyIfStale(local, &share.Node{ID: 70})
	a.remove(70)
	if a.dirtyCount() != 0 {
		t.Error("remove must clear dirty membership")
	}
}
