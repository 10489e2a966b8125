package sync

import (
	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/share"
)

type deferredFolder struct {
	node     *bookmarks.Node
	remoteID int64
}

// applyJournal replays remote deletions against the local tree under the
// bound permanent folders. Matched urls are removed right away; matched
// folders are removed afterwards, deepest first, and only if nothing is
// left in them. The journal is empty afterwards: applied entries, folders
// kept because they still have children and entries that matched nothing
// are all purged.
func (r *run) applyJournal() error {
	entries, err := r.tx.Journal()
	if err != nil {
		return errors.MarkUnrecoverable(err, "read delete journal", 0)
	}
	if len(entries) == 0 {
		return nil
	}

	var (
		pending []share.Tombstone
		purge   = make([]int64, 0, len(entries))
	)
	for _, e := range entries {
		purge = append(purge, e.RemoteID)
		if e.ExternalID != 0 {
			pending = append(pending, e)
		}
	}
	unmatched := len(pending)

	var (
		deferred []deferredFolder
		deleted  int
		kept     int
		stack    []*bookmarks.Node
	)
	for i := len(r.mc.roots) - 1; i >= 0; i-- {
		stack = append(stack, r.mc.roots[i])
	}

	for len(stack) > 0 && unmatched > 0 {
		parent := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := parent.ChildCount() - 1; i >= 0 && unmatched > 0; i-- {
			child := parent.Child(i)
			if child.IsFolder() {
				stack = append(stack, child)
			}

			match := -1
			for j := 0; j < unmatched; j++ {
				if tombstoneMatches(pending[j], child) {
					match = j
					break
				}
			}
			if match < 0 {
				continue
			}

			entry := pending[match]
			unmatched--
			pending[match], pending[unmatched] = pending[unmatched], pending[match]

			if child.IsFolder() {
				deferred = append(deferred, deferredFolder{node: child, remoteID: entry.RemoteID})
				continue
			}
			if err := r.a.model.Remove(child); err != nil {
				return errors.MarkUnrecoverable(err, "apply delete journal", entry.RemoteID)
			}
			deleted++
		}
	}

	for i := len(deferred) - 1; i >= 0; i-- {
		folder := deferred[i]
		if folder.node.ChildCount() > 0 {
			kept++
			continue
		}
		if err := r.a.model.Remove(folder.node); err != nil {
			return errors.MarkUnrecoverable(err, "apply delete journal", folder.remoteID)
		}
		deleted++
	}

	if err := r.tx.PurgeJournal(purge...); err != nil {
		return errors.MarkUnrecoverable(err, "purge delete journal", 0)
	}

	r.stats.Local.Deleted += deleted
	r.log.Debugw("Delete journal applied",
		logger.FieldCount, deleted,
		logger.FieldTotalCount, len(entries),
		"unmatched", unmatched,
		"kept_folders", kept,
	)
	return nil
}

func tombstoneMatches(e share.Tombstone, n *bookmarks.Node) bool {
	return e.ExternalID == n.ID &&
		e.IsFolder == n.IsFolder() &&
		e.URL == n.URL &&
		share.NormalizeTitle(e.Title) == share.NormalizeTitle(n.Title)
}
