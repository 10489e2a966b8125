package sync

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/share"
)

// run is one Associate pass. It lives for the duration of the remote
// transaction.
type run struct {
	ctx   context.Context
	a     *Associator
	tx    *share.Tx
	stats *MergeStats
	log   *zap.SugaredLogger

	mc         *mergeContext
	touched    *touchObserver
	optimistic bool

	// local nodes by id, for every node associated during this run
	bound map[int64]*bookmarks.Node
}

func newRun(ctx context.Context, a *Associator, tx *share.Tx, stats *MergeStats, log *zap.SugaredLogger) *run {
	return &run{
		ctx:     ctx,
		a:       a,
		tx:      tx,
		stats:   stats,
		log:     log,
		mc:      newMergeContext(stats),
		touched: newTouchObserver(),
		bound:   make(map[int64]*bookmarks.Node),
	}
}

func (r *run) execute() error {
	tr := r.a.tracer

	if err := r.snapshotBefore(); err != nil {
		return err
	}

	_, end := tr.Phase(r.ctx, "associate.state")
	err := r.checkSyncState()
	end(err)
	if err != nil {
		return err
	}
	r.optimistic = r.a.cfg.Optimistic && r.mc.state == StateInSync
	r.stats.Optimistic = r.optimistic

	_, end = tr.Phase(r.ctx, "associate.permanent")
	err = r.bindPermanentFolders()
	end(err)
	if err != nil {
		return err
	}

	_, end = tr.Phase(r.ctx, "associate.journal")
	err = r.applyJournal()
	end(err)
	if err != nil {
		return err
	}

	_, end = tr.Phase(r.ctx, "associate.merge")
	err = r.drain()
	end(err)
	if err != nil {
		return err
	}

	_, end = tr.Phase(r.ctx, "associate.commit")
	err = r.commit()
	end(err)
	return err
}

func (r *run) snapshotBefore() error {
	r.stats.Local.PreAssociationVersion = r.a.model.Root().VersionStamp()
	r.stats.Local.NumItemsBefore = r.a.model.Root().TotalNodeCount()

	version, err := r.tx.ModelVersion(r.a.remote.Category())
	if err != nil {
		return errors.MarkUnrecoverable(err, "read model version", 0)
	}
	r.stats.Remote.PreAssociationVersion = version

	count, err := r.tx.CountNodes()
	if err != nil {
		return errors.MarkUnrecoverable(err, "count remote nodes", 0)
	}
	r.stats.Remote.NumItemsBefore = count
	return nil
}

// associate records the pair and schedules a write-back when the remote
// ExternalID does not name local.
func (r *run) associate(local *bookmarks.Node, remote *share.Node) error {
	if err := r.a.assoc.add(local.ID, remote.ID); err != nil {
		return err
	}
	r.bound[local.ID] = local
	if r.a.assoc.markDirtyIfStale(local, remote) {
		r.a.requestFlush()
	}
	return nil
}

func (r *run) drain() error {
	for {
		remoteID, ok := r.mc.pop()
		if !ok {
			return nil
		}
		if err := r.mergeFolder(remoteID); err != nil {
			return err
		}
	}
}

// mergeFolder reconciles the children of one associated folder pair.
func (r *run) mergeFolder(remoteParentID int64) error {
	localID, ok := r.a.assoc.localOf(remoteParentID)
	if !ok {
		err := errors.NewPreconditionError("remote folder %d has no association", remoteParentID)
		return errors.MarkUnrecoverable(err, "merge folder", remoteParentID)
	}
	localParent := r.bound[localID]
	if localParent == nil {
		err := errors.NewPreconditionError("local folder %d is not part of this run", localID)
		return errors.MarkUnrecoverable(err, "merge folder", remoteParentID)
	}

	childIDs, err := r.tx.ChildrenOf(remoteParentID)
	if err != nil {
		return errors.MarkUnrecoverable(err, "list remote children", remoteParentID)
	}

	finder := newNodeFinder(localParent)
	// order mirrors the remote child list as it changes during the merge
	order := append([]int64(nil), childIDs...)
	index := 0

	for _, childID := range childIDs {
		remote, err := r.tx.LookupByID(childID)
		if err != nil {
			return errors.MarkUnrecoverable(err, "lookup remote child", childID)
		}
		title := remote.ClientTitle()

		local, found := finder.find(remote.URL, title, remote.IsFolder, remote.ExternalID)
		created := false
		switch {
		case found && r.optimistic:
			if localParent.IndexOf(local) != index {
				if err := r.a.model.Move(local, localParent, index); err != nil {
					return errors.MarkUnrecoverable(err, "move local node", remote.ID)
				}
				r.stats.Local.Modified++
			}

		case found:
			r.a.model.Update(local, title, remote.URL)
			if err := r.a.model.Move(local, localParent, index); err != nil {
				return errors.MarkUnrecoverable(err, "move local node", remote.ID)
			}
			r.stats.Local.Modified++

		default:
			if r.optimistic {
				stale, err := r.removeIfStale(remote)
				if err != nil {
					return err
				}
				if stale {
					order = removeID(order, remote.ID)
					continue
				}
			}
			if !remote.IsFolder && !isValidURL(remote.URL) {
				r.stats.Diagnostics = append(r.stats.Diagnostics, Diagnostic{
					RemoteID: remote.ID,
					Title:    title,
					URL:      remote.URL,
					Reason:   errors.Wrap(errors.ErrInvalidData, "url cannot be created locally").Error(),
				})
				r.log.Warnw("Skipping remote node with invalid url",
					logger.FieldRemoteID, remote.ID,
					logger.FieldTitle, title,
				)
				continue
			}
			local, err = r.a.model.Create(localParent, index, title, remote.URL, remote.IsFolder)
			if err != nil {
				return errors.MarkUnrecoverable(err, "create local node", remote.ID)
			}
			r.stats.Local.Added++
			created = true
		}

		if r.mc.countDuplicate(title, remote.URL) && created {
			r.mc.newDuplicates++
		}
		if err := r.associate(local, remote); err != nil {
			return errors.MarkUnrecoverable(err, "associate", remote.ID)
		}
		r.touched.touch(local)
		if remote.IsFolder {
			r.mc.push(remote.ID)
		}
		index++
	}

	return r.createRemoteTail(localParent, remoteParentID, index, order)
}

// removeIfStale handles an unmatched remote node during an optimistic
// merge. A node whose ExternalID names a local node that still exists
// elsewhere is a leftover of a local move or delete and is removed.
func (r *run) removeIfStale(remote *share.Node) (bool, error) {
	if remote.ExternalID == 0 {
		if !r.a.loggedMissingExternalID {
			r.a.loggedMissingExternalID = true
			r.log.Warnw("Remote node without external id during optimistic merge",
				logger.FieldRemoteID, remote.ID,
			)
		}
		return false, nil
	}

	if r.mc.lookupLocal(remote.ExternalID) == nil {
		r.log.Warnw("Remote node names a local node that no longer exists",
			logger.FieldRemoteID, remote.ID,
			logger.FieldExternalID, remote.ExternalID,
		)
		return false, nil
	}

	n, err := r.tx.RemoveSubtree(remote.ID)
	if err != nil {
		return false, errors.MarkUnrecoverable(err, "remove stale remote node", remote.ID)
	}
	r.stats.Remote.Deleted += n
	return true, nil
}

// createRemoteTail mirrors the local children from index on into the
// remote folder, each right after the remote counterpart of its previous
// sibling.
func (r *run) createRemoteTail(localParent *bookmarks.Node, remoteParentID int64, index int, order []int64) error {
	for i := index; i < localParent.ChildCount(); i++ {
		child := localParent.Child(i)

		pos := 0
		if i > 0 {
			prev := localParent.Child(i - 1)
			prevRemote, ok := r.a.assoc.remoteOf(prev.ID)
			if !ok {
				err := errors.NewPreconditionError("previous sibling %d of local node %d has no association", prev.ID, child.ID)
				return errors.MarkUnrecoverable(err, "create remote node", 0)
			}
			pos = indexOfID(order, prevRemote) + 1
		}

		id, err := r.tx.CreateFromLocal(remoteParentID, pos, share.Entry{
			Title:      child.Title,
			URL:        child.URL,
			IsFolder:   child.IsFolder(),
			ExternalID: child.ID,
		})
		if err != nil {
			return errors.MarkUnrecoverable(err, "create remote node", remoteParentID)
		}
		order = insertID(order, pos, id)
		r.stats.Remote.Added++

		remote := &share.Node{ID: id, ParentID: remoteParentID, IsFolder: child.IsFolder(), ExternalID: child.ID}
		if err := r.associate(child, remote); err != nil {
			return errors.MarkUnrecoverable(err, "associate", id)
		}
		r.touched.touch(child)
		if child.IsFolder() {
			r.mc.push(id)
		}
	}
	return nil
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	if u.Host != "" || u.Opaque != "" {
		return true
	}
	return u.Scheme == "file" && u.Path != ""
}

func indexOfID(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []int64, id int64) []int64 {
	if i := indexOfID(ids, id); i >= 0 {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}

func insertID(ids []int64, pos int, id int64) []int64 {
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = id
	return ids
}
