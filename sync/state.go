package sync

import (
	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

// checkSyncState compares the local stamp with the remote model version
// read at the start of the run.
func (r *run) checkSyncState() error {
	local := r.stats.Local.PreAssociationVersion
	remote := r.stats.Remote.PreAssociationVersion

	switch {
	case local == bookmarks.InvalidVersion:
		r.mc.state = StateUnset
	case local == remote:
		r.mc.state = StateInSync
	case local > remote:
		r.mc.state = StateAhead
		r.a.model.SetVersionStamps(bookmarks.InvalidVersion)
		err := errors.Wrapf(errors.ErrPersistenceMismatch, "local version %d, remote version %d", local, remote)
		return errors.MarkUnrecoverable(err, "check sync state", 0)
	default:
		r.mc.state = StateBehind
		r.a.model.SetVersionStamps(bookmarks.InvalidVersion)
	}

	r.stats.SyncState = r.mc.state.String()
	r.log.Debugw("Sync state checked",
		logger.FieldState, r.stats.SyncState,
		"local_version", local,
		"remote_version", remote,
	)
	return nil
}
