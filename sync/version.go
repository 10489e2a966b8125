package sync

import (
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

// commit closes the remote transaction and stamps everything this run
// touched with the version it produced.
func (r *run) commit() error {
	r.stats.DuplicateCount = r.mc.duplicateCount
	r.stats.NewDuplicateCount = r.mc.newDuplicates
	r.stats.Local.NumItemsAfter = r.a.model.Root().TotalNodeCount()

	count, err := r.tx.CountNodes()
	if err != nil {
		return errors.MarkUnrecoverable(err, "count remote nodes", 0)
	}
	r.stats.Remote.NumItemsAfter = count

	version, err := r.tx.Commit()
	if err != nil {
		return errors.MarkUnrecoverable(err, "commit remote transaction", 0)
	}
	r.stats.Version = version

	r.a.model.SetVersionStamps(version, r.touched.nodes()...)
	r.updatePermanentVisibility()

	r.log.Debugw("Version stamped",
		logger.FieldVersion, version,
		logger.FieldCount, len(r.touched.nodes()),
	)
	return nil
}
