package sync

import (
	"context"
	"sort"
	"time"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

// delayedRunner runs each task on its own goroutine after delay.
type delayedRunner struct {
	delay time.Duration
}

func (d delayedRunner) Post(task func()) {
	go func() {
		if d.delay > 0 {
			time.Sleep(d.delay)
		}
		task()
	}()
}

// requestFlush posts a flush unless one is already pending.
func (a *Associator) requestFlush() {
	if !a.flushPending.CompareAndSwap(false, true) {
		return
	}
	a.runner.Post(func() {
		a.runMu.Lock()
		defer a.runMu.Unlock()
		if err := a.flushLocked(context.Background()); err != nil {
			a.errHandler.OnUnrecoverableError(err)
		}
	})
}

// Flush writes every pending ExternalID now.
func (a *Associator) Flush(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.flushLocked(ctx)
}

// flushLocked writes stale ExternalIDs in one remote transaction and
// stamps the affected local nodes with the version it produced. Callers
// hold runMu.
func (a *Associator) flushLocked(ctx context.Context) error {
	a.flushPending.Store(false)
	if a.assoc.dirtyCount() == 0 {
		return nil
	}
	log := logger.FromContext(ctx, a.logger.Named("flush"))

	tx, err := a.remote.Begin(ctx)
	if err != nil {
		return errors.MarkUnrecoverable(err, "flush associations", 0)
	}
	defer tx.Rollback()

	dirty := a.assoc.takeDirty()
	remoteIDs := make([]int64, 0, len(dirty))
	for id := range dirty {
		remoteIDs = append(remoteIDs, id)
	}
	sort.Slice(remoteIDs, func(i, j int) bool { return remoteIDs[i] < remoteIDs[j] })

	nodes := make([]*bookmarks.Node, 0, len(remoteIDs))
	for _, remoteID := range remoteIDs {
		localID := dirty[remoteID]
		if err := tx.SetExternalID(remoteID, localID); err != nil {
			return errors.MarkUnrecoverable(err, "flush associations", remoteID)
		}
		if n := a.model.NodeByID(localID); n != nil {
			nodes = append(nodes, n)
		}
	}

	version, err := tx.Commit()
	if err != nil {
		return errors.MarkUnrecoverable(err, "flush associations", 0)
	}
	a.model.SetVersionStamps(version, nodes...)

	log.Debugw("Associations flushed",
		logger.FieldCount, len(remoteIDs),
		logger.FieldVersion, version,
	)
	return nil
}
