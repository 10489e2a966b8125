package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/marksync/am"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/share"
)

// WatchCmd keeps associating until interrupted
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Associate on an interval and whenever the config changes",
	Long: `Run association once, then again every sync.interval_seconds and after
each change to a config file. A config change also rebuilds the engine, so
sync.optimistic and sync.expect_mobile_folder take effect without a restart.

Stop with Ctrl-C; pending external ids are flushed before exit.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	log := logger.ComponentLogger("watch")
	reloads := make(chan *am.Config, 1)

	if paths := am.WatchedConfigFiles(); len(paths) > 0 {
		watcher, err := am.NewConfigWatcher(paths...)
		if err != nil {
			return errors.Wrap(err, "failed to watch config")
		}
		defer watcher.Stop()
		am.SetGlobalWatcher(watcher)
		defer am.SetGlobalWatcher(nil)

		watcher.OnReload(func(cfg *am.Config) error {
			select {
			case reloads <- cfg:
			default:
			}
			return nil
		})
		watcher.Start()
		log.Infow("Watching config", "paths", watcher.Paths())
	}

	assoc := s.associator()
	defer func() {
		if err := assoc.Flush(context.Background()); err != nil {
			log.Warnw("Final flush failed", "error", err)
		}
		if err := s.save(context.Background()); err != nil {
			log.Warnw("Final save failed", "error", err)
		}
	}()

	var tick <-chan time.Time
	var ticker *time.Ticker
	resetTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if interval := s.cfg.Sync.Interval(); interval > 0 {
			ticker = time.NewTicker(interval)
			tick = ticker.C
		}
	}
	resetTicker()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	runOnce := func(reason string) {
		stats, err := assoc.Associate(ctx)
		if saveErr := s.save(ctx); saveErr != nil {
			log.Errorw("Failed to save local bookmarks", "error", saveErr)
		}
		if err != nil {
			log.Errorw("Association failed",
				"reason", reason,
				"error", err,
				"hint", errors.FlattenHints(err))
			return
		}
		log.Infow("Association finished",
			"reason", reason,
			"run_id", stats.RunID,
			"state", stats.SyncState,
			"version", stats.Version,
			"local_added", stats.Local.Added,
			"remote_added", stats.Remote.Added)
	}

	runOnce("start")
	for {
		select {
		case <-ctx.Done():
			log.Infow("Stopping watch")
			return nil
		case <-tick:
			runOnce("interval")
		case cfg := <-reloads:
			// queued flushes of the old engine would race the new one
			if err := assoc.Flush(ctx); err != nil {
				log.Warnw("Flush before reconfigure failed", "error", err)
			}
			s.cfg = cfg
			s.store = share.NewStore(s.db, cfg.Sync.Category)
			assoc = s.associator()
			resetTicker()
			runOnce("config")
		}
	}
}
