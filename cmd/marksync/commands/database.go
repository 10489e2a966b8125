package commands

import (
	"context"
	"database/sql"
	gosync "sync"

	"github.com/spf13/cobra"

	"github.com/teranos/marksync/am"
	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/db"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/share"
	"github.com/teranos/marksync/sync"
)

// openDatabase opens and migrates the database named by --db, falling back
// to database.path from am config.
func openDatabase(cmd *cobra.Command) (*sql.DB, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		path, err := am.GetDatabasePath()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get database path")
		}
		dbPath = path
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}
	return database, nil
}

// session bundles the two trees a command works on.
type session struct {
	cfg   *am.Config
	db    *sql.DB
	model *bookmarks.Model
	store *share.Store
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	database, err := openDatabase(cmd)
	if err != nil {
		return nil, err
	}

	model, err := bookmarks.Load(cmd.Context(), database)
	if err != nil {
		database.Close()
		return nil, errors.Wrap(err, "failed to load local bookmarks")
	}

	return &session{
		cfg:   cfg,
		db:    database,
		model: model,
		store: share.NewStore(database, cfg.Sync.Category),
	}, nil
}

// associator builds an engine over the session's trees.
func (s *session) associator(opts ...sync.Option) *sync.Associator {
	return sync.NewAssociator(s.model, s.store, sync.Config{
		ExpectMobileFolder: s.cfg.Sync.ExpectMobileFolder,
		Optimistic:         s.cfg.Sync.Optimistic,
		FlushDelay:         s.cfg.Sync.FlushDelay(),
	}, opts...)
}

// withTx runs fn in a remote transaction, committing on success.
func (s *session) withTx(ctx context.Context, fn func(tx *share.Tx) error) (int64, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return 0, err
	}
	return tx.Commit()
}

func (s *session) save(ctx context.Context) error {
	if err := bookmarks.Save(ctx, s.db, s.model); err != nil {
		return errors.Wrap(err, "failed to save local bookmarks")
	}
	return nil
}

func (s *session) Close() error {
	return s.db.Close()
}

// queueRunner holds flush tasks until the command drains them, so the
// flush finishes before the local tree is saved and the database closed.
type queueRunner struct {
	mu    gosync.Mutex
	tasks []func()
}

func (q *queueRunner) Post(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

func (q *queueRunner) drain() int {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	return len(tasks)
}
