package share

import (
	"context"
	"database/sql"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

// Store is the sqlite-backed remote tree.
type Store struct {
	db       *sql.DB
	category string
	mu       gosync.Mutex // held for the lifetime of a Tx
	logger   *zap.SugaredLogger
}

// NewStore wraps a migrated database. category keys the model version
// bumped by write transactions.
func NewStore(db *sql.DB, category string) *Store {
	if category == "" {
		category = DefaultCategory
	}
	return &Store{
		db:       db,
		category: category,
		logger:   logger.ComponentLogger("share"),
	}
}

// Category returns the data category this store versions.
func (s *Store) Category() string { return s.category }

// Begin opens an exclusive write transaction. It blocks while another
// transaction on the same store is open.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	s.mu.Lock()
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, errors.Wrap(err, "begin remote write transaction")
	}
	return &Tx{store: s, tx: sqlTx, ctx: ctx}, nil
}

// ModelVersion reads the stored version outside of a transaction.
func (s *Store) ModelVersion(ctx context.Context) (int64, error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	return tx.ModelVersion(s.category)
}
