package sync

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/share"
	"github.com/teranos/marksync/tracing"
)

// LocalModel is the local bookmark tree the associator mutates.
// *bookmarks.Model implements it.
type LocalModel interface {
	Root() *bookmarks.Node
	PermanentNode(kind bookmarks.NodeType) *bookmarks.Node
	NodeByID(id int64) *bookmarks.Node

	Create(parent *bookmarks.Node, index int, title, url string, isFolder bool) (*bookmarks.Node, error)
	Move(node, newParent *bookmarks.Node, index int) error
	Remove(node *bookmarks.Node) error
	Update(node *bookmarks.Node, title, url string)

	SetVersionStamps(version int64, nodes ...*bookmarks.Node)
	SetPermanentNodeVisible(kind bookmarks.NodeType, visible bool)

	BeginExtensiveChanges()
	EndExtensiveChanges()
	AddObserver(o bookmarks.Observer)
	RemoveObserver(o bookmarks.Observer)
}

// RemoteStore hands out exclusive write transactions on the remote tree.
// *share.Store implements it.
type RemoteStore interface {
	Begin(ctx context.Context) (*share.Tx, error)
	Category() string
}

// ErrorHandler receives failures that happen off the caller's goroutine.
type ErrorHandler interface {
	OnUnrecoverableError(err error)
}

// TaskRunner runs deferred work.
type TaskRunner interface {
	Post(task func())
}

// Config tunes an Associator.
type Config struct {
	// ExpectMobileFolder makes a missing remote mobile folder fatal.
	ExpectMobileFolder bool
	// Optimistic enables the optimistic merge when versions agree.
	Optimistic bool
	// FlushDelay postpones the ExternalID write-back.
	FlushDelay time.Duration
}

// Associator keeps the local tree and the remote tree associated.
type Associator struct {
	model  LocalModel
	remote RemoteStore
	cfg    Config

	assoc *associations

	// runMu serializes runs and flushes. Lock order: runMu, then the
	// remote store's transaction lock, then the association table.
	runMu        gosync.Mutex
	flushPending atomic.Bool

	runner     TaskRunner
	errHandler ErrorHandler
	tracer     *tracing.Tracer
	logger     *zap.SugaredLogger

	// guarded by runMu
	loggedMissingExternalID bool
}

// Option configures an Associator.
type Option func(*Associator)

// WithTaskRunner replaces the goroutine-based flush scheduling.
func WithTaskRunner(r TaskRunner) Option {
	return func(a *Associator) { a.runner = r }
}

// WithErrorHandler sets the receiver of asynchronous flush failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *Associator) { a.errHandler = h }
}

// WithTracer sets the tracer spans are recorded with.
func WithTracer(t *tracing.Tracer) Option {
	return func(a *Associator) { a.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Associator) { a.logger = l }
}

// NewAssociator creates an associator over model and remote.
func NewAssociator(model LocalModel, remote RemoteStore, cfg Config, opts ...Option) *Associator {
	a := &Associator{
		model:  model,
		remote: remote,
		cfg:    cfg,
		assoc:  newAssociations(),
		tracer: tracing.Default(),
		logger: logger.ComponentLogger("sync.associator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		a.runner = delayedRunner{delay: cfg.FlushDelay}
	}
	if a.errHandler == nil {
		a.errHandler = logErrorHandler{logger: a.logger}
	}
	return a
}

// Associate rebuilds every association and reconciles the two trees.
func (a *Associator) Associate(ctx context.Context) (*MergeStats, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	ctx, span := a.tracer.StartRunSpan(ctx, runID, a.remote.Category())
	if traceID := tracing.TraceID(ctx); traceID != "" {
		ctx = logger.WithTraceID(ctx, traceID)
	}
	log := logger.FromContext(ctx, a.logger)
	start := time.Now()

	a.assoc.clear()
	stats := &MergeStats{RunID: runID}

	tx, err := a.remote.Begin(ctx)
	if err != nil {
		err = errors.MarkUnrecoverable(err, "begin remote transaction", 0)
		a.fail(log, err)
		span.EndWithError(err)
		return nil, err
	}

	r := newRun(ctx, a, tx, stats, log)
	a.model.AddObserver(r.touched)
	a.model.BeginExtensiveChanges()
	err = r.execute()
	a.model.EndExtensiveChanges()
	a.model.RemoveObserver(r.touched)

	if err != nil {
		_ = tx.Rollback()
		a.fail(log, err)
		span.EndWithError(err)
		return nil, err
	}

	span.SetState(stats.SyncState)
	span.SetCounts(stats.Local.Added, stats.Local.Deleted, stats.Remote.Added, stats.Remote.Deleted)
	span.End()

	log.Infow("Association complete",
		logger.FieldState, stats.SyncState,
		logger.FieldVersion, stats.Version,
		"local_added", stats.Local.Added,
		"local_deleted", stats.Local.Deleted,
		"local_modified", stats.Local.Modified,
		"remote_added", stats.Remote.Added,
		"remote_deleted", stats.Remote.Deleted,
		"duplicates", stats.DuplicateCount,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// fail resets the local stamp so the next run is conservative and drops
// associations that may point at rolled back remote nodes.
func (a *Associator) fail(log *zap.SugaredLogger, err error) {
	a.model.SetVersionStamps(bookmarks.InvalidVersion)
	a.assoc.clear()
	log.Errorw("Association failed",
		logger.FieldError, err,
		"hint", errors.FlattenHints(err),
	)
}

// LocalFor returns the local id associated with remoteID.
func (a *Associator) LocalFor(remoteID int64) (int64, bool) {
	return a.assoc.localOf(remoteID)
}

// RemoteFor returns the remote id associated with localID.
func (a *Associator) RemoteFor(localID int64) (int64, bool) {
	return a.assoc.remoteOf(localID)
}

// DisassociateAll forgets every association, pending write-backs included.
func (a *Associator) DisassociateAll() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	a.assoc.clear()
}

// HasUserCreatedNodes reports whether any remote permanent folder has
// children. A missing bookmark bar or other folder is an error.
func (a *Associator) HasUserCreatedNodes(ctx context.Context) (bool, error) {
	tx, err := a.remote.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, kind := range bookmarks.PermanentKinds {
		tag := share.TagFor(kind)
		node, err := tx.LookupByTag(tag)
		if errors.IsNotFoundError(err) && kind == bookmarks.TypeMobile {
			continue
		}
		if err != nil {
			return false, errors.Wrap(err, "server did not create the top-level bookmark folders")
		}
		has, err := tx.HasChildren(node.ID)
		if err != nil {
			return false, err
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

type logErrorHandler struct {
	logger *zap.SugaredLogger
}

func (h logErrorHandler) OnUnrecoverableError(err error) {
	h.logger.Errorw("Unrecoverable bookmark sync error",
		logger.FieldError, err,
		"hint", errors.FlattenHints(err),
	)
}
