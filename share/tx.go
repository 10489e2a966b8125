package share

import (
	"context"
	"database/sql"
	"strings"

	"github.com/teranos/marksync/errors"
)

const nodeColumns = "id, COALESCE(parent_id, 0), position, title, url, is_folder, external_id, COALESCE(tag, '')"

// Tx is an exclusive write transaction against the remote tree.
type Tx struct {
	store   *Store
	tx      *sql.Tx
	ctx     context.Context
	changed bool
	done    bool
}

func scanNode(row interface{ Scan(...any) error }) (*Node, error) {
	var n Node
	if err := row.Scan(&n.ID, &n.ParentID, &n.Position, &n.Title, &n.URL, &n.IsFolder, &n.ExternalID, &n.Tag); err != nil {
		return nil, err
	}
	return &n, nil
}

// LookupByID returns the node with id, or an error wrapping errors.ErrNotFound.
func (t *Tx) LookupByID(id int64) (*Node, error) {
	row := t.tx.QueryRowContext(t.ctx, "SELECT "+nodeColumns+" FROM remote_nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("remote node %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lookup remote node %d", id)
	}
	return n, nil
}

// LookupByTag returns the node carrying a well-known tag, or an error
// wrapping errors.ErrNotFound.
func (t *Tx) LookupByTag(tag string) (*Node, error) {
	row := t.tx.QueryRowContext(t.ctx, "SELECT "+nodeColumns+" FROM remote_nodes WHERE tag = ?", tag)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("remote node tagged %q", tag)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "lookup remote tag %q", tag)
	}
	return n, nil
}

// ChildrenOf returns the ordered child ids of a folder.
func (t *Tx) ChildrenOf(id int64) ([]int64, error) {
	rows, err := t.tx.QueryContext(t.ctx, "SELECT id FROM remote_nodes WHERE parent_id = ? ORDER BY position", id)
	if err != nil {
		return nil, errors.Wrapf(err, "list children of %d", id)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var childID int64
		if err := rows.Scan(&childID); err != nil {
			return nil, errors.Wrapf(err, "scan child of %d", id)
		}
		ids = append(ids, childID)
	}
	return ids, errors.Wrapf(rows.Err(), "iterate children of %d", id)
}

// Children returns the ordered child nodes of a folder.
func (t *Tx) Children(id int64) ([]*Node, error) {
	rows, err := t.tx.QueryContext(t.ctx, "SELECT "+nodeColumns+" FROM remote_nodes WHERE parent_id = ? ORDER BY position", id)
	if err != nil {
		return nil, errors.Wrapf(err, "list children of %d", id)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "scan child of %d", id)
		}
		nodes = append(nodes, n)
	}
	return nodes, errors.Wrapf(rows.Err(), "iterate children of %d", id)
}

// Create inserts a node under parentID at index. An index past the end appends.
func (t *Tx) Create(parentID int64, index int, e Entry) (int64, error) {
	return t.insert(parentID, index, e, "")
}

// CreateFromLocal mirrors a local node into the remote tree at index under
// parentID. The entry's ExternalID must carry the local node id.
func (t *Tx) CreateFromLocal(parentID int64, index int, e Entry) (int64, error) {
	if e.ExternalID == 0 {
		return 0, errors.NewPreconditionError("creating remote node from local %q without a local id", e.Title)
	}
	return t.insert(parentID, index, e, "")
}

func (t *Tx) insert(parentID int64, index int, e Entry, tag string) (int64, error) {
	if parentID != 0 {
		parent, err := t.LookupByID(parentID)
		if err != nil {
			return 0, err
		}
		if !parent.IsFolder {
			return 0, errors.NewInvalidRequestError("remote node %d is not a folder", parentID)
		}
	}

	var count int
	if err := t.tx.QueryRowContext(t.ctx, "SELECT COUNT(*) FROM remote_nodes WHERE parent_id IS ?", nullID(parentID)).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "count children of %d", parentID)
	}
	if index < 0 || index > count {
		index = count
	}

	if _, err := t.tx.ExecContext(t.ctx,
		"UPDATE remote_nodes SET position = position + 1 WHERE parent_id IS ? AND position >= ?",
		nullID(parentID), index); err != nil {
		return 0, errors.Wrapf(err, "shift children of %d", parentID)
	}

	url := e.URL
	if e.IsFolder {
		url = ""
	}
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO remote_nodes (parent_id, position, title, url, is_folder, external_id, tag)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullID(parentID), index, NormalizeTitle(e.Title), url, e.IsFolder, e.ExternalID, nullTag(tag))
	if err != nil {
		return 0, errors.Wrapf(err, "insert remote node under %d", parentID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read inserted remote node id")
	}
	t.changed = true
	return id, nil
}

// SetExternalID records the local id a remote node is associated with.
func (t *Tx) SetExternalID(id, localID int64) error {
	res, err := t.tx.ExecContext(t.ctx,
		"UPDATE remote_nodes SET external_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", localID, id)
	if err != nil {
		return errors.Wrapf(err, "set external id of %d", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("remote node %d", id)
	}
	t.changed = true
	return nil
}

// RemoveSubtree deletes id and its descendants and returns how many nodes
// were removed. Tagged folders cannot be removed.
func (t *Tx) RemoveSubtree(id int64) (int, error) {
	removed, err := t.removeSubtree(id, false)
	return len(removed), err
}

// ApplyRemoteDeletion removes a subtree the way an incoming server
// deletion does: every removed node is recorded in the delete journal.
func (t *Tx) ApplyRemoteDeletion(id int64) (int, error) {
	removed, err := t.removeSubtree(id, true)
	return len(removed), err
}

func (t *Tx) removeSubtree(id int64, journal bool) ([]*Node, error) {
	root, err := t.LookupByID(id)
	if err != nil {
		return nil, err
	}
	if root.Tag != "" {
		return nil, errors.NewPreconditionError("cannot remove permanent remote node %q", root.Tag)
	}

	nodes := []*Node{root}
	for i := 0; i < len(nodes); i++ {
		if !nodes[i].IsFolder {
			continue
		}
		children, err := t.Children(nodes[i].ID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, children...)
	}

	for _, n := range nodes {
		if journal {
			if _, err := t.tx.ExecContext(t.ctx, `
				INSERT OR REPLACE INTO delete_journal (remote_id, external_id, title, url, is_folder)
				VALUES (?, ?, ?, ?, ?)`,
				n.ID, n.ExternalID, n.ClientTitle(), n.URL, n.IsFolder); err != nil {
				return nil, errors.Wrapf(err, "journal deletion of %d", n.ID)
			}
		}
		if _, err := t.tx.ExecContext(t.ctx, "DELETE FROM remote_nodes WHERE id = ?", n.ID); err != nil {
			return nil, errors.Wrapf(err, "delete remote node %d", n.ID)
		}
	}

	if _, err := t.tx.ExecContext(t.ctx,
		"UPDATE remote_nodes SET position = position - 1 WHERE parent_id IS ? AND position > ?",
		nullID(root.ParentID), root.Position); err != nil {
		return nil, errors.Wrapf(err, "compact children of %d", root.ParentID)
	}

	t.changed = true
	return nodes, nil
}

// ModelVersion returns the stored transaction version for category, 0 if
// nothing was ever committed.
func (t *Tx) ModelVersion(category string) (int64, error) {
	var version int64
	err := t.tx.QueryRowContext(t.ctx, "SELECT version FROM model_versions WHERE category = ?", category).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read model version of %s", category)
	}
	return version, nil
}

// CountNodes counts every remote node, permanent folders included.
func (t *Tx) CountNodes() (int, error) {
	var n int
	if err := t.tx.QueryRowContext(t.ctx, "SELECT COUNT(*) FROM remote_nodes").Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count remote nodes")
	}
	return n, nil
}

// Changed reports whether the transaction wrote any node.
func (t *Tx) Changed() bool { return t.changed }

// Commit applies the transaction. When nodes changed, the category's model
// version is bumped; the resulting version is returned either way.
func (t *Tx) Commit() (int64, error) {
	if t.done {
		return 0, errors.AssertionFailedf("remote transaction already finished")
	}
	defer t.finish()

	category := t.store.category
	if t.changed {
		if _, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO model_versions (category, version) VALUES (?, 1)
			ON CONFLICT(category) DO UPDATE SET version = version + 1`, category); err != nil {
			t.tx.Rollback()
			return 0, errors.Wrapf(err, "bump model version of %s", category)
		}
	}
	version, err := t.ModelVersion(category)
	if err != nil {
		t.tx.Rollback()
		return 0, err
	}
	if err := t.tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit remote write transaction")
	}
	if t.changed {
		t.store.logger.Debugw("Remote transaction committed", "category", category, "version", version)
	}
	return version, nil
}

// Rollback discards the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	defer t.finish()
	return errors.Wrap(t.tx.Rollback(), "rollback remote write transaction")
}

func (t *Tx) finish() {
	t.done = true
	t.store.mu.Unlock()
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullTag(tag string) sql.NullString {
	return sql.NullString{String: tag, Valid: tag != ""}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
