package bookmarks

import (
	"context"
	"database/sql"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
)

const nextIDKey = "next_id"

// Save replaces the persisted local tree with the contents of m.
func Save(ctx context.Context, db *sql.DB, m *Model) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin local bookmarks save")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM local_bookmarks"); err != nil {
		return errors.Wrap(err, "clear local bookmarks")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO local_bookmarks (id, parent_id, position, node_type, title, url, visible, version_stamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare local bookmark insert")
	}
	defer stmt.Close()

	m.mu.Lock()
	var insertErr error
	walk(m.root, 0, func(n *Node, _ int) {
		if insertErr != nil {
			return
		}
		var parentID sql.NullInt64
		position := 0
		if n.parent != nil {
			parentID = sql.NullInt64{Int64: n.parent.ID, Valid: true}
			position = n.parent.IndexOf(n)
		}
		_, insertErr = stmt.ExecContext(ctx, n.ID, parentID, position, n.Type.String(), n.Title, n.URL, n.visible, n.versionStamp)
		if insertErr != nil {
			insertErr = errors.Wrapf(insertErr, "insert local bookmark %d", n.ID)
		}
	})
	nextID := m.nextID
	m.mu.Unlock()
	if insertErr != nil {
		return insertErr
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO local_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, nextIDKey, nextID); err != nil {
		return errors.Wrap(err, "store next local id")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit local bookmarks save")
	}
	return nil
}

// Load reads the persisted local tree. An empty table yields a fresh model.
func Load(ctx context.Context, db *sql.DB) (*Model, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, parent_id, node_type, title, url, visible, version_stamp
		FROM local_bookmarks
		ORDER BY position, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query local bookmarks")
	}
	defer rows.Close()

	type loaded struct {
		node     *Node
		parentID sql.NullInt64
	}
	var all []loaded
	byID := make(map[int64]*Node)
	var maxID int64

	for rows.Next() {
		var (
			n        Node
			parentID sql.NullInt64
			typeName string
		)
		if err := rows.Scan(&n.ID, &parentID, &typeName, &n.Title, &n.URL, &n.visible, &n.versionStamp); err != nil {
			return nil, errors.Wrap(err, "scan local bookmark")
		}
		if n.Type, err = ParseNodeType(typeName); err != nil {
			return nil, errors.Wrapf(err, "local bookmark %d", n.ID)
		}
		node := &n
		all = append(all, loaded{node: node, parentID: parentID})
		byID[n.ID] = node
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate local bookmarks")
	}

	if len(all) == 0 {
		return NewModel(), nil
	}

	m := &Model{
		permanent: make(map[NodeType]*Node, len(PermanentKinds)),
		logger:    logger.ComponentLogger("bookmarks"),
	}
	// rows arrive ordered by position, so appending keeps sibling order
	for _, l := range all {
		if !l.parentID.Valid {
			if l.node.Type != TypeRoot || m.root != nil {
				return nil, errors.Newf("local bookmark %d has no parent", l.node.ID)
			}
			m.root = l.node
			continue
		}
		parent, ok := byID[l.parentID.Int64]
		if !ok {
			return nil, errors.Newf("local bookmark %d references missing parent %d", l.node.ID, l.parentID.Int64)
		}
		parent.insertChild(l.node, parent.ChildCount())
		if l.node.Type.IsPermanent() {
			m.permanent[l.node.Type] = l.node
		}
	}
	if m.root == nil {
		return nil, errors.New("persisted local bookmarks have no root")
	}
	for _, kind := range PermanentKinds {
		if m.permanent[kind] == nil {
			return nil, errors.Newf("persisted local bookmarks are missing the %s folder", kind)
		}
	}

	m.nextID = maxID + 1
	var stored int64
	err = db.QueryRowContext(ctx, "SELECT value FROM local_meta WHERE key = ?", nextIDKey).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, errors.Wrap(err, "read next local id")
	case stored > m.nextID:
		m.nextID = stored
	}

	return m, nil
}
