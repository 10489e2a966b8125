package share

import (
	"github.com/teranos/marksync/errors"
)

// Journal lists pending remote deletions, oldest first.
func (t *Tx) Journal() ([]Tombstone, error) {
	rows, err := t.tx.QueryContext(t.ctx, `
		SELECT remote_id, external_id, title, url, is_folder
		FROM delete_journal ORDER BY deleted_at, remote_id`)
	if err != nil {
		return nil, errors.Wrap(err, "read delete journal")
	}
	defer rows.Close()

	var entries []Tombstone
	for rows.Next() {
		var e Tombstone
		if err := rows.Scan(&e.RemoteID, &e.ExternalID, &e.Title, &e.URL, &e.IsFolder); err != nil {
			return nil, errors.Wrap(err, "scan delete journal entry")
		}
		entries = append(entries, e)
	}
	return entries, errors.Wrap(rows.Err(), "iterate delete journal")
}

// PurgeJournal drops the given journal entries. Purging does not count as
// a node change and never bumps the model version.
func (t *Tx) PurgeJournal(remoteIDs ...int64) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	args := make([]any, len(remoteIDs))
	for i, id := range remoteIDs {
		args[i] = id
	}
	if _, err := t.tx.ExecContext(t.ctx,
		"DELETE FROM delete_journal WHERE remote_id IN ("+placeholders(len(remoteIDs))+")", args...); err != nil {
		return errors.Wrapf(err, "purge %d journal entries", len(remoteIDs))
	}
	return nil
}

// HasChildren reports whether a remote folder has any child.
func (t *Tx) HasChildren(id int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(t.ctx,
		"SELECT EXISTS(SELECT 1 FROM remote_nodes WHERE parent_id = ?)", id).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "check children of %d", id)
	}
	return exists, nil
}
