package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

// LocalDigest hashes the subtree below n: every descendant's kind,
// normalized title and url in child order, with folder boundaries. The
// node itself is not included, so permanent folders with different names
// on both sides still compare equal.
func LocalDigest(n *bookmarks.Node) Hash {
	h := sha256.New()
	writeLocal(h, n)
	var out Hash
	h.Sum(out[:0])
	return out
}

func writeLocal(h hash.Hash, n *bookmarks.Node) {
	for _, child := range n.Children() {
		writeEntry(h, child.IsFolder(), share.NormalizeTitle(child.Title), child.URL)
		if child.IsFolder() {
			h.Write([]byte{'['})
			writeLocal(h, child)
			h.Write([]byte{']'})
		}
	}
}

// RemoteDigest is LocalDigest for the remote subtree below id.
func RemoteDigest(tx *share.Tx, id int64) (Hash, error) {
	h := sha256.New()
	if err := writeRemote(h, tx, id); err != nil {
		return Hash{}, err
	}
	var out Hash
	h.Sum(out[:0])
	return out, nil
}

func writeRemote(h hash.Hash, tx *share.Tx, id int64) error {
	children, err := tx.Children(id)
	if err != nil {
		return err
	}
	for _, child := range children {
		writeEntry(h, child.IsFolder, child.Title, child.URL)
		if child.IsFolder {
			h.Write([]byte{'['})
			if err := writeRemote(h, tx, child.ID); err != nil {
				return err
			}
			h.Write([]byte{']'})
		}
	}
	return nil
}

func writeEntry(h hash.Hash, isFolder bool, title, url string) {
	if isFolder {
		h.Write([]byte("f:"))
	} else {
		h.Write([]byte("u:"))
	}
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
}

// DigestReport compares one permanent folder across both trees.
type DigestReport struct {
	Folder   string `json:"folder" yaml:"folder"`
	LocalID  int64  `json:"local_id" yaml:"local_id"`
	RemoteID int64  `json:"remote_id" yaml:"remote_id"`
	Local    string `json:"local" yaml:"local"`
	Remote   string `json:"remote" yaml:"remote"`
	Match    bool   `json:"match" yaml:"match"`
}

// Verify computes the digests of every permanent folder present on both
// sides. Folders are paired by tag, so no association run is needed.
func (a *Associator) Verify(ctx context.Context) ([]DigestReport, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	tx, err := a.remote.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var reports []DigestReport
	for _, kind := range bookmarks.PermanentKinds {
		remote, err := tx.LookupByTag(share.TagFor(kind))
		if errors.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		local := a.model.PermanentNode(kind)
		if local == nil {
			continue
		}

		remoteDigest, err := RemoteDigest(tx, remote.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "digest remote %s", kind)
		}
		localDigest := LocalDigest(local)
		reports = append(reports, DigestReport{
			Folder:   kind.String(),
			LocalID:  local.ID,
			RemoteID: remote.ID,
			Local:    hex.EncodeToString(localDigest[:]),
			Remote:   hex.EncodeToString(remoteDigest[:]),
			Match:    localDigest == remoteDigest,
		})
	}
	return reports, nil
}
