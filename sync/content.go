// Package sync associates a local bookmark tree with the remote copy held
// by the sync backend.
//
// Each run rebuilds the local<->remote id mapping from scratch: permanent
// folders are bound by tag, pending remote deletions are replayed against
// the local tree, and every remote folder is walked top-down matching
// children by title, url and kind. Depending on whether the stored version
// stamps agree, unmatched remote nodes either overwrite the local tree
// (conservative) or are treated as stale and removed (optimistic). Local
// nodes left over at the tail of a folder are created remotely.
//
// Associations whose remote ExternalID is stale are written back lazily by
// a single-slot flush task.
package sync

import (
	"crypto/sha256"

	"github.com/teranos/marksync/share"
)

// Hash is a SHA-256 digest.
type Hash = [32]byte

// ContentHash identifies a url or folder by what a user sees: the
// normalized title and the url. Two siblings with the same hash are
// duplicates.
func ContentHash(title, url string) Hash {
	h := sha256.New()

	// Separators keep ("ab", "c") and ("a", "bc") apart.
	h.Write([]byte("t:"))
	h.Write([]byte(share.NormalizeTitle(title)))
	h.Write([]byte("\x00u:"))
	h.Write([]byte(url))

	var out Hash
	h.Sum(out[:0])
	return out
}
