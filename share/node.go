// Package share is the sync backend's copy of the bookmark hierarchy,
// kept in sqlite. All reads and writes go through a write transaction
// obtained from Store.Begin; transactions are exclusive per store, and a
// transaction that changed nodes bumps the category's model version on
// commit.
package share

// Well-known tags of the remote permanent folders.
const (
	TagRoot        = "google_chrome_bookmarks"
	TagBookmarkBar = "bookmark_bar"
	TagOther       = "other_bookmarks"
	TagMobile      = "synced_bookmarks"
)

// DefaultCategory is the model-version key for bookmarks.
const DefaultCategory = "bookmarks"

// Node is one remote entry.
type Node struct {
	ID         int64  `json:"id" yaml:"id"`
	ParentID   int64  `json:"parent_id" yaml:"parent_id"`
	Position   int    `json:"position" yaml:"position"`
	Title      string `json:"title" yaml:"title"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	IsFolder   bool   `json:"is_folder" yaml:"is_folder"`
	ExternalID int64  `json:"external_id" yaml:"external_id"`
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Entry is the data needed to create a remote node. Title is in client
// form; the store normalizes it.
type Entry struct {
	Title      string
	URL        string
	IsFolder   bool
	ExternalID int64
}

// Tombstone records a remote deletion the local tree has not seen yet.
type Tombstone struct {
	RemoteID   int64  `json:"remote_id" yaml:"remote_id"`
	ExternalID int64  `json:"external_id" yaml:"external_id"`
	Title      string `json:"title" yaml:"title"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	IsFolder   bool   `json:"is_folder" yaml:"is_folder"`
}

// ClientTitle returns the node title with server escaping undone.
func (n *Node) ClientTitle() string {
	return ClientName(n.Title)
}
