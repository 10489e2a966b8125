package sync

// MergeResult counts the changes one side of the association saw.
type MergeResult struct {
	NumItemsBefore        int   `json:"num_items_before" yaml:"num_items_before"`
	NumItemsAfter         int   `json:"num_items_after" yaml:"num_items_after"`
	Added                 int   `json:"added" yaml:"added"`
	Deleted               int   `json:"deleted" yaml:"deleted"`
	Modified              int   `json:"modified" yaml:"modified"`
	PreAssociationVersion int64 `json:"pre_association_version" yaml:"pre_association_version"`
}

// Diagnostic is a recoverable problem found while associating, such as a
// remote url that cannot be created locally.
type Diagnostic struct {
	RemoteID int64  `json:"remote_id" yaml:"remote_id"`
	Title    string `json:"title" yaml:"title"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Reason   string `json:"reason" yaml:"reason"`
}

// MergeStats is the outcome of one Associate run.
type MergeStats struct {
	RunID             string       `json:"run_id" yaml:"run_id"`
	SyncState         string       `json:"sync_state" yaml:"sync_state"`
	Optimistic        bool         `json:"optimistic" yaml:"optimistic"`
	Local             MergeResult  `json:"local" yaml:"local"`
	Remote            MergeResult  `json:"remote" yaml:"remote"`
	DuplicateCount    int          `json:"duplicate_count" yaml:"duplicate_count"`
	NewDuplicateCount int          `json:"new_duplicate_count" yaml:"new_duplicate_count"`
	Version           int64        `json:"version" yaml:"version"`
	Diagnostics       []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}
