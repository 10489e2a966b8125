package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

// InitCmd creates the database with empty local and remote trees
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database and the permanent folders",
	Long: `Create the database, the local permanent folders and the remote type
root with its tagged permanent folders.

Running init again is safe: existing folders are kept. Pass --mobile to
also create the remote mobile folder, as a server that has seen a mobile
client would.`,
	RunE: runInit,
}

var initMobile bool

func init() {
	InitCmd.Flags().BoolVar(&initMobile, "mobile", false, "Create the remote mobile bookmarks folder")
}

func runInit(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	// bookmarks.Load returns the permanent folders for an empty table
	if err := s.save(ctx); err != nil {
		return err
	}

	var created int
	version, err := s.withTx(ctx, func(tx *share.Tx) error {
		var err error
		created, err = tx.EnsurePermanentFolders(initMobile)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "failed to create remote permanent folders")
	}

	pterm.Success.Printf("Initialized %d local bookmark nodes\n", s.model.TotalNodeCount())
	pterm.Info.Printf("Remote store: %d folders created, model version %d\n", created, version)
	return nil
}
