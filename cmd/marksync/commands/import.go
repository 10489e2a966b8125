package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

// Sides of the association.
const (
	SideLocal  = "local"
	SideRemote = "remote"
)

// ImportCmd seeds a tree from a YAML outline
var ImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Seed the local or remote tree from a YAML outline",
	Long: `Append the entries of a YAML outline to the permanent folders of one tree.

The outline has one list per permanent folder:

  bookmark_bar:
    - title: Go
      url: https://go.dev
    - title: Reading
      children:
        - {title: Blog, url: https://go.dev/blog}
  other: []
  mobile: []

Remote imports leave external ids unset, like nodes created by another
client. Run init first.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importSide string

func init() {
	ImportCmd.Flags().StringVar(&importSide, "side", SideLocal, "Tree to seed: local or remote")
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrapf(err, "failed to open outline %s", args[0])
	}
	defer f.Close()

	outline, err := bookmarks.ParseOutline(f)
	if err != nil {
		return errors.Wrapf(err, "failed to read outline %s", args[0])
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	switch importSide {
	case SideLocal:
		n, err := s.model.Import(outline)
		if err != nil {
			return errors.Wrap(err, "failed to import local outline")
		}
		if err := s.save(ctx); err != nil {
			return err
		}
		pterm.Success.Printf("Imported %d local nodes\n", n)

	case SideRemote:
		var n int
		version, err := s.withTx(ctx, func(tx *share.Tx) error {
			var err error
			n, err = tx.ImportOutline(outline)
			return err
		})
		if err != nil {
			return errors.Wrap(err, "failed to import remote outline")
		}
		pterm.Success.Printf("Imported %d remote nodes, model version %d\n", n, version)

	default:
		return errors.NewInvalidRequestError("unknown side %q (want local or remote)", importSide)
	}
	return nil
}
