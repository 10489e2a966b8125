package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/spf13/cobra"

	"github.com/teranos/marksync/bookmarks"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

// TreeCmd prints one of the two trees
var TreeCmd = &cobra.Command{
	Use:       "tree <local|remote>",
	Short:     "Print the local or remote bookmark tree",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{SideLocal, SideRemote},
	RunE:      runTree,
}

var treeFormat string

func init() {
	TreeCmd.Flags().StringVar(&treeFormat, "format", FormatTable, "Output format: table (tree), json, yaml")
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		items   pterm.LeveledList
		outline *bookmarks.Outline
	)

	switch args[0] {
	case SideLocal:
		outline = s.model.Outline()
		s.model.Walk(func(n *bookmarks.Node, depth int) {
			items = append(items, pterm.LeveledListItem{Level: depth, Text: localLabel(n)})
		})

	case SideRemote:
		tx, err := s.store.Begin(cmd.Context())
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if outline, err = tx.Outline(); err != nil {
			return err
		}
		root, err := tx.LookupByTag(share.TagRoot)
		if err != nil {
			return errors.WithHint(err, "run `marksync init` first")
		}
		if items, err = remoteItems(tx, root, 0, items); err != nil {
			return err
		}

	default:
		return errors.NewInvalidRequestError("unknown side %q (want local or remote)", args[0])
	}

	handled, err := writeStructured(cmd.OutOrStdout(), treeFormat, outline)
	if handled || err != nil {
		return err
	}
	return pterm.DefaultTree.WithRoot(putils.TreeFromLeveledList(items)).Render()
}

func localLabel(n *bookmarks.Node) string {
	switch {
	case n.Type == bookmarks.TypeRoot:
		return fmt.Sprintf("[%d] root", n.ID)
	case n.IsPermanent():
		return fmt.Sprintf("[%d] %s (%s)", n.ID, n.Type, visibility(n.IsVisible()))
	case n.IsFolder():
		return fmt.Sprintf("[%d] %s/", n.ID, n.Title)
	}
	return fmt.Sprintf("[%d] %s  %s", n.ID, n.Title, pterm.Gray(n.URL))
}

func visibility(visible bool) string {
	if visible {
		return "visible"
	}
	return "hidden"
}

func remoteItems(tx *share.Tx, n *share.Node, depth int, items pterm.LeveledList) (pterm.LeveledList, error) {
	items = append(items, pterm.LeveledListItem{Level: depth, Text: remoteLabel(n)})
	if !n.IsFolder {
		return items, nil
	}

	children, err := tx.Children(n.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if items, err = remoteItems(tx, c, depth+1, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func remoteLabel(n *share.Node) string {
	label := fmt.Sprintf("[%d] %s", n.ID, n.ClientTitle())
	if n.Tag != "" {
		label += " <" + n.Tag + ">"
	}
	if n.URL != "" {
		label += "  " + pterm.Gray(n.URL)
	}
	if n.ExternalID != 0 {
		label += pterm.Gray(fmt.Sprintf("  ext=%d", n.ExternalID))
	}
	return label
}
