package commands

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/share"
)

// JournalCmd inspects the remote deletion journal
var JournalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect pending remote deletions",
	Long: `Every node the server deleted is journaled until the next association
applies the deletion to the local tree and purges the entry.`,
}

var journalLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List journaled remote deletions",
	RunE:  runJournalLs,
}

// RemoteCmd simulates changes another client made through the server
var RemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Simulate server-side changes",
}

var remoteRmCmd = &cobra.Command{
	Use:   "rm <remote-id>",
	Short: "Delete a remote subtree as the server would, journaling each node",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoteRm,
}

var journalFormat string

func init() {
	journalLsCmd.Flags().StringVar(&journalFormat, "format", FormatTable, "Output format: table, json, yaml")
	JournalCmd.AddCommand(journalLsCmd)
	RemoteCmd.AddCommand(remoteRmCmd)
}

func runJournalLs(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	tx, err := s.store.Begin(cmd.Context())
	if err != nil {
		return err
	}
	entries, err := tx.Journal()
	tx.Rollback()
	if err != nil {
		return err
	}

	handled, err := writeStructured(cmd.OutOrStdout(), journalFormat, entries)
	if handled || err != nil {
		return err
	}

	if len(entries) == 0 {
		pterm.Info.Println("Journal is empty")
		return nil
	}

	data := pterm.TableData{{"remote id", "local id", "kind", "title", "url"}}
	for _, e := range entries {
		kind := "url"
		if e.IsFolder {
			kind = "folder"
		}
		data = append(data, []string{
			strconv.FormatInt(e.RemoteID, 10),
			strconv.FormatInt(e.ExternalID, 10),
			kind,
			e.Title,
			e.URL,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runRemoteRm(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errors.NewInvalidRequestError("remote id must be an integer, got %q", args[0])
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var removed int
	version, err := s.withTx(cmd.Context(), func(tx *share.Tx) error {
		removed, err = tx.ApplyRemoteDeletion(id)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete remote node %d", id)
	}

	pterm.Success.Printf("Deleted %d remote nodes, model version %d\n", removed, version)
	return nil
}
