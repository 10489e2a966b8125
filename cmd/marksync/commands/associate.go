package commands

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/sync"
)

// AssociateCmd runs one association pass
var AssociateCmd = &cobra.Command{
	Use:   "associate",
	Short: "Run one association pass and flush external ids",
	Long: `Pair every local node with a remote node, merge the two trees, and
stamp both with the new remote model version.

The external-id flush that normally runs after a delay is drained before
the command exits, so the remote store records the local id of every
associated node.`,
	RunE: runAssociate,
}

var associateFormat string

func init() {
	AssociateCmd.Flags().StringVar(&associateFormat, "format", FormatTable, "Output format: table, json, yaml")
}

func runAssociate(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	ctx := cmd.Context()

	runner := &queueRunner{}
	assoc := s.associator(sync.WithTaskRunner(runner))

	stats, runErr := assoc.Associate(ctx)
	// local changes are kept even when the run fails
	if err := s.save(ctx); err != nil {
		return err
	}
	if runErr != nil {
		return errors.Wrap(runErr, "association failed")
	}

	runner.drain()
	if err := assoc.Flush(ctx); err != nil {
		return errors.Wrap(err, "external id flush failed")
	}
	if err := s.save(ctx); err != nil {
		return err
	}

	handled, err := writeStructured(cmd.OutOrStdout(), associateFormat, stats)
	if handled || err != nil {
		return err
	}
	return renderMergeStats(stats)
}

func renderMergeStats(stats *sync.MergeStats) error {
	pterm.DefaultSection.Printf("Association %s", stats.RunID)

	itoa := strconv.Itoa
	data := pterm.TableData{
		{"", "local", "remote"},
		{"items before", itoa(stats.Local.NumItemsBefore), itoa(stats.Remote.NumItemsBefore)},
		{"items after", itoa(stats.Local.NumItemsAfter), itoa(stats.Remote.NumItemsAfter)},
		{"added", itoa(stats.Local.Added), itoa(stats.Remote.Added)},
		{"deleted", itoa(stats.Local.Deleted), itoa(stats.Remote.Deleted)},
		{"modified", itoa(stats.Local.Modified), itoa(stats.Remote.Modified)},
		{"version before", fmt.Sprint(stats.Local.PreAssociationVersion), fmt.Sprint(stats.Remote.PreAssociationVersion)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return errors.Wrap(err, "failed to render stats table")
	}

	pterm.Info.Printf("State: %s, optimistic: %t, model version: %d\n", stats.SyncState, stats.Optimistic, stats.Version)
	pterm.Info.Printf("Duplicates: %d (%d new)\n", stats.DuplicateCount, stats.NewDuplicateCount)

	for _, d := range stats.Diagnostics {
		pterm.Warning.Printf("Skipped remote node %d %q: %s\n", d.RemoteID, d.Title, d.Reason)
	}
	return nil
}
