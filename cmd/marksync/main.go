package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/marksync/am"
	"github.com/teranos/marksync/cmd/marksync/commands"
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/logger"
	"github.com/teranos/marksync/tracing"
)

var tracer *tracing.Tracer

var rootCmd = &cobra.Command{
	Use:   "marksync",
	Short: "marksync - reconcile a local bookmark tree with its synced copy",
	Long: `marksync - reconcile a local bookmark tree with its synced copy.

Both trees live in one SQLite database: the local tree the browser edits,
and the remote store the sync server replicates. Association pairs their
nodes, merges the differences, and stamps both sides with the remote model
version.

Available commands:
  init      - Create the database and the permanent folders
  import    - Seed the local or remote tree from a YAML outline
  associate - Run one association pass and flush external ids
  tree      - Print either tree
  journal   - Inspect pending remote deletions
  remote    - Simulate server-side changes
  verify    - Compare folder digests of both trees
  watch     - Associate on an interval and on config change
  am        - Manage marksync configuration ("I am")

Examples:
  marksync init --mobile
  marksync import --side remote server.yaml
  marksync associate --format json
  marksync tree remote`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		trace, _ := cmd.Flags().GetBool("trace")

		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}

		if err := logger.Initialize(jsonLog || cfg.Log.JSON, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}

		if trace || cfg.Tracing.Enabled {
			exporter, err := tracing.ParseExporter(cfg.Tracing.Exporter)
			if err != nil {
				return err
			}
			tracer, err = tracing.Init(cmd.Context(), tracing.Config{
				Enabled:      true,
				ExporterType: exporter,
				ServiceName:  "marksync",
				Output:       os.Stderr,
			})
			if err != nil {
				return errors.Wrap(err, "failed to initialize tracing")
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tracer != nil {
			if err := tracer.Shutdown(context.Background()); err != nil {
				logger.Warnw("Tracer shutdown failed", "error", err)
			}
		}
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Log as JSON to stderr")
	rootCmd.PersistentFlags().Bool("trace", false, "Export OpenTelemetry spans for association runs")
	rootCmd.PersistentFlags().String("db", "", "Database path (default: database.path from am.toml)")

	rootCmd.AddCommand(commands.InitCmd)
	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.AssociateCmd)
	rootCmd.AddCommand(commands.TreeCmd)
	rootCmd.AddCommand(commands.JournalCmd)
	rootCmd.AddCommand(commands.RemoteCmd)
	rootCmd.AddCommand(commands.VerifyCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hints := errors.FlattenHints(err); hints != "" {
			fmt.Fprintln(os.Stderr, "hint:", hints)
		}
		os.Exit(1)
	}
}
