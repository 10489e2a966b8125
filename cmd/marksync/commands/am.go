package commands

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/marksync/am"
	"github.com/teranos/marksync/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage marksync configuration",
	Long: `am: Manage marksync configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (MARKSYNC_* prefix)
2. Project config (nearest am.toml walking up from the working directory)
3. CLI overrides (~/.marksync/am_from_cli.toml, written by "am set")
4. User config (~/.marksync/am.toml)
5. System config (/etc/marksync/am.toml)
6. Default values

Examples:
  marksync am show                    # Show current configuration
  marksync am show --sources          # Show where each value came from
  marksync am get sync.optimistic     # Get specific config value
  marksync am set sync.optimistic false
  marksync am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, sync.category)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <section.key> <value>",
	Short: "Persist a value into ~/.marksync/am_from_cli.toml",
	Args:  cobra.ExactArgs(2),
	RunE:  runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate current configuration",
	Long: `Validate the merged configuration, and report keys marksync does not
know in every config file it read (or only in the given file).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmValidate,
}

var (
	configFormat  string
	configSources bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&configSources, "sources", false, "List every setting with the source that set it")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if configSources {
		introspection, err := am.GetConfigIntrospection()
		if err != nil {
			return err
		}
		if configFormat != "toml" {
			_, err := writeStructured(cmd.OutOrStdout(), configFormat, introspection)
			return err
		}
		data := pterm.TableData{{"key", "value", "source", "from"}}
		for _, s := range introspection.Settings {
			data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if configFormat == "toml" {
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# marksync configuration\n%s", string(data))
		return nil
	}
	_, err = writeStructured(cmd.OutOrStdout(), configFormat, cfg)
	return err
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if !am.GetViper().IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	section, key, ok := strings.Cut(args[0], ".")
	if !ok {
		return errors.NewInvalidRequestError("key must be section.key, got %q", args[0])
	}

	if err := am.SetValue(section, key, am.ParseValue(args[1])); err != nil {
		return err
	}

	// the value is already written; point at the file when it broke the merged config
	cfg, err := am.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.WithHintf(err, "edit %s to fix it", am.GetCLIConfigPath())
	}

	pterm.Success.Printf("%s = %v (in %s)\n", args[0], am.Get(args[0]), am.GetCLIConfigPath())
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		cfg, err := am.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "configuration validation failed")
		}
		files = am.WatchedConfigFiles()
	}

	var unknownTotal int
	for _, path := range files {
		unknown, err := am.CheckFile(path)
		if err != nil {
			return err
		}
		for _, key := range unknown {
			pterm.Warning.Printf("%s: unknown key %s\n", path, key)
		}
		unknownTotal += len(unknown)
	}
	if unknownTotal > 0 {
		return errors.Newf("%d unknown keys", unknownTotal)
	}

	pterm.Success.Println("Configuration is valid")
	return nil
}
