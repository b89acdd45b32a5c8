package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/supertrend/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  supertrend config init -o supertrend.yaml
  supertrend config validate -f supertrend.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "supertrend.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	_ = configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created default configuration: %s\n", configInitOutput)
	fmt.Fprintf(out, "Edit the file and run with:\n  supertrend run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	w, _ := cfg.SessionWindow()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Strategy:   %s label=%s risk=%.2f Supertrend(%d,%g)\n",
		cfg.Strategy.Name, cfg.Strategy.Label, cfg.Strategy.RiskAmount, cfg.Strategy.Periods, cfg.Strategy.Multiplier)
	fmt.Fprintf(out, "  Instrument: %s\n", cfg.Instrument.Name)
	fmt.Fprintf(out, "  Session:    %s\n", w)
	fmt.Fprintf(out, "  Broker:     %s\n", cfg.Broker.Type)
	fmt.Fprintf(out, "  Feed:       %s\n", cfg.Feed.Type)
	fmt.Fprintf(out, "  Journal:    %s\n", cfg.Journal.Type)
	return nil
}
