package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/artpar/convreg/bootstrap"
	"github.com/artpar/convreg/config"
	"github.com/artpar/convreg/core/formatter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "convreg",
	Short: "Named converter registry",
	Long: `convreg builds converters from selector text such as

  to-number-or-expression-number(number-to-number)

and applies them to values. It runs as an HTTP service or as a one-shot CLI.

Quick start:
  convreg list                                   # catalogue
  convreg resolve "to-expression-number-then(number-to-number, number-to-number)"
  convreg convert number-to-number 12.50 --to int
  convreg serve                                  # HTTP API on :8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level to stderr")
}

// loadConfig loads --config, falling back to the environment when the
// default file is absent. A missing file named explicitly is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file not found: %s", cfgFile)
		}
	}
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

func cliLogger(w io.Writer) zerolog.Logger {
	if verbose {
		return bootstrap.NewLogger("debug", "console", w)
	}
	return bootstrap.NewLogger("warn", "console", w)
}

// openCore builds the services for a one-shot command.
func openCore(cmd *cobra.Command) (*bootstrap.App, *config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	// One-shot commands never expose metrics.
	cfg.Metrics.Enabled = false

	a, closeFn, err := bootstrap.NewCore(context.Background(), cfg, cliLogger(cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error initializing: %w", err)
	}
	return a, cfg, closeFn, nil
}

func outputFormatter() (formatter.Formatter, error) {
	return formatter.Lookup(outputFormat)
}

func printList(cmd *cobra.Command, view formatter.View, records []map[string]any) error {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	return f.FormatList(cmd.OutOrStdout(), view, records, formatter.FormatOptions{})
}

func printRecord(cmd *cobra.Command, view formatter.View, record map[string]any) error {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	return f.FormatRecord(cmd.OutOrStdout(), view, record, formatter.FormatOptions{})
}
