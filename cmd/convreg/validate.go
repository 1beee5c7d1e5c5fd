package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/artpar/convreg/adapters/sqlite"
	"github.com/artpar/convreg/bootstrap"
	"github.com/artpar/convreg/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the convreg configuration file.

Checks:
  - YAML syntax is valid
  - Fields are in range
  - Every configured selector alias resolves
  - Database is writable (optional)

Examples:
  convreg validate
  convreg validate --config /etc/convreg/convreg.yaml --check-database`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	if cfg.Database.Path == "" {
		fmt.Fprintf(out, "  %s Database: in-memory\n", checkMark)
	} else {
		fmt.Fprintf(out, "  %s Database: %s\n", checkMark, cfg.Database.Path)
	}
	fmt.Fprintf(out, "  %s Expression numbers: %s\n", checkMark, cfg.Conversion.ExpressionNumberKind)
	fmt.Fprintf(out, "  %s Selector aliases: %d\n", checkMark, len(cfg.Selectors))

	// Aliases are resolved against an in-memory core so validation never
	// touches the configured database.
	coreCfg := *cfg
	coreCfg.Database.Path = ""
	coreCfg.Metrics.Enabled = false
	a, closeFn, err := bootstrap.NewCore(context.Background(), &coreCfg, cliLogger(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	defer closeFn()

	names := make([]string, 0, len(cfg.Selectors))
	for name := range cfg.Selectors {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		if _, err := a.Resolver.Resolve(context.Background(), name); err != nil {
			fmt.Fprintf(out, "  %s Alias %s resolves\n", crossMark, name)
			fmt.Fprintf(out, "      Error: %v\n", err)
			failed++
			continue
		}
		fmt.Fprintf(out, "  %s Alias %s resolves\n", checkMark, name)
	}

	if validateCheckDatabase && cfg.Database.Path != "" {
		if err := checkDatabaseWritable(cfg.Database.Path); err != nil {
			fmt.Fprintf(out, "  %s Database writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
			failed++
		} else {
			fmt.Fprintf(out, "  %s Database writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabaseWritable(path string) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate(context.Background())
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
