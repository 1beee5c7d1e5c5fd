package main

import (
	"fmt"
	"os"

	"github.com/artpar/convreg/bootstrap"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the convreg HTTP server.

The server will:
  - Load configuration from convreg.yaml (or --config)
  - Or load configuration from CONVREG_* environment variables
  - Open the SQLite database when database.path is set
  - Serve the resolution API under /api/v1
  - Reload selector aliases and conversion settings on file change or SIGHUP

Environment variables:
  CONVREG_SERVER_PORT             - Server port (default: 8080)
  CONVREG_DATABASE_PATH           - SQLite path (default: in-memory)
  CONVREG_ADMIN_KEY_HASH          - bcrypt hash guarding selector writes
  CONVREG_LOG_LEVEL               - Log level: debug, info, warn, error

Examples:
  convreg serve
  convreg serve --config /etc/convreg/convreg.yaml
  CONVREG_SERVER_PORT=9090 convreg serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgFile); err != nil {
			return fmt.Errorf("config file not found: %s", cfgFile)
		}
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
