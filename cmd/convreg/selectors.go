package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/convreg/core/formatter"
	"github.com/artpar/convreg/ports"
	"github.com/spf13/cobra"
)

var selectorView = formatter.View{
	Kind:    "selectors",
	Columns: []string{"name", "selector", "description", "updated_at"},
}

var selectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "Manage saved selectors",
	Long: `Manage selectors saved under a name in the database.

Saved selectors resolve like configured aliases. They need database.path
to be set.

Examples:
  convreg selectors list
  convreg selectors save money "to-number-or-expression-number(number-to-number)"
  convreg selectors delete money`,
}

var selectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved selectors",
	Args:  cobra.NoArgs,
	RunE:  runSelectorsList,
}

var selectorsSaveCmd = &cobra.Command{
	Use:   "save <name> <selector>",
	Short: "Save a selector under a name",
	Args:  cobra.ExactArgs(2),
	RunE:  runSelectorsSave,
}

var selectorsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved selector",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelectorsDelete,
}

var selectorDescription string

func init() {
	rootCmd.AddCommand(selectorsCmd)
	selectorsCmd.AddCommand(selectorsListCmd)
	selectorsCmd.AddCommand(selectorsSaveCmd)
	selectorsCmd.AddCommand(selectorsDeleteCmd)

	selectorsSaveCmd.Flags().StringVarP(&selectorDescription, "description", "d", "", "description")
}

var errNoDatabase = errors.New("saved selectors need database.path (or CONVREG_DATABASE_PATH)")

func selectorRecord(s ports.SavedSelector) map[string]any {
	return map[string]any{
		"name":        s.Name,
		"selector":    s.Selector,
		"description": s.Description,
		"created_at":  s.CreatedAt.Format(time.RFC3339),
		"updated_at":  s.UpdatedAt.Format(time.RFC3339),
	}
}

func runSelectorsList(cmd *cobra.Command, args []string) error {
	a, cfg, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	if cfg.Database.Path == "" {
		return errNoDatabase
	}

	saved, err := a.Selectors.List(context.Background())
	if err != nil {
		return err
	}
	records := make([]map[string]any, len(saved))
	for i, s := range saved {
		records[i] = selectorRecord(s)
	}
	return printList(cmd, selectorView, records)
}

func runSelectorsSave(cmd *cobra.Command, args []string) error {
	a, cfg, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	if cfg.Database.Path == "" {
		return errNoDatabase
	}

	saved, err := a.Selectors.Save(context.Background(), args[0], args[1], selectorDescription)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s = %s\n", saved.Name, saved.Selector)
	return nil
}

func runSelectorsDelete(cmd *cobra.Command, args []string) error {
	a, cfg, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	if cfg.Database.Path == "" {
		return errNoDatabase
	}

	if err := a.Selectors.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}
