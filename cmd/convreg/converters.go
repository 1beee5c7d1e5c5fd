package main

import (
	"github.com/artpar/convreg/app"
	"github.com/artpar/convreg/core/formatter"
	"github.com/spf13/cobra"
)

var converterView = formatter.View{Kind: "converters", Columns: []string{"name", "arity", "url"}}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the converter catalogue",
	Long: `List every converter the registry can build, with its arity and
documentation URL.

Examples:
  convreg list
  convreg list -o yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var describeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show one catalogue entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
}

func converterRecord(d app.ConverterDescription) map[string]any {
	return map[string]any{
		"name":  string(d.Name),
		"arity": d.Arity,
		"url":   d.URL,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	a, _, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	catalogue := a.Resolver.Catalogue()
	records := make([]map[string]any, len(catalogue))
	for i, d := range catalogue {
		records[i] = converterRecord(d)
	}
	return printList(cmd, converterView, records)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	a, _, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := a.Resolver.Describe(args[0])
	if err != nil {
		return err
	}
	return printRecord(cmd, converterView, converterRecord(d))
}
