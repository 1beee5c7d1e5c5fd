package main

import (
	"context"
	"fmt"

	"github.com/artpar/convreg/core/formatter"
	"github.com/artpar/convreg/domain/convert"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var resolveView = formatter.View{
	Kind:    "resolution",
	Columns: []string{"selector", "alias", "converter", "names", "tree"},
}

var conversionView = formatter.View{
	Kind:    "conversion",
	Columns: []string{"selector", "target", "value"},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <selector>",
	Short: "Build the converter a selector describes",
	Long: `Parse and build a selector, printing its canonical form.

The selector may be a configured or saved alias.

Examples:
  convreg resolve "to-number-or-expression-number(number-to-number)"
  convreg resolve money -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

var convertCmd = &cobra.Command{
	Use:   "convert <selector> <value>",
	Short: "Convert a value with a selector",
	Long: `Resolve a selector and convert a value with the result.

Targets: int, int64, float64, decimal, expression-number.

Examples:
  convreg convert number-to-number 12 --to int64
  convreg convert "to-number-or-expression-number(number-to-number)" 2.5 --to expression-number`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var convertTarget string

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertTarget, "to", string(convert.TargetDecimal), "conversion target")
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, _, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := a.Resolver.Resolve(context.Background(), args[0])
	if err != nil {
		return err
	}

	names := res.Selector.Names()
	nameList := make([]string, len(names))
	for i, n := range names {
		nameList[i] = string(n)
	}
	return printRecord(cmd, resolveView, map[string]any{
		"selector":  res.Selector.String(),
		"alias":     res.Alias,
		"converter": res.Converter.String(),
		"names":     nameList,
		"tree":      a.Resolver.Tree(res.Selector),
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	target, err := convert.ParseTarget(convertTarget)
	if err != nil {
		return err
	}

	a, _, closeFn, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	// Non-numeric text is passed through so the converter reports it.
	var value any = args[1]
	if d, err := decimal.NewFromString(args[1]); err == nil {
		value = d
	}

	out, err := a.Resolver.Convert(context.Background(), args[0], value, target)
	if err != nil {
		return err
	}
	return printRecord(cmd, conversionView, map[string]any{
		"selector": out.Selector.String(),
		"target":   string(out.Target),
		"value":    fmt.Sprint(out.Value),
	})
}
