package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jlens/internal/cel"
	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/limiter"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		output string
		window limiter.Config
	)
	cmd := &cobra.Command{
		Use:   "eval EXPR [file]",
		Short: "Evaluate a CEL expression with the document bound to _",
		Example: `  jlens eval '_.store.book[0].title' data.json
  jlens eval '_.store.book.filter(b, b.price < 10.0)' data.json -o yaml`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return usageErrorf("invalid output for eval: %s (use json|yaml)", output)
			}
			if err := window.Validate(); err != nil {
				return usageError{err: err}
			}
			ev, err := cel.NewEvaluator()
			if err != nil {
				return err
			}
			prg, err := ev.Compile(args[0])
			if err != nil {
				return usageError{err: err}
			}
			v, err := a.readDocument(args[1:])
			if err != nil {
				return err
			}
			out, err := prg.Eval(v)
			if err != nil {
				return err
			}
			out = window.ApplyValue(out)
			logger.FromContext(a.ctx).V(logger.LevelDebug).Info("evaluated", "expr", args[0], "kind", out.Kind().String())
			if output == "yaml" {
				text, err := formatter.FormatYAML(out, formatter.YAMLFormatOptions{LiteralBlockStrings: true})
				if err != nil {
					return err
				}
				return writeLine(cmd.OutOrStdout(), text)
			}
			if out.IsPrimitive() {
				return writeLine(cmd.OutOrStdout(), out.String())
			}
			return writeLine(cmd.OutOrStdout(), string(out.MarshalIndent("", "  ")))
		},
	}
	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	f.IntVar(&window.Limit, "limit", 0, "keep at most N elements of a list or object result")
	f.IntVar(&window.Offset, "offset", 0, "skip the first N elements of the result")
	f.IntVar(&window.Tail, "tail", 0, "keep only the last N elements of the result")
	return cmd
}
