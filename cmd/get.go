package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/internal/navigator"
	"github.com/oakwood-commons/jlens/internal/session"
	"github.com/oakwood-commons/jlens/internal/ui"
)

func newGetCmd(a *app) *cobra.Command {
	var (
		scope  string
		output string
		copyIt bool
	)
	cmd := &cobra.Command{
		Use:   "get PATH [file]",
		Short: "Print the value at a canonical path",
		Example: `  jlens get "$['store']['bicycle']" data.json
  jlens get "$['store']['book'][0]" data.json --scope subtree -o yaml
  jlens get "$['owner']" data.json --copy`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := session.ParseScope(scope)
			if err != nil {
				return usageError{err: err}
			}
			if output != "json" && output != "yaml" {
				return usageErrorf("invalid output for get: %s (use json|yaml)", output)
			}
			if !jpath.Valid(args[0]) {
				return usageErrorf("%w: %q", jpath.ErrMalformedPath, args[0])
			}
			v, err := a.readDocument(args[1:])
			if err != nil {
				return err
			}
			sess := a.newSession(v)
			res, err := sess.GoTo(args[0])
			if err != nil {
				return err
			}
			if res.Outcome == navigator.NotFound {
				return fmt.Errorf("path not found: %s", args[0])
			}
			val, err := sess.ResolvePath(args[0])
			if err != nil {
				return err
			}
			text, err := getText(val, args[0], sc, output)
			if err != nil {
				return err
			}
			if copyIt {
				if err := ui.CopyToClipboard(strings.TrimRight(text, "\n")); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Copied %s of %s\n", sc, args[0])
			}
			return writeLine(cmd.OutOrStdout(), text)
		},
	}
	f := cmd.Flags()
	f.StringVar(&scope, "scope", string(session.ScopeValue), "what to print: value, subtree or path")
	f.StringVarP(&output, "output", "o", "json", "subtree format: json or yaml")
	f.BoolVar(&copyIt, "copy", false, "also copy the result to the clipboard")
	return cmd
}

func getText(v jsonvalue.Value, path string, scope session.Scope, output string) (string, error) {
	if scope == session.ScopeSubtree && output == "yaml" {
		return formatter.FormatYAML(v, formatter.YAMLFormatOptions{LiteralBlockStrings: true})
	}
	return session.CopyText(v, path, scope)
}

func writeLine(w io.Writer, s string) error {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}

func newCrumbsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crumbs PATH",
		Short: "Split a canonical path into breadcrumbs",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			crumbs, err := navigator.Breadcrumbs(args[0])
			if err != nil {
				return usageError{err: err}
			}
			rows := make([][]string, len(crumbs))
			for i, c := range crumbs {
				rows[i] = []string{c.Label, c.Path}
			}
			p := a.palette(false)
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTable([]string{"LABEL", "PATH"}, rows, formatter.TableOptions{Palette: &p}))
			return err
		},
	}
}
