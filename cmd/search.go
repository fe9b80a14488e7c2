package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jlens/internal/cel"
	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/limiter"
	"github.com/oakwood-commons/jlens/internal/search"
	"github.com/oakwood-commons/jlens/internal/session"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

type searchOptions struct {
	keys, values, both bool
	caseSensitive      bool
	regex              bool
	where              string
	output             string
	limit              limiter.Config
}

func newSearchCmd(a *app) *cobra.Command {
	var o searchOptions
	cmd := &cobra.Command{
		Use:   "search TERM [file]",
		Short: "List the paths whose key or value matches TERM",
		Example: `  jlens search title data.json --keys
  jlens search '^Mo' data.json --regex -o json
  jlens search price data.json --where '_ > 10.0'`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd.OutOrStdout(), args[0], args[1:], o)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.keys, "keys", false, "match object keys")
	f.BoolVar(&o.values, "values", false, "match primitive values")
	f.BoolVar(&o.both, "both", false, "match keys and values (default when neither is set)")
	f.BoolVar(&o.caseSensitive, "case-sensitive", false, "match case exactly")
	f.BoolVar(&o.regex, "regex", false, "treat TERM as a regular expression")
	f.StringVar(&o.where, "where", "", "keep matches whose value satisfies a CEL expression over _")
	f.StringVarP(&o.output, "output", "o", "table", "output format: table, json or yaml")
	f.IntVar(&o.limit.Limit, "limit", 0, "show at most N matches")
	f.IntVar(&o.limit.Offset, "offset", 0, "skip the first N matches")
	f.IntVar(&o.limit.Tail, "tail", 0, "show only the last N matches")
	return cmd
}

// filterMatches returns the matches whose value satisfies pred. The session's
// own match list is left untouched.
func filterMatches(sess *session.Session, pred *cel.Program, matches []search.Match) ([]search.Match, error) {
	kept := make([]search.Match, 0, len(matches))
	for _, m := range matches {
		val, err := sess.ResolvePath(m.Path)
		if err != nil {
			return nil, err
		}
		ok, err := pred.Match(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Path, err)
		}
		if ok {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

func (a *app) runSearch(w io.Writer, term string, args []string, o searchOptions) error {
	if err := o.limit.Validate(); err != nil {
		return usageError{err: err}
	}
	switch o.output {
	case "table", "json", "yaml":
	default:
		return usageErrorf("invalid output for search: %s (use table|json|yaml)", o.output)
	}

	var pred *cel.Program
	if o.where != "" {
		ev, err := cel.NewEvaluator()
		if err != nil {
			return err
		}
		if pred, err = ev.Compile(o.where); err != nil {
			return usageError{err: err}
		}
	}

	v, err := a.readDocument(args)
	if err != nil {
		return err
	}
	sess := a.newSession(v)
	both := o.both || (!o.keys && !o.values)
	cfg := search.Config{
		Term:          term,
		MatchKeys:     o.keys || both,
		MatchValues:   o.values || both,
		CaseSensitive: o.caseSensitive,
		Regex:         o.regex,
	}
	matches, err := sess.Search(cfg)
	if err != nil {
		return usageError{err: err}
	}

	if pred != nil {
		if matches, err = filterMatches(sess, pred, matches); err != nil {
			return err
		}
	}
	total := len(matches)
	matches = limiter.Apply(o.limit, matches)
	logger.FromContext(a.ctx).V(logger.LevelDebug).Info("search finished", logger.MatchesKey, total, "shown", len(matches))

	switch o.output {
	case "json":
		if matches == nil {
			matches = []search.Match{}
		}
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(matches); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(matches) == 0 {
		_, err := fmt.Fprintf(w, "No matches for %q\n", term)
		return err
	}
	rows := make([][]string, len(matches))
	for i, m := range matches {
		rows[i] = []string{m.Path, m.On.String(), m.Key, m.Value}
	}
	p := a.palette(false)
	_, err = fmt.Fprint(w, formatter.FormatTable([]string{"PATH", "ON", "KEY", "VALUE"}, rows, formatter.TableOptions{
		MaxCellWidth: 60,
		Palette:      &p,
	}))
	return err
}
