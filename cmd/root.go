// Package cmd implements the jlens command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/internal/navigator"
	"github.com/oakwood-commons/jlens/internal/render"
	"github.com/oakwood-commons/jlens/internal/session"
	"github.com/oakwood-commons/jlens/internal/ui"
	"github.com/oakwood-commons/jlens/pkg/loader"
	"github.com/oakwood-commons/jlens/pkg/logger"
	"github.com/oakwood-commons/jlens/pkg/settings"
)

// errNoInput is returned when neither a file nor piped stdin is given.
var errNoInput = errors.New("no input: pass a file or pipe a document on stdin")

// usageError marks errors caused by bad arguments or flags; they exit with
// status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err: err}
		}
		return nil
	}
}

// ExitCode maps an error returned by Execute to a process status.
func ExitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		return 2
	default:
		return 1
	}
}

var (
	stdinIsPiped = func() bool {
		stat, err := os.Stdin.Stat()
		return err == nil && (stat.Mode()&os.ModeCharDevice) == 0
	}
	stdoutIsTerminal = func() bool { return formatter.ColorEnabled(os.Stdout) }
)

// rootOptions are the global flags.
type rootOptions struct {
	configFile  string
	format      string
	debug       bool
	noColor     bool
	interactive bool
	depth       int
	collapse    bool
	goTo        string
	branchCap   int
	model       string
	noValues    bool
}

// app is the state shared by every command of one invocation.
type app struct {
	opts  rootOptions
	flags *pflag.FlagSet
	cfg   config.Config
	run   *settings.Run
	ctx   context.Context
	stdin io.Reader
}

// Execute runs the root command with os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{run: settings.NewCliParams()}

	cmd := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "Explore JSON documents as a collapsible tree",
		Long: `jlens renders a JSON (or NDJSON, YAML, TOML) document as a collapsible tree,
searches keys and values, navigates by canonical path such as $['store']['book'][0],
and can ask an AI model to summarize, query, describe or explain the data.

With no file argument the document is read from stdin.`,
		Example: `  jlens data.json
  jlens -i data.json
  curl -s https://api.example.com/items | jlens --depth 2
  jlens data.json --goto "$['store']['book'][0]"
  jlens search Moby data.json --values
  jlens eval '_.store.book.map(b, b.title)' data.json`,
		Args:          usageArgs(cobra.MaximumNArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRoot(cmd, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err: err} })

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.configFile, "config-file", "", "config file (default $XDG_CONFIG_HOME/jlens/config.yaml)")
	pf.StringVar(&a.opts.format, "format", "", "input format: json, ndjson, yaml or toml (default auto-detect)")
	pf.BoolVar(&a.opts.debug, "debug", false, "enable debug logging to stderr")
	pf.BoolVar(&a.opts.noColor, "no-color", false, "disable colored output")
	pf.IntVar(&a.opts.branchCap, "branch-cap", 0, "maximum nodes rendered per pass (default from config)")
	pf.StringVar(&a.opts.model, "model", "", "AI model identifier (default from config)")

	f := cmd.Flags()
	f.BoolVarP(&a.opts.interactive, "interactive", "i", false, "open the interactive viewer")
	f.IntVar(&a.opts.depth, "depth", -1, "expand containers shallower than this depth (-1 expands all)")
	f.BoolVar(&a.opts.collapse, "collapse", false, "start with every container collapsed")
	f.StringVar(&a.opts.goTo, "goto", "", "reveal and focus a path such as $['a'][0]")
	f.BoolVar(&a.opts.noValues, "no-values", false, "print the tree structure without values")
	a.flags = f

	cmd.AddCommand(
		newSearchCmd(a),
		newGetCmd(a),
		newCrumbsCmd(a),
		newEvalCmd(a),
		newAICmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup initialises logging, configuration and run settings.
func (a *app) setup(cmd *cobra.Command) error {
	var level int8
	if a.opts.debug {
		level = -1
	}
	a.run.MinLogLevel = level
	a.run.NoColor = a.opts.noColor
	a.run.Interactive = a.opts.interactive

	lgr := logger.WithValues(logger.Get(level), logger.CommandKey, cmd.Name())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, lgr)
	ctx = settings.IntoContext(ctx, a.run)
	a.ctx = ctx
	a.stdin = cmd.InOrStdin()
	cmd.SetContext(ctx)

	if a.opts.branchCap < 0 {
		return usageErrorf("--branch-cap must not be negative, got %d", a.opts.branchCap)
	}
	cfg, err := loadConfig(resolveConfigPath(a.opts.configFile))
	if err != nil {
		return err
	}
	a.cfg = cfg
	lgr.V(logger.LevelDebug).Info("configuration loaded", "branch_cap", cfg.Viewer.BranchCap, "ai_enabled", cfg.AI.Enabled())
	return nil
}

// readDocument loads the file argument, or stdin when it is piped.
func (a *app) readDocument(args []string) (jsonvalue.Value, error) {
	format, err := loader.ParseFormat(a.opts.format)
	if err != nil {
		return jsonvalue.Value{}, usageError{err: err}
	}
	var (
		v   jsonvalue.Value
		got loader.Format
	)
	switch {
	case len(args) > 0 && args[0] != "-":
		a.run.Source = settings.Source{Path: args[0]}
		v, got, err = loader.LoadFile(args[0], format)
	case (len(args) > 0 && args[0] == "-") || stdinIsPiped():
		a.run.Source = settings.Source{FromStdin: true}
		v, got, err = loader.LoadReader(a.stdin, format)
	default:
		return jsonvalue.Value{}, usageError{err: errNoInput}
	}
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("%s: %w", a.run.Source.Name(), err)
	}
	logger.FromContext(a.ctx).V(logger.LevelDebug).Info("document read", "source", a.run.Source.Name(), "format", string(got))
	return v, nil
}

func (a *app) branchCap() int {
	if a.opts.branchCap > 0 {
		return a.opts.branchCap
	}
	return a.cfg.Viewer.BranchCap
}

// newSession loads v into a session configured from flags and config.
func (a *app) newSession(v jsonvalue.Value) *session.Session {
	depth := a.cfg.Viewer.ExpandDepth
	if a.flags != nil && a.flags.Changed("depth") {
		depth = a.opts.depth
	}
	if a.opts.collapse {
		depth = 0
	}
	s := session.New(a.ctx, session.Options{BranchCap: a.branchCap(), ExpandDepth: depth})
	s.Load(v)
	return s
}

func (a *app) palette(interactive bool) formatter.Palette {
	noColor := a.opts.noColor
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}
	if !interactive && !stdoutIsTerminal() {
		noColor = true
	}
	return formatter.NewPalette(a.cfg.Viewer.Theme, noColor)
}

func (a *app) runRoot(cmd *cobra.Command, args []string) error {
	v, err := a.readDocument(args)
	if err != nil {
		return err
	}
	sess := a.newSession(v)

	if a.opts.goTo != "" {
		res, err := sess.GoTo(a.opts.goTo)
		if err != nil {
			return usageError{err: err}
		}
		switch res.Outcome {
		case navigator.NotFound:
			return fmt.Errorf("path not found: %s", res.Path)
		case navigator.NotInView:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (raise --branch-cap to show it)\n", res.Path, res.Outcome)
		}
	}

	if a.opts.interactive {
		assistant, _ := a.assistant()
		p := a.palette(true)
		return ui.Run(a.ctx, sess, ui.Options{
			Palette:     p,
			IndentWidth: a.cfg.Viewer.IndentColumns(),
			Assistant:   assistant,
			Models:      a.cfg.AI.Models,
			NoColor:     a.opts.noColor,
		})
	}

	rows := sess.Visible()
	if a.opts.goTo != "" {
		rows = subtreeRows(rows, sess.Current())
	}
	p := a.palette(false)
	_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTree(rows, formatter.TreeOptions{
		IsExpanded: sess.IsExpanded,
		BranchCap:  sess.BranchCap(),
		Palette:    &p,
		NoValues:   a.opts.noValues,
	}))
	return err
}

// subtreeRows returns the contiguous run of rows rooted at path.
func subtreeRows(rows []render.Descriptor, path string) []render.Descriptor {
	for i, d := range rows {
		if d.Path != path || d.Truncated {
			continue
		}
		end := i + 1
		for end < len(rows) && rows[end].Depth > d.Depth {
			end++
		}
		return rows[i:end]
	}
	return rows
}
