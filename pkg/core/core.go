// Package core is the embeddable jlens API: load a document, evaluate
// expressions, resolve canonical paths, search, and render the tree.
package core

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jlens/internal/cel"
	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/internal/search"
	"github.com/oakwood-commons/jlens/internal/session"
	"github.com/oakwood-commons/jlens/pkg/loader"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

// Evaluator evaluates expressions against a root document.
type Evaluator interface {
	Evaluate(expr string, root jsonvalue.Value) (jsonvalue.Value, error)
}

// Formatter renders a loaded session.
type Formatter interface {
	RenderTree(s *session.Session) string
}

// Engine provides a minimal shared API for loading, evaluating, and rendering data.
type Engine struct {
	Evaluator   Evaluator
	Formatter   Formatter
	BranchCap   int
	ExpandDepth int
	Logger      logr.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithEvaluator sets a custom evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(c *Engine) {
		c.Evaluator = e
	}
}

// WithFormatter sets a custom formatter.
func WithFormatter(f Formatter) Option {
	return func(c *Engine) {
		c.Formatter = f
	}
}

// WithBranchCap limits the nodes rendered per pass.
func WithBranchCap(n int) Option {
	return func(c *Engine) {
		c.BranchCap = n
	}
}

// WithExpandDepth sets the initial expansion depth; negative expands all.
func WithExpandDepth(depth int) Option {
	return func(c *Engine) {
		c.ExpandDepth = depth
	}
}

// WithLogger sets the logger used by sessions the engine creates.
func WithLogger(lgr logr.Logger) Option {
	return func(c *Engine) {
		c.Logger = lgr
	}
}

// New creates an Engine with defaults.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{ExpandDepth: -1, Logger: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	if e.BranchCap < 0 {
		return nil, fmt.Errorf("branch cap must not be negative, got %d", e.BranchCap)
	}
	if e.Evaluator == nil {
		ev, err := cel.NewEvaluator()
		if err != nil {
			return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
		}
		e.Evaluator = ev
	}
	if e.Formatter == nil {
		e.Formatter = defaultFormatter{}
	}
	return e, nil
}

// LoadRoot parses input, detecting JSON, NDJSON, YAML or TOML.
func LoadRoot(input string) (jsonvalue.Value, error) {
	return LoadRootBytes([]byte(input))
}

// LoadRootBytes parses data, detecting its format.
func LoadRootBytes(data []byte) (jsonvalue.Value, error) {
	v, _, err := loader.Load(data, "")
	return v, err
}

// LoadFile reads and parses path.
func LoadFile(path string) (jsonvalue.Value, error) {
	v, _, err := loader.LoadFile(path, "")
	return v, err
}

// LoadObject converts a decoded Go value (maps, slices, scalars) into a document.
func LoadObject(value any) (jsonvalue.Value, error) {
	return jsonvalue.FromInterface(value)
}

// Session loads root into a new viewer session configured like the engine.
func (e *Engine) Session(ctx context.Context, root jsonvalue.Value) *session.Session {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, &e.Logger)
	s := session.New(ctx, session.Options{BranchCap: e.BranchCap, ExpandDepth: e.ExpandDepth})
	s.Load(root)
	return s
}

// Evaluate evaluates expr against root.
func (e *Engine) Evaluate(expr string, root jsonvalue.Value) (jsonvalue.Value, error) {
	return e.Evaluator.Evaluate(expr, root)
}

// NodeAtPath resolves a canonical path such as $['a'][0].
func (e *Engine) NodeAtPath(root jsonvalue.Value, path string) (jsonvalue.Value, error) {
	return jpath.Resolve(root, path)
}

// Search lists the locations whose key or value matches cfg.
func (e *Engine) Search(root jsonvalue.Value, cfg search.Config) ([]search.Match, error) {
	return search.Find(root, cfg)
}

// Render returns root as a text tree.
func (e *Engine) Render(root jsonvalue.Value) string {
	return e.Formatter.RenderTree(e.Session(context.Background(), root))
}

// Stringify returns a primitive's text or a container's compact JSON.
func (e *Engine) Stringify(node jsonvalue.Value) string {
	text, err := session.CopyText(node, jpath.Root, session.ScopeValue)
	if err != nil {
		return ""
	}
	return text
}

type defaultFormatter struct{}

func (defaultFormatter) RenderTree(s *session.Session) string {
	p := formatter.NewPalette(config.Theme{}, true)
	return formatter.FormatTree(s.Visible(), formatter.TreeOptions{
		IsExpanded: s.IsExpanded,
		BranchCap:  s.BranchCap(),
		Palette:    &p,
	})
}
