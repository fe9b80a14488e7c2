// Package session owns one loaded document and the view state derived from
// it: rendered rows, expansion flags, search matches, the current path and
// the selected node.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/oakwood-commons/jlens/internal/expansion"
	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/internal/navigator"
	"github.com/oakwood-commons/jlens/internal/render"
	"github.com/oakwood-commons/jlens/internal/search"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

// ErrNoDocument is returned by commands that need a loaded document.
var ErrNoDocument = errors.New("no document loaded")

// Scope selects what Copy produces.
type Scope string

const (
	// ScopeValue is a primitive's text or a container's compact JSON.
	ScopeValue Scope = "value"
	// ScopeSubtree is the indented JSON of the location.
	ScopeSubtree Scope = "subtree"
	// ScopePath is the canonical path itself.
	ScopePath Scope = "path"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeValue:
		return ScopeValue, nil
	case ScopeSubtree:
		return ScopeSubtree, nil
	case ScopePath:
		return ScopePath, nil
	default:
		return "", fmt.Errorf("unknown copy scope %q (want value, subtree or path)", s)
	}
}

// Options configures a session.
type Options struct {
	BranchCap int
	// ExpandDepth is applied after every load; negative expands everything.
	ExpandDepth int
}

// Session is single-owner state; callers serialise access.
type Session struct {
	id   string
	opts Options
	log  logr.Logger

	root   jsonvalue.Value
	loaded bool

	descs []render.Descriptor
	index map[string]int
	state *expansion.State
	nav   *navigator.Controller

	matches  []search.Match
	matchPos int

	current   string
	selected  string
	highlight string
}

// New returns an empty session. The logger is taken from ctx.
func New(ctx context.Context, opts Options) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		opts:    opts,
		log:     logger.FromContext(ctx).WithValues(logger.SessionKey, id),
		state:   expansion.New(nil),
		index:   map[string]int{},
		current: jpath.Root,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Load replaces the document and resets all view state.
func (s *Session) Load(v jsonvalue.Value) {
	s.root = v
	s.loaded = true
	s.descs = render.Render(v, render.Options{BranchCap: s.opts.BranchCap})
	s.index = render.Index(s.descs)
	s.state = expansion.New(s.descs)
	if s.opts.ExpandDepth >= 0 {
		s.state.SetToDepth(s.opts.ExpandDepth)
	}
	s.nav = navigator.New(v, s.state, s.index)
	s.matches, s.matchPos = nil, 0
	s.current, s.selected, s.highlight = jpath.Root, "", ""
	s.log.V(logger.LevelDebug).Info("document loaded", "rows", len(s.descs), "truncated", render.Truncated(s.descs))
}

// Loaded reports whether a document is present.
func (s *Session) Loaded() bool { return s.loaded }

// Document returns the loaded value.
func (s *Session) Document() (jsonvalue.Value, error) {
	if !s.loaded {
		return jsonvalue.Value{}, ErrNoDocument
	}
	return s.root, nil
}

// Descriptors returns every rendered row, including hidden ones.
func (s *Session) Descriptors() []render.Descriptor { return s.descs }

// Truncated reports whether the render hit the branch cap.
func (s *Session) Truncated() bool { return render.Truncated(s.descs) }

// BranchCap is the effective cap of the last render.
func (s *Session) BranchCap() int {
	if s.opts.BranchCap <= 0 {
		return render.DefaultBranchCap
	}
	return s.opts.BranchCap
}

// Visible returns the rows shown under the current expansion state.
func (s *Session) Visible() []render.Descriptor { return s.state.Visible(s.descs) }

// IsExpanded reports the flag of a container path.
func (s *Session) IsExpanded(path string) bool { return s.state.IsExpanded(path) }

// Toggle flips a container and makes it current. Unknown paths are ignored.
func (s *Session) Toggle(path string) bool {
	if !s.state.Known(path) {
		return false
	}
	expanded := s.state.Toggle(path)
	s.current = path
	s.log.V(logger.LevelTrace).Info("toggle", logger.PathKey, path, "expanded", expanded)
	return expanded
}

// ExpandAll expands every container.
func (s *Session) ExpandAll() { s.state.SetAll(true) }

// CollapseAll collapses every container.
func (s *Session) CollapseAll() { s.state.SetAll(false) }

// ExpandToDepth expands containers shallower than level.
func (s *Session) ExpandToDepth(level int) { s.state.SetToDepth(level) }

// Search runs a query over the document, reveals every match and focuses the
// first. An empty result clears the previous matches.
func (s *Session) Search(cfg search.Config) ([]search.Match, error) {
	if !s.loaded {
		return nil, ErrNoDocument
	}
	matches, err := search.Find(s.root, cfg)
	if err != nil {
		return nil, err
	}
	s.matches, s.matchPos = matches, 0
	for _, p := range search.Paths(matches) {
		s.state.EnsureVisible(p)
	}
	if len(matches) > 0 {
		s.focus(matches[0].Path)
	}
	s.log.V(logger.LevelDebug).Info("search", logger.MatchesKey, len(matches), "regex", cfg.Regex)
	return matches, nil
}

// ClearSearch drops the matches.
func (s *Session) ClearSearch() {
	s.matches, s.matchPos = nil, 0
	s.highlight = ""
}

// Matches returns the last search result.
func (s *Session) Matches() []search.Match { return s.matches }

// MatchPaths returns the set of matched paths.
func (s *Session) MatchPaths() map[string]search.On {
	out := make(map[string]search.On, len(s.matches))
	for _, m := range s.matches {
		if _, ok := out[m.Path]; !ok {
			out[m.Path] = m.On
		}
	}
	return out
}

// NextMatch moves to the following match, wrapping around. delta may be
// negative. It returns false when there are no matches.
func (s *Session) NextMatch(delta int) (search.Match, bool) {
	if len(s.matches) == 0 {
		return search.Match{}, false
	}
	n := len(s.matches)
	s.matchPos = ((s.matchPos+delta)%n + n) % n
	m := s.matches[s.matchPos]
	s.focus(m.Path)
	return m, true
}

// MatchPosition returns the 1-based index of the focused match and the total.
func (s *Session) MatchPosition() (int, int) {
	if len(s.matches) == 0 {
		return 0, 0
	}
	return s.matchPos + 1, len(s.matches)
}

// GoTo reveals path and makes it current. NotFound leaves the state as is.
func (s *Session) GoTo(path string) (navigator.Result, error) {
	if !s.loaded {
		return navigator.Result{}, ErrNoDocument
	}
	res, err := s.nav.GoTo(path)
	if err != nil {
		return res, err
	}
	if res.Outcome != navigator.NotFound {
		s.current = path
		s.highlight = path
	}
	s.log.V(logger.LevelDebug).Info("goto", logger.PathKey, path, "outcome", res.Outcome.String())
	return res, nil
}

// ResolvePath looks path up in the document.
func (s *Session) ResolvePath(path string) (jsonvalue.Value, error) {
	if !s.loaded {
		return jsonvalue.Value{}, ErrNoDocument
	}
	return s.nav.ResolvePath(path)
}

func (s *Session) focus(path string) {
	s.state.EnsureVisible(path)
	s.current = path
	s.highlight = path
}

// Select marks path as the selected node and makes it current.
func (s *Session) Select(path string) error {
	if _, err := s.ResolvePath(path); err != nil {
		return err
	}
	s.selected = path
	s.current = path
	return nil
}

// Selected returns the selected path, if any.
func (s *Session) Selected() (string, bool) { return s.selected, s.selected != "" }

// Current is the path shown in the breadcrumbs.
func (s *Session) Current() string { return s.current }

// SetCurrent moves the breadcrumb path without revealing anything. Unknown
// or malformed paths are ignored.
func (s *Session) SetCurrent(path string) {
	if _, ok := s.index[path]; ok {
		s.current = path
	}
}

// Highlight returns the transient highlight target.
func (s *Session) Highlight() string { return s.highlight }

// ClearHighlight removes the transient highlight.
func (s *Session) ClearHighlight() { s.highlight = "" }

// Breadcrumbs returns the crumbs of the current path.
func (s *Session) Breadcrumbs() []navigator.Crumb {
	crumbs, err := navigator.Breadcrumbs(s.current)
	if err != nil {
		return []navigator.Crumb{{Label: jpath.Root, Path: jpath.Root, Current: true}}
	}
	return crumbs
}

// Copy returns the text for path in the given scope.
func (s *Session) Copy(path string, scope Scope) (string, error) {
	v, err := s.ResolvePath(path)
	if err != nil {
		return "", err
	}
	return CopyText(v, path, scope)
}

// CopyText formats v for a copy in the given scope.
func CopyText(v jsonvalue.Value, path string, scope Scope) (string, error) {
	switch scope {
	case ScopePath:
		return path, nil
	case ScopeSubtree:
		return string(v.MarshalIndent("", "  ")), nil
	case ScopeValue, "":
		return v.String(), nil
	default:
		return "", fmt.Errorf("unknown copy scope %q", scope)
	}
}

// ApplyAIPath validates a path suggested by the assistant and navigates to
// it. A malformed suggestion is reported as an error naming the path.
func (s *Session) ApplyAIPath(raw string) (navigator.Result, error) {
	path := strings.TrimSpace(raw)
	if !jpath.Valid(path) {
		return navigator.Result{}, fmt.Errorf("assistant returned an unusable path %q: %w", path, jpath.ErrMalformedPath)
	}
	return s.GoTo(path)
}

// ExplainTarget returns the selected path, or the current one.
func (s *Session) ExplainTarget() string {
	if s.selected != "" {
		return s.selected
	}
	return s.current
}
