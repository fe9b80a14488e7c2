// Package navigator resolves paths against the loaded document, reveals them
// in the expansion state, and derives breadcrumbs.
package navigator

import (
	"errors"

	"github.com/oakwood-commons/jlens/internal/expansion"
	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// Outcome is the result of a GoTo.
type Outcome int

const (
	// NotFound means the path does not exist in the document.
	NotFound Outcome = iota
	// Visible means the path exists and its row is now shown.
	Visible
	// NotInView means the path exists in the document but has no rendered
	// row, for example because the branch cap cut it off.
	NotInView
)

func (o Outcome) String() string {
	switch o {
	case Visible:
		return "visible"
	case NotInView:
		return "found in data, not in view"
	default:
		return "not found"
	}
}

// Result describes a GoTo.
type Result struct {
	Outcome Outcome
	// Path is the highlight target.
	Path string
	// Expanded lists the ancestors that were collapsed and are now expanded.
	Expanded []string
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Label   string `json:"label" yaml:"label"`
	Path    string `json:"path" yaml:"path"`
	Current bool   `json:"current" yaml:"current"`
}

// Controller navigates one rendered document.
type Controller struct {
	root  jsonvalue.Value
	state *expansion.State
	index map[string]int
}

// New returns a controller over root. index maps rendered paths to their row
// position, as produced by render.Index.
func New(root jsonvalue.Value, state *expansion.State, index map[string]int) *Controller {
	return &Controller{root: root, state: state, index: index}
}

// ResolvePath looks path up in the document.
func (c *Controller) ResolvePath(path string) (jsonvalue.Value, error) {
	return jpath.Resolve(c.root, path)
}

// GoTo reveals path. A malformed path is returned as an error; a missing
// path is reported through the NotFound outcome.
func (c *Controller) GoTo(path string) (Result, error) {
	if _, err := jpath.Resolve(c.root, path); err != nil {
		if errors.Is(err, jpath.ErrNotFound) {
			return Result{Outcome: NotFound, Path: path}, nil
		}
		return Result{}, err
	}
	res := Result{Outcome: Visible, Path: path}
	if c.state != nil {
		res.Expanded = c.state.EnsureVisible(path)
	}
	if _, ok := c.index[path]; !ok {
		res.Outcome = NotInView
	}
	return res, nil
}

// Breadcrumbs splits path into one crumb per prefix. The first crumb is the
// root "$"; the last is marked Current.
func Breadcrumbs(path string) ([]Crumb, error) {
	segs, err := jpath.Decode(path)
	if err != nil {
		return nil, err
	}
	crumbs := make([]Crumb, 0, len(segs)+1)
	crumbs = append(crumbs, Crumb{Label: jpath.Root, Path: jpath.Root})
	for i, s := range segs {
		crumbs = append(crumbs, Crumb{Label: s.Label(), Path: jpath.Encode(segs[:i+1])})
	}
	crumbs[len(crumbs)-1].Current = true
	return crumbs, nil
}
