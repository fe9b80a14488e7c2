package formatter

import (
	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/jlens/internal/render"
)

// TreeOptions controls tree output.
type TreeOptions struct {
	// IsExpanded reports a container's flag; nil treats every container as
	// expanded.
	IsExpanded func(path string) bool
	BranchCap  int
	Palette    *Palette
	// NoValues prints structure only.
	NoValues bool
}

func (o TreeOptions) expanded(path string) bool {
	return o.IsExpanded == nil || o.IsExpanded(path)
}

// FormatTree draws visible rows as an ASCII tree. rows must be a pre-order
// slice as produced by render and filtered by expansion; the first row is
// the tree root.
func FormatTree(rows []render.Descriptor, opts TreeOptions) string {
	if len(rows) == 0 {
		return ""
	}
	tree := treeprint.NewWithRoot(rowLabel(rows[0], opts))
	// branches[i] is the open branch at depth rows[0].Depth+i.
	branches := []treeprint.Tree{tree}
	base := rows[0].Depth
	for _, d := range rows[1:] {
		level := d.Depth - base
		if level < 1 || level > len(branches) {
			continue
		}
		branches = branches[:level]
		parent := branches[level-1]
		label := rowLabel(d, opts)
		if d.Kind.IsContainer() && opts.expanded(d.Path) {
			branches = append(branches, parent.AddBranch(label))
			continue
		}
		parent.AddNode(label)
	}
	return tree.String()
}

func rowLabel(d render.Descriptor, opts TreeOptions) string {
	key := KeyLabel(d)
	if d.Truncated {
		return ValueText(d, false, opts.BranchCap)
	}
	if opts.NoValues {
		if opts.Palette != nil {
			return opts.Palette.Key.Render(key)
		}
		return key
	}
	value := ValueText(d, opts.expanded(d.Path), opts.BranchCap)
	if opts.Palette != nil {
		key = opts.Palette.Key.Render(key)
		value = opts.Palette.Value(d.Kind, value)
	}
	return key + ": " + value
}
