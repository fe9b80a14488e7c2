// Package render flattens a JSON value into an ordered list of node
// descriptors, one per location, each keyed by its canonical path.
package render

import (
	"fmt"

	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// DefaultBranchCap is the number of descriptors a single render pass emits
// before the rest of the branch is replaced by a truncation marker.
const DefaultBranchCap = 5000

// Kind classifies a descriptor.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindEmptyArray
	KindEmptyObject
	KindArray
	KindObject
	// KindTruncated marks the synthetic descriptor standing in for content
	// dropped by the branch cap.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindEmptyArray:
		return "empty-array"
	case KindEmptyObject:
		return "empty-object"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// IsContainer reports whether the kind is a collapsible, non-empty container.
func (k Kind) IsContainer() bool { return k == KindArray || k == KindObject }

// Descriptor is one rendered location.
type Descriptor struct {
	Path   string
	Parent string // empty for the render root
	Kind   Kind
	Depth  int
	// ChildCount is the number of elements or members in the source value,
	// regardless of how many were rendered.
	ChildCount int
	Truncated  bool
	// Key is the member name when the location is an object member.
	Key    string
	HasKey bool
	// Index is the element position when the location is an array element, else -1.
	Index int
	Value jsonvalue.Value
}

// Options tunes a render pass.
type Options struct {
	// BranchCap bounds the descriptors emitted in one pass; <= 0 means DefaultBranchCap.
	BranchCap int
}

func (o Options) limit() int {
	if o.BranchCap <= 0 {
		return DefaultBranchCap
	}
	return o.BranchCap
}

// KindOf maps a value to its descriptor kind.
func KindOf(v jsonvalue.Value) Kind {
	switch v.Kind() {
	case jsonvalue.Bool:
		return KindBool
	case jsonvalue.Number:
		return KindNumber
	case jsonvalue.String:
		return KindString
	case jsonvalue.Array:
		if v.Len() == 0 {
			return KindEmptyArray
		}
		return KindArray
	case jsonvalue.Object:
		if v.Len() == 0 {
			return KindEmptyObject
		}
		return KindObject
	default:
		return KindNull
	}
}

// frame is an open container on the work stack.
type frame struct {
	value jsonvalue.Value
	path  string
	depth int
	next  int
}

// Render lists every location of value in pre-order, parents before
// children and siblings in source order. The walk uses an explicit stack so
// depth is bounded by memory rather than the call stack.
func Render(value jsonvalue.Value, opts Options) []Descriptor {
	return renderFrom(value, jpath.Root, "", 0, opts)
}

// RenderAt renders the branch rooted at path with a fresh cap counter.
func RenderAt(value jsonvalue.Value, path string, opts Options) ([]Descriptor, error) {
	sub, err := jpath.Resolve(value, path)
	if err != nil {
		return nil, err
	}
	parent, _ := jpath.Parent(path)
	return renderFrom(sub, path, parent, jpath.Depth(path), opts), nil
}

func renderFrom(value jsonvalue.Value, rootPath, rootParent string, rootDepth int, opts Options) []Descriptor {
	limit := opts.limit()
	out := make([]Descriptor, 0, min(limit, 256))
	var stack []*frame

	emit := func(d Descriptor) bool {
		if len(out) >= limit {
			out = append(out, Descriptor{
				Path:      d.Path,
				Parent:    d.Parent,
				Kind:      KindTruncated,
				Depth:     d.Depth,
				Truncated: true,
				Key:       d.Key,
				HasKey:    d.HasKey,
				Index:     d.Index,
			})
			return false
		}
		out = append(out, d)
		if d.Kind.IsContainer() {
			stack = append(stack, &frame{value: d.Value, path: d.Path, depth: d.Depth})
		}
		return true
	}

	root := Descriptor{
		Path:       rootPath,
		Parent:     rootParent,
		Kind:       KindOf(value),
		Depth:      rootDepth,
		ChildCount: value.Len(),
		Index:      -1,
		Value:      value,
	}
	if !emit(root) {
		return out
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= top.value.Len() {
			stack = stack[:len(stack)-1]
			continue
		}
		i := top.next
		top.next++

		d := Descriptor{Parent: top.path, Depth: top.depth + 1, Index: -1}
		if top.value.Kind() == jsonvalue.Array {
			d.Value, _ = top.value.Index(i)
			d.Path = jpath.EncodeIndex(top.path, i)
			d.Index = i
		} else {
			m := top.value.Members()[i]
			d.Value = m.Value
			d.Path = jpath.EncodeKey(top.path, m.Key)
			d.Key, d.HasKey = m.Key, true
		}
		d.Kind = KindOf(d.Value)
		d.ChildCount = d.Value.Len()
		if !emit(d) {
			break
		}
	}
	return out
}

// Truncated reports whether a render pass hit its cap.
func Truncated(descs []Descriptor) bool {
	return len(descs) > 0 && descs[len(descs)-1].Truncated
}

// CountLabel describes a container's size, e.g. "(3 items)" or "(1 property)".
func (d Descriptor) CountLabel() string {
	switch d.Kind {
	case KindArray, KindEmptyArray:
		if d.ChildCount == 1 {
			return "(1 item)"
		}
		return fmt.Sprintf("(%d items)", d.ChildCount)
	case KindObject, KindEmptyObject:
		if d.ChildCount == 1 {
			return "(1 property)"
		}
		return fmt.Sprintf("(%d properties)", d.ChildCount)
	default:
		return ""
	}
}

// TruncationMessage is the literal marker shown in place of capped content.
func TruncationMessage(branchCap int) string {
	if branchCap <= 0 {
		branchCap = DefaultBranchCap
	}
	return fmt.Sprintf("[... further content truncated for performance (limit of %d nodes in this branch)]", branchCap)
}

// Index maps each path to its position in descs. The truncation marker is
// not indexed.
func Index(descs []Descriptor) map[string]int {
	idx := make(map[string]int, len(descs))
	for i, d := range descs {
		if d.Truncated {
			continue
		}
		idx[d.Path] = i
	}
	return idx
}
