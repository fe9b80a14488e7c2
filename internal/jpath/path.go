// Package jpath encodes and decodes the canonical path of a location inside a
// JSON value. A path is "$" followed by zero or more segments, each either
// ['<key>'] for an object member or [<index>] for an array element:
//
//	$['store']['book'][2]['title']
//
// Inside a quoted key, ' and \ are escaped with a backslash. Every object
// member uses the bracket-quoted form; there is no dotted shorthand.
package jpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// Root is the path of the whole document.
const Root = "$"

var (
	// ErrMalformedPath is returned when a string does not follow the path grammar.
	ErrMalformedPath = errors.New("malformed path")
	// ErrNotFound is returned when a well-formed path has no location in a value.
	ErrNotFound = errors.New("path not found")
)

// Segment is one step of a path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// KeySegment returns an object member segment.
func KeySegment(key string) Segment { return Segment{Key: key} }

// IndexSegment returns an array element segment.
func IndexSegment(i int) Segment { return Segment{Index: i, IsIndex: true} }

// Label is the breadcrumb form of a segment: the unescaped key, or the index.
func (s Segment) Label() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// String returns the encoded segment, e.g. ['a'] or [0].
func (s Segment) String() string {
	var b strings.Builder
	writeSegment(&b, s)
	return b.String()
}

// EncodeKey appends an object member segment to parent. Both ' and \ are
// escaped with a backslash, so a key holding a literal \ encodes differently
// from the browser viewer, which escaped only '.
func EncodeKey(parent, key string) string {
	var b strings.Builder
	b.Grow(len(parent) + len(key) + 4)
	b.WriteString(parent)
	writeSegment(&b, KeySegment(key))
	return b.String()
}

// EncodeIndex appends an array element segment to parent.
func EncodeIndex(parent string, index int) string {
	return parent + "[" + strconv.Itoa(index) + "]"
}

// Encode builds the path for a segment sequence.
func Encode(segs []Segment) string {
	var b strings.Builder
	b.WriteString(Root)
	for _, s := range segs {
		writeSegment(&b, s)
	}
	return b.String()
}

func writeSegment(b *strings.Builder, s Segment) {
	if s.IsIndex {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(s.Index))
		b.WriteByte(']')
		return
	}
	b.WriteString("['")
	for i := 0; i < len(s.Key); i++ {
		c := s.Key[i]
		if c == '\'' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteString("']")
}

// Decode splits a path into its segments.
func Decode(path string) ([]Segment, error) {
	if !strings.HasPrefix(path, Root) {
		return nil, malformed(path, 0, "must start with '$'")
	}
	var segs []Segment
	i := len(Root)
	for i < len(path) {
		if path[i] != '[' {
			return nil, malformed(path, i, "expected '['")
		}
		i++
		if i >= len(path) {
			return nil, malformed(path, i, "unterminated segment")
		}
		if path[i] == '\'' {
			key, next, err := readQuotedKey(path, i+1)
			if err != nil {
				return nil, err
			}
			segs = append(segs, KeySegment(key))
			i = next
			continue
		}
		start := i
		for i < len(path) && path[i] >= '0' && path[i] <= '9' {
			i++
		}
		digits := path[start:i]
		switch {
		case digits == "":
			return nil, malformed(path, start, "expected quoted key or index")
		case len(digits) > 1 && digits[0] == '0':
			return nil, malformed(path, start, "index has leading zero")
		case i >= len(path) || path[i] != ']':
			return nil, malformed(path, i, "expected ']' after index")
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return nil, malformed(path, start, "index out of range")
		}
		segs = append(segs, IndexSegment(n))
		i++
	}
	return segs, nil
}

// readQuotedKey reads an escaped key starting just after the opening quote
// and returns the position after the closing "']".
func readQuotedKey(path string, i int) (string, int, error) {
	var b strings.Builder
	for i < len(path) {
		c := path[i]
		switch c {
		case '\\':
			if i+1 >= len(path) {
				return "", 0, malformed(path, i, "dangling escape")
			}
			b.WriteByte(path[i+1])
			i += 2
		case '\'':
			if i+1 >= len(path) || path[i+1] != ']' {
				return "", 0, malformed(path, i, "expected ']' after quoted key")
			}
			return b.String(), i + 2, nil
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, malformed(path, i, "unterminated quoted key")
}

func malformed(path string, offset int, reason string) error {
	return fmt.Errorf("%w %q at offset %d: %s", ErrMalformedPath, path, offset, reason)
}

// Valid reports whether path follows the grammar.
func Valid(path string) bool {
	_, err := Decode(path)
	return err == nil
}

// Resolve walks path in root. A missing key, an out-of-range index, or a
// segment applied to the wrong kind of value yields ErrNotFound.
func Resolve(root jsonvalue.Value, path string) (jsonvalue.Value, error) {
	segs, err := Decode(path)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	return ResolveSegments(root, segs)
}

// ResolveSegments walks an already decoded path.
func ResolveSegments(root jsonvalue.Value, segs []Segment) (jsonvalue.Value, error) {
	cur := root
	for n, s := range segs {
		var next jsonvalue.Value
		var ok bool
		if s.IsIndex {
			next, ok = cur.Index(s.Index)
		} else {
			next, ok = cur.Member(s.Key)
		}
		if !ok {
			return jsonvalue.Value{}, fmt.Errorf("%w: %s (no %s in %s)", ErrNotFound, Encode(segs[:n+1]), s.String(), cur.Kind())
		}
		cur = next
	}
	return cur, nil
}

// Parent returns the path one segment up. The root has no parent.
func Parent(path string) (string, bool) {
	segs, err := Decode(path)
	if err != nil || len(segs) == 0 {
		return "", false
	}
	return Encode(segs[:len(segs)-1]), true
}

// Ancestors returns every proper prefix of path, root first. A malformed
// path has no ancestors.
func Ancestors(path string) []string {
	segs, err := Decode(path)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(segs))
	var b strings.Builder
	b.WriteString(Root)
	for _, s := range segs {
		out = append(out, b.String())
		writeSegment(&b, s)
	}
	return out
}

// Depth returns the number of segments in path, or -1 when malformed.
func Depth(path string) int {
	segs, err := Decode(path)
	if err != nil {
		return -1
	}
	return len(segs)
}
