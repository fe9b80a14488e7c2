// Package jsonvalue holds the immutable, order-preserving JSON value every
// other jlens package reads. Go maps drop insertion order, which the viewer
// must display and search in, so objects keep an ordered member slice.
package jsonvalue

import (
	"encoding/json"
	"strconv"
)

// Kind is the JSON type of a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Member is one key/value pair of an object, in source order.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	num     json.Number
	str     string
	elems   []Value
	members []Member
	index   map[string]int
}

// NewNull returns the null value.
func NewNull() Value { return Value{} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{kind: Bool, b: b} }

// NewNumber returns a number value keeping the literal form.
func NewNumber(n json.Number) Value { return Value{kind: Number, num: n} }

// NewInt returns a number value for an integer.
func NewInt(i int64) Value { return NewNumber(json.Number(strconv.FormatInt(i, 10))) }

// NewFloat returns a number value for a float.
func NewFloat(f float64) Value {
	return NewNumber(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// NewString returns a string value.
func NewString(s string) Value { return Value{kind: String, str: s} }

// NewArray returns an array value. The slice is owned by the returned value.
func NewArray(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: Array, elems: elems}
}

// NewObject returns an object value. A duplicate key keeps its first
// position and takes the last value, matching JSON.parse.
func NewObject(members ...Member) Value {
	v := Value{kind: Object, members: make([]Member, 0, len(members)), index: make(map[string]int, len(members))}
	for _, m := range members {
		if i, ok := v.index[m.Key]; ok {
			v.members[i].Value = m.Value
			continue
		}
		v.index[m.Key] = len(v.members)
		v.members = append(v.members, m)
	}
	return v
}

// Kind returns the JSON type.
func (v Value) Kind() Kind { return v.kind }

// IsContainer reports whether v is an array or object (empty or not).
func (v Value) IsContainer() bool { return v.kind == Array || v.kind == Object }

// IsPrimitive reports whether v is null, boolean, number or string.
func (v Value) IsPrimitive() bool { return !v.IsContainer() }

// Len returns the number of elements or members; 0 for primitives.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.elems)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Number returns the number literal.
func (v Value) Number() json.Number { return v.num }

// Str returns the string payload.
func (v Value) Str() string { return v.str }

// Index returns the i-th array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.elems) {
		return Value{}, false
	}
	return v.elems[i], true
}

// Member returns the value stored under key.
func (v Value) Member(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	i, ok := v.index[key]
	if !ok {
		return Value{}, false
	}
	return v.members[i].Value, true
}

// Members returns the object members in insertion order. Callers must not
// modify the returned slice.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	return v.members
}

// Elements returns the array elements. Callers must not modify the
// returned slice.
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	return v.elems
}

// String returns the display form used by search and by leaf rendering:
// strings unquoted, numbers as written, null as "null". Containers render
// as compact JSON.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.b)
	case Number:
		return v.num.String()
	case String:
		return v.str
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Equal reports deep equality. Object member order is significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == o.b
	case Number:
		return v.num == o.num
	case String:
		return v.str == o.str
	case Array:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(v.members) != len(o.members) {
			return false
		}
		for i := range v.members {
			if v.members[i].Key != o.members[i].Key || !v.members[i].Value.Equal(o.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
