package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrSyntax is returned by Parse for input that is not a single JSON value.
var ErrSyntax = errors.New("invalid JSON")

// frame is one open container while parsing.
type frame struct {
	array   bool
	elems   []Value
	members []Member
	key     string
	haveKey bool
}

// Parse decodes exactly one JSON value, keeping object member order and
// number literals. Nesting is tracked on an explicit stack.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOne(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("%w: trailing data after top-level value", ErrSyntax)
	}
	return v, nil
}

// ParseStream decodes consecutive JSON values (NDJSON or concatenated
// documents) until EOF.
func ParseStream(r io.Reader) ([]Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var out []Value
	for dec.More() {
		v, err := decodeOne(dec)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(out)+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne(dec *json.Decoder) (Value, error) {
	var stack []*frame
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Value{}, fmt.Errorf("%w: %v", ErrSyntax, err)
		}

		var done bool
		var v Value
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '[':
				stack = append(stack, &frame{array: true, elems: []Value{}})
				continue
			case '{':
				stack = append(stack, &frame{})
				continue
			case ']':
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				v, done = NewArray(top.elems...), true
			case '}':
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				v, done = NewObject(top.members...), true
			}
		case string:
			if n := len(stack); n > 0 && !stack[n-1].array && !stack[n-1].haveKey {
				stack[n-1].key, stack[n-1].haveKey = t, true
				continue
			}
			v, done = NewString(t), true
		case json.Number:
			v, done = NewNumber(t), true
		case bool:
			v, done = NewBool(t), true
		case nil:
			v, done = NewNull(), true
		}
		if !done {
			continue
		}
		if len(stack) == 0 {
			return v, nil
		}
		top := stack[len(stack)-1]
		if top.array {
			top.elems = append(top.elems, v)
		} else {
			top.members = append(top.members, Member{Key: top.key, Value: v})
			top.key, top.haveKey = "", false
		}
	}
}

// MarshalJSON renders compact JSON preserving member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	writeJSON(&buf, v, "", "", 0)
	return buf.Bytes(), nil
}

// MarshalIndent renders indented JSON preserving member order.
func (v Value) MarshalIndent(prefix, indent string) []byte {
	var buf bytes.Buffer
	writeJSON(&buf, v, prefix, indent, 0)
	return buf.Bytes()
}

// UnmarshalJSON lets Value be used as a field in decoded structs.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func writeJSON(buf *bytes.Buffer, v Value, prefix, indent string, level int) {
	pretty := indent != "" || prefix != ""
	newline := func(l int) {
		if !pretty {
			return
		}
		buf.WriteByte('\n')
		buf.WriteString(prefix)
		for i := 0; i < l; i++ {
			buf.WriteString(indent)
		}
	}
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(v.num.String())
	case String:
		writeString(buf, v.str)
	case Array:
		if len(v.elems) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, e := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(level + 1)
			writeJSON(buf, e, prefix, indent, level+1)
		}
		newline(level)
		buf.WriteByte(']')
	case Object:
		if len(v.members) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(level + 1)
			writeString(buf, m.Key)
			buf.WriteByte(':')
			if pretty {
				buf.WriteByte(' ')
			}
			writeJSON(buf, m.Value, prefix, indent, level+1)
		}
		newline(level)
		buf.WriteByte('}')
	}
}

const hexDigits = "0123456789abcdef"

// writeString quotes s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"', '\\':
				buf.WriteByte('\\')
				buf.WriteByte(c)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hexDigits[c>>4])
					buf.WriteByte(hexDigits[c&0xf])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString(`�`)
		} else {
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// FromInterface converts decoded Go data (encoding/json, yaml.v3, go-toml,
// CEL results) into a Value. Maps with non-string keys use fmt.Sprint keys;
// unordered maps are emitted in sorted key order.
func FromInterface(data any) (Value, error) {
	switch t := data.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return t, nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumber(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, fmt.Errorf("number %v is not representable in JSON", t)
		}
		return NewFloat(t), nil
	case float32:
		return FromInterface(float64(t))
	case int:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case int32:
		return NewInt(int64(t)), nil
	case uint64:
		return NewNumber(json.Number(strconv.FormatUint(t, 10))), nil
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			ev, err := FromInterface(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = ev
		}
		return NewArray(elems...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			mv, err := FromInterface(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			members = append(members, Member{Key: k, Value: mv})
		}
		return NewObject(members...), nil
	}

	rv := reflect.ValueOf(data)
	switch rv.Kind() { //nolint:exhaustive // remaining kinds go through encoding/json
	case reflect.Map:
		keys := rv.MapKeys()
		strKeys := make([]string, len(keys))
		byKey := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			strKeys[i] = fmt.Sprint(k.Interface())
			byKey[strKeys[i]] = k
		}
		sort.Strings(strKeys)
		members := make([]Member, 0, len(strKeys))
		for _, k := range strKeys {
			mv, err := FromInterface(rv.MapIndex(byKey[k]).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			members = append(members, Member{Key: k, Value: mv})
		}
		return NewObject(members...), nil
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			ev, err := FromInterface(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = ev
		}
		return NewArray(elems...), nil
	case reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return NewNumber(json.Number(fmt.Sprint(data))), nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Value{}, fmt.Errorf("cannot convert %T: %w", data, err)
	}
	return Parse(raw)
}

// ToInterface converts v into plain Go data (map[string]any, []any,
// float64/int64, string, bool, nil) for consumers such as CEL. Member order
// is lost.
func (v Value) ToInterface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		s := v.num.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
		}
		f, err := v.num.Float64()
		if err != nil {
			return s
		}
		return f
	case String:
		return v.str
	case Array:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.ToInterface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.ToInterface()
		}
		return out
	default:
		return nil
	}
}
