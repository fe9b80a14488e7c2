// Package search finds locations in a JSON value whose key or primitive value
// matches a term.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// ErrInvalidPattern is returned when a regex term does not compile.
var ErrInvalidPattern = errors.New("invalid search pattern")

// On says which part of a location matched.
type On int

const (
	OnKey On = iota
	OnValue
)

func (o On) String() string {
	if o == OnKey {
		return "key"
	}
	return "value"
}

// MarshalText renders On as "key" or "value" in JSON and YAML output.
func (o On) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Match is one hit.
type Match struct {
	Path  string `json:"path" yaml:"path"`
	On    On     `json:"on" yaml:"on"`
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Literal is the matched primitive for value matches.
	Literal jsonvalue.Value `json:"-" yaml:"-"`
}

// Config describes a query. MatchKeys tests object member keys and
// MatchValues tests primitive values; with neither set nothing matches.
type Config struct {
	Term          string
	MatchKeys     bool
	MatchValues   bool
	CaseSensitive bool
	Regex         bool
}

type matcher func(string) bool

func (c Config) compile() (matcher, error) {
	if c.Regex {
		expr := c.Term
		if !c.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
		return re.MatchString, nil
	}
	if c.CaseSensitive {
		term := c.Term
		return func(s string) bool { return strings.Contains(s, term) }, nil
	}
	term := strings.ToLower(c.Term)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), term) }, nil
}

type item struct {
	value  jsonvalue.Value
	path   string
	key    string
	hasKey bool
}

// Find returns the matches in pre-order; for one location a key match comes
// before a value match. Keys are tested on object members; values are tested
// on primitives only, using their display text. A blank term yields no
// matches. Each (path, On) pair appears at most once.
func Find(root jsonvalue.Value, cfg Config) ([]Match, error) {
	if strings.TrimSpace(cfg.Term) == "" {
		return nil, nil
	}
	match, err := cfg.compile()
	if err != nil {
		return nil, err
	}
	keys, values := cfg.MatchKeys, cfg.MatchValues
	if !keys && !values {
		return nil, nil
	}

	var out []Match
	seen := make(map[string]struct{})
	add := func(m Match) {
		id := m.On.String() + "\x00" + m.Path
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, m)
	}

	stack := []item{{value: root, path: jpath.Root}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if keys && cur.hasKey && match(cur.key) {
			add(Match{Path: cur.path, On: OnKey, Key: cur.key})
		}
		if values && cur.value.IsPrimitive() {
			if text := cur.value.String(); match(text) {
				add(Match{Path: cur.path, On: OnValue, Key: cur.key, Value: text, Literal: cur.value})
			}
		}

		switch cur.value.Kind() {
		case jsonvalue.Object:
			members := cur.value.Members()
			for i := len(members) - 1; i >= 0; i-- {
				m := members[i]
				stack = append(stack, item{value: m.Value, path: jpath.EncodeKey(cur.path, m.Key), key: m.Key, hasKey: true})
			}
		case jsonvalue.Array:
			elems := cur.value.Elements()
			for i := len(elems) - 1; i >= 0; i-- {
				stack = append(stack, item{value: elems[i], path: jpath.EncodeIndex(cur.path, i)})
			}
		}
	}
	return out, nil
}

// Paths returns the distinct paths of matches in order.
func Paths(matches []Match) []string {
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Path]; ok {
			continue
		}
		seen[m.Path] = struct{}{}
		out = append(out, m.Path)
	}
	return out
}
