// Package cel evaluates CEL expressions against a loaded document. The
// document is bound to the variable "_".
package cel

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// RootVar is the variable the document is bound to.
const RootVar = "_"

// ErrNotBool is returned by a predicate whose expression does not yield a bool.
var ErrNotBool = errors.New("expression did not evaluate to a bool")

// Evaluator compiles and evaluates CEL expressions. One Evaluator may be
// shared; the environment is immutable after NewEvaluator.
type Evaluator struct {
	// env declares RootVar as dyn so expressions may index any shape.
	env *cel.Env
}

// NewEvaluator creates an evaluator with the CEL extension libraries enabled:
// - strings: charAt, indexOf, lowerAscii, replace, split, substring, trim, ...
// - encoders: base64.encode, base64.decode
// - lists: flatten, slice, sort, range
// - math: math.greatest, math.least, math.ceil, math.floor, ...
//
// Example: "_.store.book.filter(b, b.price < 10.0).map(b, b.title)".
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(RootVar, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Program is a compiled expression.
type Program struct {
	expr string      // source text, used in error messages
	prg  cel.Program // planned program, safe for repeated Eval calls
}

// Compile parses and checks expr. Syntax and type errors are reported as
// "compilation error"; planning failures as "program error".
func (e *Evaluator) Compile(expr string) (*Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Eval runs the program with root bound to "_".
func (p *Program) Eval(root jsonvalue.Value) (jsonvalue.Value, error) {
	out, _, err := p.prg.Eval(map[string]any{RootVar: root.ToInterface()})
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("eval error: %w", err)
	}
	v, err := jsonvalue.FromInterface(ToGo(out))
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("eval result: %w", err)
	}
	return v, nil
}

// Match runs the program and requires a bool result.
func (p *Program) Match(root jsonvalue.Value) (bool, error) {
	v, err := p.Eval(root)
	if err != nil {
		return false, err
	}
	if v.Kind() != jsonvalue.Bool {
		return false, fmt.Errorf("%q: %w", p.expr, ErrNotBool)
	}
	return v.Bool(), nil
}

// Evaluate compiles and runs expr against root.
// Example: "_.items.filter(x, x.available)".
func (e *Evaluator) Evaluate(expr string, root jsonvalue.Value) (jsonvalue.Value, error) {
	p, err := e.Compile(expr)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	return p.Eval(root)
}

// ToGo converts CEL values to plain Go data recursively.
// Lists become []any and maps become map[string]any (non-string keys are
// formatted with %v); any other value falls back to ref.Val.Value().
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Null:
		return nil
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	}

	inner := val.Value()
	switch t := inner.(type) {
	case []ref.Val:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToGo(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case map[ref.Val]ref.Val:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k.Value())] = ToGo(e)
		}
		return out
	}

	if lister, ok := val.(interface {
		Size() ref.Val
		Get(ref.Val) ref.Val
	}); ok && val.Type() == types.ListType {
		n, _ := lister.Size().(types.Int)
		out := make([]any, int(n))
		for i := range out {
			out[i] = ToGo(lister.Get(types.Int(i)))
		}
		return out
	}
	return inner
}

func plain(e any) any {
	switch t := e.(type) {
	case ref.Val:
		return ToGo(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = plain(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = plain(v)
		}
		return out
	default:
		return e
	}
}
