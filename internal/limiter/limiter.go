// Package limiter windows ordered result lists with --limit, --offset and
// --tail.
package limiter

import (
	"errors"
	"fmt"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// ErrConflict is returned when --limit and --tail are both set.
var ErrConflict = errors.New("--limit and --tail are mutually exclusive")

// Config holds the window parameters. Zero values disable each option.
type Config struct {
	Limit  int // Keep at most this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip); ignored with Tail
	Tail   int // Keep only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations and returns an error if invalid.
// Rules:
// - Limit and Tail are mutually exclusive (ErrConflict)
// - If Tail is set, Offset is ignored
// - All numeric values must be non-negative
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return ErrConflict
	}
	return nil
}

// IsActive reports whether any option is set.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the [start, end) window for a list of n records.
// Tail wins over Offset; an Offset past the end yields an empty window.
func (c Config) Bounds(n int) (int, int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start := min(c.Offset, n)
	end := n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the window of items. The result shares storage with items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}

// ApplyValue windows the elements of an array or the members of an object,
// keeping source order. Primitives are returned unchanged.
func (c Config) ApplyValue(v jsonvalue.Value) jsonvalue.Value {
	if !c.IsActive() {
		return v
	}
	switch v.Kind() {
	// Objects are windowed by member, in document order.
	case jsonvalue.Array:
		return jsonvalue.NewArray(Apply(c, v.Elements())...)
	case jsonvalue.Object:
		return jsonvalue.NewObject(Apply(c, v.Members())...)
	default:
		return v
	}
}
