// Package expansion tracks which containers of a rendered document are
// expanded and derives the visible rows from that state.
package expansion

import (
	"sync"

	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/render"
)

// State maps container paths to their expanded flag. Paths that are not
// non-empty containers of the current render are ignored by every operation.
// A State is safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	expanded map[string]bool
	depth    map[string]int
}

// New builds a state for descs with every container expanded.
func New(descs []render.Descriptor) *State {
	s := &State{}
	s.Reset(descs)
	return s
}

// Reset replaces the tracked containers with those in descs, all expanded.
func (s *State) Reset(descs []render.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = make(map[string]bool)
	s.depth = make(map[string]int)
	for _, d := range descs {
		if d.Truncated || !d.Kind.IsContainer() {
			continue
		}
		s.expanded[d.Path] = true
		s.depth[d.Path] = d.Depth
	}
}

// Known reports whether path is a tracked container.
func (s *State) Known(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.expanded[path]
	return ok
}

// IsExpanded reports whether path is an expanded container. Unknown paths
// report false.
func (s *State) IsExpanded(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded[path]
}

// Toggle flips path and returns the new flag. Unknown paths are a no-op
// returning false.
func (s *State) Toggle(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expanded[path]
	if !ok {
		return false
	}
	s.expanded[path] = !cur
	return !cur
}

// Set assigns the flag for path. Unknown paths are a no-op.
func (s *State) Set(path string, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expanded[path]; ok {
		s.expanded[path] = expanded
	}
}

// SetAll expands or collapses every container.
func (s *State) SetAll(expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.expanded {
		s.expanded[p] = expanded
	}
}

// SetToDepth expands containers shallower than level and collapses the rest.
// Level 0 collapses everything including the root; a negative level expands
// everything.
func (s *State) SetToDepth(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.expanded {
		s.expanded[p] = level < 0 || s.depth[p] < level
	}
}

// EnsureVisible expands every strict ancestor of path. The location itself
// keeps its flag. It returns the ancestors that changed state.
func (s *State) EnsureVisible(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []string
	for _, a := range jpath.Ancestors(path) {
		if cur, ok := s.expanded[a]; ok && !cur {
			s.expanded[a] = true
			changed = append(changed, a)
		}
	}
	return changed
}

// Snapshot copies the current flags.
func (s *State) Snapshot() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.expanded))
	for p, v := range s.expanded {
		out[p] = v
	}
	return out
}

// Visible filters descs to the rows shown under the current state: a row is
// hidden when any ancestor container is collapsed. The descriptors of a
// collapsed container's subtree are contiguous and deeper, so one pass with
// a depth watermark is enough.
func (s *State) Visible(descs []render.Descriptor) []render.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]render.Descriptor, 0, len(descs))
	hideBelow := -1
	for _, d := range descs {
		if hideBelow >= 0 {
			if d.Depth > hideBelow {
				continue
			}
			hideBelow = -1
		}
		out = append(out, d)
		if d.Kind.IsContainer() && !d.Truncated {
			if expanded, ok := s.expanded[d.Path]; ok && !expanded {
				hideBelow = d.Depth
			}
		}
	}
	return out
}

// IsVisible reports whether path would be shown: it must be rendered and all
// of its strict ancestors expanded.
func (s *State) IsVisible(index map[string]int, path string) bool {
	if _, ok := index[path]; !ok {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range jpath.Ancestors(path) {
		if exp, ok := s.expanded[a]; ok && !exp {
			return false
		}
	}
	return true
}
