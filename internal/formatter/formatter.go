// Package formatter turns rendered rows and values into terminal text: a
// colored tree, YAML, and aligned tables.
package formatter

import (
	"image/color"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/render"
)

// Palette holds the styles for each part of a row.
type Palette struct {
	Key       lipgloss.Style
	String    lipgloss.Style
	Number    lipgloss.Style
	Bool      lipgloss.Style
	Null      lipgloss.Style
	Meta      lipgloss.Style
	Highlight lipgloss.Style
	Selected  lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
}

func colorOf(s string) color.Color {
	if s == "" {
		return nil
	}
	return lipgloss.Color(s)
}

func fg(s string) lipgloss.Style {
	st := lipgloss.NewStyle()
	if c := colorOf(s); c != nil {
		st = st.Foreground(c)
	}
	return st
}

// NewPalette builds styles from theme. With noColor every style is plain.
func NewPalette(theme config.Theme, noColor bool) Palette {
	if noColor {
		plain := lipgloss.NewStyle()
		return Palette{
			Key: plain, String: plain, Number: plain, Bool: plain, Null: plain, Meta: plain,
			Highlight: plain.Reverse(true), Selected: plain.Reverse(true), Status: plain, Error: plain,
		}
	}
	p := Palette{
		Key:       fg(theme.Key),
		String:    fg(theme.String),
		Number:    fg(theme.Number),
		Bool:      fg(theme.Bool),
		Null:      fg(theme.Null).Italic(true),
		Meta:      fg(theme.Meta),
		Highlight: fg(theme.HighlightFG).Bold(true),
		Selected:  fg(theme.SelectedFG),
		Status:    fg(theme.Status),
		Error:     fg(theme.Error).Bold(true),
	}
	if c := colorOf(theme.HighlightBG); c != nil {
		p.Highlight = p.Highlight.Background(c)
	}
	if c := colorOf(theme.SelectedBG); c != nil {
		p.Selected = p.Selected.Background(c)
	}
	return p
}

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or fallback when it is not a
// terminal.
func TerminalWidth(f *os.File, fallback int) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// Value styles a primitive by kind.
func (p Palette) Value(kind render.Kind, text string) string {
	switch kind {
	case render.KindString:
		return p.String.Render(text)
	case render.KindNumber:
		return p.Number.Render(text)
	case render.KindBool:
		return p.Bool.Render(text)
	case render.KindNull:
		return p.Null.Render(text)
	default:
		return p.Meta.Render(text)
	}
}

// KeyLabel is the label of a row: the member name, the element index in
// brackets, or "$" for the render root.
func KeyLabel(d render.Descriptor) string {
	switch {
	case d.HasKey:
		return d.Key
	case d.Index >= 0:
		return "[" + strconv.Itoa(d.Index) + "]"
	default:
		return "$"
	}
}

// ValueText is the plain text shown after a row's key. Strings are quoted;
// containers show an opening bracket and their size.
func ValueText(d render.Descriptor, expanded bool, branchCap int) string {
	switch d.Kind {
	case render.KindTruncated:
		return render.TruncationMessage(branchCap)
	case render.KindEmptyArray:
		return "[]"
	case render.KindEmptyObject:
		return "{}"
	case render.KindArray:
		if expanded {
			return "[ " + d.CountLabel()
		}
		return "[…] " + d.CountLabel()
	case render.KindObject:
		if expanded {
			return "{ " + d.CountLabel()
		}
		return "{…} " + d.CountLabel()
	case render.KindString:
		return strconv.Quote(d.Value.Str())
	default:
		return d.Value.String()
	}
}

// Indent returns the prefix for a row at depth with width columns per level.
func Indent(depth, width int) string {
	if depth <= 0 || width <= 0 {
		return ""
	}
	return strings.Repeat(" ", depth*width)
}
