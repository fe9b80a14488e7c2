package ui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/render"
	"github.com/oakwood-commons/jlens/internal/search"
	"github.com/oakwood-commons/jlens/internal/session"
)

const (
	crumbSeparator = " › "
	// aiPanelShare is the fraction of the screen the AI panel may take.
	aiPanelShare = 3
)

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Render())
	v.AltScreen = true
	return v
}

// Render returns the screen as a string.
func (m *Model) Render() string {
	var b strings.Builder
	b.WriteString(m.breadcrumbLine())
	b.WriteByte('\n')

	body := m.bodyLines()
	for i := 0; i < m.bodyHeight(); i++ {
		if i < len(body) {
			b.WriteString(body[i])
		}
		b.WriteByte('\n')
	}
	for _, l := range m.aiLines() {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(m.footerLine())
	if m.opts.NoColor {
		return ansi.Strip(b.String())
	}
	return b.String()
}

// bodyHeight is the number of rows left for the tree.
func (m *Model) bodyHeight() int {
	return max(m.height-2-len(m.aiLines()), 1)
}

func (m *Model) breadcrumbLine() string {
	crumbs := m.sess.Breadcrumbs()
	parts := make([]string, len(crumbs))
	for i, c := range crumbs {
		if c.Current {
			parts[i] = m.opts.Palette.Key.Bold(true).Render(c.Label)
			continue
		}
		parts[i] = m.opts.Palette.Meta.Render(c.Label)
	}
	return ansi.Truncate(strings.Join(parts, crumbSeparator), m.width, "…")
}

func (m *Model) bodyLines() []string {
	switch {
	case m.help:
		return m.helpLines()
	case m.raw:
		return m.rawLines()
	}
	h := m.bodyHeight()
	end := min(m.offset+h, len(m.rows))
	matched := m.sess.MatchPaths()
	out := make([]string, 0, h)
	for i := m.offset; i < end; i++ {
		out = append(out, m.rowLine(i, m.rows[i], matched))
	}
	return out
}

func (m *Model) rowLine(i int, d render.Descriptor, matched map[string]search.On) string {
	p := m.opts.Palette
	gutter := " "
	if sel, ok := m.sess.Selected(); ok && sel == d.Path && !d.Truncated {
		gutter = "•"
	}
	indent := formatter.Indent(d.Depth, m.opts.IndentWidth)
	expanded := m.sess.IsExpanded(d.Path)
	marker := "  "
	if d.Kind.IsContainer() && !d.Truncated {
		marker = "▾ "
		if !expanded {
			marker = "▸ "
		}
	}
	prefix := gutter + indent + marker
	avail := max(m.width-runewidth.StringWidth(prefix), 1)

	var line string
	if d.Truncated {
		line = p.Meta.Render(runewidth.Truncate(formatter.ValueText(d, false, m.sess.BranchCap()), avail, "…"))
	} else {
		key := formatter.KeyLabel(d)
		value := formatter.ValueText(d, expanded, m.sess.BranchCap())
		key = runewidth.Truncate(key, avail, "…")
		value = runewidth.Truncate(value, max(avail-runewidth.StringWidth(key)-2, 1), "…")

		keyStyled := p.Key.Render(key)
		valueStyled := p.Value(d.Kind, value)
		if on, ok := matched[d.Path]; ok {
			if on == search.OnKey {
				keyStyled = p.Highlight.Render(key)
			} else {
				valueStyled = p.Highlight.Render(value)
			}
		}
		line = keyStyled + p.Meta.Render(": ") + valueStyled
		if d.Path == m.sess.Highlight() {
			line = p.Highlight.Render(key + ": " + value)
		}
	}

	if i == m.cursor {
		return p.Selected.Render(ansi.Strip(prefix + line))
	}
	return prefix + line
}

func (m *Model) rawLines() []string {
	text, err := m.sess.Copy(m.sess.Current(), session.ScopeSubtree)
	if err != nil {
		return []string{m.opts.Palette.Error.Render(err.Error())}
	}
	lines := strings.Split(text, "\n")
	start := min(m.rawOffset, max(len(lines)-1, 0))
	out := make([]string, 0, len(lines)-start)
	for _, l := range lines[start:] {
		out = append(out, runewidth.Truncate(l, m.width, "…"))
	}
	return out
}

func (m *Model) helpLines() []string {
	keyWidth := 0
	for _, l := range HelpLines {
		keyWidth = max(keyWidth, runewidth.StringWidth(l[0]))
	}
	out := []string{m.opts.Palette.Key.Bold(true).Render("Keys"), ""}
	for _, l := range HelpLines {
		out = append(out, "  "+m.opts.Palette.Key.Render(runewidth.FillRight(l[0], keyWidth))+"  "+l[1])
	}
	return out
}

// aiLines is the AI panel: a spinner while waiting, then the reply.
func (m *Model) aiLines() []string {
	p := m.opts.Palette
	if m.aiBusy {
		return []string{m.spinner.View() + " " + p.Status.Render(m.aiTitle+"…")}
	}
	if m.aiText == "" {
		return nil
	}
	limit := max(m.height/aiPanelShare, 2)
	out := []string{p.Key.Bold(true).Render(runewidth.Truncate(m.aiTitle, m.width, "…"))}
	for _, l := range strings.Split(strings.TrimRight(m.aiText, "\n"), "\n") {
		for _, w := range wrap(l, m.width) {
			if len(out) >= limit {
				out[len(out)-1] = p.Meta.Render("… (esc to close)")
				return out
			}
			out = append(out, w)
		}
	}
	return out
}

func (m *Model) footerLine() string {
	p := m.opts.Palette
	if m.mode != modeTree {
		return m.input.View()
	}
	if m.status != "" {
		if m.statusErr {
			return p.Error.Render(runewidth.Truncate(m.status, m.width, "…"))
		}
		return p.Status.Render(runewidth.Truncate(m.status, m.width, "…"))
	}
	hints := []string{"? help", "q quit"}
	if pos, total := m.sess.MatchPosition(); total > 0 {
		hints = append([]string{fmt.Sprintf("match %d/%d", pos, total)}, hints...)
	}
	if m.sess.Truncated() {
		hints = append(hints, fmt.Sprintf("branch cap %d", m.sess.BranchCap()))
	}
	if m.assistant != nil {
		hints = append(hints, "model "+m.assistant.Model())
	}
	return p.Meta.Render(runewidth.Truncate(strings.Join(hints, " · "), m.width, "…"))
}

// wrap splits s into lines of at most width cells.
func wrap(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}
	var out []string
	var line strings.Builder
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			out = append(out, line.String())
			line.Reset()
			w = 0
		}
		line.WriteRune(r)
		w += rw
	}
	if line.Len() > 0 {
		out = append(out, line.String())
	}
	return out
}
