// Package ui is the interactive tree viewer built on Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/jlens/internal/ai"
	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/navigator"
	"github.com/oakwood-commons/jlens/internal/render"
	"github.com/oakwood-commons/jlens/internal/search"
	"github.com/oakwood-commons/jlens/internal/session"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// inputMode says where key presses go.
type inputMode int

const (
	modeTree inputMode = iota
	modeSearch
	modeGoTo
	modeAsk
)

// searchTarget cycles with the search-mode key.
type searchTarget int

const (
	searchBoth searchTarget = iota
	searchKeys
	searchValues
)

func (t searchTarget) String() string {
	switch t {
	case searchKeys:
		return "keys"
	case searchValues:
		return "values"
	default:
		return "keys and values"
	}
}

// Options configures the viewer.
type Options struct {
	Palette formatter.Palette
	// IndentWidth is the number of columns per nesting level.
	IndentWidth int
	// Assistant is nil when AI features are disabled.
	Assistant *ai.Assistant
	Models    []config.Model
	Width     int
	Height    int
	NoColor   bool
}

// Model is the Bubble Tea model of the viewer.
type Model struct {
	ctx       context.Context
	sess      *session.Session
	opts      Options
	assistant *ai.Assistant
	modelIdx  int

	rows      []render.Descriptor
	cursor    int
	offset    int
	rawOffset int
	width     int
	height    int

	input     textinput.Model
	mode      inputMode
	target    searchTarget
	regex     bool
	caseSens  bool
	raw       bool
	help      bool
	status    string
	statusErr bool

	spinner spinner.Model
	aiBusy  bool
	aiTitle string
	aiText  string
}

// New returns a viewer over sess, which must already hold a document.
func New(ctx context.Context, sess *session.Session, opts Options) *Model {
	if opts.IndentWidth <= 0 {
		opts.IndentWidth = 2
	}
	ti := textinput.New()
	ti.Prompt = "> "
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		ctx:       ctx,
		sess:      sess,
		opts:      opts,
		assistant: opts.Assistant,
		width:     opts.Width,
		height:    opts.Height,
		input:     ti,
		spinner:   s,
	}
	if m.width <= 0 {
		m.width = defaultWidth
	}
	if m.height <= 0 {
		m.height = defaultHeight
	}
	m.input.SetWidth(max(m.width-4, 10))
	if m.assistant != nil {
		for i, md := range opts.Models {
			if md.Value == m.assistant.Model() {
				m.modelIdx = i
			}
		}
	}
	m.refresh()
	m.syncCursor()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Session returns the session the viewer drives.
func (m *Model) Session() *session.Session { return m.sess }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(m.width-4, 10))
		m.scrollToCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.aiBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case aiResultMsg:
		m.handleAIResult(msg)
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeTree {
			return m.updateInput(msg)
		}
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.leaveInput()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.leaveInput()
		switch mode {
		case modeSearch:
			m.runSearch(value)
		case modeGoTo:
			m.goTo(value)
		case modeAsk:
			return m, m.startAI(featureQuery, value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) enterInput(mode inputMode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) leaveInput() {
	m.mode = modeTree
	m.input.Blur()
}

func (m *Model) handleKey(key string) (tea.Model, tea.Cmd) {
	// The go-to highlight lasts until the next key press.
	m.sess.ClearHighlight()
	m.status, m.statusErr = "", false

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		m.sess.ExpandToDepth(int(key[0] - '0'))
		m.refresh()
		m.syncCursor()
		m.setStatus(fmt.Sprintf("Expanded to depth %c", key[0]))
		return m, nil
	}

	action := ActionFor(key)
	if m.help && action != ActionQuit {
		m.help = false
		return m, nil
	}
	if m.raw {
		switch action {
		case ActionUp:
			m.rawOffset = max(m.rawOffset-1, 0)
			return m, nil
		case ActionDown:
			m.rawOffset++
			return m, nil
		}
	}

	switch action {
	case ActionUp:
		m.moveCursor(-1)
	case ActionDown:
		m.moveCursor(1)
	case ActionPageUp:
		m.moveCursor(-m.bodyHeight())
	case ActionPageDown:
		m.moveCursor(m.bodyHeight())
	case ActionTop:
		m.moveCursor(-len(m.rows))
	case ActionBottom:
		m.moveCursor(len(m.rows))
	case ActionToggle:
		m.toggleRow()
	case ActionExpand:
		m.expandRow()
	case ActionCollapse:
		m.collapseRow()
	case ActionExpandAll:
		m.sess.ExpandAll()
		m.refresh()
		m.syncCursor()
	case ActionCollapseAll:
		m.sess.CollapseAll()
		m.refresh()
		m.syncCursor()
	case ActionSearch:
		return m, m.enterInput(modeSearch, "search "+m.target.String(), "")
	case ActionNextMatch:
		m.stepMatch(1)
	case ActionPrevMatch:
		m.stepMatch(-1)
	case ActionSearchMode:
		m.target = (m.target + 1) % 3
		m.setStatus("Searching " + m.target.String())
	case ActionRegex:
		m.regex = !m.regex
		m.setStatus(fmt.Sprintf("Regex search: %s", onOff(m.regex)))
	case ActionCase:
		m.caseSens = !m.caseSens
		m.setStatus(fmt.Sprintf("Case sensitive search: %s", onOff(m.caseSens)))
	case ActionGoTo:
		return m, m.enterInput(modeGoTo, "$['key'][0]", m.sess.Current())
	case ActionCopyValue:
		m.copy(session.ScopeValue)
	case ActionCopySubtree:
		m.copy(session.ScopeSubtree)
	case ActionCopyPath:
		m.copy(session.ScopePath)
	case ActionRaw:
		m.raw = !m.raw
		m.rawOffset = 0
	case ActionSummarize:
		return m, m.startAI(featureSummary, "")
	case ActionSchema:
		return m, m.startAI(featureSchema, "")
	case ActionExplain:
		return m, m.startAI(featureExplain, "")
	case ActionAsk:
		if m.assistant == nil {
			m.setError(ai.ErrNoAPIKey.Error())
			return m, nil
		}
		return m, m.enterInput(modeAsk, "ask about this JSON", "")
	case ActionNextModel:
		m.nextModel()
	case ActionHelp:
		m.help = true
	case ActionClear:
		m.sess.ClearSearch()
		m.aiText, m.aiTitle = "", ""
		m.raw = false
	case ActionQuit:
		return m, tea.Quit
	}
	return m, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m *Model) setStatus(s string) { m.status, m.statusErr = s, false }

func (m *Model) setError(s string) { m.status, m.statusErr = s, true }

// refresh rebuilds the visible rows and clamps the cursor.
func (m *Model) refresh() {
	m.rows = m.sess.Visible()
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.scrollToCursor()
}

// syncCursor moves the cursor onto the session's current path when it is
// visible.
func (m *Model) syncCursor() {
	cur := m.sess.Current()
	for i, d := range m.rows {
		if d.Path == cur && !d.Truncated {
			m.cursor = i
			break
		}
	}
	m.scrollToCursor()
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.rows)-1)
	if d := m.rows[m.cursor]; !d.Truncated {
		m.sess.SetCurrent(d.Path)
	}
	m.scrollToCursor()
}

func (m *Model) scrollToCursor() {
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(m.offset, 0)
}

func (m *Model) row() (render.Descriptor, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return render.Descriptor{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) toggleRow() {
	d, ok := m.row()
	if !ok || d.Truncated {
		return
	}
	_ = m.sess.Select(d.Path)
	if d.Kind.IsContainer() {
		m.sess.Toggle(d.Path)
		m.refresh()
		m.syncCursor()
	}
}

func (m *Model) expandRow() {
	d, ok := m.row()
	if !ok || d.Truncated {
		return
	}
	if d.Kind.IsContainer() && !m.sess.IsExpanded(d.Path) {
		m.sess.Toggle(d.Path)
		m.refresh()
		m.syncCursor()
		return
	}
	m.moveCursor(1)
}

func (m *Model) collapseRow() {
	d, ok := m.row()
	if !ok {
		return
	}
	if d.Kind.IsContainer() && !d.Truncated && m.sess.IsExpanded(d.Path) {
		m.sess.Toggle(d.Path)
		m.refresh()
		m.syncCursor()
		return
	}
	if d.Parent == "" {
		return
	}
	m.sess.SetCurrent(d.Parent)
	m.syncCursor()
}

func (m *Model) searchConfig(term string) search.Config {
	return search.Config{
		Term:          term,
		MatchKeys:     m.target != searchValues,
		MatchValues:   m.target != searchKeys,
		CaseSensitive: m.caseSens,
		Regex:         m.regex,
	}
}

func (m *Model) runSearch(term string) {
	if term == "" {
		m.sess.ClearSearch()
		m.setStatus("Search cleared")
		return
	}
	matches, err := m.sess.Search(m.searchConfig(term))
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.refresh()
	m.syncCursor()
	switch len(matches) {
	case 0:
		m.setStatus(fmt.Sprintf("No matches for %q", term))
	case 1:
		m.setStatus("1 match")
	default:
		m.setStatus(fmt.Sprintf("%d matches", len(matches)))
	}
}

func (m *Model) stepMatch(delta int) {
	if _, ok := m.sess.NextMatch(delta); !ok {
		m.setStatus("No active search")
		return
	}
	m.refresh()
	m.syncCursor()
	pos, total := m.sess.MatchPosition()
	m.setStatus(fmt.Sprintf("Match %d of %d", pos, total))
}

func (m *Model) goTo(path string) {
	if path == "" {
		return
	}
	res, err := m.sess.GoTo(path)
	if err != nil {
		m.setError(err.Error())
		return
	}
	m.reportNavigation(res)
}

func (m *Model) reportNavigation(res navigator.Result) {
	switch res.Outcome {
	case navigator.NotFound:
		m.setError("Path not found: " + res.Path)
	case navigator.NotInView:
		m.setStatus(fmt.Sprintf("%s: %s (raise the branch cap to show it)", res.Path, res.Outcome))
	default:
		m.refresh()
		m.syncCursor()
	}
}

func (m *Model) copy(scope session.Scope) {
	d, ok := m.row()
	if !ok || d.Truncated {
		return
	}
	text, err := m.sess.Copy(d.Path, scope)
	if err != nil {
		m.setError(err.Error())
		return
	}
	if err := CopyToClipboard(text); err != nil {
		m.setError("Copy failed: " + err.Error())
		return
	}
	logger.FromContext(m.ctx).V(logger.LevelDebug).Info("copied", logger.PathKey, d.Path, "scope", string(scope))
	m.setStatus(fmt.Sprintf("Copied %s of %s", scope, d.Path))
}

func (m *Model) nextModel() {
	if m.assistant == nil {
		m.setError(ai.ErrNoAPIKey.Error())
		return
	}
	if len(m.opts.Models) == 0 {
		m.setStatus("Model: " + m.assistant.Model())
		return
	}
	m.modelIdx = (m.modelIdx + 1) % len(m.opts.Models)
	md := m.opts.Models[m.modelIdx]
	m.assistant = m.assistant.WithModel(md.Value)
	m.setStatus("Model: " + md.Name)
}
