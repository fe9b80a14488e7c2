package ui

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jlens/internal/ai"
	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/formatter"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/internal/session"
)

const storeDoc = `{"store":{"book":[{"title":"Sword"},{"title":"Moby"}],"bicycle":{"color":"red","price":19.95}},"owner":"ann"}`

type fakeService struct {
	reply string
	err   error
	reqs  []ai.Request
}

func (f *fakeService) Complete(_ context.Context, req ai.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func newTestModel(t *testing.T, svc ai.Service) *Model {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(storeDoc))
	require.NoError(t, err)
	sess := session.New(context.Background(), session.Options{ExpandDepth: -1})
	sess.Load(v)
	cfg, err := config.Default()
	require.NoError(t, err)
	opts := Options{
		Palette:     formatter.NewPalette(cfg.Viewer.Theme, true),
		IndentWidth: 2,
		Width:       80,
		Height:      20,
		NoColor:     true,
		Models:      cfg.AI.Models,
	}
	if svc != nil {
		opts.Assistant = ai.NewAssistant(svc, cfg.AI.Model, 0)
	}
	return New(context.Background(), sess, opts)
}

func keyMsg(k string) tea.KeyPressMsg {
	switch k {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "left":
		return tea.KeyPressMsg{Code: tea.KeyLeft}
	case "right":
		return tea.KeyPressMsg{Code: tea.KeyRight}
	}
	r := []rune(k)[0]
	return tea.KeyPressMsg{Code: r, Text: k}
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// drain runs cmd, expanding batches, and feeds the resulting messages back.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c != nil {
				m.Update(c())
			}
		}
		return
	}
	m.Update(msg)
}

func cursorPath(m *Model) string {
	d, _ := m.row()
	return d.Path
}

func TestInitialView(t *testing.T) {
	m := newTestModel(t, nil)
	out := m.Render()
	assert.Contains(t, out, "$: { (2 properties)")
	assert.Contains(t, out, `title: "Moby"`)
	assert.Contains(t, out, "book: [ (2 items)")
	assert.Equal(t, "$", cursorPath(m))
	assert.Contains(t, out, "? help")
}

func TestMoveAndToggle(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "down")
	assert.Equal(t, "$['store']", cursorPath(m))
	assert.Equal(t, "$['store']", m.Session().Current())

	press(m, "enter")
	out := m.Render()
	assert.Contains(t, out, "store: {…} (2 properties)")
	assert.NotContains(t, out, "Moby")
	sel, ok := m.Session().Selected()
	require.True(t, ok)
	assert.Equal(t, "$['store']", sel)

	press(m, "space")
	assert.Contains(t, m.Render(), "Moby")
}

func TestCollapseMovesToParent(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "down", "down", "down")
	assert.Equal(t, "$['store']['book'][0]", cursorPath(m))
	press(m, "left")
	assert.False(t, m.Session().IsExpanded("$['store']['book'][0]"))
	press(m, "left")
	assert.Equal(t, "$['store']['book']", cursorPath(m))
	press(m, "right")
	assert.Equal(t, "$['store']['book'][0]", cursorPath(m))
}

func TestBulkExpansion(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "c")
	assert.Len(t, m.rows, 1)
	press(m, "2")
	assert.Contains(t, m.Render(), "bicycle: {…}")
	press(m, "e")
	assert.Len(t, m.rows, len(m.Session().Descriptors()))
}

func TestSearch(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "c", "/")
	typeText(m, "moby")
	press(m, "enter")

	assert.Equal(t, "$['store']['book'][1]['title']", cursorPath(m))
	assert.Contains(t, m.Render(), "1 match")

	press(m, "/")
	typeText(m, "o")
	press(m, "enter")
	assert.Contains(t, m.status, "matches")
	first := cursorPath(m)
	press(m, "n")
	assert.NotEqual(t, first, cursorPath(m))
	assert.Contains(t, m.status, "Match 2 of")
	press(m, "N")
	assert.Equal(t, first, cursorPath(m))

	press(m, "esc")
	assert.Empty(t, m.Session().Matches())
}

func TestSearchModesAndInvalidRegex(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "f")
	assert.Equal(t, "Searching keys", m.status)
	press(m, "/")
	typeText(m, "red")
	press(m, "enter")
	assert.Contains(t, m.status, "No matches")

	press(m, "R", "/")
	typeText(m, "[")
	press(m, "enter")
	assert.True(t, m.statusErr)
}

func TestGoTo(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "c", ":")
	m.input.SetValue("")
	typeText(m, "$['store']['bicycle']['color']")
	press(m, "enter")
	assert.Equal(t, "$['store']['bicycle']['color']", cursorPath(m))
	assert.Equal(t, "$['store']['bicycle']['color']", m.Session().Highlight())
	assert.Contains(t, m.Render(), "store › bicycle › color")

	press(m, "down")
	assert.Empty(t, m.Session().Highlight())

	press(m, ":")
	m.input.SetValue("$['nope']")
	press(m, "enter")
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "Path not found")

	press(m, ":")
	m.input.SetValue("store.bicycle")
	press(m, "enter")
	assert.True(t, m.statusErr)
}

func TestCopy(t *testing.T) {
	copied = nil
	m := newTestModel(t, nil)
	press(m, ":")
	m.input.SetValue("$['store']['bicycle']")
	press(m, "enter")

	press(m, "y", "Y", "p")
	require.Len(t, copied, 3)
	assert.Equal(t, `{"color":"red","price":19.95}`, copied[0])
	assert.Equal(t, "{\n  \"color\": \"red\",\n  \"price\": 19.95\n}", copied[1])
	assert.Equal(t, "$['store']['bicycle']", copied[2])
	assert.Contains(t, m.status, "Copied path")
}

func TestRawAndHelp(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, "down", "r")
	assert.Contains(t, m.Render(), `"color": "red"`)
	press(m, "r", "?")
	assert.Contains(t, m.Render(), "copy value / subtree / path")
	press(m, "j")
	assert.NotContains(t, m.Render(), "copy value / subtree / path")
}

func TestAIDisabled(t *testing.T) {
	m := newTestModel(t, nil)
	cmd := press(m, "S")
	assert.Nil(t, cmd)
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "no API key")
}

func TestAISummary(t *testing.T) {
	svc := &fakeService{reply: "# Store\n\n- two books\n- one bicycle"}
	m := newTestModel(t, svc)

	cmd := press(m, "S")
	require.NotNil(t, cmd)
	assert.True(t, m.aiBusy)
	assert.Nil(t, press(m, "T"), "second request is refused while one runs")
	assert.Contains(t, m.status, "already running")

	drain(t, m, cmd)
	assert.False(t, m.aiBusy)
	require.Len(t, svc.reqs, 1)
	assert.Contains(t, m.Render(), "- two books")
	press(m, "esc")
	assert.NotContains(t, m.Render(), "two books")
}

func TestAIExplainUsesSelection(t *testing.T) {
	svc := &fakeService{reply: "A bicycle."}
	m := newTestModel(t, svc)
	require.NoError(t, m.Session().Select("$['store']['bicycle']"))
	drain(t, m, press(m, "x"))
	require.Len(t, svc.reqs, 1)
	assert.Contains(t, svc.reqs[0].Trailer, "$['store']['bicycle']")
	assert.Contains(t, m.aiTitle, "$['store']['bicycle']")
}

func TestAIQueryNavigates(t *testing.T) {
	svc := &fakeService{reply: "`$['store']['bicycle']['price']`"}
	m := newTestModel(t, svc)
	press(m, "c", "a")
	typeText(m, "how much is the bike")
	drain(t, m, press(m, "enter"))
	assert.Equal(t, "$['store']['bicycle']['price']", cursorPath(m))

	svc.reply = "INVALID_PATH"
	press(m, "a")
	typeText(m, "weather")
	drain(t, m, press(m, "enter"))
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "Could not find a valid path")
}

func TestNextModel(t *testing.T) {
	m := newTestModel(t, &fakeService{})
	before := m.assistant.Model()
	press(m, "m")
	assert.NotEqual(t, before, m.assistant.Model())
	assert.True(t, strings.HasPrefix(m.status, "Model: "))
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(t, nil)
	m.Update(tea.WindowSizeMsg{Width: 30, Height: 5})
	press(m, "G")
	assert.Equal(t, len(m.rows)-1, m.cursor)
	lines := strings.Split(m.Render(), "\n")
	assert.Len(t, lines, 5)
	assert.Contains(t, m.Render(), "owner")
}
