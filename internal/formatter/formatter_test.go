package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/expansion"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/internal/render"
)

func rows(t *testing.T, doc string, opts render.Options) []render.Descriptor {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(doc))
	require.NoError(t, err)
	return render.Render(v, opts)
}

func TestFormatTree(t *testing.T) {
	descs := rows(t, `{"name":"x","tags":["a"],"meta":{},"n":null}`, render.Options{})
	got := FormatTree(descs, TreeOptions{})
	want := strings.Join([]string{
		"$: { (4 properties)",
		`├── name: "x"`,
		"├── tags: [ (1 item)",
		`│   └── [0]: "a"`,
		"├── meta: {}",
		"└── n: null",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatTreeCollapsed(t *testing.T) {
	descs := rows(t, `{"a":{"b":1},"c":2}`, render.Options{})
	state := expansion.New(descs)
	state.Toggle("$['a']")
	got := FormatTree(state.Visible(descs), TreeOptions{IsExpanded: state.IsExpanded})
	assert.Contains(t, got, "a: {…} (1 property)")
	assert.NotContains(t, got, "b: 1")
	assert.Contains(t, got, "c: 2")
}

func TestFormatTreeTruncated(t *testing.T) {
	descs := rows(t, `[1,2,3,4]`, render.Options{BranchCap: 2})
	got := FormatTree(descs, TreeOptions{BranchCap: 2})
	assert.Contains(t, got, "[0]: 1")
	assert.Contains(t, got, "limit of 2 nodes")
	assert.NotContains(t, got, "[2]")
}

func TestFormatTreeNoValues(t *testing.T) {
	descs := rows(t, `{"a":{"b":1}}`, render.Options{})
	got := FormatTree(descs, TreeOptions{NoValues: true})
	assert.Contains(t, got, "└── b")
	assert.NotContains(t, got, "1")
}

func TestValueText(t *testing.T) {
	descs := rows(t, `{"s":"q\"uote","arr":[1,2]}`, render.Options{})
	assert.Equal(t, `"q\"uote"`, ValueText(descs[1], true, 0))
	assert.Equal(t, "[…] (2 items)", ValueText(descs[2], false, 0))
	assert.Equal(t, "[0]", KeyLabel(descs[3]))
	assert.Equal(t, "$", KeyLabel(descs[0]))
}

func TestFormatYAMLKeepsOrder(t *testing.T) {
	v, err := jsonvalue.Parse([]byte(`{"z":1,"a":[true,null,"x\ny"],"f":1.5}`))
	require.NoError(t, err)
	got, err := FormatYAML(v, YAMLFormatOptions{LiteralBlockStrings: true})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "z: 1\n"))
	assert.Less(t, strings.Index(got, "a:"), strings.Index(got, "f: 1.5"))
	assert.Contains(t, got, "- true")
	assert.Contains(t, got, "- null")
	assert.Contains(t, got, "|-")
}

func TestFormatTable(t *testing.T) {
	got := FormatTable([]string{"PATH", "ON"}, [][]string{{"$['a']", "key"}, {"$['long']", "value"}}, TableOptions{})
	want := "PATH       ON\n---------  -----\n$['a']     key\n$['long']  value\n"
	assert.Equal(t, want, got)

	got = FormatTable([]string{"V"}, [][]string{{"abcdefghij"}}, TableOptions{MaxCellWidth: 5})
	assert.Contains(t, got, "abcd…")
}

func TestPalette(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	plain := NewPalette(cfg.Viewer.Theme, true)
	assert.Equal(t, "abc", plain.Value(render.KindString, "abc"))
	colored := NewPalette(cfg.Viewer.Theme, false)
	assert.Contains(t, colored.Value(render.KindNumber, "42"), "42")
	assert.Equal(t, "    ", Indent(2, 2))
	assert.Equal(t, "", Indent(0, 2))
}
