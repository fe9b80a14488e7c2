package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{name: "object", input: `{"a":1}`, want: FormatJSON},
		{name: "array", input: `[1, 2, 3]`, want: FormatJSON},
		{name: "pretty json", input: "{\n  \"a\": [\n    1\n  ]\n}", want: FormatJSON},
		{name: "ndjson", input: "{\"a\":1}\n{\"a\":2}\n", want: FormatNDJSON},
		{name: "yaml", input: "name: x\nitems:\n  - 1\n", want: FormatYAML},
		{name: "multi-doc yaml", input: "---\na: 1\n---\nb: 2\n", want: FormatYAML},
		{name: "array of one string", input: `["a"]`, want: FormatJSON},
		{name: "nested array line", input: "{\n  \"tags\": [\n    [\"a\"]\n  ]\n}\n", want: FormatJSON},
		{name: "toml section", input: "[server]\nport = 8080\n", want: FormatTOML},
		{name: "toml pairs", input: "name = \"x\"\nport = 1\n", want: FormatTOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect([]byte(tt.input)))
		})
	}
}

func TestLoadJSONKeepsOrder(t *testing.T) {
	v, format, err := Load([]byte(`{"z":1,"a":{"y":true,"b":null}}`), "")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)
	assert.Equal(t, `{"z":1,"a":{"y":true,"b":null}}`, v.String())
}

func TestLoadJSONShapedLikeTOMLHeader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "top-level array", input: `["a"]`, want: `["a"]`},
		{name: "nested array", input: "{\n  \"tags\": [\n    [\"a\"]\n  ]\n}\n", want: `{"tags":[["a"]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, format, err := Load([]byte(tt.input), "")
			require.NoError(t, err)
			assert.Equal(t, FormatJSON, format)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestLoadNDJSON(t *testing.T) {
	v, format, err := Load([]byte("{\"a\":1}\n{\"b\":2}\n"), "")
	require.NoError(t, err)
	assert.Equal(t, FormatNDJSON, format)
	assert.Equal(t, `[{"a":1},{"b":2}]`, v.String())
}

func TestLoadYAMLKeepsOrder(t *testing.T) {
	input := "zeta: 1\nalpha:\n  - x\n  - 2.5\n  - true\n  - null\nanchor: &a {k: v}\nref: *a\n"
	v, _, err := Load([]byte(input), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":["x",2.5,true,null],"anchor":{"k":"v"},"ref":{"k":"v"}}`, v.String())
}

func TestLoadMultiDocYAML(t *testing.T) {
	v, _, err := Load([]byte("---\na: 1\n---\nb: 2\n"), "")
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1},{"b":2}]`, v.String())
}

func TestLoadTOMLSortsKeys(t *testing.T) {
	v, format, err := Load([]byte("[server]\nport = 8080\nhost = \"x\"\n"), "")
	require.NoError(t, err)
	assert.Equal(t, FormatTOML, format)
	assert.Equal(t, `{"server":{"host":"x","port":8080}}`, v.String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
		want   string
	}{
		{name: "blank", input: "  \n", want: "empty input"},
		{name: "bad json", input: `{"a":`, format: FormatJSON, want: "invalid JSON"},
		{name: "bad yaml", input: "a: [1, 2", format: FormatYAML, want: "invalid YAML"},
		{name: "bad toml", input: "[server\n", format: FormatTOML, want: "invalid TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load([]byte(tt.input), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Format(""), f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLoadFileAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"k":"v"}`), 0o600))

	v, _, err := LoadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, v.String())

	v, _, err = LoadReader(strings.NewReader(`[1]`), "")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, v.String())

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)
}
