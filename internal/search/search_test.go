package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

func doc(t *testing.T, s string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

type hit struct {
	path string
	on   On
}

func hits(ms []Match) []hit {
	out := make([]hit, len(ms))
	for i, m := range ms {
		out[i] = hit{m.Path, m.On}
	}
	return out
}

func TestFindKeysOnly(t *testing.T) {
	got, err := Find(doc(t, `{"a":1,"b":{"a":2}}`), Config{Term: "a", MatchKeys: true})
	require.NoError(t, err)
	assert.Equal(t, []hit{{"$['a']", OnKey}, {"$['b']['a']", OnKey}}, hits(got))
	assert.Equal(t, "a", got[0].Key)
}

func TestFind(t *testing.T) {
	v := doc(t, `{"Name":"Alice","tags":["admin","Ops",null],"nested":{"name":"bob","n":42,"ok":true},"empty":{}}`)
	tests := []struct {
		name string
		cfg  Config
		want []hit
	}{
		{
			name: "both case-insensitive",
			cfg:  Config{Term: "name", MatchKeys: true, MatchValues: true},
			want: []hit{{"$['Name']", OnKey}, {"$['nested']['name']", OnKey}},
		},
		{
			name: "case-sensitive key",
			cfg:  Config{Term: "Name", MatchKeys: true, CaseSensitive: true},
			want: []hit{{"$['Name']", OnKey}},
		},
		{
			name: "values only",
			cfg:  Config{Term: "o", MatchValues: true},
			want: []hit{{"$['tags'][1]", OnValue}, {"$['nested']['name']", OnValue}},
		},
		{
			name: "null literal",
			cfg:  Config{Term: "null", MatchValues: true},
			want: []hit{{"$['tags'][2]", OnValue}},
		},
		{
			name: "number and bool forms",
			cfg:  Config{Term: "^(42|true)$", MatchValues: true, Regex: true},
			want: []hit{{"$['nested']['n']", OnValue}, {"$['nested']['ok']", OnValue}},
		},
		{
			name: "key and value on same node",
			cfg:  Config{Term: "n", MatchKeys: true, MatchValues: true},
			want: []hit{
				{"$['Name']", OnKey},
				{"$['tags'][0]", OnValue},
				{"$['tags'][2]", OnValue},
				{"$['nested']", OnKey},
				{"$['nested']['name']", OnKey},
				{"$['nested']['n']", OnKey},
			},
		},
		{
			name: "regex case-insensitive",
			cfg:  Config{Term: "^ALI", Regex: true, MatchValues: true},
			want: []hit{{"$['Name']", OnValue}},
		},
		{
			name: "regex case-sensitive",
			cfg:  Config{Term: "^ALI", Regex: true, MatchValues: true, CaseSensitive: true},
			want: []hit{},
		},
		{
			name: "containers never match as values",
			cfg:  Config{Term: "{", MatchValues: true},
			want: []hit{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Find(v, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hits(got))
		})
	}
}

func TestFindBlankTerm(t *testing.T) {
	got, err := Find(doc(t, `{"a":" "}`), Config{Term: "  ", MatchKeys: true, MatchValues: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindInvalidPattern(t *testing.T) {
	_, err := Find(doc(t, `{"a":1}`), Config{Term: "(", Regex: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestFindDedupAndLiteral(t *testing.T) {
	got, err := Find(doc(t, `{"aa":"aa"}`), Config{Term: "a", MatchKeys: true, MatchValues: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, OnKey, got[0].On)
	assert.Equal(t, OnValue, got[1].On)
	assert.Equal(t, jsonvalue.String, got[1].Literal.Kind())
	assert.Equal(t, []string{"$['aa']"}, Paths(got))
}

func TestFindPrimitiveRoot(t *testing.T) {
	got, err := Find(jsonvalue.NewString("hello"), Config{Term: "ell", MatchValues: true})
	require.NoError(t, err)
	assert.Equal(t, []hit{{"$", OnValue}}, hits(got))
}

func TestFindNeitherTargetMatchesNothing(t *testing.T) {
	got, err := Find(doc(t, `{"a":"a"}`), Config{Term: "a"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
