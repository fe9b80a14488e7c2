package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

func parse(t *testing.T, s string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func paths(descs []Descriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.Path
	}
	return out
}

func TestRenderPreOrder(t *testing.T) {
	doc := parse(t, `{"b":{"x":1,"y":[true,null]},"a":"s","e":[],"o":{}}`)
	descs := Render(doc, Options{})

	assert.Equal(t, []string{
		"$",
		"$['b']",
		"$['b']['x']",
		"$['b']['y']",
		"$['b']['y'][0]",
		"$['b']['y'][1]",
		"$['a']",
		"$['e']",
		"$['o']",
	}, paths(descs))

	kinds := make([]Kind, len(descs))
	for i, d := range descs {
		kinds[i] = d.Kind
	}
	assert.Equal(t, []Kind{
		KindObject, KindObject, KindNumber, KindArray, KindBool, KindNull, KindString, KindEmptyArray, KindEmptyObject,
	}, kinds)

	assert.Equal(t, 0, descs[0].Depth)
	assert.Equal(t, 4, descs[0].ChildCount)
	assert.Equal(t, 3, descs[4].Depth)
	assert.Equal(t, "$['b']['y']", descs[4].Parent)
	assert.Equal(t, 0, descs[4].Index)
	assert.Equal(t, "x", descs[2].Key)
	assert.True(t, descs[2].HasKey)
	assert.Equal(t, -1, descs[2].Index)
	assert.False(t, Truncated(descs))
}

func TestRenderParentBeforeDescendants(t *testing.T) {
	doc := parse(t, `[[[1,2],[3]],{"k":[{"z":0}]},"tail"]`)
	descs := Render(doc, Options{})
	pos := Index(descs)
	for _, d := range descs {
		if d.Parent == "" {
			continue
		}
		assert.Less(t, pos[d.Parent], pos[d.Path], d.Path)
	}
}

func TestRenderPrimitiveRoot(t *testing.T) {
	descs := Render(jsonvalue.NewString("hi"), Options{})
	require.Len(t, descs, 1)
	assert.Equal(t, "$", descs[0].Path)
	assert.Equal(t, KindString, descs[0].Kind)
	assert.Equal(t, "", descs[0].Parent)
}

func TestRenderDeterministic(t *testing.T) {
	doc := parse(t, `{"a":[1,2,{"b":3}],"c":{"d":[[]]}}`)
	first := Render(doc, Options{BranchCap: 4})
	for i := 0; i < 5; i++ {
		again := Render(doc, Options{BranchCap: 4})
		assert.Equal(t, paths(first), paths(again))
	}
}

func TestRenderCap(t *testing.T) {
	const n = 50
	elems := make([]string, n)
	for i := range elems {
		elems[i] = fmt.Sprint(i)
	}
	doc := parse(t, `{"big":[`+strings.Join(elems, ",")+`],"after":1}`)

	const limit = 10
	descs := Render(doc, Options{BranchCap: limit})

	real := 0
	markers := 0
	for _, d := range descs {
		if d.Truncated {
			markers++
			assert.Equal(t, KindTruncated, d.Kind)
			continue
		}
		real++
	}
	assert.Equal(t, limit, real)
	assert.Equal(t, 1, markers)
	assert.True(t, Truncated(descs))

	marker := descs[len(descs)-1]
	assert.Equal(t, "$['big'][8]", marker.Path)
	assert.Equal(t, "$['big']", marker.Parent)
	assert.Equal(t, 2, marker.Depth)

	_, indexed := Index(descs)["$['big'][8]"]
	assert.False(t, indexed)
	assert.NotContains(t, paths(descs[:len(descs)-1]), "$['after']")
}

func TestRenderCapDefault(t *testing.T) {
	elems := make([]string, DefaultBranchCap+10)
	for i := range elems {
		elems[i] = "0"
	}
	doc := parse(t, "["+strings.Join(elems, ",")+"]")
	descs := Render(doc, Options{})
	assert.Len(t, descs, DefaultBranchCap+1)
	assert.True(t, Truncated(descs))
}

func TestRenderDeepDocument(t *testing.T) {
	depth := 4000
	doc := parse(t, strings.Repeat(`{"a":`, depth)+"1"+strings.Repeat("}", depth))
	descs := Render(doc, Options{BranchCap: depth + 10})
	require.Len(t, descs, depth+1)
	assert.Equal(t, depth, descs[len(descs)-1].Depth)
}

func TestRenderAt(t *testing.T) {
	doc := parse(t, `{"store":{"book":[{"title":"A"},{"title":"B"}]}}`)
	descs, err := RenderAt(doc, "$['store']['book']", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"$['store']['book']",
		"$['store']['book'][0]",
		"$['store']['book'][0]['title']",
		"$['store']['book'][1]",
		"$['store']['book'][1]['title']",
	}, paths(descs))
	assert.Equal(t, 2, descs[0].Depth)
	assert.Equal(t, "$['store']", descs[0].Parent)

	_, err = RenderAt(doc, "$['nope']", Options{})
	require.Error(t, err)
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		d    Descriptor
		want string
	}{
		{d: Descriptor{Kind: KindArray, ChildCount: 1}, want: "(1 item)"},
		{d: Descriptor{Kind: KindArray, ChildCount: 3}, want: "(3 items)"},
		{d: Descriptor{Kind: KindObject, ChildCount: 1}, want: "(1 property)"},
		{d: Descriptor{Kind: KindObject, ChildCount: 2}, want: "(2 properties)"},
		{d: Descriptor{Kind: KindString}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.d.CountLabel())
		})
	}
	assert.Contains(t, TruncationMessage(0), "limit of 5000 nodes")
}
