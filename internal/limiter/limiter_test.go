package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "limit only", cfg: Config{Limit: 10}},
		{name: "offset only", cfg: Config{Offset: 5}},
		{name: "limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "tail ignores offset", cfg: Config{Tail: 10, Offset: 5}},
		{name: "limit and tail", cfg: Config{Limit: 10, Tail: 5}, wantErr: "mutually exclusive"},
		{name: "negative limit", cfg: Config{Limit: -1}, wantErr: "--limit"},
		{name: "negative offset", cfg: Config{Offset: -1}, wantErr: "--offset"},
		{name: "negative tail", cfg: Config{Tail: -1}, wantErr: "--tail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApply(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		name string
		cfg  Config
		want []int
	}{
		{name: "inactive", cfg: Config{}, want: items},
		{name: "limit", cfg: Config{Limit: 3}, want: []int{0, 1, 2}},
		{name: "offset", cfg: Config{Offset: 8}, want: []int{8, 9}},
		{name: "offset and limit", cfg: Config{Offset: 2, Limit: 3}, want: []int{2, 3, 4}},
		{name: "limit past end", cfg: Config{Offset: 8, Limit: 5}, want: []int{8, 9}},
		{name: "offset past end", cfg: Config{Offset: 20}, want: []int{}},
		{name: "tail", cfg: Config{Tail: 2}, want: []int{8, 9}},
		{name: "tail larger than list", cfg: Config{Tail: 20}, want: items},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(tt.cfg, items))
		})
	}
}

func TestApplyValueKeepsOrder(t *testing.T) {
	v, err := jsonvalue.Parse([]byte(`{"z":1,"a":2,"m":3}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"m":3}`, Config{Offset: 1}.ApplyValue(v).String())

	arr, err := jsonvalue.Parse([]byte(`[1,2,3]`))
	require.NoError(t, err)
	assert.Equal(t, `[3]`, Config{Tail: 1}.ApplyValue(arr).String())

	s := jsonvalue.NewString("x")
	assert.True(t, s.Equal(Config{Limit: 1}.ApplyValue(s)))
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name       string
		cfg        Config
		n          int
		start, end int
	}{
		{name: "tail wins over offset", cfg: Config{Tail: 2, Offset: 1}, n: 5, start: 3, end: 5},
		{name: "offset past end", cfg: Config{Offset: 9}, n: 3, start: 3, end: 3},
		{name: "limit clipped", cfg: Config{Offset: 1, Limit: 10}, n: 4, start: 1, end: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.cfg.Bounds(tt.n)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}
