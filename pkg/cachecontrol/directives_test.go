package cachecontrol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	d := Parse("")
	require.Equal(t, 0, d.Len())
	require.False(t, d.NoCache())
	require.False(t, d.NoStore())
	_, ok := d.MaxAge()
	require.False(t, ok)
	require.Equal(t, "", d.String())
}

func TestParse_MaxAge(t *testing.T) {
	d := Parse("max-age=300")
	seconds, ok := d.MaxAge()
	require.True(t, ok)
	require.Equal(t, 300, seconds)
}

func TestParse_CaseInsensitiveNames(t *testing.T) {
	d := Parse("No-Cache, MAX-AGE=10")
	require.True(t, d.NoCache())
	require.True(t, d.Has("max-age"))
	require.Equal(t, []string{"no-cache", "max-age"}, d.Names())
}

func TestParse_LastDuplicateWins(t *testing.T) {
	d := Parse("max-age=10, private, max-age=20")
	seconds, ok := d.MaxAge()
	require.True(t, ok)
	require.Equal(t, 20, seconds)
	require.Equal(t, "max-age=20, private", d.String())
}

func TestParse_ValuelessAndMalformedTokens(t *testing.T) {
	d := Parse("no-store, ,=oops, weird token, max-age=abc")
	require.True(t, d.NoStore())
	require.True(t, d.Has("weird token"))

	_, hasValue := d.Get("no-store")
	require.False(t, hasValue)

	_, ok := d.MaxAge()
	require.False(t, ok, "non-numeric max-age is treated as absent")
}

func TestParse_SplitsOnFirstEquals(t *testing.T) {
	d := Parse(`ext="a=b"`)
	v, ok := d.Get("ext")
	require.True(t, ok)
	require.Equal(t, `"a=b"`, v)
}

func TestMaxAge_QuotedAndNegative(t *testing.T) {
	seconds, ok := Parse(`max-age="15"`).MaxAge()
	require.True(t, ok)
	require.Equal(t, 15, seconds)

	_, ok = Parse("max-age=-1").MaxAge()
	require.False(t, ok)
}

func TestSetDefault(t *testing.T) {
	d := Parse("max-age=10")
	d.SetDefault("max-age", "60")
	seconds, _ := d.MaxAge()
	require.Equal(t, 10, seconds)

	var empty Directives
	empty.SetDefault("max-age", "60")
	require.Equal(t, "max-age=60", empty.String())
}

func TestString_ExcludesRequestOnly(t *testing.T) {
	d := Parse("max-stale=5, min-fresh=1, only-if-cached, no-cache, max-age=10")
	require.Equal(t, "no-cache, max-age=10", d.String())
	require.True(t, d.Has(MaxStale), "request-only directives remain readable")
}

func TestDel(t *testing.T) {
	d := Parse("a, b=1, c")
	d.Del("B")
	require.Equal(t, "a, c", d.String())
	d.Del("missing")
	require.Equal(t, 2, d.Len())
}

func TestIsRequestOnly(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"max-stale", true},
		{"Min-Fresh", true},
		{"only-if-cached", true},
		{"max-age", false},
		{"no-cache", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsRequestOnly(tt.name))
		})
	}
}
