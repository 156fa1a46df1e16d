package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFilter(t *testing.T) {
	out, err := DateFilter{}.Apply("2024-01-05")
	require.NoError(t, err)
	assert.Equal(t, "January 5, 2024", out)

	out, err = DateFilter{}.Apply("2024-01-05", "02 Jan 2006")
	require.NoError(t, err)
	assert.Equal(t, "05 Jan 2024", out)

	_, err = DateFilter{}.Apply("not a date")
	assert.Error(t, err)
}

func TestSlugFilter(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":      "hello-world",
		"  spaced   out  ":   "spaced-out",
		"Already-Slugged":    "already-slugged",
		"Ünïcode Tïtle":      "ünïcode-tïtle",
		"trailing symbols!!": "trailing-symbols",
	}
	for in, want := range cases {
		out, err := SlugFilter{}.Apply(in)
		require.NoError(t, err)
		assert.Equal(t, want, out, "input %q", in)
	}
}

func TestStockRegistry(t *testing.T) {
	r := Stock()
	names := []string{}
	for _, f := range r.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"date", "slug"}, names)
}
