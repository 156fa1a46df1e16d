package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutePath(t *testing.T) {
	cases := []struct {
		logical string
		want    string
	}{
		{"content/post.md", "post"},
		{"content/sub/post.md", "sub/post"},
		{"content/index.md", ""},
		{"content/sub/index.md", "sub"},
		{"content/sub/deep/index.md", "sub/deep"},
		{"content/archive.2024.md", "archive.2024"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RoutePath(c.logical), "logical path %q", c.logical)
	}
}

func TestParentRoutePath(t *testing.T) {
	assert.Nil(t, ParentRoutePath(""))

	p := ParentRoutePath("post")
	require.NotNil(t, p)
	assert.Equal(t, "", *p)

	p = ParentRoutePath("sub/deep/post")
	require.NotNil(t, p)
	assert.Equal(t, "sub/deep", *p)
}
