package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatter(t *testing.T) {
	doc := []byte("---\ntitle: First Post\ndate: 2026-01-02\ntags: [go, sqlite]\ntemplate: article\n---\nBody starts here.\n")

	fm, offset, err := ParseFrontMatter("post.md", doc)
	require.NoError(t, err)
	assert.Equal(t, "First Post", fm.Title)
	assert.Equal(t, "2026-01-02", fm.Date)
	assert.Equal(t, []string{"go", "sqlite"}, fm.Tags)
	assert.Equal(t, "article", fm.Template)
	assert.False(t, fm.Draft)
	assert.Equal(t, "Body starts here.\n", string(doc[offset:]))
}

func TestParseFrontMatterLeadingBlankLines(t *testing.T) {
	doc := []byte("\n\n---\ntitle: x\ndate: y\n---\nbody")

	fm, offset, err := ParseFrontMatter("post.md", doc)
	require.NoError(t, err)
	assert.Equal(t, "x", fm.Title)
	assert.Equal(t, "body", string(doc[offset:]))
}

func TestParseFrontMatterDraft(t *testing.T) {
	doc := []byte("---\ntitle: wip\ndate: y\ndraft: true\n---\n")
	fm, _, err := ParseFrontMatter("post.md", doc)
	require.NoError(t, err)
	assert.True(t, fm.Draft)
}

func TestParseFrontMatterErrors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, _, err := ParseFrontMatter("post.md", nil)
		assert.ErrorIs(t, err, ErrFrontMatterEOF)
	})

	t.Run("missing fence", func(t *testing.T) {
		_, _, err := ParseFrontMatter("post.md", []byte("just a body\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fence not found")
	})

	t.Run("unterminated fence", func(t *testing.T) {
		_, _, err := ParseFrontMatter("post.md", []byte("---\ntitle: x\ndate: y\n"))
		assert.ErrorIs(t, err, ErrFrontMatterEOF)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, _, err := ParseFrontMatter("post.md", []byte("---\ntitle: [unclosed\n---\n"))
		assert.Error(t, err)
	})

	t.Run("missing title", func(t *testing.T) {
		_, _, err := ParseFrontMatter("post.md", []byte("---\ndate: y\n---\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing title")
	})

	t.Run("missing date", func(t *testing.T) {
		_, _, err := ParseFrontMatter("post.md", []byte("---\ntitle: x\n---\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing date")
	})
}
