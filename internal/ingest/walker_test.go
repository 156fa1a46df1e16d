package ingest

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/vellum/internal/store"
)

func testWalker(t *testing.T, fs billy.Filesystem) *Walker {
	t.Helper()
	cache, err := store.NewCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return &Walker{FS: fs, Cache: cache, Workers: 4}
}

func writeMem(t *testing.T, fs billy.Filesystem, path, body string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(body), 0o644))
}

func collectWalk(t *testing.T, w *Walker, prefixes []string, op Op) []Event {
	t.Helper()
	sink := make(chan Event, 64)
	require.NoError(t, w.Walk(context.Background(), prefixes, op, sink))
	close(sink)

	var out []Event
	for ev := range sink {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func TestWalkEmitsAllRegularFiles(t *testing.T) {
	fs := memfs.New()
	writeMem(t, fs, "content/post.md", "---\ntitle: x\ndate: y\n---\n")
	writeMem(t, fs, "content/sub/other.md", "---\ntitle: x\ndate: y\n---\n")
	writeMem(t, fs, "static/app.js", "console.log(1)")
	writeMem(t, fs, "sass/style.scss", "body {}\n")

	w := testWalker(t, fs)
	events := collectWalk(t, w, DefaultPrefixes, OpUpdate)

	var paths []string
	for _, ev := range events {
		assert.Equal(t, OpUpdate, ev.Op)
		require.NotNil(t, ev.Item)
		assert.NotEmpty(t, ev.Item.Hash)
		paths = append(paths, ev.Path)
	}
	assert.Equal(t, []string{
		"content/post.md",
		"content/sub/other.md",
		"sass/style.scss",
		"static/app.js",
	}, paths)
}

func TestWalkCachesBinaries(t *testing.T) {
	fs := memfs.New()
	writeMem(t, fs, "static/app.js", "console.log(1)")

	w := testWalker(t, fs)
	events := collectWalk(t, w, []string{"static"}, OpAdd)

	require.Len(t, events, 1)
	item := events[0].Item
	assert.False(t, item.Inline)
	assert.True(t, w.Cache.Has(item.Hash))
	assert.Equal(t, 0, item.Contents.Len())
}

func TestWalkSkipsDotEntries(t *testing.T) {
	fs := memfs.New()
	writeMem(t, fs, "content/post.md", "---\ntitle: x\ndate: y\n---\n")
	writeMem(t, fs, "content/.hidden.md", "---\ntitle: x\ndate: y\n---\n")
	writeMem(t, fs, "content/.git/blob.md", "not a page")

	w := testWalker(t, fs)
	events := collectWalk(t, w, []string{"content"}, OpUpdate)

	require.Len(t, events, 1)
	assert.Equal(t, "content/post.md", events[0].Path)
}

func TestWalkHonorsIgnoreFile(t *testing.T) {
	fs := memfs.New()
	writeMem(t, fs, ".gitignore", "content/drafts/\n*.tmp\n")
	writeMem(t, fs, "content/post.md", "---\ntitle: x\ndate: y\n---\n")
	writeMem(t, fs, "content/drafts/wip.md", "---\ntitle: x\ndate: y\n---\n")
	writeMem(t, fs, "content/scratch.tmp", "junk")

	w := testWalker(t, fs)
	events := collectWalk(t, w, []string{"content"}, OpUpdate)

	require.Len(t, events, 1)
	assert.Equal(t, "content/post.md", events[0].Path)
}

func TestWalkMissingPrefixIsEmpty(t *testing.T) {
	fs := memfs.New()
	writeMem(t, fs, "content/post.md", "---\ntitle: x\ndate: y\n---\n")

	w := testWalker(t, fs)
	events := collectWalk(t, w, DefaultPrefixes, OpUpdate)

	// Absent static, sass, and templates trees contribute nothing.
	require.Len(t, events, 1)
	assert.Equal(t, "content/post.md", events[0].Path)
}

func TestWalkCancelled(t *testing.T) {
	fs := memfs.New()
	for i := 0; i < 32; i++ {
		writeMem(t, fs, filepath.Join("static", string(rune('a'+i))+".bin"), "data")
	}

	w := testWalker(t, fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := make(chan Event) // unbuffered and never drained
	err := w.Walk(ctx, []string{"static"}, OpAdd, sink)
	assert.ErrorIs(t, err, context.Canceled)
}
