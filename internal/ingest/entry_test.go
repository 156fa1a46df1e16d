package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/vellum/internal/contents"
	"github.com/inkpress/vellum/internal/store"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint([]byte("hello world"))
	b := Fingerprint([]byte("hello world"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)

	c := Fingerprint([]byte("hello worlds"))
	assert.NotEqual(t, a, c)

	// Empty input still yields a fixed-width digest.
	assert.Len(t, Fingerprint(nil), 16)
}

func TestInlineClassification(t *testing.T) {
	assert.True(t, Inline("content/post.md"))
	assert.True(t, Inline("sass/style.scss"))
	assert.True(t, Inline("content/data.json"))
	assert.True(t, Inline("templates/page.liquid"))

	assert.False(t, Inline("static/app.js"))
	assert.False(t, Inline("static/photo.jpg"))
	assert.False(t, Inline("static/video.mp4"))
	assert.False(t, Inline("content/README"))
}

func TestNormalizeLogical(t *testing.T) {
	assert.Equal(t, "content/a.md", normalizeLogical("content/a.md"))
	assert.Equal(t, "content/a.md", normalizeLogical("content//a.md"))
	assert.Equal(t, "content/a.md", normalizeLogical("content/./a.md"))
	assert.Equal(t, "content/a.md", normalizeLogical("/content/a.md"))
	assert.Equal(t, "content/a.md", normalizeLogical(`content\a.md`))
}

func TestEmitItemInlineKeepsPayload(t *testing.T) {
	cache, err := store.NewCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	sink := make(chan Event, 1)
	body := []byte("---\ntitle: x\ndate: y\n---\nbody")
	e := Entry{DiskPath: "content/post.md", LogicalPath: "content/post.md", Size: int64(len(body))}
	require.NoError(t, emitItem(context.Background(), cache, e, contents.Own(body), OpAdd, sink))

	ev := <-sink
	assert.Equal(t, OpAdd, ev.Op)
	require.NotNil(t, ev.Item)
	assert.True(t, ev.Item.Inline)
	assert.Equal(t, body, ev.Item.Contents.Bytes())
	assert.Equal(t, Fingerprint(body), ev.Item.Hash)
	// Inline content never touches the cache.
	assert.False(t, cache.Has(ev.Item.Hash))
}

func TestEmitItemCachesBinaryAndDropsPayload(t *testing.T) {
	cache, err := store.NewCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	sink := make(chan Event, 1)
	body := []byte("console.log('hi')")
	e := Entry{DiskPath: "static/app.js", LogicalPath: "static/app.js", Size: int64(len(body))}
	require.NoError(t, emitItem(context.Background(), cache, e, contents.Own(body), OpUpdate, sink))

	ev := <-sink
	assert.False(t, ev.Item.Inline)
	assert.Equal(t, 0, ev.Item.Contents.Len())
	assert.True(t, cache.Has(ev.Item.Hash))
}
