// Package ingest turns filesystem observations into committed revisions:
// walking and watching a content tree, content-addressing every file,
// batching change bursts into build cycles, and folding each cycle into an
// atomically visible revision in the store.
package ingest

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/inkpress/vellum/internal/contents"
	"github.com/inkpress/vellum/internal/store"
)

// DefaultPrefixes are the root/prefix pairs walked under the content dir.
var DefaultPrefixes = []string{"content", "static", "sass", "templates"}

// Entry is one regular file found by the walker or watcher, before hashing.
type Entry struct {
	DiskPath    string
	LogicalPath string
	Size        int64
}

// inlineExts are the textual source extensions stored inline in the store.
// Everything else is cached once on disk under its hash.
var inlineExts = map[string]bool{
	".md":     true,
	".scss":   true,
	".json":   true,
	".liquid": true,
}

// Inline reports whether content at the given path is stored inline.
func Inline(logicalPath string) bool {
	return inlineExts[path.Ext(logicalPath)]
}

// Fingerprint hashes bytes to a fixed-width hex digest. Deterministic and
// fast; not cryptographic.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Item is a fully ingested entry: hashed, classified, payload attached.
type Item struct {
	Inline   bool
	Path     string
	DiskPath string
	Hash     string
	Size     int64
	Contents *contents.Contents
}

// Op discriminates ingestion events.
type Op int

const (
	OpAdd Op = iota
	OpUpdate
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one observed change fed into the pipeline. Add and Update carry
// an Item; Remove carries only the lexically-normalized logical path, since
// the file may no longer exist.
type Event struct {
	Op   Op
	Item *Item
	Path string
}

// emitItem hashes and classifies one loaded entry, writes non-inline bytes
// to the cache, and sends the resulting event. Non-inline items travel
// without their payload; the cache file is their canonical copy.
func emitItem(ctx context.Context, cache *store.Cache, e Entry, c *contents.Contents, op Op, sink chan<- Event) error {
	hash := Fingerprint(c.Bytes())
	inline := Inline(e.LogicalPath)

	if !inline {
		if err := cache.Put(hash, c.Bytes()); err != nil {
			_ = c.Release()
			return err
		}
		if err := c.Release(); err != nil {
			return err
		}
		c = contents.None()
	}

	ev := Event{Op: op, Path: e.LogicalPath, Item: &Item{
		Inline:   inline,
		Path:     e.LogicalPath,
		DiskPath: e.DiskPath,
		Hash:     hash,
		Size:     e.Size,
		Contents: c,
	}}
	select {
	case sink <- ev:
		return nil
	case <-ctx.Done():
		_ = c.Release()
		return ctx.Err()
	}
}

// normalizeLogical cleans a slash-separated logical path lexically, with no
// filesystem access. Removal events rely on this since their paths may be gone.
func normalizeLogical(p string) string {
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}
