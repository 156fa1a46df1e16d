package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/inkpress/vellum/internal/contents"
	"github.com/inkpress/vellum/internal/store"
)

// WatchAdapter translates native filesystem notifications on the content
// root into ingestion events. fsnotify watches are per-directory, so the
// adapter registers the whole tree up front and registers new directories
// as they appear.
type WatchAdapter struct {
	root    string
	watcher *fsnotify.Watcher
	cache   *store.Cache
	walker  *Walker
	sink    chan<- Event
}

// NewWatchAdapter subscribes recursively to the content root. The walker is
// used to re-scan subtrees when directories appear or change wholesale.
func NewWatchAdapter(root string, cache *store.Cache, walker *Walker, sink chan<- Event) (*WatchAdapter, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	a := &WatchAdapter{root: abs, watcher: watcher, cache: cache, walker: walker, sink: sink}
	if err := a.watchTree(abs); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return a, nil
}

// watchTree registers dir and every directory beneath it.
func (a *WatchAdapter) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			return filepath.SkipDir
		}
		if err := a.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Close releases the native subscription.
func (a *WatchAdapter) Close() error {
	return a.watcher.Close()
}

// Run translates notifications until ctx is done or the watcher fails.
func (a *WatchAdapter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return nil
			}
			if err := a.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (a *WatchAdapter) handle(ctx context.Context, ev fsnotify.Event) error {
	logical, err := a.logicalPath(ev.Name)
	if err != nil || logical == "." || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return nil
	}

	// Removal first: the path no longer exists, so it is keyed purely by
	// its normalized logical path. Removing a directory this way implicitly
	// removes every path underneath it.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		slog.Debug("watch remove", "path", logical)
		a.send(ctx, Event{Op: OpRemove, Path: logical})
		return nil
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		// Gone between the notification and the stat; the removal event
		// that follows will clean up.
		return nil
	}

	switch {
	case info.IsDir():
		if ev.Has(fsnotify.Create) {
			if err := a.watchTree(ev.Name); err != nil {
				return err
			}
		}
		// New or changed directory: re-walk the subtree, each file as an
		// update so unchanged content degrades to a touch.
		return a.walker.Walk(ctx, []string{logical}, OpUpdate, a.sink)
	case info.Mode().IsRegular():
		op := OpUpdate
		if ev.Has(fsnotify.Create) {
			op = OpAdd
		}
		return a.emitFile(ctx, ev.Name, logical, info.Size(), op)
	default:
		return nil
	}
}

// emitFile ingests a single file, memory-mapping its payload.
func (a *WatchAdapter) emitFile(ctx context.Context, diskPath, logical string, size int64, op Op) error {
	c, err := contents.Map(diskPath)
	if err != nil {
		return err
	}
	entry := Entry{DiskPath: diskPath, LogicalPath: logical, Size: size}
	return emitItem(ctx, a.cache, entry, c, op, a.sink)
}

func (a *WatchAdapter) logicalPath(name string) (string, error) {
	rel, err := filepath.Rel(a.root, name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s outside content root", name)
	}
	return normalizeLogical(filepath.ToSlash(rel)), nil
}

func (a *WatchAdapter) send(ctx context.Context, ev Event) {
	select {
	case a.sink <- ev:
	case <-ctx.Done():
	}
}
