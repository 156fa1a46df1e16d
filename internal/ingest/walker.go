package ingest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/inkpress/vellum/internal/contents"
	"github.com/inkpress/vellum/internal/store"
)

// ignoreFile holds ignore rules at the content root, gitignore syntax.
const ignoreFile = ".gitignore"

// Walker enumerates regular files under root/prefix pairs of a content
// filesystem, hashing and classifying them across a worker pool. Paths
// within the filesystem double as logical paths.
type Walker struct {
	FS      billy.Filesystem
	Cache   *store.Cache
	Workers int
}

// Walk scans the given prefixes, emitting one event per regular file onto
// sink with the given op. Dot-entries and paths matched by the root ignore
// file are skipped. Any per-file error (permission, disappearance) aborts
// the whole walk; there is no retry.
func (w *Walker) Walk(ctx context.Context, prefixes []string, op Op, sink chan<- Event) error {
	workers := w.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	matcher := w.loadIgnore()

	g, ctx := errgroup.WithContext(ctx)
	entries := make(chan Entry, workers*2)

	g.Go(func() error {
		defer close(entries)
		for _, prefix := range prefixes {
			if err := w.walkPrefix(ctx, prefix, matcher, entries); err != nil {
				return err
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for e := range entries {
				data, err := util.ReadFile(w.FS, e.DiskPath)
				if err != nil {
					return fmt.Errorf("read %s: %w", e.LogicalPath, err)
				}
				if err := emitItem(ctx, w.Cache, e, contents.Own(data), op, sink); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// loadIgnore compiles the root ignore file if present. A missing file means
// no rules.
func (w *Walker) loadIgnore() *ignore.GitIgnore {
	data, err := util.ReadFile(w.FS, ignoreFile)
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}

func (w *Walker) walkPrefix(ctx context.Context, prefix string, matcher *ignore.GitIgnore, entries chan<- Entry) error {
	// A prefix that does not exist contributes nothing; sites without a
	// templates or sass tree are fine.
	if _, err := w.FS.Lstat(prefix); os.IsNotExist(err) {
		return nil
	}

	return util.Walk(w.FS, prefix, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}
		logical := path.Clean(strings.ReplaceAll(p, string(os.PathSeparator), "/"))
		base := path.Base(logical)

		if info.IsDir() {
			if strings.HasPrefix(base, ".") && logical != prefix {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(logical) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || strings.HasPrefix(base, ".") {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(logical) {
			return nil
		}

		select {
		case entries <- Entry{DiskPath: p, LogicalPath: logical, Size: info.Size()}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
