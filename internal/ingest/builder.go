package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkpress/vellum/internal/notify"
	"github.com/inkpress/vellum/internal/store"
)

// ErrNoChanges reports that a batch had an empty net effect: the cycle was
// cancelled without committing. Not an error condition for callers.
var ErrNoChanges = errors.New("batch produced no changes")

// Builder folds sealed batches into revisions. One Builder instance is the
// serialization point: Run consumes batches sequentially, so two cycles can
// never race for the same revision number.
type Builder struct {
	Store    BuildStore
	WorkDir  string
	Notifier *notify.Notifier
}

// Run drains the builds channel, committing one revision per batch with a
// non-empty net effect. A failed cycle terminates the loop; a cancelled one
// (empty net effect) is logged and skipped. Returns nil once the channel
// closes.
func (b *Builder) Run(builds <-chan []Event) error {
	for batch := range builds {
		rev, err := b.Build(batch)
		switch {
		case errors.Is(err, ErrNoChanges):
			slog.Info("build cancelled", "reason", "empty revision set")
		case err != nil:
			return fmt.Errorf("build cycle: %w", err)
		default:
			_ = rev
		}
	}
	return nil
}

// Build runs one cycle: assign the next revision number, apply the batch's
// events in arrival order, materialize membership, derive routes, compile
// stylesheets, and commit — all within one store transaction. A failure
// anywhere aborts the cycle; the revision number is not considered advanced,
// since the next cycle recomputes it from the store's true maximum.
func (b *Builder) Build(batch []Event) (int64, error) {
	start := time.Now()

	tx, err := b.Store.Begin()
	if err != nil {
		return -1, err
	}
	defer func() { _ = tx.Rollback() }()

	last, err := tx.MaxRevision()
	if err != nil {
		return -1, err
	}
	this := last + 1
	slog.Info("processing revision", "revision", this, "events", len(batch))

	set := NewRevisionSet()
	if last >= 0 {
		members, err := tx.Membership(last)
		if err != nil {
			return -1, err
		}
		for _, m := range members {
			set.Add(m.Hash, m.Path)
		}
	}

	for _, ev := range batch {
		if err := applyEvent(tx, set, ev); err != nil {
			return -1, err
		}
	}

	if set.Empty() {
		return -1, ErrNoChanges
	}

	if err := set.Each(func(hash, path string) error {
		return tx.InsertMembership(hash, path, this)
	}); err != nil {
		return -1, err
	}

	if err := deriveStaticRoutes(tx, this); err != nil {
		return -1, err
	}
	if err := derivePageRoutes(tx, this); err != nil {
		return -1, err
	}
	if err := compileStylesheets(tx, b.WorkDir, this); err != nil {
		return -1, err
	}

	if err := tx.Commit(); err != nil {
		return -1, err
	}

	if b.Notifier != nil {
		b.Notifier.Bump()
	}
	slog.Info("revision committed", "revision", this, "members", set.Len(), "elapsed", time.Since(start))
	return this, nil
}

// applyEvent folds one event into the revision set and the store.
//
//   - Add: a member already present is left alone; otherwise the content
//     (and page, for page documents) records are persisted and the set grows.
//   - Update: an identical (hash, path) member is an unchanged touch and is
//     skipped entirely; otherwise any prior membership at that path is
//     dropped and the item is processed as an add.
//   - Remove: drops every membership under the path prefix, which makes
//     directory removal implicit.
func applyEvent(tx BuildTx, set *RevisionSet, ev Event) error {
	switch ev.Op {
	case OpAdd:
		if set.Exists(ev.Item.Hash, ev.Item.Path) {
			return release(ev.Item)
		}
		return insertItem(tx, set, ev.Item)
	case OpUpdate:
		if set.Exists(ev.Item.Hash, ev.Item.Path) {
			return release(ev.Item)
		}
		set.RemoveByPathPrefix(ev.Item.Path)
		return insertItem(tx, set, ev.Item)
	case OpRemove:
		set.RemoveByPathPrefix(normalizeLogical(ev.Path))
		return nil
	default:
		return fmt.Errorf("unknown event op %d", ev.Op)
	}
}

// insertItem persists an item's content record, recognizes page documents,
// and adds the member to the set. The payload is released afterwards.
func insertItem(tx BuildTx, set *RevisionSet, item *Item) error {
	set.Add(item.Hash, item.Path)

	var inlineBytes []byte
	if item.Inline {
		inlineBytes = item.Contents.Bytes()
	}
	if err := tx.InsertContent(&store.ContentRecord{
		Hash:     item.Hash,
		Path:     item.Path,
		Contents: inlineBytes,
		Size:     item.Size,
		Inline:   item.Inline,
	}); err != nil {
		_ = release(item)
		return err
	}

	if strings.HasSuffix(item.Path, ".md") {
		fm, offset, err := ParseFrontMatter(item.Path, item.Contents.Bytes())
		if err != nil {
			_ = release(item)
			return err
		}
		var template *string
		if fm.Template != "" {
			template = &fm.Template
		}
		if err := tx.InsertPage(&store.PageRecord{
			Hash:          item.Hash,
			Path:          item.Path,
			Title:         fm.Title,
			Date:          fm.Date,
			Tags:          fm.Tags,
			ContentOffset: offset,
			Template:      template,
			RoutePath:     RoutePath(item.Path),
			Draft:         fm.Draft,
		}); err != nil {
			_ = release(item)
			return err
		}
	}

	return release(item)
}

func release(item *Item) error {
	if item == nil || item.Contents == nil {
		return nil
	}
	return item.Contents.Release()
}
