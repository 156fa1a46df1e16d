package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Tx is one build cycle's transaction. All writes a cycle performs go
// through it and become visible together on Commit.
type Tx struct {
	tx   *sql.Tx
	done bool
}

// Commit commits the cycle.
func (t *Tx) Commit() error {
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the cycle. Calling it after Commit is a no-op.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

// MaxRevision returns the highest revision visible to this transaction,
// or -1 when no revision exists.
func (t *Tx) MaxRevision() (int64, error) {
	return maxRevision(t.tx)
}

// Membership returns every (hash, path) member of the given revision.
func (t *Tx) Membership(rev int64) ([]Membership, error) {
	return membership(t.tx, rev)
}

// InsertContent records an observation of content at a path. Re-inserting
// an existing (hash, path) is a no-op: records are immutable and never
// deleted, since earlier revisions keep referencing them.
func (t *Tx) InsertContent(c *ContentRecord) error {
	_, err := t.tx.Exec(
		"INSERT OR IGNORE INTO content_files (hash, path, contents, size, inline) VALUES (?, ?, ?, ?, ?)",
		c.Hash, c.Path, c.Contents, c.Size, c.Inline)
	if err != nil {
		return fmt.Errorf("insert content (%s, %s): %w", c.Hash, c.Path, err)
	}
	return nil
}

// InsertPage records page metadata plus one page_tags row per tag.
func (t *Tx) InsertPage(p *PageRecord) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("encode tags for %s: %w", p.Path, err)
	}
	_, err = t.tx.Exec(`
		INSERT OR IGNORE INTO pages
		(hash, path, title, date, tags, content_offset, template, route_path, draft)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Hash, p.Path, p.Title, p.Date, string(encoded),
		p.ContentOffset, p.Template, p.RoutePath, p.Draft)
	if err != nil {
		return fmt.Errorf("insert page %s: %w", p.Path, err)
	}
	for _, tag := range p.Tags {
		if _, err := t.tx.Exec(
			"INSERT OR IGNORE INTO page_tags (hash, path, tag) VALUES (?, ?, ?)",
			p.Hash, p.Path, tag); err != nil {
			return fmt.Errorf("insert tag %q for %s: %w", tag, p.Path, err)
		}
	}
	return nil
}

// InsertMembership tags a (hash, path) pair as a member of a revision.
// Write-once; duplicates are ignored.
func (t *Tx) InsertMembership(hash, path string, rev int64) error {
	_, err := t.tx.Exec(
		"INSERT OR IGNORE INTO revision_files (hash, path, revision) VALUES (?, ?, ?)",
		hash, path, rev)
	if err != nil {
		return fmt.Errorf("insert membership (%s, %s, %d): %w", hash, path, rev, err)
	}
	return nil
}

// InsertRoute persists a derived route. The (revision, route_path) unique
// constraint turns colliding members into a build-time error.
func (t *Tx) InsertRoute(r *Route) error {
	_, err := t.tx.Exec(`
		INSERT INTO revision_routes
		(revision, route_path, parent_route_path, kind, hash, path, template)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Revision, r.RoutePath, r.ParentRoutePath, int(r.Kind), r.Hash, r.Path, r.Template)
	if err != nil {
		return fmt.Errorf("insert route %q (revision %d): %w", r.RoutePath, r.Revision, err)
	}
	return nil
}

// InsertStylesheet persists one compiled aggregate for a revision.
func (t *Tx) InsertStylesheet(rev int64, name, data string) error {
	_, err := t.tx.Exec(
		"INSERT OR IGNORE INTO revision_stylesheets (revision, name, data) VALUES (?, ?, ?)",
		rev, name, data)
	if err != nil {
		return fmt.Errorf("insert stylesheet %q (revision %d): %w", name, rev, err)
	}
	return nil
}

// PagesForRevision returns every page whose content record is a member of
// the revision.
func (t *Tx) PagesForRevision(rev int64) ([]PageRecord, error) {
	rows, err := t.tx.Query(`
		SELECT pages.hash, pages.path, pages.title, pages.date, pages.tags,
		       pages.content_offset, pages.template, pages.route_path, pages.draft
		FROM pages
		INNER JOIN revision_files
		ON revision_files.hash = pages.hash AND revision_files.path = pages.path
		WHERE revision_files.revision = ?`, rev)
	if err != nil {
		return nil, fmt.Errorf("pages for revision %d: %w", rev, err)
	}
	defer func() { _ = rows.Close() }()

	var out []PageRecord
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// StaticMembers returns the non-page members of a revision, i.e. everything
// that becomes a static-asset route.
func (t *Tx) StaticMembers(rev int64) ([]Membership, error) {
	rows, err := t.tx.Query(`
		SELECT content_files.hash, content_files.path
		FROM content_files
		INNER JOIN revision_files
		ON revision_files.hash = content_files.hash AND revision_files.path = content_files.path
		WHERE content_files.path NOT REGEXP '[.]md$'
		AND revision_files.revision = ?`, rev)
	if err != nil {
		return nil, fmt.Errorf("static members for revision %d: %w", rev, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Membership
	for rows.Next() {
		m := Membership{Revision: rev}
		if err := rows.Scan(&m.Hash, &m.Path); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// StyleSources returns the inline style-source members of a revision, with
// their contents, for stylesheet compilation.
func (t *Tx) StyleSources(rev int64) ([]ContentRecord, error) {
	rows, err := t.tx.Query(`
		SELECT content_files.hash, content_files.path, content_files.contents,
		       content_files.size, content_files.inline
		FROM content_files
		INNER JOIN revision_files
		ON revision_files.hash = content_files.hash AND revision_files.path = content_files.path
		WHERE content_files.path REGEXP '^sass/.+[.]scss$'
		AND revision_files.revision = ?`, rev)
	if err != nil {
		return nil, fmt.Errorf("style sources for revision %d: %w", rev, err)
	}
	defer func() { _ = rows.Close() }()

	var out []ContentRecord
	for rows.Next() {
		c := ContentRecord{}
		if err := rows.Scan(&c.Hash, &c.Path, &c.Contents, &c.Size, &c.Inline); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
