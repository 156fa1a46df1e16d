// Package store is the persistence layer: an embedded SQLite database
// holding content records, pages, revision membership, derived routes, and
// compiled stylesheets, plus a hash-keyed on-disk cache for binary assets.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/inkpress/vellum/internal/notify"
	"modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

// maxConns bounds the shared connection pool. The walker, concurrent build
// cycles, and the serving layer all draw from it; each build holds one
// connection for its transaction's duration.
const maxConns = 8

var (
	regexpOnce  sync.Once
	regexpCache sync.Map // pattern string → *regexp.Regexp
)

// registerRegexp installs a deterministic regexp(pattern, text) scalar
// function so queries can pattern-match paths. Registration is process-wide
// in the driver, hence the sync.Once.
func registerRegexp() {
	regexpOnce.Do(func() {
		sqlite.MustRegisterDeterministicScalarFunction("regexp", 2,
			func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				pattern, err := argString(args[0])
				if err != nil {
					return nil, err
				}
				text, err := argString(args[1])
				if err != nil {
					return nil, err
				}
				re, err := compileCached(pattern)
				if err != nil {
					return nil, err
				}
				return re.MatchString(text), nil
			})
	})
}

func argString(v driver.Value) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("regexp: unsupported argument type %T", v)
	}
}

func compileCached(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexpCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp %q: %w", pattern, err)
	}
	regexpCache.Store(pattern, re)
	return re, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS content_files (
	hash TEXT NOT NULL,
	path TEXT NOT NULL,
	contents BLOB,
	size INTEGER NOT NULL,
	inline INTEGER NOT NULL,
	PRIMARY KEY (hash, path)
);
CREATE TABLE IF NOT EXISTS pages (
	hash TEXT NOT NULL,
	path TEXT NOT NULL,
	title TEXT NOT NULL,
	date TEXT NOT NULL,
	tags TEXT NOT NULL,
	content_offset INTEGER NOT NULL,
	template TEXT,
	route_path TEXT NOT NULL,
	draft INTEGER NOT NULL,
	PRIMARY KEY (hash, path),
	FOREIGN KEY (hash, path) REFERENCES content_files
);
CREATE TABLE IF NOT EXISTS page_tags (
	hash TEXT NOT NULL,
	path TEXT NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (hash, path, tag),
	FOREIGN KEY (hash, path) REFERENCES content_files
);
CREATE TABLE IF NOT EXISTS revision_files (
	hash TEXT NOT NULL,
	path TEXT NOT NULL,
	revision INTEGER NOT NULL,
	PRIMARY KEY (hash, path, revision),
	FOREIGN KEY (hash, path) REFERENCES content_files
);
CREATE TABLE IF NOT EXISTS revision_routes (
	revision INTEGER NOT NULL,
	route_path TEXT NOT NULL,
	parent_route_path TEXT,
	kind INTEGER NOT NULL,
	hash TEXT NOT NULL,
	path TEXT NOT NULL,
	template TEXT,
	UNIQUE (revision, route_path)
);
CREATE TABLE IF NOT EXISTS revision_stylesheets (
	revision INTEGER NOT NULL,
	name TEXT NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (revision, name)
);
`

// Store owns the database handle. Its pool is shared by the walker,
// build cycles, and the serving layer.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path, switches it to WAL
// journaling, and applies the schema.
func Open(path string) (*Store, error) {
	registerRegexp()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(maxConns)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin starts a build transaction. One transaction spans a whole build
// cycle, so a revision's membership, routes, and stylesheet become visible
// atomically or not at all.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// LatestRevision returns the highest committed revision number, or -1 when
// no revision exists yet.
func (s *Store) LatestRevision() (int64, error) {
	return maxRevision(s.db)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

func maxRevision(q querier) (int64, error) {
	var rev sql.NullInt64
	if err := q.QueryRow("SELECT MAX(revision) FROM revision_files").Scan(&rev); err != nil {
		return -1, fmt.Errorf("max revision: %w", err)
	}
	if !rev.Valid {
		return -1, nil
	}
	return rev.Int64, nil
}

func membership(q querier, rev int64) ([]Membership, error) {
	rows, err := q.Query("SELECT hash, path FROM revision_files WHERE revision = ?", rev)
	if err != nil {
		return nil, fmt.Errorf("membership for revision %d: %w", rev, err)
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

// MembershipForRevision returns every (hash, path) member of the revision.
func (s *Store) MembershipForRevision(rev int64) ([]Membership, error) {
	return membership(s.db, rev)
}

// RouteForPath resolves a route within one revision.
func (s *Store) RouteForPath(rev int64, routePath string) (*Route, error) {
	r := Route{}
	err := s.db.QueryRow(`
		SELECT revision, route_path, parent_route_path, kind, hash, path, template
		FROM revision_routes WHERE revision = ? AND route_path = ?`, rev, routePath).
		Scan(&r.Revision, &r.RoutePath, &r.ParentRoutePath, &r.Kind, &r.Hash, &r.Path, &r.Template)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("route %q in revision %d: %w", routePath, rev, err)
	}
	return &r, nil
}

// ContentFor fetches a content record by its (hash, path) key.
func (s *Store) ContentFor(hash, path string) (*ContentRecord, error) {
	c := ContentRecord{}
	err := s.db.QueryRow(
		"SELECT hash, path, contents, size, inline FROM content_files WHERE hash = ? AND path = ?",
		hash, path).Scan(&c.Hash, &c.Path, &c.Contents, &c.Size, &c.Inline)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("content (%s, %s): %w", hash, path, err)
	}
	return &c, nil
}

// PageFor fetches a page record by its (hash, path) key.
func (s *Store) PageFor(hash, path string) (*PageRecord, error) {
	p, err := scanPage(s.db.QueryRow(
		"SELECT hash, path, title, date, tags, content_offset, template, route_path, draft FROM pages WHERE hash = ? AND path = ?",
		hash, path))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("page (%s, %s): %w", hash, path, err)
	}
	return p, nil
}

// StylesheetFor fetches a compiled stylesheet artifact.
func (s *Store) StylesheetFor(rev int64, name string) (*StylesheetArtifact, error) {
	a := StylesheetArtifact{}
	err := s.db.QueryRow(
		"SELECT revision, name, data FROM revision_stylesheets WHERE revision = ? AND name = ?",
		rev, name).Scan(&a.Revision, &a.Name, &a.Data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stylesheet %q in revision %d: %w", name, rev, err)
	}
	return &a, nil
}

// WatchCommits polls the latest revision and bumps the notifier whenever it
// advances. It is the change-detection path for deployments that run without
// a filesystem watcher, where revisions are committed by another process.
// Blocks until ctx is done.
func (s *Store) WatchCommits(ctx context.Context, interval time.Duration, n *notify.Notifier) error {
	last, err := s.LatestRevision()
	if err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rev, err := s.LatestRevision()
			if err != nil {
				return err
			}
			if rev != last {
				last = rev
				slog.Info("revision committed externally", "revision", rev)
				n.Bump()
			}
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*PageRecord, error) {
	p := PageRecord{}
	var tags string
	if err := row.Scan(&p.Hash, &p.Path, &p.Title, &p.Date, &tags,
		&p.ContentOffset, &p.Template, &p.RoutePath, &p.Draft); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", p.Path, err)
	}
	return &p, nil
}
