package ingest

import "github.com/inkpress/vellum/internal/store"

// BuildStore is the persistence surface the builder consumes: it only needs
// to open cycle transactions.
type BuildStore interface {
	Begin() (BuildTx, error)
}

// BuildTx is one build cycle's transaction over the record store. Writes
// become visible together on Commit or not at all.
type BuildTx interface {
	MaxRevision() (int64, error)
	Membership(rev int64) ([]store.Membership, error)
	InsertContent(c *store.ContentRecord) error
	InsertPage(p *store.PageRecord) error
	InsertMembership(hash, path string, rev int64) error
	InsertRoute(r *store.Route) error
	InsertStylesheet(rev int64, name, data string) error
	PagesForRevision(rev int64) ([]store.PageRecord, error)
	StaticMembers(rev int64) ([]store.Membership, error)
	StyleSources(rev int64) ([]store.ContentRecord, error)
	Commit() error
	Rollback() error
}

// storeAdapter lifts *store.Store to BuildStore; Go does not convert the
// concrete Begin() (*store.Tx, error) to the interface form on its own.
type storeAdapter struct {
	s *store.Store
}

func (a storeAdapter) Begin() (BuildTx, error) {
	return a.s.Begin()
}

// NewBuildStore wraps the concrete store for the builder.
func NewBuildStore(s *store.Store) BuildStore {
	return storeAdapter{s: s}
}

// Interface compliance.
var _ BuildTx = (*store.Tx)(nil)
