// Package api is the read surface the serving layer consumes: route-path
// lookups against committed revisions, resolved down to servable bytes or a
// cache file on disk. It never writes; revisions are produced by the
// ingestion pipeline.
package api

import (
	"fmt"

	"github.com/inkpress/vellum/internal/store"
)

// Resolver answers route lookups against the newest committed revision, or
// any explicit one.
type Resolver struct {
	Store *store.Store
	Cache *store.Cache
}

// Resolved is a fully dereferenced route. Exactly one content source is set:
// Body for inline content and compiled stylesheets, DiskPath for cached
// binary assets. Page routes additionally carry their PageRecord; the page
// body starts at Page.ContentOffset within Body.
type Resolved struct {
	Revision int64
	Route    *store.Route
	Page     *store.PageRecord
	Body     []byte
	DiskPath string
}

// Resolve looks up routePath in the newest committed revision.
// Returns store.ErrNotFound when no revision exists or the route is absent.
func (r *Resolver) Resolve(routePath string) (*Resolved, error) {
	rev, err := r.Store.LatestRevision()
	if err != nil {
		return nil, err
	}
	if rev < 0 {
		return nil, store.ErrNotFound
	}
	return r.ResolveAt(rev, routePath)
}

// ResolveAt looks up routePath in one specific revision.
func (r *Resolver) ResolveAt(rev int64, routePath string) (*Resolved, error) {
	route, err := r.Store.RouteForPath(rev, routePath)
	if err != nil {
		return nil, err
	}
	out := &Resolved{Revision: rev, Route: route}

	switch route.Kind {
	case store.RoutePage:
		page, err := r.Store.PageFor(route.Hash, route.Path)
		if err != nil {
			return nil, err
		}
		content, err := r.Store.ContentFor(route.Hash, route.Path)
		if err != nil {
			return nil, err
		}
		out.Page = page
		out.Body = content.Contents
		return out, nil

	case store.RouteStaticAsset:
		content, err := r.Store.ContentFor(route.Hash, route.Path)
		if err != nil {
			return nil, err
		}
		if content.Inline {
			out.Body = content.Contents
			return out, nil
		}
		out.DiskPath = r.Cache.PathFor(route.Hash)
		return out, nil

	case store.RouteStylesheet:
		sheet, err := r.Store.StylesheetFor(rev, route.Path)
		if err != nil {
			return nil, err
		}
		out.Body = []byte(sheet.Data)
		return out, nil

	default:
		return nil, fmt.Errorf("route %q: unservable kind %d", routePath, route.Kind)
	}
}
