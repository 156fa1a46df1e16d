package ingest

import (
	"path"
	"regexp"
	"strings"

	"github.com/inkpress/vellum/internal/store"
)

// staticPrefix is stripped from asset paths when deriving their routes.
const staticPrefix = "static/"

var finalExtRe = regexp.MustCompile(`[.][^.]+$`)

// RoutePath maps a page's logical path to its servable route: strip the
// content-root prefix, the index-file suffix, the final extension, and any
// leading slash. Pure string transform.
//
//	content/post.md       → post
//	content/sub/index.md  → sub
func RoutePath(logicalPath string) string {
	p := strings.TrimPrefix(logicalPath, "content")
	p = strings.TrimSuffix(p, "/index.md")
	p = finalExtRe.ReplaceAllString(p, "")
	return strings.TrimPrefix(p, "/")
}

// ParentRoutePath returns the directory component of a route path, or nil
// for the root route.
func ParentRoutePath(routePath string) *string {
	if routePath == "" {
		return nil
	}
	parent := path.Dir(routePath)
	if parent == "." {
		parent = ""
	}
	return &parent
}

// deriveStaticRoutes creates one static-asset route per non-page member of
// the revision. Idempotent over the same membership.
func deriveStaticRoutes(tx BuildTx, rev int64) error {
	members, err := tx.StaticMembers(rev)
	if err != nil {
		return err
	}
	for _, m := range members {
		route := &store.Route{
			Revision:  rev,
			RoutePath: strings.TrimPrefix(m.Path, staticPrefix),
			Kind:      store.RouteStaticAsset,
			Hash:      m.Hash,
			Path:      m.Path,
		}
		if err := tx.InsertRoute(route); err != nil {
			return err
		}
	}
	return nil
}

// derivePageRoutes creates one page route per page member of the revision,
// at the route path precomputed when the page was ingested.
func derivePageRoutes(tx BuildTx, rev int64) error {
	pages, err := tx.PagesForRevision(rev)
	if err != nil {
		return err
	}
	for i := range pages {
		p := &pages[i]
		route := &store.Route{
			Revision:        rev,
			RoutePath:       p.RoutePath,
			ParentRoutePath: ParentRoutePath(p.RoutePath),
			Kind:            store.RoutePage,
			Hash:            p.Hash,
			Path:            p.Path,
			Template:        p.Template,
		}
		if err := tx.InsertRoute(route); err != nil {
			return err
		}
	}
	return nil
}
