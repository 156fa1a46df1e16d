package store

// ContentRecord is an immutable observation of content at a path. Keyed by
// (hash, path); re-inserting the same key is a no-op. Inline records carry
// their bytes, everything else lives in the hash-keyed cache.
type ContentRecord struct {
	Hash     string
	Path     string
	Contents []byte
	Size     int64
	Inline   bool
}

// PageRecord is metadata for a recognized page document, 1:1 with its
// ContentRecord. Tags are stored both as a JSON column and as one row per
// tag in page_tags.
type PageRecord struct {
	Hash          string
	Path          string
	Title         string
	Date          string
	Tags          []string
	ContentOffset int
	Template      *string
	RoutePath     string
	Draft         bool
}

// Membership ties a (hash, path) pair to a revision. A revision is exactly
// its set of membership rows.
type Membership struct {
	Hash     string
	Path     string
	Revision int64
}

// RouteKind discriminates servable route rows.
type RouteKind int

const (
	RouteUnknown      RouteKind = 0
	RouteStaticAsset  RouteKind = 1
	RoutePage         RouteKind = 3
	RouteStylesheet   RouteKind = 4
	RoutePageRedirect RouteKind = 5
)

// Route is a derived, persisted mapping from a request path to revisioned
// content. Unique on (revision, route_path): two members colliding on one
// route within a revision is a build error, not a silent overwrite.
type Route struct {
	Revision        int64
	RoutePath       string
	ParentRoutePath *string
	Kind            RouteKind
	Hash            string
	Path            string
	Template        *string
}

// StylesheetArtifact is one compiled aggregate per revision, keyed by
// (revision, name).
type StylesheetArtifact struct {
	Revision int64
	Name     string
	Data     string
}
