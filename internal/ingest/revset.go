package ingest

// member keys the revision set by (hash, path).
type member struct {
	hash string
	path string
}

// RevisionSet is the in-memory (hash, path) index for one build cycle.
// Seeded from the prior revision's membership, mutated by the batch's edits,
// then persisted as the new revision. Build-scoped, so no locking.
type RevisionSet struct {
	members map[member]struct{}
}

// NewRevisionSet returns an empty set.
func NewRevisionSet() *RevisionSet {
	return &RevisionSet{members: make(map[member]struct{})}
}

// Exists reports whether (hash, path) is a member. Used to tell a real
// content change from a no-op touch.
func (s *RevisionSet) Exists(hash, path string) bool {
	_, ok := s.members[member{hash, path}]
	return ok
}

// Add inserts (hash, path). Reports whether it was newly added.
func (s *RevisionSet) Add(hash, path string) bool {
	m := member{hash, path}
	if _, ok := s.members[m]; ok {
		return false
	}
	s.members[m] = struct{}{}
	return true
}

// RemoveByPathPrefix drops every member whose path equals prefix or lives
// under it as a directory. Removing "content/sub" drops "content/sub/a.md"
// but not "content/subway.md".
func (s *RevisionSet) RemoveByPathPrefix(prefix string) {
	for m := range s.members {
		if m.path == prefix || pathHasDirPrefix(m.path, prefix) {
			delete(s.members, m)
		}
	}
}

func pathHasDirPrefix(p, prefix string) bool {
	return len(p) > len(prefix) && p[:len(prefix)] == prefix && p[len(prefix)] == '/'
}

// Empty reports whether the set has no members.
func (s *RevisionSet) Empty() bool {
	return len(s.members) == 0
}

// Len returns the member count.
func (s *RevisionSet) Len() int {
	return len(s.members)
}

// Each calls f for every member. Iteration order is unspecified.
func (s *RevisionSet) Each(f func(hash, path string) error) error {
	for m := range s.members {
		if err := f(m.hash, m.path); err != nil {
			return err
		}
	}
	return nil
}
