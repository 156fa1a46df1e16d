package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Cache is the hash-keyed on-disk store for non-inline assets. Files are
// written once under their content hash; concurrent writers of the same hash
// race harmlessly since the bytes are identical.
type Cache struct {
	dir string
}

// NewCache creates the cache directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir cache %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// PathFor returns the on-disk path for a hash.
func (c *Cache) PathFor(hash string) string {
	return filepath.Join(c.dir, hash)
}

// Put stores bytes under their hash. Overwriting an already-present file is
// an allowed idempotent no-op, not an error.
func (c *Cache) Put(hash string, data []byte) error {
	if err := os.WriteFile(c.PathFor(hash), data, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", hash, err)
	}
	return nil
}

// Has reports whether a hash is present.
func (c *Cache) Has(hash string) bool {
	_, err := os.Stat(c.PathFor(hash))
	return err == nil
}
