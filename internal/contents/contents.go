// Package contents models a file payload that may be empty, memory-mapped,
// or heap-owned, behind one byte-accessor. Mapped payloads avoid copying
// large assets through the ingestion pipeline; Release unmaps them once the
// bytes have been persisted.
package contents

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// State identifies how the payload bytes are held.
type State int

const (
	Empty State = iota
	Mapped
	Owned
)

// Contents is a tagged byte payload. The zero value is Empty.
type Contents struct {
	state State
	data  []byte
}

// None returns an empty payload.
func None() *Contents {
	return &Contents{state: Empty}
}

// Own wraps a heap buffer.
func Own(data []byte) *Contents {
	if len(data) == 0 {
		return None()
	}
	return &Contents{state: Owned, data: data}
}

// Map memory-maps the file at path read-only. Zero-size files map to an
// Empty payload, since mmap of length 0 fails.
func Map(path string) (*Contents, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return None(), nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Contents{state: Mapped, data: data}, nil
}

// State reports how the bytes are held.
func (c *Contents) State() State {
	if c == nil {
		return Empty
	}
	return c.state
}

// Bytes returns the payload. Empty payloads yield a nil slice. The slice is
// only valid until Release for mapped payloads.
func (c *Contents) Bytes() []byte {
	if c == nil {
		return nil
	}
	return c.data
}

// Len returns the payload length in bytes.
func (c *Contents) Len() int {
	if c == nil {
		return 0
	}
	return len(c.data)
}

// Release unmaps a mapped payload and drops the buffer. Safe to call more
// than once and on any state.
func (c *Contents) Release() error {
	if c == nil || c.state != Mapped || c.data == nil {
		if c != nil {
			c.data = nil
			c.state = Empty
		}
		return nil
	}
	data := c.data
	c.data = nil
	c.state = Empty
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
