package contents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNone(t *testing.T) {
	c := None()
	assert.Equal(t, Empty, c.State())
	assert.Nil(t, c.Bytes())
	assert.Equal(t, 0, c.Len())
	require.NoError(t, c.Release())
}

func TestOwn(t *testing.T) {
	c := Own([]byte("hello"))
	assert.Equal(t, Owned, c.State())
	assert.Equal(t, []byte("hello"), c.Bytes())
	require.NoError(t, c.Release())
	assert.Equal(t, Empty, c.State())
}

func TestOwnEmptyCollapsesToNone(t *testing.T) {
	c := Own(nil)
	assert.Equal(t, Empty, c.State())
}

func TestMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte("mapped bytes"), 0o644))

	c, err := Map(path)
	require.NoError(t, err)
	assert.Equal(t, Mapped, c.State())
	assert.Equal(t, "mapped bytes", string(c.Bytes()))

	require.NoError(t, c.Release())
	assert.Equal(t, Empty, c.State())
	assert.Nil(t, c.Bytes())

	// Double release is harmless.
	require.NoError(t, c.Release())
}

func TestMapZeroSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	c, err := Map(path)
	require.NoError(t, err)
	assert.Equal(t, Empty, c.State())
}

func TestMapMissingFile(t *testing.T) {
	_, err := Map(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
