package sources

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroSource(t *testing.T) {
	t.Parallel()
	src, err := NewDefaultRegistry().NewSource([]byte(`{"type":"zero"}`))
	require.NoError(t, err)
	for range 3 {
		b, err := src.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte(0), b)
	}
}

func TestFileSource(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")

	src, err := newFileSource([]byte(`{"type":"file","path":"` + filepath.ToSlash(path) + `"}`))
	require.NoError(t, err)

	_, err = src.ReadByte()
	assert.True(t, os.IsNotExist(err), "missing file fails the read, not the construction")

	require.NoError(t, os.WriteFile(path, []byte("ok"), 0o600))
	b, err := src.ReadByte()
	require.NoError(t, err, "a failed fetch is attempted again")
	assert.Equal(t, byte('o'), b)
	b, err = src.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte('k'), b)
	_, err = src.ReadByte()
	assert.ErrorIs(t, err, io.EOF)

	_, err = newFileSource([]byte(`{"type":"file"}`))
	assert.Error(t, err)
}
