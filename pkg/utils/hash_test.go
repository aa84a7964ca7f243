package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileMD5(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	sum, err := FileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", sum)

	_, err = FileMD5(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}

func TestFileNonEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	full := filepath.Join(dir, "full.bin")
	require.NoError(t, os.WriteFile(full, []byte("x"), 0644))
	assert.True(t, FileNonEmpty(full))

	empty := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.False(t, FileNonEmpty(empty))

	assert.False(t, FileNonEmpty(filepath.Join(dir, "absent.bin")))
	assert.False(t, FileNonEmpty(dir), "directories do not count")
}

func TestFileSize(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1234), 0644))

	size, err := FileSize(path)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, size)
}
