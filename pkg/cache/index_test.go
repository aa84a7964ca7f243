package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/system"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := NewIndex(filepath.Join(t.TempDir(), "firmware"), system.NopOwner())
	require.NoError(t, ix.EnsureInitialized())
	return ix
}

func TestEnsureInitializedIdempotent(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)

	doc, err := ix.Load()
	require.NoError(t, err)
	require.NotNil(t, doc.CachedFirmwares)
	assert.Empty(t, doc.CachedFirmwares)

	// a second run must not reset an existing document
	require.NoError(t, ix.Upsert(models.CacheEntry{Path: "UAL6/6.6.55/fw.bin", Version: "6.6.55"}))
	require.NoError(t, ix.EnsureInitialized())

	doc, err = ix.Load()
	require.NoError(t, err)
	assert.Len(t, doc.CachedFirmwares, 1)
}

func TestUpsertReplacesByPath(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)

	first := models.CacheEntry{
		Checksum: "aaa",
		Version:  "6.6.55",
		Size:     100,
		Path:     "UAL6/6.6.55/fw.bin",
		Devices:  []string{"UAL6"},
	}
	require.NoError(t, ix.Upsert(first))

	second := first
	second.Checksum = "bbb"
	second.Size = 200
	require.NoError(t, ix.Upsert(second))

	doc, err := ix.Load()
	require.NoError(t, err)
	require.Len(t, doc.CachedFirmwares, 1, "same path must replace, never duplicate")
	assert.Equal(t, "bbb", doc.CachedFirmwares[0].Checksum)
	assert.EqualValues(t, 200, doc.CachedFirmwares[0].Size)
}

func TestUpsertKeepsOtherEntries(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)

	require.NoError(t, ix.Upsert(models.CacheEntry{Path: "UAL6/6.6.55/fw.bin", Checksum: "aaa"}))
	require.NoError(t, ix.Upsert(models.CacheEntry{Path: "BZ2/6.6.50/fw.bin", Checksum: "bbb"}))
	require.NoError(t, ix.Upsert(models.CacheEntry{Path: "UAL6/6.6.55/fw.bin", Checksum: "ccc"}))

	doc, err := ix.Load()
	require.NoError(t, err)
	require.Len(t, doc.CachedFirmwares, 2)
	assert.NotNil(t, doc.FindByPath("BZ2/6.6.50/fw.bin"))
	assert.Equal(t, "ccc", doc.FindByPath("UAL6/6.6.55/fw.bin").Checksum)
}

func TestUpsertCreatesBackup(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	require.NoError(t, ix.Upsert(models.CacheEntry{Path: "UAL6/6.6.55/fw.bin"}))

	backups, err := filepath.Glob(ix.Path() + ".bak.*")
	require.NoError(t, err)
	assert.NotEmpty(t, backups, "every mutation backs up the prior document")
}

func TestLoadCorruptIndexFailsLoudly(t *testing.T) {
	t.Parallel()

	ix := newTestIndex(t)
	require.NoError(t, os.WriteFile(ix.Path(), []byte("{not json"), 0644))

	_, err := ix.Load()
	require.Error(t, err)
	assert.Equal(t, fwerrors.KindFatal, fwerrors.KindOf(err))

	var cerr *fwerrors.CacheError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, fwerrors.CodeIndexCorrupt, cerr.Code)
}
