package cache

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/system"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

// Fetcher is the download collaborator the placement engine depends on.
// Retry, timeout and resume policy live behind it.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Placer installs firmware files into the canonical cache layout
// <cacheRoot>/<deviceCode>/<version>/<filename> and records them in the
// metadata index.
type Placer struct {
	index   *Index
	owner   *system.Owner
	fetcher Fetcher
	log     utils.Logger
}

// NewPlacer creates a placement engine.
func NewPlacer(index *Index, owner *system.Owner, fetcher Fetcher) *Placer {
	if owner == nil {
		owner = system.NopOwner()
	}
	return &Placer{
		index:   index,
		owner:   owner,
		fetcher: fetcher,
		log:     utils.GetGlobalLogger(),
	}
}

// CanonicalPath returns the absolute destination and the relative index key
// for a (deviceCode, version, filename) triple.
func (p *Placer) CanonicalPath(deviceCode, version, filename string) (absPath, relPath string) {
	relPath = strings.Join([]string{deviceCode, version, filename}, "/")
	absPath = filepath.Join(p.index.Root(), deviceCode, version, filename)
	return absPath, relPath
}

// Place installs sourceFile at the canonical location and upserts the index
// entry. Re-running with identical inputs produces the same path and
// replaces, never duplicates, the prior entry.
func (p *Placer) Place(deviceCode, version, sourceFile, filename string) (*models.CacheEntry, error) {
	if !utils.FileNonEmpty(sourceFile) {
		return nil, fwerrors.Item(fwerrors.CodeEmptySource,
			"source file is missing or empty").
			WithContext("source", sourceFile)
	}

	absPath, relPath := p.CanonicalPath(deviceCode, version, filename)

	if err := p.owner.MkdirAll(filepath.Dir(absPath)); err != nil {
		return nil, err
	}

	// a source already at the canonical location (fetched in place) only
	// needs its ownership and mode fixed up
	if !sameFile(sourceFile, absPath) {
		if err := copyFile(sourceFile, absPath); err != nil {
			return nil, err
		}
	}

	if err := p.owner.Apply(absPath, system.FileMode); err != nil {
		return nil, err
	}

	checksum, err := utils.FileMD5(absPath)
	if err != nil {
		return nil, err
	}
	size, err := utils.FileSize(absPath)
	if err != nil {
		return nil, err
	}

	entry := models.CacheEntry{
		Checksum: checksum,
		Version:  version,
		Size:     size,
		Path:     relPath,
		Devices:  []string{deviceCode},
	}

	if err := p.index.Upsert(entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// PlaceFromURL fetches a URL straight to the canonical location and places
// it. Fetch failures are per-item: the caller skips the item and continues.
func (p *Placer) PlaceFromURL(ctx context.Context, id Identity, rawURL string) (*models.CacheEntry, error) {
	filename := SourceFilename(rawURL)
	absPath, _ := p.CanonicalPath(id.DeviceCode, id.Version, filename)

	if err := p.owner.MkdirAll(filepath.Dir(absPath)); err != nil {
		return nil, err
	}
	if err := p.fetcher.Fetch(ctx, rawURL, absPath); err != nil {
		return nil, fwerrors.Wrap(err, fwerrors.KindItem, fwerrors.CodeFetchFailed,
			"download failed").WithContext("url", rawURL)
	}

	return p.Place(id.DeviceCode, id.Version, absPath, filename)
}

// PlaceFromCatalog places the firmware a catalog record describes. When the
// destination already exists and is non-empty the fetch is skipped
// entirely, but ownership and mode are re-applied and the checksum is
// re-verified against the catalog value. A mismatch is logged, never fatal:
// the catalog may simply be stale, and refusing to cache would not make the
// file any better.
func (p *Placer) PlaceFromCatalog(ctx context.Context, deviceCode string, rec *models.FirmwareRelease) (*models.CacheEntry, error) {
	filename := SourceFilename(rec.URL)
	absPath, _ := p.CanonicalPath(deviceCode, rec.Version, filename)

	if !utils.FileNonEmpty(absPath) {
		if err := p.owner.MkdirAll(filepath.Dir(absPath)); err != nil {
			return nil, err
		}
		if err := p.fetcher.Fetch(ctx, rec.URL, absPath); err != nil {
			return nil, fwerrors.Wrap(err, fwerrors.KindItem, fwerrors.CodeFetchFailed,
				"download failed").
				WithContext("device", deviceCode).
				WithContext("url", rec.URL)
		}
	}

	p.verifyChecksum(absPath, deviceCode, rec.MD5Sum)

	return p.Place(deviceCode, rec.Version, absPath, filename)
}

// verifyChecksum compares a cached file against the catalog-declared
// digest. Mismatches are warnings only.
func (p *Placer) verifyChecksum(path, deviceCode, expected string) {
	if expected == "" {
		return
	}
	actual, err := utils.FileMD5(path)
	if err != nil {
		p.log.Warn("checksum verification failed for %s: %v", path, err)
		return
	}
	if !strings.EqualFold(actual, expected) {
		p.log.Warn("checksum mismatch for %s (device %s): expected %s, got %s",
			path, deviceCode, expected, actual)
	}
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// copyFile copies src over dest through a temp file in the same directory.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	tempPath := dest + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tempPath, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, dest)
}
