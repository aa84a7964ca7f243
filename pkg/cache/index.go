package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/system"
)

// Index manages the on-disk metadata index document under the cache root.
//
// Not safe for concurrent invocations: a single run is assumed to own the
// cache directory for its duration. The backup taken before each mutation is
// what makes an interrupted run recoverable, not a lock.
type Index struct {
	root  string
	owner *system.Owner
}

// NewIndex creates an index handle for a cache root.
func NewIndex(cacheRoot string, owner *system.Owner) *Index {
	if owner == nil {
		owner = system.NopOwner()
	}
	return &Index{root: cacheRoot, owner: owner}
}

// Path returns the index document location.
func (ix *Index) Path() string {
	return filepath.Join(ix.root, models.MetaIndexFile)
}

// Root returns the cache root directory.
func (ix *Index) Root() string {
	return ix.root
}

// EnsureInitialized creates the cache root and an empty index document if
// none exists. Idempotent.
func (ix *Index) EnsureInitialized() error {
	if err := ix.owner.MkdirAll(ix.root); err != nil {
		return err
	}

	if _, err := os.Stat(ix.Path()); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	return ix.install(&models.MetaIndex{CachedFirmwares: []models.CacheEntry{}})
}

// Load reads and parses the index document. A document that exists but does
// not parse fails loudly: silently resetting it would destroy the cache
// history, and recovery is what the backups are for.
func (ix *Index) Load() (*models.MetaIndex, error) {
	data, err := os.ReadFile(ix.Path())
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata index: %w", err)
	}

	var doc models.MetaIndex
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fwerrors.Wrap(err, fwerrors.KindFatal, fwerrors.CodeIndexCorrupt,
			"metadata index is not valid JSON").WithContext("path", ix.Path())
	}
	return &doc, nil
}

// Upsert removes any existing entry with the same path, then appends the
// new entry. The pre-mutation document is backed up first; removal and
// addition install separately, which is acceptable because the tool does
// not support concurrent writers.
//
// Devices on the replaced entry are discarded wholesale: the index reflects
// the most recent placer of a path, not the history of every device code
// ever associated with it.
func (ix *Index) Upsert(entry models.CacheEntry) error {
	doc, err := ix.Load()
	if err != nil {
		return err
	}

	if err := ix.backup(); err != nil {
		return err
	}

	if doc.FindByPath(entry.Path) != nil {
		kept := make([]models.CacheEntry, 0, len(doc.CachedFirmwares))
		for _, e := range doc.CachedFirmwares {
			if e.Path != entry.Path {
				kept = append(kept, e)
			}
		}
		doc.CachedFirmwares = kept
		if err := ix.install(doc); err != nil {
			return err
		}
	}

	doc.CachedFirmwares = append(doc.CachedFirmwares, entry)
	return ix.install(doc)
}

// backup copies the current document aside with a timestamp suffix.
func (ix *Index) backup() error {
	src, err := os.Open(ix.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.bak.%s", ix.Path(), time.Now().Format("20060102-150405"))
	dst, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("failed to create index backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write index backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return ix.owner.Apply(backupPath, system.FileMode)
}

// install writes the document to a temp file and renames it into place, so
// readers never observe a torn index.
func (ix *Index) install(doc *models.MetaIndex) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata index: %w", err)
	}

	tempPath := ix.Path() + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata index: %w", err)
	}
	if err := os.Rename(tempPath, ix.Path()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to install metadata index: %w", err)
	}
	return ix.owner.Apply(ix.Path(), system.FileMode)
}
