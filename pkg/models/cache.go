package models

// MetaIndexFile is the well-known index document name under the cache root.
const MetaIndexFile = "firmware_meta.json"

// CacheEntry records one firmware file present in the managed cache.
// Path is relative to the cache root and is the unique key of the index:
// upserting a path replaces any prior entry for it wholesale, including the
// Devices list (the index tracks the most recent placer, not history).
type CacheEntry struct {
	Checksum string   `json:"checksum"`
	Version  string   `json:"version"`
	Size     int64    `json:"size"`
	Path     string   `json:"path"`
	Devices  []string `json:"devices"`
}

// MetaIndex is the on-disk metadata index document
// (<cacheRoot>/firmware_meta.json).
type MetaIndex struct {
	CachedFirmwares []CacheEntry `json:"cached_firmwares"`
}

// FindByPath returns the entry for a relative path, or nil.
func (m *MetaIndex) FindByPath(relPath string) *CacheEntry {
	for i := range m.CachedFirmwares {
		if m.CachedFirmwares[i].Path == relPath {
			return &m.CachedFirmwares[i]
		}
	}
	return nil
}
