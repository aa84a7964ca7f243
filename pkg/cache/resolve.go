package cache

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/models"
)

// Identity is the (device code, firmware version) pair a source resolves to.
type Identity struct {
	DeviceCode string
	Version    string
}

// urlIdentityPattern matches the stock download layout
// .../firmware/<CODE>/<VERSION>/<file>.
var urlIdentityPattern = regexp.MustCompile(`/firmware/([^/]+)/([^/]+)/[^/]+$`)

// versionPattern matches a firmware-version-shaped substring (N.N.N or
// N.N.N.N) anywhere in a filename.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:\.\d+)?`)

// filenameSignatures is the closed list of device-code signatures that stock
// firmware filenames carry. First match wins.
var filenameSignatures = []struct {
	substr string
	code   string
}{
	{"UAP6MP", "UAP6MP"},
	{"U7PG2", "U7PG2"},
	{"U7HD", "U7HD"},
	{"UAL6", "UAL6"},
	{"U6LR", "U6LR"},
	{"US24PRO", "US24PRO"},
	{"USW", "USW"},
	{"BZ2", "BZ2"},
	{"BZ.", "BZ2"},
}

// IsURL reports whether a source descriptor is a URL rather than a local
// path.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// SourceFilename returns the filename component of a URL or path source.
func SourceFilename(source string) string {
	if IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			return path.Base(u.Path)
		}
		return path.Base(source)
	}
	return filepath.Base(source)
}

// Resolve derives the (device code, firmware version) identity of a source
// descriptor. It is a pure function of the source and the run-wide
// overrides, applying the priority chain:
//
//  1. explicit overrides (applied uniformly to the whole run)
//  2. URL path pattern .../firmware/<CODE>/<VERSION>/<file>
//  3. device-code signature substring in the filename
//  4. version-shaped substring in the filename
//
// Each step only fires while its target field is still empty. An identity
// with either field still empty after all steps is a recoverable per-item
// failure, never fatal to the run.
func Resolve(source string, overrides models.OverrideConfig) (Identity, error) {
	id := Identity{
		DeviceCode: overrides.DeviceCode,
		Version:    overrides.Version,
	}

	if (id.DeviceCode == "" || id.Version == "") && IsURL(source) {
		if u, err := url.Parse(source); err == nil {
			if m := urlIdentityPattern.FindStringSubmatch(u.Path); m != nil {
				if id.DeviceCode == "" {
					id.DeviceCode = m[1]
				}
				if id.Version == "" {
					id.Version = m[2]
				}
			}
		}
	}

	filename := SourceFilename(source)

	if id.DeviceCode == "" {
		for _, sig := range filenameSignatures {
			if strings.Contains(filename, sig.substr) {
				id.DeviceCode = sig.code
				break
			}
		}
	}

	if id.Version == "" {
		id.Version = versionPattern.FindString(filename)
	}

	if id.DeviceCode == "" || id.Version == "" {
		return Identity{}, fwerrors.Item(fwerrors.CodeUnresolved,
			"cannot resolve device code and firmware version").
			WithContext("source", source).
			WithContext("device", id.DeviceCode).
			WithContext("version", id.Version)
	}

	return id, nil
}
