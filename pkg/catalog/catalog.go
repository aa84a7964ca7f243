package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/models"
)

// AutoVersion is the controller-version sentinel that triggers latest-version
// detection.
const AutoVersion = "auto"

// numericVersion matches dot-separated numeric controller-version keys.
// Keys like "beta" or "7.10.0-rc1" never participate in latest detection.
var numericVersion = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// Reader provides lookups into a loaded firmware catalog.
type Reader struct {
	doc  models.Catalog
	path string
}

// Load reads and decodes the catalog document. The catalog is decoded into
// the typed model up front; a malformed document fails here rather than
// surfacing later as empty lookups.
func Load(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fwerrors.Wrap(err, fwerrors.KindFatal, fwerrors.CodeCatalogLoad,
			"failed to read firmware catalog").WithContext("path", path)
	}

	var doc models.Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fwerrors.Wrap(err, fwerrors.KindFatal, fwerrors.CodeCatalogLoad,
			"failed to parse firmware catalog").WithContext("path", path)
	}

	return &Reader{doc: doc, path: path}, nil
}

// NewReader wraps an already-decoded catalog document.
func NewReader(doc models.Catalog) *Reader {
	return &Reader{doc: doc}
}

// Path returns the file the catalog was loaded from, if any.
func (r *Reader) Path() string {
	return r.path
}

// Release returns the full release set for a controller version, or nil.
func (r *Reader) Release(controllerVersion string) *models.ControllerRelease {
	return r.doc[controllerVersion]
}

// Lookup returns the release record for (controllerVersion, deviceCode).
// Absence is not an error: a nil result means the caller should log and skip
// that device code. Records missing a version or URL count as absent.
func (r *Reader) Lookup(controllerVersion, deviceCode string) *models.FirmwareRelease {
	rel := r.doc[controllerVersion]
	if rel == nil {
		return nil
	}
	rec := rel.Release[deviceCode]
	if rec == nil || rec.Version == "" || rec.URL == "" {
		return nil
	}
	return rec
}

// LatestVersion returns the numerically highest controller-version key, or
// "" when no key matches the numeric-dot pattern.
func (r *Reader) LatestVersion() string {
	latest := ""
	for key := range r.doc {
		if !numericVersion.MatchString(key) {
			continue
		}
		if latest == "" || CompareVersions(key, latest) > 0 {
			latest = key
		}
	}
	return latest
}

// ResolveControllerVersion maps the configured controller version to a
// concrete catalog key. The sentinel "auto" (or an empty value) selects the
// latest numeric key; failure to detect one is fatal since no safe default
// exists.
func (r *Reader) ResolveControllerVersion(configured string) (string, error) {
	if configured != "" && configured != AutoVersion {
		return configured, nil
	}

	latest := r.LatestVersion()
	if latest == "" {
		return "", fwerrors.Fatal(fwerrors.CodeNoLatest,
			"cannot auto-detect controller version: no numeric version key in catalog").
			WithContext("catalog", r.path)
	}
	return latest, nil
}

// CompareVersions compares two dot-separated version strings component-wise
// and numerically, so "7.10.0" sorts above "7.9.5". Missing components count
// as zero. Non-numeric components compare as strings.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		ac, bc := "0", "0"
		if i < len(as) {
			ac = as[i]
		}
		if i < len(bs) {
			bc = bs[i]
		}

		ai, aerr := strconv.Atoi(ac)
		bi, berr := strconv.Atoi(bc)
		if aerr == nil && berr == nil {
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
			continue
		}

		if ac != bc {
			if ac < bc {
				return -1
			}
			return 1
		}
	}

	return 0
}

// String formats a short description for diagnostics.
func (r *Reader) String() string {
	return fmt.Sprintf("catalog(%s, %d versions)", r.path, len(r.doc))
}
