package mirror

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/cache"
	"github.com/fwhub/fwcache-cli/pkg/catalog"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

// Status of one mirrored catalog entry.
type Status string

const (
	StatusMirrored Status = "mirrored"
	StatusUpToDate Status = "up-to-date"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Item is the outcome for one release record.
type Item struct {
	DeviceCode string `json:"device_code"`
	URL        string `json:"url"`
	Dest       string `json:"dest"`
	Status     Status `json:"status"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes one mirror run.
type Report struct {
	ControllerVersion string `json:"controller_version"`
	Items             []Item `json:"items"`
}

// Counts returns per-status totals.
func (r *Report) Counts() (mirrored, upToDate, skipped, failed int) {
	for _, it := range r.Items {
		switch it.Status {
		case StatusMirrored:
			mirrored++
		case StatusUpToDate:
			upToDate++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return
}

// Builder replicates every release of one controller version into a
// path-preserving mirror tree. It never touches the metadata index and
// enforces no ownership; a mirror is plain files anyone can serve.
type Builder struct {
	root    string
	fetcher cache.Fetcher
	out     io.Writer
	log     utils.Logger
}

// NewBuilder creates a mirror builder rooted at mirrorRoot.
func NewBuilder(mirrorRoot string, fetcher cache.Fetcher) *Builder {
	return &Builder{
		root:    mirrorRoot,
		fetcher: fetcher,
		out:     os.Stdout,
		log:     utils.GetGlobalLogger(),
	}
}

// SetOutput redirects per-item status lines (tests).
func (b *Builder) SetOutput(w io.Writer) {
	b.out = w
}

// DestPath maps a download URL to its mirror destination: the URL path is
// preserved verbatim, only scheme and host are stripped.
func (b *Builder) DestPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	rel := strings.TrimPrefix(u.Path, "/")
	if rel == "" {
		return "", fmt.Errorf("URL has no path: %s", rawURL)
	}
	return filepath.Join(b.root, filepath.FromSlash(rel)), nil
}

// Mirror replicates the full release set of one controller version,
// sequentially and in catalog document order. Per-entry failures are
// recorded and the run continues; only a missing release set aborts.
func (b *Builder) Mirror(ctx context.Context, reader *catalog.Reader, controllerVersion string) (*Report, error) {
	rel := reader.Release(controllerVersion)
	if rel == nil {
		return nil, fwerrors.Fatal(fwerrors.CodeCatalogLoad,
			"no release set in catalog for controller version").
			WithContext("version", controllerVersion)
	}

	report := &Report{ControllerVersion: controllerVersion}

	for _, code := range rel.Codes {
		rec := rel.Release[code]
		item := Item{DeviceCode: code}

		if rec == nil || rec.URL == "" {
			item.Status = StatusSkipped
			item.Error = "no download URL in catalog"
			b.log.Warn("skipping %s: no download URL in catalog (controller %s)", code, controllerVersion)
			report.Items = append(report.Items, item)
			continue
		}
		item.URL = rec.URL

		dest, err := b.DestPath(rec.URL)
		if err != nil {
			item.Status = StatusSkipped
			item.Error = err.Error()
			b.log.Warn("skipping %s: %v", code, err)
			report.Items = append(report.Items, item)
			continue
		}
		item.Dest = dest

		if utils.FileNonEmpty(dest) {
			// already mirrored: no re-fetch, checksum-only re-verification
			b.verifyChecksum(dest, code, rec.MD5Sum)
			item.Status = StatusUpToDate
			metUpToDate.Inc()
			fmt.Fprintf(b.out, "  = %s %s (up to date)\n", code, dest)
			report.Items = append(report.Items, item)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			item.Status = StatusFailed
			item.Error = err.Error()
			b.log.Warn("failed to mirror %s: %v", code, err)
			metFailed.Inc()
			report.Items = append(report.Items, item)
			continue
		}

		if err := b.fetcher.Fetch(ctx, rec.URL, dest); err != nil {
			item.Status = StatusFailed
			item.Error = err.Error()
			b.log.Warn("failed to mirror %s from %s: %v", code, rec.URL, err)
			metFailed.Inc()
			report.Items = append(report.Items, item)
			continue
		}

		b.verifyChecksum(dest, code, rec.MD5Sum)
		if size, err := utils.FileSize(dest); err == nil {
			metBytes.Add(float64(size))
		}

		item.Status = StatusMirrored
		metMirrored.Inc()
		fmt.Fprintf(b.out, "  + %s %s\n", code, dest)
		report.Items = append(report.Items, item)
	}

	return report, nil
}

// verifyChecksum warns on digest mismatches; it never fails the entry and
// never triggers a re-fetch.
func (b *Builder) verifyChecksum(path, deviceCode, expected string) {
	if expected == "" {
		return
	}
	actual, err := utils.FileMD5(path)
	if err != nil {
		b.log.Warn("checksum verification failed for %s: %v", path, err)
		return
	}
	if !strings.EqualFold(actual, expected) {
		b.log.Warn("checksum mismatch for %s (device %s): expected %s, got %s",
			path, deviceCode, expected, actual)
	}
}
