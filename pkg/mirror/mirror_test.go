package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fwerrors "github.com/fwhub/fwcache-cli/internal/errors"
	"github.com/fwhub/fwcache-cli/pkg/catalog"
	"github.com/fwhub/fwcache-cli/pkg/models"
)

// stubFetcher writes a fixed payload to dest and counts invocations.
type stubFetcher struct {
	calls   int
	payload []byte
	failOn  map[string]bool
}

func (s *stubFetcher) Fetch(ctx context.Context, url, dest string) error {
	s.calls++
	if s.failOn[url] {
		return errors.New("connection refused")
	}
	return os.WriteFile(dest, s.payload, 0644)
}

func testReader(t *testing.T) *catalog.Reader {
	t.Helper()

	doc := []byte(`{
	  "7.10.0": {
	    "release": {
	      "UAL6":  {"version": "6.6.55", "url": "https://dl.example.com/firmware/UAL6/6.6.55/fw.bin"},
	      "U7PG2": {"version": "6.6.55", "url": "https://dl.example.com/firmware/U7PG2/6.6.55/fw.bin"},
	      "BZ2":   {"version": "6.6.50", "url": ""}
	    }
	  }
	}`)

	var cat models.Catalog
	require.NoError(t, json.Unmarshal(doc, &cat))
	return catalog.NewReader(cat)
}

func TestDestPath(t *testing.T) {
	t.Parallel()

	b := NewBuilder("/srv/mirror", nil)

	dest, err := b.DestPath("https://dl.example.com/firmware/UAL6/6.6.55/fw.bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/mirror", "firmware", "UAL6", "6.6.55", "fw.bin"), dest)

	_, err = b.DestPath("https://dl.example.com")
	require.Error(t, err)
}

func TestMirror(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fetcher := &stubFetcher{payload: []byte("firmware payload")}
	b := NewBuilder(root, fetcher)

	var out bytes.Buffer
	b.SetOutput(&out)

	report, err := b.Mirror(context.Background(), testReader(t), "7.10.0")
	require.NoError(t, err)

	mirrored, upToDate, skipped, failed := report.Counts()
	assert.Equal(t, 2, mirrored)
	assert.Equal(t, 0, upToDate)
	assert.Equal(t, 1, skipped, "record without URL is skipped")
	assert.Equal(t, 0, failed)
	assert.Equal(t, 2, fetcher.calls)

	assert.FileExists(t, filepath.Join(root, "firmware", "UAL6", "6.6.55", "fw.bin"))
	assert.FileExists(t, filepath.Join(root, "firmware", "U7PG2", "6.6.55", "fw.bin"))

	// catalog document order drives the report order
	require.Len(t, report.Items, 3)
	assert.Equal(t, "UAL6", report.Items[0].DeviceCode)
	assert.Equal(t, "U7PG2", report.Items[1].DeviceCode)
	assert.Equal(t, "BZ2", report.Items[2].DeviceCode)
}

func TestMirrorSkipsExistingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	existing := filepath.Join(root, "firmware", "UAL6", "6.6.55", "fw.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(existing), 0755))
	require.NoError(t, os.WriteFile(existing, []byte("already mirrored"), 0644))

	fetcher := &stubFetcher{payload: []byte("firmware payload")}
	b := NewBuilder(root, fetcher)

	var out bytes.Buffer
	b.SetOutput(&out)

	report, err := b.Mirror(context.Background(), testReader(t), "7.10.0")
	require.NoError(t, err)

	mirrored, upToDate, _, _ := report.Counts()
	assert.Equal(t, 1, mirrored)
	assert.Equal(t, 1, upToDate)
	assert.Equal(t, 1, fetcher.calls, "existing file must not be re-fetched")
	assert.Contains(t, out.String(), "up to date")

	// the existing file is untouched
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "already mirrored", string(data))
}

func TestMirrorContinuesPastFailures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fetcher := &stubFetcher{
		payload: []byte("firmware payload"),
		failOn:  map[string]bool{"https://dl.example.com/firmware/UAL6/6.6.55/fw.bin": true},
	}
	b := NewBuilder(root, fetcher)
	b.SetOutput(&bytes.Buffer{})

	report, err := b.Mirror(context.Background(), testReader(t), "7.10.0")
	require.NoError(t, err, "per-entry failures never abort the run")

	mirrored, _, _, failed := report.Counts()
	assert.Equal(t, 1, mirrored)
	assert.Equal(t, 1, failed)
	assert.FileExists(t, filepath.Join(root, "firmware", "U7PG2", "6.6.55", "fw.bin"))
}

func TestMirrorUnknownControllerVersion(t *testing.T) {
	t.Parallel()

	b := NewBuilder(t.TempDir(), &stubFetcher{})
	_, err := b.Mirror(context.Background(), testReader(t), "9.9.9")
	require.Error(t, err)
	assert.Equal(t, fwerrors.KindFatal, fwerrors.KindOf(err))
}
