package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwhub/fwcache-cli/pkg/models"
)

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "firmware payload")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "fw.bin")
	f := New(models.FetchConfig{MaxRetries: 1})
	require.NoError(t, f.Fetch(context.Background(), srv.URL+"/fw.bin", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "firmware payload", string(data))
	assert.NoFileExists(t, dest+".part")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "firmware payload")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "fw.bin")
	f := New(models.FetchConfig{MaxRetries: 2})
	require.NoError(t, f.Fetch(context.Background(), srv.URL+"/fw.bin", dest))
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "fw.bin")
	f := New(models.FetchConfig{MaxRetries: 3})
	err := f.Fetch(context.Background(), srv.URL+"/fw.bin", dest)
	require.Error(t, err)
	assert.EqualValues(t, 1, hits.Load(), "404 is permanent, not transient")
}

func TestFetchResumesPartialDownload(t *testing.T) {
	t.Parallel()

	const full = "0123456789"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		if strings.HasPrefix(rng, "bytes=") {
			var offset int
			fmt.Sscanf(rng, "bytes=%d-", &offset)
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, len(full)-1, len(full)))
			w.WriteHeader(http.StatusPartialContent)
			fmt.Fprint(w, full[offset:])
			return
		}
		fmt.Fprint(w, full)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(dest+".part", []byte(full[:4]), 0644))

	f := New(models.FetchConfig{MaxRetries: 1})
	require.NoError(t, f.Fetch(context.Background(), srv.URL+"/fw.bin", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, full, string(data))
}

func TestFetchLocalFile(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(src, []byte("local payload"), 0644))

	dest := filepath.Join(t.TempDir(), "sub", "fw.bin")
	f := New(models.FetchConfig{})
	require.NoError(t, f.Fetch(context.Background(), "file://"+src, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "local payload", string(data))
}

func TestRewriteURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rewrite string
		in      string
		want    string
	}{
		{
			name: "no rewrite configured",
			in:   "https://fw-download.ubnt.com/firmware/UAL6/6.6.55/fw.bin",
			want: "https://fw-download.ubnt.com/firmware/UAL6/6.6.55/fw.bin",
		},
		{
			name:    "host replaced, path kept",
			rewrite: "mirror.internal:8080",
			in:      "https://fw-download.ubnt.com/firmware/UAL6/6.6.55/fw.bin",
			want:    "https://mirror.internal:8080/firmware/UAL6/6.6.55/fw.bin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(models.FetchConfig{HostRewrite: tt.rewrite})
			got, err := f.RewriteURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
