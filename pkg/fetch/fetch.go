package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwhub/fwcache-cli/pkg/models"
	"github.com/fwhub/fwcache-cli/pkg/utils"
)

const userAgent = "fwcache/1.0"

// Fetcher downloads firmware images with bounded retries, a fixed timeout
// and resumable transfers. It owns all retry/timeout policy; callers just
// call Fetch.
type Fetcher struct {
	client      *http.Client
	maxRetries  int
	timeout     time.Duration
	hostRewrite string
}

// New creates a fetcher from the download configuration.
func New(cfg models.FetchConfig) *Fetcher {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
		timeout:     timeout,
		hostRewrite: cfg.HostRewrite,
	}
}

// RewriteURL applies the optional authority substitution to a download URL.
// Scheme and path are left untouched.
func (f *Fetcher) RewriteURL(raw string) (string, error) {
	if f.hostRewrite == "" {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	u.Host = f.hostRewrite
	return u.String(), nil
}

// Fetch downloads a URL to dest, retrying transient failures with
// exponential backoff and resuming partial transfers left by earlier
// attempts. file:// URLs and plain paths are handled as local copies.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	target, err := f.RewriteURL(rawURL)
	if err != nil {
		return err
	}

	if strings.HasPrefix(target, "file://") {
		return copyLocal(strings.TrimPrefix(target, "file://"), dest)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			if delay > 30*time.Second {
				delay = 30 * time.Second
			}
			utils.Warn("retrying download in %v (attempt %d/%d): %s", delay, attempt+1, f.maxRetries+1, target)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var retryable bool
		retryable, lastErr = f.fetchOnce(ctx, target, dest)
		if lastErr == nil {
			return nil
		}
		if !retryable || ctx.Err() != nil {
			break
		}
	}

	// leave the .part file for the next run to resume
	return fmt.Errorf("download failed after %d attempts: %w", f.maxRetries+1, lastErr)
}

// fetchOnce performs a single download attempt. It appends to an existing
// .part file via a Range request when the server cooperates.
func (f *Fetcher) fetchOnce(ctx context.Context, target, dest string) (retryable bool, err error) {
	tempPath := dest + ".part"

	var offset int64
	if info, statErr := os.Stat(tempPath); statErr == nil {
		offset = info.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", userAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	pw := &progressWriter{
		label:   filepath.Base(dest),
		written: offset,
		last:    time.Now(),
	}

	var out *os.File
	switch resp.StatusCode {
	case http.StatusPartialContent:
		out, err = os.OpenFile(tempPath, os.O_WRONLY|os.O_APPEND, 0644)
	case http.StatusOK:
		// server ignored the range; start over
		out, err = os.Create(tempPath)
	default:
		// 408/425/429 and 5xx are worth another attempt
		retryable = resp.StatusCode == http.StatusRequestTimeout ||
			resp.StatusCode == http.StatusTooEarly ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode >= 500
		if !retryable {
			os.Remove(tempPath)
		}
		return retryable, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if err != nil {
		return false, err
	}

	if resp.ContentLength > 0 {
		pw.total = pw.written + resp.ContentLength
	}

	if _, err := io.Copy(io.MultiWriter(out, pw), resp.Body); err != nil {
		out.Close()
		// keep the partial file so a later attempt can resume
		return true, err
	}
	if err := out.Close(); err != nil {
		return false, err
	}

	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return false, err
	}
	return false, nil
}

// progressWriter reports transfer progress at debug level, at most every
// two seconds.
type progressWriter struct {
	label   string
	total   int64
	written int64
	last    time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	pw.written += int64(len(p))
	if time.Since(pw.last) >= 2*time.Second {
		pw.last = time.Now()
		if pw.total > 0 {
			utils.Debug("%s: %d/%d bytes (%.1f%%)",
				pw.label, pw.written, pw.total, float64(pw.written)*100/float64(pw.total))
		} else {
			utils.Debug("%s: %d bytes", pw.label, pw.written)
		}
	}
	return len(p), nil
}

// copyLocal installs a local source file at dest.
func copyLocal(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("source file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source is a directory, not a file: %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	tempPath := dest + ".part"
	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, dest)
}
