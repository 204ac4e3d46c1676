package httpds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Download stores the body of url under dir (see CacheName) and returns the
// local path. An existing cached file is reused unless refresh is set. The
// body is written to a temporary file first, so an interrupted download never
// leaves a truncated cache entry behind.
func (c *Client) Download(ctx context.Context, url, dir string, refresh bool) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	dst := filepath.Join(dir, CacheName(url))
	if !refresh {
		if fi, err := os.Stat(dst); err == nil && fi.Mode().IsRegular() {
			log.Printf("remote: cache hit path=%s size=%s", dst, humanize.Bytes(uint64(fi.Size())))
			return dst, nil
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("remote: create cache dir: %w", err)
	}

	resp, err := c.Get(ctx, url, nil)
	if err != nil {
		return "", fmt.Errorf("remote: get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: url, Code: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("remote: temp file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("remote: read body of %s: %w", url, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("remote: store %s: %w", dst, err)
	}
	log.Printf("remote: downloaded url=%s path=%s size=%s", url, dst, humanize.Bytes(uint64(n)))
	return dst, nil
}

// StatusError reports a final non-200 answer.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: GET %s returned status %d", e.URL, e.Code)
}

// IsNotFound reports whether err is a 404 from the remote source.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}
