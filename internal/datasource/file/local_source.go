// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// NotFoundError is returned by Open when the configured input does not exist.
// It unwraps to os.ErrNotExist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset not found: expected the input file at %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Stat checks that the file exists before any processing starts. A missing
// file yields *NotFoundError.
func (l *Local) Stat() (os.FileInfo, error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: l.path, Err: err}
		}
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("stat %s: is a directory", l.path)
	}
	return fi, nil
}

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled at the time of the call, Open
//     returns the context error without touching the filesystem.
//   - A missing file yields *NotFoundError (errors.Is(err, os.ErrNotExist)
//     still holds).
//   - The kernel is told the file will be read sequentially once, which helps
//     on multi-GB inputs.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: l.path, Err: err}
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
