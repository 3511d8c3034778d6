package download

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrFileClosed is returned by Write after Commit or Abort.
var ErrFileClosed = errors.New("download file already closed")

// File streams a body to a temp file in the same directory as the
// destination, renamed into place on Commit. The temp file is removed
// on Abort.
type File struct {
	mu      sync.Mutex
	dest    string
	file    *os.File
	written int64
	closed  bool
	logger  *slog.Logger
}

// Create opens a temp file in the directory of destPath. The directory
// must exist.
func Create(destPath string, logger *slog.Logger) (*File, error) {
	if destPath == "" {
		return nil, errors.New("destination path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.CreateTemp(filepath.Dir(destPath), ".easyhttp-dl-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	f := File{
		dest:   destPath,
		file:   file,
		logger: logger,
	}

	return &f, nil
}

// Write appends p to the temp file.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	n, err := f.file.Write(p)
	f.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing temp file: %w", err)
	}

	return n, nil
}

// Written returns the number of bytes written so far.
func (f *File) Written() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.written
}

// TempName returns the path of the temp file.
func (f *File) TempName() string {
	return f.file.Name()
}

// Commit syncs the temp file and renames it to the destination path.
// On failure the temp file is removed.
func (f *File) Commit() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFileClosed
	}
	f.closed = true

	var successful bool
	defer func() {
		if !successful {
			f.remove()
		}
	}()

	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(f.file.Name(), f.dest); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true
	f.logger.Debug("output file committed", "path", f.dest, "bytes", f.written)

	return nil
}

// Abort closes and removes the temp file. It does nothing once the
// file was committed or aborted.
func (f *File) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true

	f.remove()
}

func (f *File) remove() {
	if err := f.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		f.logger.Error("closing temp file", "error", err)
	}
	if err := os.Remove(f.file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Error("failed to remove temp file", "error", err)
	}
}
