package download_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adamwoolhether/easyhttp/client/download"
)

func TestFile_Commit(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	f, err := download.Create(dest, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Abort()

	for _, chunk := range []string{"hello", " ", "world"} {
		if _, err := f.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("destination should not exist before commit, stat err: %v", err)
	}
	if filepath.Dir(f.TempName()) != dir {
		t.Errorf("temp file %q not in destination dir %q", f.TempName(), dir)
	}

	if err := f.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("content = %q, want %q", got, "hello world")
	}
	if f.Written() != 11 {
		t.Errorf("Written() = %d, want 11", f.Written())
	}

	// Abort after commit must keep the file.
	f.Abort()
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination removed by Abort after Commit: %v", err)
	}

	if _, err := f.Write([]byte("x")); !errors.Is(err, download.ErrFileClosed) {
		t.Errorf("expected ErrFileClosed, got %v", err)
	}
}

func TestFile_Abort(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	f, err := download.Create(dest, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.Write([]byte("partial")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f.Abort()
	f.Abort()

	if _, err := os.Stat(f.TempName()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file should be removed, stat err: %v", err)
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("destination should not exist, stat err: %v", err)
	}
	if err := f.Commit(); !errors.Is(err, download.ErrFileClosed) {
		t.Errorf("expected ErrFileClosed, got %v", err)
	}
}

func TestCreate_Errors(t *testing.T) {
	if _, err := download.Create("", nil); err == nil {
		t.Error("expected error for empty path")
	}

	missing := filepath.Join(t.TempDir(), "missing", "out.bin")
	if _, err := download.Create(missing, nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
