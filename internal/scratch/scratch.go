// Package scratch manages the process-owned scratch directory §3/§9
// describes as the only process-wide state: a staging area created
// at sync start, holding one file per in-flight source file, torn down
// (RAII-style) on every exit path.
//
// Grounded on original_source/src/util.rs's mktemp_file/mktemp_dir
// (themselves wrapping Rust's tempfile crate — Go's os.MkdirTemp and
// os.CreateTemp already provide this natively, see DESIGN.md) and on the
// teacher's atomic-rename-via-temp-file pattern
// (internal/cli/encrypt.go's ".incomplete" cleanup,
// internal/fileops/zip.go's create-then-rename-on-success shape).
package scratch

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Dir is a scratch directory that owns every intermediate artifact of one
// sync invocation.
type Dir struct {
	path string
}

// New creates a fresh scratch directory under the OS temp dir.
func New() (*Dir, error) {
	path, err := os.MkdirTemp("", "csync-scratch-*")
	if err != nil {
		return nil, fmt.Errorf("scratch: create scratch directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Name returns a path-safe, collision-free scratch filename for
// sourcePath: a BLAKE2b hash of the path, text-encoded. Collisions are
// not possible in practice because the hash input is the unique source
// path of the file it stages.
func Name(sourcePath string) string {
	sum := blake2b.Sum256([]byte(sourcePath))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(sum[:])
}

// Create opens a new scratch file for sourcePath for writing, returning
// the open file and its path within the scratch directory.
func (d *Dir) Create(sourcePath string) (*os.File, string, error) {
	path := filepath.Join(d.path, Name(sourcePath))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("scratch: create %s: %w", path, err)
	}
	return f, path, nil
}

// Commit atomically renames a completed scratch file to its destination.
// The destination's parent directory must already exist (the sync driver
// creates the minimum mkdir set before any file workers start).
func Commit(scratchPath, destPath string) error {
	if err := os.Rename(scratchPath, destPath); err != nil {
		return fmt.Errorf("scratch: commit %s -> %s: %w", scratchPath, destPath, err)
	}
	return nil
}

// Abandon removes a scratch file that will never be committed, e.g. after
// a per-file pipeline error.
func Abandon(scratchPath string) {
	_ = os.Remove(scratchPath)
}

// Close tears down the entire scratch directory and everything left in
// it. Safe to call after a partial or failed sync: any scratch file not
// yet committed is destroyed along with it.
func (d *Dir) Close() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("scratch: remove scratch directory: %w", err)
	}
	return nil
}
