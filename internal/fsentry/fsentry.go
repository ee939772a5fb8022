// Package fsentry is the enumeration collaborator §1 treats as
// external to the core: a simple recursive walk producing a stream of
// source entries. Grounded on original_source/src/crypt_file.rs (the
// DIR/FILE CryptFile enum) and original_source/src/util.rs's walkdir-based
// walker — Go's stdlib filepath.WalkDir already provides everything the
// Rust source reached for the walkdir crate to get (see DESIGN.md).
package fsentry

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"csync/internal/log"
)

// Kind distinguishes a file entry from a directory entry.
type Kind int

const (
	Dir Kind = iota
	File
)

// Entry is one enumerated path: {path, kind, mtime} per §3's
// source-entry record. The root itself is enumerated as the one Entry
// with RelPath == "", per §4.8's edge case that R receives its own
// encrypted basename.
type Entry struct {
	// RelPath is "/"-joined and relative to the walked root; it is ""
	// for the root itself.
	RelPath string
	AbsPath string
	Kind    Kind
	ModTime time.Time
	Size    int64 // zero for directories
}

// Skipped records an entry that was rejected, non-fatally, during the
// walk — currently only symlinks (§9's Open Question resolution:
// skip with a warning, never a hard error).
type Skipped struct {
	RelPath string
	Reason  string
}

// Walk enumerates every path reachable from root, including root itself
// (as the RelPath == "" entry), in filepath.WalkDir's (lexical,
// depth-first) order. Symbolic links are rejected non-fatally;
// everything else that filepath.WalkDir cannot stat is a fatal
// enumeration error per §7.
func Walk(root string) ([]Entry, []Skipped, error) {
	var entries []Entry
	var skipped []Skipped

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("fsentry: walk %s: %w", path, err)
		}
		if path == root {
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("fsentry: stat %s: %w", path, err)
			}
			entries = append(entries, Entry{
				RelPath: "",
				AbsPath: path,
				Kind:    Dir,
				ModTime: info.ModTime(),
			})
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("fsentry: relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			log.Warn("skipping symlink", log.String("path", rel))
			skipped = append(skipped, Skipped{RelPath: rel, Reason: "symlink"})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("fsentry: stat %s: %w", path, err)
		}

		kind := File
		size := info.Size()
		if d.IsDir() {
			kind = Dir
			size = 0
		}

		entries = append(entries, Entry{
			RelPath: rel,
			AbsPath: path,
			Kind:    kind,
			ModTime: info.ModTime(),
			Size:    size,
		})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return entries, skipped, nil
}
