package fsentry

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func relPaths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.RelPath
	}
	sort.Strings(paths)
	return paths
}

func TestWalkNestedTree(t *testing.T) {
	root := t.TempDir()

	mustMkdir(t, filepath.Join(root, "a", "b"))
	mustWriteFile(t, filepath.Join(root, "a", "b", "f1.txt"), "hello")
	mustWriteFile(t, filepath.Join(root, "a", "f2.txt"), "world")
	mustMkdir(t, filepath.Join(root, "c"))

	entries, skipped, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("expected no skipped entries, got %v", skipped)
	}

	got := relPaths(entries)
	want := []string{"", "a", "a/b", "a/b/f1.txt", "a/f2.txt", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v entries, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}

	kinds := map[string]Kind{}
	for _, e := range entries {
		kinds[e.RelPath] = e.Kind
	}
	if kinds[""] != Dir {
		t.Errorf("expected root to be a directory")
	}
	if kinds["a"] != Dir {
		t.Errorf("expected a to be a directory")
	}
	if kinds["a/b/f1.txt"] != File {
		t.Errorf("expected a/b/f1.txt to be a file")
	}
}

func TestWalkSkipsSymlinks(t *testing.T) {
	root := t.TempDir()

	mustWriteFile(t, filepath.Join(root, "real.txt"), "data")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported in this environment: %v", err)
	}

	entries, skipped, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	got := relPaths(entries)
	if len(got) != 2 || got[0] != "" || got[1] != "real.txt" {
		t.Errorf("expected only root and real.txt in entries, got %v", got)
	}

	if len(skipped) != 1 || skipped[0].RelPath != "link.txt" || skipped[0].Reason != "symlink" {
		t.Errorf("expected link.txt to be skipped as a symlink, got %v", skipped)
	}
}

func TestWalkEmptyRoot(t *testing.T) {
	root := t.TempDir()

	entries, skipped, err := Walk(root)
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("expected no skipped entries, got %v", skipped)
	}
	if len(entries) != 1 || entries[0].RelPath != "" || entries[0].Kind != Dir {
		t.Errorf("expected exactly the root entry for an empty root, got %v", entries)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}
