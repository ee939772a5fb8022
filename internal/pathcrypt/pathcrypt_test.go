package pathcrypt

import (
	"strings"
	"testing"
)

func masterKey() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i * 7)
	}
	return k
}

const rootName = "root"

func sampleEntries() []Entry {
	return []Entry{
		{RelPath: "f1", Kind: File},
		{RelPath: "sub", Kind: Dir},
		{RelPath: "sub/f2", Kind: File},
	}
}

// P2: determinism of path ciphertext across two separate builds.
func TestDeterminism(t *testing.T) {
	key := masterKey()
	m1, skipped1 := Build(key, rootName, sampleEntries())
	m2, skipped2 := Build(key, rootName, sampleEntries())

	if len(skipped1) != 0 || len(skipped2) != 0 {
		t.Fatalf("unexpected skips: %v %v", skipped1, skipped2)
	}
	for path, want := range m1.Path {
		if got := m2.Path[path]; got != want {
			t.Fatalf("path %q: %q != %q across runs", path, got, want)
		}
	}
}

// §4.8's edge case: the root receives its own encrypted basename, and
// every other entry's path is nested beneath it.
func TestRootIsMaterialized(t *testing.T) {
	m, skipped := Build(masterKey(), rootName, sampleEntries())
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}

	rootCipher, ok := m.Path[""]
	if !ok || rootCipher == "" {
		t.Fatalf("expected a non-empty root path entry, got %q (ok=%v)", rootCipher, ok)
	}
	if strings.HasSuffix(rootCipher, FileSuffix) {
		t.Fatalf("root path %q must not carry the file suffix", rootCipher)
	}
	if !strings.HasPrefix(m.Path["f1"], rootCipher+"/") {
		t.Fatalf("f1 path %q is not nested under root path %q", m.Path["f1"], rootCipher)
	}
	if !strings.HasPrefix(m.Path["sub/f2"], rootCipher+"/") {
		t.Fatalf("sub/f2 path %q is not nested under root path %q", m.Path["sub/f2"], rootCipher)
	}
}

func TestFileSuffixAndDirNoSuffix(t *testing.T) {
	m, skipped := Build(masterKey(), rootName, sampleEntries())
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}

	if !strings.HasSuffix(m.Path["f1"], FileSuffix) {
		t.Fatalf("file path %q missing suffix", m.Path["f1"])
	}
	if strings.HasSuffix(m.Basename["sub"], FileSuffix) {
		t.Fatalf("directory segment %q has file suffix", m.Basename["sub"])
	}
	if !strings.HasSuffix(m.Path["sub/f2"], FileSuffix) {
		t.Fatalf("nested file path %q missing suffix", m.Path["sub/f2"])
	}
}

func TestPathMapNestsBasenameSegments(t *testing.T) {
	m, _ := Build(masterKey(), rootName, sampleEntries())
	want := m.Path[""] + "/" + m.Basename["sub"] + "/" + m.Basename["sub/f2"]
	if m.Path["sub/f2"] != want {
		t.Fatalf("path map = %q, want %q", m.Path["sub/f2"], want)
	}
}

func TestDifferentKeysDiverge(t *testing.T) {
	k1 := masterKey()
	k2 := append([]byte(nil), k1...)
	k2[0] ^= 0xff

	m1, _ := Build(k1, rootName, sampleEntries())
	m2, _ := Build(k2, rootName, sampleEntries())
	if m1.Path["f1"] == m2.Path["f1"] {
		t.Fatal("different master keys produced identical ciphertext path")
	}
}

func TestSkipsNonUTF8Component(t *testing.T) {
	entries := []Entry{{RelPath: "sub/" + string([]byte{0xff, 0xfe}), Kind: File}}
	_, skipped := Build(masterKey(), rootName, entries)
	if len(skipped) != 1 {
		t.Fatalf("expected 1 skipped entry, got %d", len(skipped))
	}
}

func TestSkipsInvalidRootName(t *testing.T) {
	_, skipped := Build(masterKey(), string([]byte{0xff, 0xfe}), sampleEntries())
	if len(skipped) != len(sampleEntries())+1 {
		t.Fatalf("expected every entry plus the root to be skipped, got %d", len(skipped))
	}
}

// P4: minimum mkdir set covers every directory, and no element is a
// prefix of another.
func TestMinimumMkdirSet(t *testing.T) {
	dirs := []string{"a", "a/b", "a/b/c", "a/d", "e"}
	got := MinimumMkdirSet(dirs)

	for _, d := range dirs {
		covered := false
		for _, g := range got {
			if g == d || strings.HasPrefix(g, d+"/") {
				covered = true
				break
			}
		}
		if !covered {
			t.Fatalf("directory %q not covered by mkdir set %v", d, got)
		}
	}

	for i, a := range got {
		for j, b := range got {
			if i != j && strings.HasPrefix(b, a+"/") {
				t.Fatalf("mkdir set element %q is an ancestor of %q", a, b)
			}
		}
	}

	want := []string{"a/b/c", "a/d", "e"}
	if len(got) != len(want) {
		t.Fatalf("mkdir set = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mkdir set = %v, want %v", got, want)
		}
	}
}

func TestMinimumMkdirSetSingleDir(t *testing.T) {
	got := MinimumMkdirSet([]string{"only"})
	if len(got) != 1 || got[0] != "only" {
		t.Fatalf("got %v, want [only]", got)
	}
}
