// Package pathcrypt implements the path-ciphertext builder of §4.8:
// deterministic derivation of ciphertext path names from a master
// key and a directory hierarchy, plus the minimum mkdir set of §4.9 step
// 3.
//
// Key derivation decision (SPEC_FULL.md Open Questions #2): the "textual
// form of P's parent path" used to derive each per-segment key is the
// path *relative to the sync root*, joined with "/" and cleaned — never
// an absolute filesystem path. Entries one level below root derive
// their key directly from the master key, matching §4.8's "if P = R or
// P has no parent, use K".
//
// The root R itself is materialized too: §4.8's edge case requires "the
// root R itself receives an encrypted basename keyed with the master
// key", so every other entry's ciphertext path is nested one level
// below C(R).
package pathcrypt

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"csync/internal/cipher"
	"csync/internal/kdf"
	"csync/internal/textcodec"
)

// Kind distinguishes a file entry from a directory entry; only files
// carry the FileSuffix marker.
type Kind int

const (
	Dir Kind = iota
	File
)

// FileSuffix is appended to a file's ciphertext basename so a decrypting
// peer can tell files from directories without reading content.
const FileSuffix = ".csync"

// Entry is one path to derive ciphertext for: RelPath is "/"-joined and
// relative to the sync root. The root itself is the one Entry with
// RelPath == "".
type Entry struct {
	RelPath string
	Kind    Kind
}

// Skipped records a path that could not be processed, per §4.8's
// edge case for non-UTF-8 components and §4.9's non-fatal skip policy.
type Skipped struct {
	RelPath string
	Err     error
}

// Maps holds the basename map (full relative path -> its own ciphertext
// segment) and path map (full relative path -> the joined ciphertext
// path) built for one sync invocation. Path[""] is C(R), the root's own
// ciphertext directory; every other Path entry is nested beneath it.
type Maps struct {
	Basename map[string]string
	Path     map[string]string
}

// Build computes the basename and path maps for every entry under
// masterKey, including the root. rootName is the plaintext basename of
// the sync root (e.g. filepath.Base(sourceRoot)); it is encrypted with
// masterKey directly, per §4.8's root edge case, and every other
// entry's path is nested one level below the result. Entries whose path
// contains a non-UTF-8 or empty component are skipped (returned in the
// second slice) rather than failing the whole build; if rootName itself
// is unusable, every entry is skipped, since nothing has anywhere to go.
func Build(masterKey []byte, rootName string, entries []Entry) (Maps, []Skipped) {
	maps := Maps{Basename: map[string]string{}, Path: map[string]string{}}
	var skipped []Skipped

	rootCipher, err := buildRoot(masterKey, rootName)
	if err != nil {
		skipped = append(skipped, Skipped{RelPath: "", Err: err})
		for _, e := range entries {
			if e.RelPath != "" {
				skipped = append(skipped, Skipped{RelPath: e.RelPath, Err: fmt.Errorf("pathcrypt: root unavailable: %w", err)})
			}
		}
		return maps, skipped
	}
	maps.Path[""] = rootCipher

	for _, e := range entries {
		if e.RelPath == "" {
			continue
		}

		segments := strings.Split(e.RelPath, "/")
		if err := validSegments(segments); err != nil {
			skipped = append(skipped, Skipped{RelPath: e.RelPath, Err: err})
			continue
		}

		ok := true
		var prefix string
		for i, seg := range segments {
			if i == 0 {
				prefix = seg
			} else {
				prefix = prefix + "/" + seg
			}
			if _, done := maps.Basename[prefix]; done {
				continue
			}

			kind := Dir
			if i == len(segments)-1 {
				kind = e.Kind
			}

			key, err := segmentKey(masterKey, segments[:i])
			if err != nil {
				skipped = append(skipped, Skipped{RelPath: e.RelPath, Err: err})
				ok = false
				break
			}
			segCipher, err := encryptSegment(seg, key, kind)
			if err != nil {
				skipped = append(skipped, Skipped{RelPath: e.RelPath, Err: err})
				ok = false
				break
			}
			maps.Basename[prefix] = segCipher
		}
		if !ok {
			continue
		}

		maps.Path[e.RelPath] = rootCipher + "/" + joinCiphertext(maps.Basename, segments)
	}

	return maps, skipped
}

// buildRoot computes C(R): rootName encrypted and text-encoded under
// masterKey directly, exactly as §4.8 requires for P = R.
func buildRoot(masterKey []byte, rootName string) (string, error) {
	if err := validSegments([]string{rootName}); err != nil {
		return "", err
	}
	return encryptSegment(rootName, masterKey, Dir)
}

func validSegments(segments []string) error {
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("pathcrypt: empty path component")
		}
		if !utf8.ValidString(s) {
			return fmt.Errorf("pathcrypt: non-UTF-8 path component %q", s)
		}
	}
	return nil
}

// segmentKey derives the 32-byte key used to encrypt the basename at
// depth len(parentSegments): the master key directly for a top-level
// entry (parentSegments empty), otherwise a key derived from the
// relative parent path with a single PBKDF2 iteration.
func segmentKey(masterKey []byte, parentSegments []string) ([]byte, error) {
	return DeriveSegmentKey(masterKey, strings.Join(parentSegments, "/")), nil
}

// DeriveSegmentKey returns the key used to encrypt or decrypt the
// basenames living directly inside the directory whose own relative path
// is parentRelPath ("" for the sync root itself, per §4.8's
// "if P = R or P has no parent, use K").
func DeriveSegmentKey(masterKey []byte, parentRelPath string) []byte {
	if parentRelPath == "" {
		return masterKey
	}
	credential := kdf.Derive(masterKey, []byte(parentRelPath), 1)
	return kdf.Key(credential)
}

// DecodeSegment reverses encryptSegment: given a raw destination-tree
// entry name (possibly carrying the FileSuffix marker) and the key
// DeriveSegmentKey produced for its parent directory, it recovers the
// plaintext basename and whether the entry denoted a file.
func DecodeSegment(name string, key []byte) (basename string, isFile bool, err error) {
	isFile = strings.HasSuffix(name, FileSuffix)
	encoded := strings.TrimSuffix(name, FileSuffix)

	dec, err := textcodec.NewDecoder(strings.NewReader(encoded), textcodec.Base64PathSafe)
	if err != nil {
		return "", false, fmt.Errorf("pathcrypt: init text codec: %w", err)
	}
	ciphertext, err := io.ReadAll(dec)
	if err != nil {
		return "", false, fmt.Errorf("pathcrypt: decode segment: %w", err)
	}

	cdec, err := cipher.NewDecryptor(bytes.NewReader(ciphertext), key)
	if err != nil {
		return "", false, fmt.Errorf("pathcrypt: init cipher: %w", err)
	}
	plain, err := io.ReadAll(cdec)
	if err != nil {
		return "", false, fmt.Errorf("pathcrypt: decrypt segment: %w", err)
	}
	return string(plain), isFile, nil
}

func encryptSegment(basename string, key []byte, kind Kind) (string, error) {
	enc, err := cipher.NewEncryptor(strings.NewReader(basename), key)
	if err != nil {
		return "", fmt.Errorf("pathcrypt: init cipher: %w", err)
	}
	ciphertext, err := io.ReadAll(enc)
	if err != nil {
		return "", fmt.Errorf("pathcrypt: encrypt basename: %w", err)
	}

	textEnc, err := textcodec.NewEncoder(bytes.NewReader(ciphertext), textcodec.Base64PathSafe)
	if err != nil {
		return "", fmt.Errorf("pathcrypt: init text codec: %w", err)
	}
	encoded, err := io.ReadAll(textEnc)
	if err != nil {
		return "", fmt.Errorf("pathcrypt: encode basename: %w", err)
	}

	segment := string(encoded)
	if kind == File {
		segment += FileSuffix
	}
	return segment, nil
}

func joinCiphertext(basenameMap map[string]string, segments []string) string {
	parts := make([]string, len(segments))
	var prefix string
	for i, seg := range segments {
		if i == 0 {
			prefix = seg
		} else {
			prefix = prefix + "/" + seg
		}
		parts[i] = basenameMap[prefix]
	}
	return strings.Join(parts, "/")
}

// MinimumMkdirSet returns the smallest antichain of dirs whose `mkdir -p`
// creates every directory in dirs: the deepest directories only, since
// mkdir -p creates ancestors as a side effect. A directory is dropped
// when another directory in the set is one of its descendants.
func MinimumMkdirSet(dirs []string) []string {
	set := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		set[d] = struct{}{}
	}

	var result []string
	for d := range set {
		redundant := false
		for e := range set {
			if e != d && isDescendant(d, e) {
				redundant = true
				break
			}
		}
		if !redundant {
			result = append(result, d)
		}
	}
	sort.Strings(result)
	return result
}

func isDescendant(ancestor, candidate string) bool {
	if ancestor == "" {
		return candidate != ""
	}
	return strings.HasPrefix(candidate, ancestor+"/")
}
