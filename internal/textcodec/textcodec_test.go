package textcodec

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func encodeAll(t *testing.T, input string, a Alphabet) string {
	t.Helper()
	enc, err := NewEncoder(strings.NewReader(input), a)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	out, err := io.ReadAll(enc)
	if err != nil {
		t.Fatalf("read encoder: %v", err)
	}
	return string(out)
}

func decodeAll(t *testing.T, input string, a Alphabet) string {
	t.Helper()
	dec, err := NewDecoder(strings.NewReader(input), a)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	out, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("read decoder: %v", err)
	}
	return string(out)
}

// P5: base16/32/64 encodings of fixed strings match RFC4648 reference
// vectors verbatim.
func TestRFC4648Vectors(t *testing.T) {
	// Scenario 2 from §8: "abcd" -> "MFRGGZA=" under base32.
	if got := encodeAll(t, "abcd", Base32); got != "MFRGGZA=" {
		t.Fatalf("base32(abcd) = %q, want MFRGGZA=", got)
	}

	// Scenario 3 from §8.
	const input = `asoidjhxlkdjfad;:| !@$#^&*(_][`
	const want = "YXNvaWRqaHhsa2RqZmFkOzp8ICFAJCNeJiooX11b"
	if got := encodeAll(t, input, Base64); got != want {
		t.Fatalf("base64(%q) = %q, want %q", input, got, want)
	}

	if got := encodeAll(t, "f", Base16); got != "66" {
		t.Fatalf("hex(f) = %q, want 66", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, a := range []Alphabet{Base16, Base32, Base64, Base64PathSafe} {
		for _, size := range []int{0, 1, 3, 5, 4095, 4096, 4097, 9000} {
			input := bytes.Repeat([]byte{0x5a, 0x01, 0xff}, size/3+1)[:size]
			encoded := encodeAll(t, string(input), a)
			decoded := decodeAll(t, encoded, a)
			if decoded != string(input) {
				t.Fatalf("alphabet %d size %d: round trip mismatch", a, size)
			}
		}
	}
}

func TestPathSafeAlphabetHasNoSlash(t *testing.T) {
	input := bytes.Repeat([]byte{0xff, 0xfe, 0xfd, 0x00}, 64)
	got := encodeAll(t, string(input), Base64PathSafe)
	if strings.ContainsAny(got, "/+") {
		t.Fatalf("path-safe base64 output contains unsafe character: %q", got)
	}
}
