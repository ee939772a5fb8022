package compress

import (
	"bytes"
	"io"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 4095, 4096, 70000} {
		input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), size/44+1)[:size]

		c, err := NewCompressor(bytes.NewReader(input), DefaultLevel)
		if err != nil {
			t.Fatalf("NewCompressor: %v", err)
		}
		compressed, err := io.ReadAll(c)
		if err != nil {
			t.Fatalf("read compressor: %v", err)
		}

		d, err := NewDecompressor(bytes.NewReader(compressed))
		if err != nil {
			t.Fatalf("NewDecompressor: %v", err)
		}
		defer d.Close()

		out, err := io.ReadAll(d)
		if err != nil {
			t.Fatalf("read decompressor: %v", err)
		}
		if !bytes.Equal(out, input) {
			t.Fatalf("size %d: round trip mismatch", size)
		}
	}
}
