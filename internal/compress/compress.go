// Package compress implements the streaming compression stage of a csync
// pipeline, over the zstd family as required by §4.4.
package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// DefaultLevel is used when Level is not overridden.
const DefaultLevel = 3

// encoderLevel buckets a zstd numeric level (1-22) into klauspost/compress's
// coarser EncoderLevel, the knob its streaming writer actually exposes.
func encoderLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 3:
		return zstd.SpeedFastest
	case level <= 9:
		return zstd.SpeedDefault
	case level <= 15:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

// Compressor streams plaintext from an inner source out as a zstd frame.
// klauspost/compress's zstd.Encoder is a writer, so construction starts a
// goroutine that copies src into the encoder, whose output feeds an
// io.Pipe; Read drains the pipe's read end.
type Compressor struct {
	pr *io.PipeReader
	pw *io.PipeWriter
	enc *zstd.Encoder
	err chan error
}

// NewCompressor wraps src, compressing everything read from it. level must
// be in [0, 22]; 0 selects DefaultLevel.
func NewCompressor(src io.Reader, level int) (*Compressor, error) {
	if level == 0 {
		level = DefaultLevel
	}
	if level < 1 || level > 22 {
		return nil, fmt.Errorf("compress: level %d out of range [1, 22]", level)
	}

	pr, pw := io.Pipe()
	enc, err := zstd.NewWriter(pw, zstd.WithEncoderLevel(encoderLevel(level)))
	if err != nil {
		return nil, fmt.Errorf("compress: init encoder: %w", err)
	}

	c := &Compressor{pr: pr, pw: pw, enc: enc, err: make(chan error, 1)}
	go c.run(src)
	return c, nil
}

func (c *Compressor) run(src io.Reader) {
	_, err := io.Copy(c.enc, src)
	if closeErr := c.enc.Close(); err == nil {
		err = closeErr
	}
	c.pw.CloseWithError(err)
}

// Read implements stream.Transformer.
func (c *Compressor) Read(p []byte) (int, error) {
	return c.pr.Read(p)
}

// Decompressor streams a zstd frame from an inner source back out as
// plaintext.
type Decompressor struct {
	dec *zstd.Decoder
}

// NewDecompressor wraps src, a zstd-compressed byte stream.
func NewDecompressor(src io.Reader) (*Decompressor, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("compress: init decoder: %w", err)
	}
	return &Decompressor{dec: dec}, nil
}

// Read implements stream.Transformer.
func (d *Decompressor) Read(p []byte) (int, error) {
	return d.dec.Read(p)
}

// Close releases the decoder's background goroutines. Safe to call more
// than once.
func (d *Decompressor) Close() {
	d.dec.Close()
}
