// Package textcodec implements the binary-to-text stage of a csync
// pipeline: streaming RFC4648 base16, base32, and base64, plus a
// path-safe base64 variant whose alphabet is filesystem-friendly so
// encoded output may appear as a path component.
//
// Both encoder and decoder are transformers (see internal/stream): each
// wraps an inner byte source and exposes one via a FIFO pair — src_buf
// holds bytes pulled from the inner source awaiting encoding/decoding,
// enc_buf holds bytes ready to hand to the caller.
package textcodec

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"csync/internal/stream"
)

// Alphabet selects the RFC4648 variant used by an Encoder/Decoder.
type Alphabet int

const (
	Base16 Alphabet = iota
	Base32
	Base64
	// Base64PathSafe replaces '+' and '/' with '-' and '_' so encoded
	// output is safe to use directly as a path component.
	Base64PathSafe
)

// bufSize bounds how many raw bytes an Encoder pulls from its inner
// source per refill, keeping resident memory independent of input size
// (spec invariant I4 / testable property P6).
const bufSize = 4096

// rawCodec is the block-oriented interface every stdlib text encoding in
// use here already implements.
type rawCodec interface {
	EncodedLen(n int) int
	DecodedLen(n int) int
	Encode(dst, src []byte)
	Decode(dst, src []byte) (int, error)
}

// hexCodec adapts encoding/hex's package-level functions to rawCodec;
// hex has no Encoding struct of its own because it never pads.
type hexCodec struct{}

func (hexCodec) EncodedLen(n int) int { return hex.EncodedLen(n) }
func (hexCodec) DecodedLen(n int) int { return hex.DecodedLen(n) }
func (hexCodec) Encode(dst, src []byte) {
	hex.Encode(dst, src)
}
func (hexCodec) Decode(dst, src []byte) (int, error) {
	return hex.Decode(dst, src)
}

// codecFor returns the raw codec, the number of raw bytes that encode to
// a pad-less output (the encode block size), and the number of encoded
// symbols that decode to a whole number of bytes (the decode block size).
func codecFor(a Alphabet) (rawCodec, int, int, error) {
	switch a {
	case Base16:
		return hexCodec{}, 1, 2, nil
	case Base32:
		return base32.StdEncoding, 5, 8, nil
	case Base64:
		return base64.StdEncoding, 3, 4, nil
	case Base64PathSafe:
		return base64.URLEncoding, 3, 4, nil
	default:
		return nil, 0, 0, fmt.Errorf("textcodec: unknown alphabet %d", a)
	}
}

// Encoder streams raw bytes from an inner source out as text.
type Encoder struct {
	src       io.Reader
	codec     rawCodec
	blockSize int

	srcBuf []byte
	encBuf []byte
	eof    bool
}

// NewEncoder wraps src, encoding everything read from it using alphabet.
func NewEncoder(src io.Reader, alphabet Alphabet) (*Encoder, error) {
	codec, blockSize, _, err := codecFor(alphabet)
	if err != nil {
		return nil, err
	}
	return &Encoder{src: src, codec: codec, blockSize: blockSize}, nil
}

func (e *Encoder) refill() error {
	if len(e.srcBuf) < e.blockSize && !e.eof {
		chunk, err := stream.PullN(e.src, bufSize-e.blockSize)
		switch {
		case err == io.EOF:
			e.eof = true
		case err != nil:
			return err
		default:
			e.srcBuf = append(e.srcBuf, chunk...)
		}
	}

	usable := len(e.srcBuf) - (len(e.srcBuf) % e.blockSize)
	if e.eof {
		usable = len(e.srcBuf)
	}
	if usable == 0 {
		return nil
	}

	encoded := make([]byte, e.codec.EncodedLen(usable))
	e.codec.Encode(encoded, e.srcBuf[:usable])
	e.encBuf = append(e.encBuf, encoded...)
	e.srcBuf = e.srcBuf[usable:]
	return nil
}

// Read implements stream.Transformer.
func (e *Encoder) Read(p []byte) (int, error) {
	for len(e.encBuf) == 0 {
		if err := e.refill(); err != nil {
			return 0, err
		}
		if len(e.encBuf) == 0 {
			if e.eof && len(e.srcBuf) == 0 {
				return 0, io.EOF
			}
			if e.eof {
				// eof but encode of the residual produced nothing only
				// possible when residual is itself empty, handled above.
				return 0, io.EOF
			}
		}
	}
	n := copy(p, e.encBuf)
	e.encBuf = e.encBuf[n:]
	return n, nil
}

// Decoder streams text from an inner source back out as raw bytes.
type Decoder struct {
	src       io.Reader
	codec     rawCodec
	symBlock  int // encoded symbols per decode block
	byteBlock int // raw bytes a full decode block resolves to

	srcBuf []byte
	decBuf []byte
	eof    bool
}

// NewDecoder wraps src, a stream of text encoded with alphabet, decoding
// it back to raw bytes.
func NewDecoder(src io.Reader, alphabet Alphabet) (*Decoder, error) {
	codec, _, symBlock, err := codecFor(alphabet)
	if err != nil {
		return nil, err
	}
	byteBlock := codec.DecodedLen(symBlock)
	return &Decoder{src: src, codec: codec, symBlock: symBlock, byteBlock: byteBlock}, nil
}

func (d *Decoder) refill() error {
	if len(d.srcBuf) < d.symBlock && !d.eof {
		chunk, err := stream.PullN(d.src, bufSize-d.symBlock)
		switch {
		case err == io.EOF:
			d.eof = true
		case err != nil:
			return err
		default:
			d.srcBuf = append(d.srcBuf, chunk...)
		}
	}

	usable := len(d.srcBuf) - (len(d.srcBuf) % d.symBlock)
	if d.eof {
		usable = len(d.srcBuf)
	}
	if usable == 0 {
		return nil
	}

	decoded := make([]byte, d.codec.DecodedLen(usable))
	n, err := d.codec.Decode(decoded, d.srcBuf[:usable])
	if err != nil {
		return err
	}
	d.decBuf = append(d.decBuf, decoded[:n]...)
	d.srcBuf = d.srcBuf[usable:]
	return nil
}

// Read implements stream.Transformer.
func (d *Decoder) Read(p []byte) (int, error) {
	for len(d.decBuf) == 0 {
		if err := d.refill(); err != nil {
			return 0, err
		}
		if len(d.decBuf) == 0 && d.eof && len(d.srcBuf) == 0 {
			return 0, io.EOF
		}
	}
	n := copy(p, d.decBuf)
	d.decBuf = d.decBuf[n:]
	return n, nil
}
