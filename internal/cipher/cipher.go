// Package cipher implements the symmetric cipher stage of a csync
// pipeline: AES-256 in CFB-128 stream mode under a single, fixed, public
// initialization vector (§4.5).
//
// A fixed IV is safe here only because every file is encrypted under a
// key that is itself derived per file (internal/kdf, internal/pathcrypt).
// Callers must never reuse a key across two different files' contents.
//
// This stage carries no integrity tag and no magic number by design
// (the non-goals): a corrupted or truncated ciphertext decrypts to
// corrupted plaintext silently.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"fmt"
	"io"

	"csync/internal/stream"
)

// iv is the fixed, public initialization vector shared by every
// encrypt/decrypt operation: bytes 0x00 through 0x0F.
var iv = func() []byte {
	b := make([]byte, aes.BlockSize)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}()

// KeySize is the number of leading key bytes used; callers may pass a
// longer credential and only its first KeySize bytes are consumed.
const KeySize = 32

func newStream(key []byte, encrypt bool) (stdcipher.Stream, error) {
	if len(key) < KeySize {
		return nil, fmt.Errorf("cipher: key must be at least %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key[:KeySize])
	if err != nil {
		return nil, fmt.Errorf("cipher: init AES block: %w", err)
	}
	if encrypt {
		return stdcipher.NewCFBEncrypter(block, iv), nil
	}
	return stdcipher.NewCFBDecrypter(block, iv), nil
}

// Encryptor streams plaintext from an inner source out as ciphertext.
type Encryptor struct {
	src    io.Reader
	stream stdcipher.Stream
	done   bool
}

// NewEncryptor wraps src, encrypting everything read from it under key
// (only the first KeySize bytes of which are used).
func NewEncryptor(src io.Reader, key []byte) (*Encryptor, error) {
	s, err := newStream(key, true)
	if err != nil {
		return nil, err
	}
	return &Encryptor{src: src, stream: s}, nil
}

// Read implements stream.Transformer following §4.5's contract:
// input_size = max(1, L - block size), so the inner pull can never
// produce more ciphertext than fits in the caller's buffer.
func (e *Encryptor) Read(p []byte) (int, error) {
	if e.done {
		return 0, io.EOF
	}
	inputSize := max(1, len(p)-aes.BlockSize)
	in, err := stream.PullN(e.src, inputSize)
	if err == io.EOF {
		e.done = true
		return 0, io.EOF
	}
	if err != nil {
		return 0, err
	}
	e.stream.XORKeyStream(p[:len(in)], in)
	return len(in), nil
}

// Decryptor streams ciphertext from an inner source back out as
// plaintext. It is the exact mirror of Encryptor: same fixed IV, same
// read contract, inverted mode.
type Decryptor struct {
	src    io.Reader
	stream stdcipher.Stream
	done   bool
}

// NewDecryptor wraps src, decrypting everything read from it under key.
func NewDecryptor(src io.Reader, key []byte) (*Decryptor, error) {
	s, err := newStream(key, false)
	if err != nil {
		return nil, err
	}
	return &Decryptor{src: src, stream: s}, nil
}

// Read implements stream.Transformer.
func (d *Decryptor) Read(p []byte) (int, error) {
	if d.done {
		return 0, io.EOF
	}
	inputSize := max(1, len(p)-aes.BlockSize)
	in, err := stream.PullN(d.src, inputSize)
	if err == io.EOF {
		d.done = true
		return 0, io.EOF
	}
	if err != nil {
		return 0, err
	}
	d.stream.XORKeyStream(p[:len(in)], in)
	return len(in), nil
}
