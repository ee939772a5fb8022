package pipeline

import (
	"io"

	"csync/internal/cipher"
	"csync/internal/compress"
	"csync/internal/textcodec"
)

// CompressStage builds a compress.Compressor stage at DefaultLevel. It
// ignores the key argument Compose passes every stage.
func CompressStage() Stage {
	return Stage{Build: func(inner io.Reader, _ []byte) (io.Reader, error) {
		return compress.NewCompressor(inner, compress.DefaultLevel)
	}}
}

// DecompressStage builds a compress.Decompressor stage.
func DecompressStage() Stage {
	return Stage{Build: func(inner io.Reader, _ []byte) (io.Reader, error) {
		return compress.NewDecompressor(inner)
	}}
}

// EncryptStage builds a cipher.Encryptor stage keyed by key.
func EncryptStage(key []byte) Stage {
	return Stage{
		Key: key,
		Build: func(inner io.Reader, k []byte) (io.Reader, error) {
			return cipher.NewEncryptor(inner, k)
		},
	}
}

// DecryptStage builds a cipher.Decryptor stage keyed by key.
func DecryptStage(key []byte) Stage {
	return Stage{
		Key: key,
		Build: func(inner io.Reader, k []byte) (io.Reader, error) {
			return cipher.NewDecryptor(inner, k)
		},
	}
}

// TextEncodeStage builds a textcodec.Encoder stage for the given alphabet.
func TextEncodeStage(alphabet textcodec.Alphabet) Stage {
	return Stage{Build: func(inner io.Reader, _ []byte) (io.Reader, error) {
		return textcodec.NewEncoder(inner, alphabet)
	}}
}

// TextDecodeStage builds a textcodec.Decoder stage for the given alphabet.
func TextDecodeStage(alphabet textcodec.Alphabet) Stage {
	return Stage{Build: func(inner io.Reader, _ []byte) (io.Reader, error) {
		return textcodec.NewDecoder(inner, alphabet)
	}}
}

// FileEncodePipeline builds the fixed encrypt-direction stage order
// resolved in SPEC_FULL.md's Open Questions section: compress, then
// encrypt. Compressing ciphertext wastes cycles for no gain, so
// compression always runs first.
func FileEncodePipeline(src io.Reader, key []byte) (io.Reader, error) {
	return Compose(src, CompressStage(), EncryptStage(key))
}

// FileDecodePipeline is the exact inverse of FileEncodePipeline: decrypt,
// then decompress.
func FileDecodePipeline(src io.Reader, key []byte) (io.Reader, error) {
	return Compose(src, DecryptStage(key), DecompressStage())
}
