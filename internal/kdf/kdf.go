// Package kdf implements the password hasher of §4.6: PBKDF2 with
// HMAC-SHA512, producing a 64-byte credential from a password and an
// optional salt.
package kdf

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"
)

// CredentialLen is the length of a derived credential: the full
// SHA-512 digest size.
const CredentialLen = sha512.Size // 64

// KeyLen is the number of leading credential bytes used as an AES key
// downstream (internal/cipher).
const KeyLen = 32

// DefaultIterations is PBKDF2's iteration count absent an override: 2^17.
const DefaultIterations = 1 << 17

// saltLen is the fixed salt length the policy below normalizes every
// salt to, matching the default salt's own length.
const saltLen = 16

// defaultSalt is used when no salt is supplied: bytes 0x00 through 0x0F.
var defaultSalt = func() []byte {
	b := make([]byte, saltLen)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}()

// Derive computes the 64-byte PBKDF2-HMAC-SHA512 credential for password
// under salt and iters.
//
// Salt-length policy (§4.6): a nil salt uses the fixed default
// salt; a salt of saltLen bytes or longer uses its first saltLen bytes
// directly; a shorter salt is itself hashed once (a single PBKDF2
// iteration against the default salt) and the first saltLen bytes of
// that result become the effective salt. This lets arbitrary strings —
// such as a parent directory's path, used by internal/pathcrypt — serve
// as a salt without PBKDF2's salt argument growing unbounded.
//
// iters of 0 selects DefaultIterations.
func Derive(password, salt []byte, iters int) [CredentialLen]byte {
	if iters == 0 {
		iters = DefaultIterations
	}

	effectiveSalt := effectiveSalt(salt)

	var out [CredentialLen]byte
	copy(out[:], pbkdf2.Key(password, effectiveSalt, iters, CredentialLen, sha512.New))
	return out
}

func effectiveSalt(salt []byte) []byte {
	switch {
	case salt == nil:
		return defaultSalt
	case len(salt) >= saltLen:
		return salt[:saltLen]
	default:
		hashed := pbkdf2.Key(salt, defaultSalt, 1, saltLen, sha512.New)
		return hashed
	}
}

// Key returns the leading KeyLen bytes of a credential, the AES-256 key
// used by internal/cipher.
func Key(credential [CredentialLen]byte) []byte {
	k := make([]byte, KeyLen)
	copy(k, credential[:KeyLen])
	return k
}
