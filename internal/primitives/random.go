// Package primitives provides the cryptographic primitives the vault
// container is built from: AES-256-GCM, P-256 ECDH/ECDSA, HKDF-SHA256,
// SHA-256, and a CSPRNG. The container's cryptographic operations are
// implemented here; other packages use the crypto/ecdh and crypto/ecdsa key
// types, and internal/legacy calls crypto/rand and crypto/sha256 directly
// for password generation and PBKDF2.
package primitives

import (
	"bytes"
	"crypto/rand"

	vaulterrors "securecloud/internal/errors"
)

// RandomBytes draws n cryptographically secure random bytes.
//
// A successful crypto/rand.Read producing an all-zero buffer is
// astronomically unlikely and almost certainly indicates a broken
// entropy source, so it is treated as a fatal error rather than
// silently accepted.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, vaulterrors.NewCryptoError("rand", err)
	}
	if n > 0 && bytes.Equal(b, make([]byte, n)) {
		return nil, vaulterrors.NewCryptoError("rand", vaulterrors.ErrRandFailure)
	}
	return b, nil
}
