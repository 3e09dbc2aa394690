package legacy

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"securecloud/internal/primitives"
)

// PBKDF2Iterations is the documented-alternative iteration count, per §9's
// open question: HKDF is the default KDF, PBKDF2 is an optional,
// explicitly-chosen stronger alternative for callers that want it.
const PBKDF2Iterations = 310000

// DeriveKeyPBKDF2 derives a 32-byte key from password and salt using
// PBKDF2-HMAC-SHA256 at PBKDF2Iterations. This is never the default KDF —
// Encrypt/Decrypt always use HKDF — callers opt into this explicitly when
// they need a deliberately slow, brute-force-resistant derivation.
func DeriveKeyPBKDF2(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, primitives.KeySize, sha256.New)
}
