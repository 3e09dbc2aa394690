package primitives

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	vaulterrors "securecloud/internal/errors"
)

// HKDFDerive derives length bytes of key material from ikm using
// HKDF-SHA256 with the given salt and domain-separation info string.
func HKDFDerive(ikm, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, vaulterrors.NewCryptoError("hkdf", err)
	}
	return out, nil
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data ...[]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
