package primitives

import (
	"crypto/aes"
	"crypto/cipher"

	vaulterrors "securecloud/internal/errors"
)

// NonceSize is the AES-256-GCM nonce length used throughout the container.
const NonceSize = 12

// TagSize is the AES-256-GCM authentication tag length.
const TagSize = 16

// KeySize is the symmetric key length for AES-256-GCM (and the FEK size).
const KeySize = 32

// Seal encrypts plaintext under key with a fresh random nonce and returns
// the combined wire form nonce(12) || ciphertext || tag(16).
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, err := RandomBytes(NonceSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+TagSize)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Open reverses Seal: combined must be nonce(12) || ciphertext || tag(16).
// Any authentication failure is reported as ErrDecryptionFailed.
func Open(key, combined []byte) ([]byte, error) {
	if len(combined) < NonceSize+TagSize {
		return nil, vaulterrors.ErrDecryptionFailed
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := combined[:NonceSize]
	ciphertextAndTag := combined[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertextAndTag, nil)
	if err != nil {
		return nil, vaulterrors.ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, vaulterrors.NewCryptoError("aead", vaulterrors.NewValidationError("key", "AES-256-GCM key must be 32 bytes"))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("aead", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("aead", err)
	}
	return aead, nil
}
