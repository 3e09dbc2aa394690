// Package legacy implements the SCV1 password-based container (C8): a
// self-contained AEAD format used only when no C3 identity has been
// provisioned on the device.
package legacy

import (
	"encoding/binary"

	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/primitives"
)

const (
	// Magic is the fixed 4-byte SCV1 file identifier: "SC_V".
	Magic = "SC_V"
	// Version is the only SCV1 version this codec accepts.
	Version = 0x0001

	saltSize = 16
	nonceSize = 12

	// HeaderSize is the total size of the fixed-width SCV1 header.
	HeaderSize = 4 + 2 + saltSize + nonceSize + 8

	// hkdfInfo is the domain-separation string for the legacy codec's
	// default key derivation.
	hkdfInfo = "SecureCloud-AES256GCM"
)

// Encrypt derives a key from password and seals data, emitting the SCV1
// on-disk layout: magic || version || salt || nonce || originalSize ||
// ciphertext || tag. Encrypting the same plaintext twice under the same
// password yields different bytes: the salt and nonce are fresh every call.
func Encrypt(data []byte, password string) ([]byte, error) {
	salt, err := primitives.RandomBytes(saltSize)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "legacy: generate salt")
	}

	key, err := deriveKeyHKDF(password, salt)
	if err != nil {
		return nil, err
	}

	sealed, err := primitives.Seal(key, data)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "legacy: seal")
	}
	nonce, ciphertextAndTag := sealed[:nonceSize], sealed[nonceSize:]

	out := make([]byte, 0, HeaderSize+len(ciphertextAndTag))
	out = append(out, Magic...)
	out = appendUint16LE(out, Version)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = appendUint64LE(out, uint64(len(data)))
	out = append(out, ciphertextAndTag...)
	return out, nil
}

// Decrypt parses an SCV1 file and opens it under password. Structural
// defects (short input, bad magic/version) produce ErrInvalidFormat; a
// wrong password or corrupted ciphertext produces ErrDecryptionFailed —
// the two are always distinguishable.
func Decrypt(data []byte, password string) ([]byte, error) {
	if len(data) <= HeaderSize {
		return nil, vaulterrors.NewContainerError("length", vaulterrors.ErrInvalidFormat)
	}
	if string(data[0:4]) != Magic {
		return nil, vaulterrors.NewContainerError("magic", vaulterrors.ErrInvalidFormat)
	}
	if binary.LittleEndian.Uint16(data[4:6]) != Version {
		return nil, vaulterrors.NewContainerError("version", vaulterrors.ErrInvalidFormat)
	}

	salt := data[6 : 6+saltSize]
	nonce := data[6+saltSize : 6+saltSize+nonceSize]
	// originalSize (data[34:42]) is informational only; the AEAD tag is
	// what actually authenticates the plaintext length.
	ciphertextAndTag := data[HeaderSize:]

	key, err := deriveKeyHKDF(password, salt)
	if err != nil {
		return nil, err
	}

	combined := make([]byte, 0, nonceSize+len(ciphertextAndTag))
	combined = append(combined, nonce...)
	combined = append(combined, ciphertextAndTag...)

	return primitives.Open(key, combined)
}

func deriveKeyHKDF(password string, salt []byte) ([]byte, error) {
	return primitives.HKDFDerive([]byte(password), salt, []byte(hkdfInfo), primitives.KeySize)
}

func appendUint16LE(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendUint64LE(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
