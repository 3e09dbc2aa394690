// Package verify implements the fingerprint and grant-verification service
// (C4): deterministic identity fingerprints, the share-time safety code,
// QR-payload exchange, and ECDSA grant verification.
package verify

import (
	"fmt"
	"strings"

	"securecloud/internal/identity"
	"securecloud/internal/primitives"
)

// FingerprintBytes is SHA-256(enc_pk || sign_pk), the root the full, short
// and cross fingerprints are taken from. SafetyCode does not use it.
func FingerprintBytes(id identity.Identity) []byte {
	return primitives.SHA256(
		primitives.MarshalECDHPublicKey(id.EncryptionPublicKey),
		marshalSigningKey(id),
	)
}

func marshalSigningKey(id identity.Identity) []byte {
	return primitives.MarshalSigningPublicKey(id.SigningPublicKey)
}

// FullFingerprint renders the first 16 bytes of FingerprintBytes as 8
// space-separated groups of 4 uppercase hex characters (39 characters total).
func FullFingerprint(id identity.Identity) string {
	return groupHex(FingerprintBytes(id)[:16], 4, " ")
}

// ShortFingerprint renders the first 8 bytes of FingerprintBytes as 4
// dash-separated groups of 4 uppercase hex characters (19 characters total).
func ShortFingerprint(id identity.Identity) string {
	return groupHex(FingerprintBytes(id)[:8], 4, "-")
}

// CrossFingerprint XOR-folds me's and them's fingerprints into 4 bytes,
// formatted as two 4-char hex groups separated by a space. Unlike Full/Short
// fingerprint it depends on a pair of identities rather than one. XOR is
// commutative, so CrossFingerprint(a, b) == CrossFingerprint(b, a): both ends
// of a verification exchange compute the same value whichever way round they
// pass the two identities.
func CrossFingerprint(me, them identity.Identity) string {
	meBytes := FingerprintBytes(me)
	themBytes := FingerprintBytes(them)

	var out [4]byte
	for i := 0; i < 4; i++ {
		var acc byte
		for j := 0; j < 8; j++ {
			idx := (i*8 + j) % 32
			acc ^= meBytes[idx] ^ themBytes[idx]
		}
		out[i] = acc
	}
	return groupHex(out[:], 4, " ")
}

// SafetyCode derives the human-verifiable code shown at share time: the
// uppercase hex of the first 4 bytes of SHA-256(ephemeralPK || recipientPK),
// formatted as two 4-char groups. This is the single implementation used by
// both the engine's add_recipient and any out-of-band verification path, so
// the two always agree byte-for-byte.
func SafetyCode(ephemeralPK, recipientPK []byte) string {
	digest := primitives.SHA256(ephemeralPK, recipientPK)
	return groupHex(digest[:4], 4, " ")
}

func groupHex(b []byte, groupSize int, sep string) string {
	hexStr := strings.ToUpper(fmt.Sprintf("%x", b))
	var groups []string
	for i := 0; i < len(hexStr); i += groupSize {
		end := i + groupSize
		if end > len(hexStr) {
			end = len(hexStr)
		}
		groups = append(groups, hexStr[i:end])
	}
	return strings.Join(groups, sep)
}
