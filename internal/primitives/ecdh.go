package primitives

import (
	"crypto/ecdh"
	"crypto/rand"

	vaulterrors "securecloud/internal/errors"
)

// PublicKeySize is the x9.63 uncompressed point encoding length for P-256
// (1-byte tag || 32-byte X || 32-byte Y).
const PublicKeySize = 65

// Curve is the single curve this container format is pinned to.
func Curve() ecdh.Curve { return ecdh.P256() }

// GenerateECDHKey creates a fresh P-256 ECDH private key.
func GenerateECDHKey() (*ecdh.PrivateKey, error) {
	key, err := Curve().GenerateKey(rand.Reader)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("ecdh-generate", err)
	}
	return key, nil
}

// MarshalECDHPublicKey encodes pub as a 65-byte x9.63 uncompressed point.
func MarshalECDHPublicKey(pub *ecdh.PublicKey) []byte {
	return pub.Bytes()
}

// UnmarshalECDHPublicKey decodes a 65-byte x9.63 uncompressed point,
// validating that it is a point on the P-256 curve.
func UnmarshalECDHPublicKey(b []byte) (*ecdh.PublicKey, error) {
	pub, err := Curve().NewPublicKey(b)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("ecdh-unmarshal", err)
	}
	return pub, nil
}

// SharedSecret performs ECDH between priv and pub. By curve commutativity
// this is the same 32-byte value regardless of which side's ephemeral key
// initiated the exchange.
func SharedSecret(priv *ecdh.PrivateKey, pub *ecdh.PublicKey) ([]byte, error) {
	secret, err := priv.ECDH(pub)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("ecdh-exchange", err)
	}
	return secret, nil
}
