package primitives

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"math/big"

	vaulterrors "securecloud/internal/errors"
)

// GenerateSigningKey creates a fresh P-256 ECDSA private key.
func GenerateSigningKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("ecdsa-generate", err)
	}
	return key, nil
}

// MarshalSigningPublicKey encodes pub as a 65-byte x9.63 uncompressed point.
func MarshalSigningPublicKey(pub *ecdsa.PublicKey) []byte {
	return elliptic.Marshal(elliptic.P256(), pub.X, pub.Y) //nolint:staticcheck // x9.63 uncompressed point is the wire format this container is pinned to
}

// UnmarshalSigningPublicKey decodes a 65-byte x9.63 uncompressed point into
// an ECDSA public key, rejecting anything that is not a valid P-256 point.
func UnmarshalSigningPublicKey(b []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(elliptic.P256(), b) //nolint:staticcheck // paired with MarshalSigningPublicKey
	if x == nil {
		return nil, vaulterrors.NewCryptoError("ecdsa-unmarshal", vaulterrors.NewValidationError("publicKey", "not a valid P-256 point"))
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

// Sign signs digest (expected to be a SHA-256 hash) with priv and returns the
// signature in ASN.1 DER form.
func Sign(priv *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("ecdsa-sign", err)
	}
	return sig, nil
}

// Verify reports whether sig is a valid DER-encoded ECDSA signature over
// digest under pub.
func Verify(pub *ecdsa.PublicKey, digest, sig []byte) bool {
	return ecdsa.VerifyASN1(pub, digest, sig)
}

// ReconstructSigningKey rebuilds a P-256 ECDSA private key from its raw
// 32-byte scalar, as persisted by the identity store.
func ReconstructSigningKey(scalar []byte) (*ecdsa.PrivateKey, error) {
	if len(scalar) != 32 {
		return nil, vaulterrors.NewValidationError("scalar", "expected 32-byte P-256 scalar")
	}
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(scalar)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, vaulterrors.NewCryptoError("ecdsa-reconstruct", vaulterrors.NewValidationError("scalar", "out of range"))
	}
	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = curve
	priv.D = d
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(scalar)
	return priv, nil
}

// PointsEqual reports whether two P-256 ECDSA public keys are the same point,
// comparing coordinates rather than byte-slice re-encodings.
func PointsEqual(a, b *ecdsa.PublicKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.X.Cmp(b.X) == 0 && a.Y.Cmp(b.Y) == 0
}
