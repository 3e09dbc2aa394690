package primitives

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	vaulterrors "securecloud/internal/errors"
)

func TestRandomBytesLengthAndVariance(t *testing.T) {
	a, err := RandomBytes(32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := RandomBytes(32)
	require.NoError(t, err)
	require.False(t, bytes.Equal(a, b), "two independent draws should not collide")
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	combined, err := Seal(key, plaintext)
	require.NoError(t, err)
	require.Len(t, combined, NonceSize+len(plaintext)+TagSize)

	got, err := Open(key, combined)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestSealOpenEmptyPlaintext(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)

	combined, err := Seal(key, nil)
	require.NoError(t, err)
	require.Len(t, combined, NonceSize+TagSize)

	got, err := Open(key, combined)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestOpenTamperedCiphertextFails(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)

	combined, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	tampered := append([]byte(nil), combined...)
	tampered[len(tampered)-1] ^= 0x01

	_, err = Open(key, tampered)
	require.ErrorIs(t, err, vaulterrors.ErrDecryptionFailed)
}

func TestOpenRejectsShortInput(t *testing.T) {
	key, err := RandomBytes(KeySize)
	require.NoError(t, err)

	_, err = Open(key, []byte("too short"))
	require.Error(t, err)
}

func TestECDHSharedSecretAgreement(t *testing.T) {
	alice, err := GenerateECDHKey()
	require.NoError(t, err)
	bob, err := GenerateECDHKey()
	require.NoError(t, err)

	s1, err := SharedSecret(alice, bob.PublicKey())
	require.NoError(t, err)
	s2, err := SharedSecret(bob, alice.PublicKey())
	require.NoError(t, err)

	require.Equal(t, s1, s2)
}

func TestECDHPublicKeyMarshalRoundTrip(t *testing.T) {
	key, err := GenerateECDHKey()
	require.NoError(t, err)

	encoded := MarshalECDHPublicKey(key.PublicKey())
	require.Len(t, encoded, PublicKeySize)

	decoded, err := UnmarshalECDHPublicKey(encoded)
	require.NoError(t, err)
	require.Equal(t, key.PublicKey().Bytes(), decoded.Bytes())
}

func TestUnmarshalECDHPublicKeyRejectsGarbage(t *testing.T) {
	_, err := UnmarshalECDHPublicKey(make([]byte, PublicKeySize))
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	digest := SHA256([]byte("grant payload"))
	sig, err := Sign(key, digest)
	require.NoError(t, err)

	require.True(t, Verify(&key.PublicKey, digest, sig))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	digest := SHA256([]byte("grant payload"))
	sig, err := Sign(key, digest)
	require.NoError(t, err)

	tampered := append([]byte(nil), sig...)
	tampered[0] ^= 0xFF

	require.False(t, Verify(&key.PublicKey, digest, tampered))
}

func TestSigningPublicKeyMarshalRoundTrip(t *testing.T) {
	key, err := GenerateSigningKey()
	require.NoError(t, err)

	encoded := MarshalSigningPublicKey(&key.PublicKey)
	require.Len(t, encoded, PublicKeySize)

	decoded, err := UnmarshalSigningPublicKey(encoded)
	require.NoError(t, err)
	require.True(t, PointsEqual(&key.PublicKey, decoded))
}

func TestHKDFDeriveIsDeterministicAndDomainSeparated(t *testing.T) {
	ikm := []byte("shared-secret-material-32-bytes")
	salt := []byte("0123456789abcdef")

	a, err := HKDFDerive(ikm, salt, []byte("domain-a"), 32)
	require.NoError(t, err)
	b, err := HKDFDerive(ikm, salt, []byte("domain-a"), 32)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := HKDFDerive(ikm, salt, []byte("domain-b"), 32)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestSecureZero(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	SecureZero(b)
	require.Equal(t, []byte{0, 0, 0, 0}, b)
}
