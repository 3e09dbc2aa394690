package identity

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/keystore"
	"securecloud/internal/primitives"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(keystore.NewMemoryStore(), nil)
}

func TestGenerateProducesSoftwareBackedIdentity(t *testing.T) {
	svc := newService(t)

	id, err := svc.Generate("alice's phone")
	require.NoError(t, err)
	require.NotEqual(t, id.UserID.String(), "")
	require.Equal(t, "alice's phone", id.DisplayName)
	require.NotNil(t, id.EncryptionPublicKey)
	require.NotNil(t, id.SigningPublicKey)
}

func TestHasIdentityReflectsGenerate(t *testing.T) {
	svc := newService(t)
	require.False(t, svc.HasIdentity())

	_, err := svc.Generate("bob")
	require.NoError(t, err)
	require.True(t, svc.HasIdentity())
}

func TestLoadIdentityWithoutGenerateFails(t *testing.T) {
	svc := newService(t)
	_, err := svc.LoadIdentity()
	require.ErrorIs(t, err, vaulterrors.ErrIdentityNotFound)
}

func TestLoadIdentityRoundTrip(t *testing.T) {
	svc := newService(t)
	generated, err := svc.Generate("carol")
	require.NoError(t, err)

	loaded, err := svc.LoadIdentity()
	require.NoError(t, err)
	require.Equal(t, generated.UserID, loaded.UserID)
	require.Equal(t, generated.DisplayName, loaded.DisplayName)
	require.Equal(t, generated.EncryptionPublicKey.Bytes(), loaded.EncryptionPublicKey.Bytes())
	require.True(t, primitives.PointsEqual(generated.SigningPublicKey, loaded.SigningPublicKey))
}

func TestLoadKeyPairReconstructsWorkingKeys(t *testing.T) {
	svc := newService(t)
	generated, err := svc.Generate("dave")
	require.NoError(t, err)

	kp, err := svc.LoadKeyPair()
	require.NoError(t, err)
	require.Equal(t, generated.UserID, kp.Identity.UserID)
	require.False(t, kp.EncryptionPrivate.IsHardwareBacked())
	require.False(t, kp.SigningPrivate.IsHardwareBacked())

	peer, err := primitives.GenerateECDHKey()
	require.NoError(t, err)
	secret, err := kp.EncryptionPrivate.SharedSecret(peer.PublicKey())
	require.NoError(t, err)
	require.Len(t, secret, 32)

	digest := primitives.SHA256([]byte("a grant payload"))
	sig, err := kp.SigningPrivate.Sign(digest)
	require.NoError(t, err)
	require.True(t, primitives.Verify(kp.Identity.SigningPublicKey, digest, sig))
}

func TestLoadKeyPairWithoutGenerateFails(t *testing.T) {
	svc := newService(t)
	_, err := svc.LoadKeyPair()
	require.ErrorIs(t, err, vaulterrors.ErrIdentityNotFound)
}

func TestUpdateDisplayNameLeavesKeysIntact(t *testing.T) {
	svc := newService(t)
	_, err := svc.Generate("initial name")
	require.NoError(t, err)

	kpBefore, err := svc.LoadKeyPair()
	require.NoError(t, err)

	require.NoError(t, svc.UpdateDisplayName("renamed"))

	id, err := svc.LoadIdentity()
	require.NoError(t, err)
	require.Equal(t, "renamed", id.DisplayName)

	kpAfter, err := svc.LoadKeyPair()
	require.NoError(t, err)
	require.Equal(t, kpBefore.Identity.EncryptionPublicKey.Bytes(), kpAfter.Identity.EncryptionPublicKey.Bytes())
}

func TestUpdateDisplayNameWithoutIdentityFails(t *testing.T) {
	svc := newService(t)
	err := svc.UpdateDisplayName("nobody")
	require.ErrorIs(t, err, vaulterrors.ErrIdentityNotFound)
}

func TestDeleteIdentityRemovesEverything(t *testing.T) {
	svc := newService(t)
	_, err := svc.Generate("evan")
	require.NoError(t, err)
	require.True(t, svc.HasIdentity())

	require.NoError(t, svc.DeleteIdentity())
	require.False(t, svc.HasIdentity())

	_, err = svc.LoadKeyPair()
	require.ErrorIs(t, err, vaulterrors.ErrIdentityNotFound)
}

func TestDeleteIdentityWithoutGenerateIsNotAnError(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.DeleteIdentity())
}

// fakeHardwareBackend exercises the hardware-backed reconstruction path
// without any real secure element: it stores the underlying software keys
// itself and hands back an opaque handle (a small counter-based string)
// that only it can resolve back to a key.
type fakeHardwareBackend struct {
	ecdhKeys map[string]*ecdh.PrivateKey
	signKeys map[string]*ecdsa.PrivateKey
	next     int
}

func newFakeHardwareBackend() *fakeHardwareBackend {
	return &fakeHardwareBackend{
		ecdhKeys: make(map[string]*ecdh.PrivateKey),
		signKeys: make(map[string]*ecdsa.PrivateKey),
	}
}

func (b *fakeHardwareBackend) Available() bool { return true }

func (b *fakeHardwareBackend) NewECDHKey() ([]byte, *ecdh.PublicKey, error) {
	key, err := primitives.GenerateECDHKey()
	if err != nil {
		return nil, nil, err
	}
	b.next++
	handle := []byte(fmt.Sprintf("ecdh-%d", b.next))
	b.ecdhKeys[string(handle)] = key
	return handle, key.PublicKey(), nil
}

func (b *fakeHardwareBackend) NewECDSAKey() ([]byte, *ecdsa.PublicKey, error) {
	key, err := primitives.GenerateSigningKey()
	if err != nil {
		return nil, nil, err
	}
	b.next++
	handle := []byte(fmt.Sprintf("sign-%d", b.next))
	b.signKeys[string(handle)] = key
	return handle, &key.PublicKey, nil
}

func (b *fakeHardwareBackend) ECDH(handle []byte, peer *ecdh.PublicKey) ([]byte, error) {
	key, ok := b.ecdhKeys[string(handle)]
	if !ok {
		return nil, vaulterrors.ErrIdentityNotFound
	}
	return primitives.SharedSecret(key, peer)
}

func (b *fakeHardwareBackend) Sign(handle []byte, digest []byte) ([]byte, error) {
	key, ok := b.signKeys[string(handle)]
	if !ok {
		return nil, vaulterrors.ErrIdentityNotFound
	}
	return primitives.Sign(key, digest)
}

func (b *fakeHardwareBackend) ECDHPublicKey(handle []byte) (*ecdh.PublicKey, error) {
	key, ok := b.ecdhKeys[string(handle)]
	if !ok {
		return nil, vaulterrors.ErrIdentityNotFound
	}
	return key.PublicKey(), nil
}

func (b *fakeHardwareBackend) ECDSAPublicKey(handle []byte) (*ecdsa.PublicKey, error) {
	key, ok := b.signKeys[string(handle)]
	if !ok {
		return nil, vaulterrors.ErrIdentityNotFound
	}
	return &key.PublicKey, nil
}

func TestGeneratePrefersHardwareWhenAvailable(t *testing.T) {
	backend := newFakeHardwareBackend()
	svc := NewService(keystore.NewMemoryStore(), backend)

	id, err := svc.Generate("fiona")
	require.NoError(t, err)
	require.NotNil(t, id.EncryptionPublicKey)

	kp, err := svc.LoadKeyPair()
	require.NoError(t, err)
	require.True(t, kp.EncryptionPrivate.IsHardwareBacked())
	require.True(t, kp.SigningPrivate.IsHardwareBacked())

	peer, err := primitives.GenerateECDHKey()
	require.NoError(t, err)
	secret, err := kp.EncryptionPrivate.SharedSecret(peer.PublicKey())
	require.NoError(t, err)
	require.Len(t, secret, 32)
}
