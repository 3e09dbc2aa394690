package identity

import (
	"crypto/ecdh"
	"crypto/ecdsa"

	"securecloud/internal/primitives"
)

// Variant tags which kind of private key backs an ECDHPrivateKey or
// SigningPrivateKey: hardware-backed (opaque, device-scoped) or software
// (a raw scalar this process can reconstruct on its own). Callers must
// never branch on more than "is hardware-backed?" — the Sign and
// SharedSecret operations behave identically over both.
type Variant byte

const (
	VariantSoftware Variant = 0
	VariantHardware Variant = 1
)

// HardwareBackend abstracts a device-bound secure element (Android
// Keystore, Apple Secure Enclave, a PKCS#11 token, ...) capable of
// performing ECDH and ECDSA without ever exposing the raw scalar to this
// process. No portable Go implementation exists, so this package ships
// none — real builds plug in a platform-specific one. When absent, the
// identity service falls back to software keys, as the spec requires.
type HardwareBackend interface {
	// Available reports whether this device exposes hardware-backed keys.
	Available() bool
	NewECDHKey() (handle []byte, pub *ecdh.PublicKey, err error)
	NewECDSAKey() (handle []byte, pub *ecdsa.PublicKey, err error)
	ECDH(handle []byte, peer *ecdh.PublicKey) ([]byte, error)
	Sign(handle []byte, digest []byte) ([]byte, error)
	ECDHPublicKey(handle []byte) (*ecdh.PublicKey, error)
	ECDSAPublicKey(handle []byte) (*ecdsa.PublicKey, error)
}

// ECDHPrivateKey performs ECDH identically whether backed by a software
// scalar or a hardware handle.
type ECDHPrivateKey interface {
	PublicKey() *ecdh.PublicKey
	SharedSecret(peer *ecdh.PublicKey) ([]byte, error)
	IsHardwareBacked() bool
	// blob returns the persisted form: 1 variant byte || payload.
	blob() []byte
}

// SigningPrivateKey signs identically whether backed by a software scalar
// or a hardware handle.
type SigningPrivateKey interface {
	PublicKey() *ecdsa.PublicKey
	Sign(digest []byte) ([]byte, error)
	IsHardwareBacked() bool
	blob() []byte
}

// --- software variant ---

type softwareECDHKey struct{ key *ecdh.PrivateKey }

func (k *softwareECDHKey) PublicKey() *ecdh.PublicKey { return k.key.PublicKey() }
func (k *softwareECDHKey) SharedSecret(peer *ecdh.PublicKey) ([]byte, error) {
	return primitives.SharedSecret(k.key, peer)
}
func (k *softwareECDHKey) IsHardwareBacked() bool { return false }
func (k *softwareECDHKey) blob() []byte {
	return append([]byte{byte(VariantSoftware)}, k.key.Bytes()...)
}

type softwareSigningKey struct{ key *ecdsa.PrivateKey }

func (k *softwareSigningKey) PublicKey() *ecdsa.PublicKey { return &k.key.PublicKey }
func (k *softwareSigningKey) Sign(digest []byte) ([]byte, error) {
	return primitives.Sign(k.key, digest)
}
func (k *softwareSigningKey) IsHardwareBacked() bool { return false }
func (k *softwareSigningKey) blob() []byte {
	d := k.key.D.Bytes()
	padded := make([]byte, 32)
	copy(padded[32-len(d):], d)
	return append([]byte{byte(VariantSoftware)}, padded...)
}

// --- hardware-backed variant ---

type hardwareECDHKey struct {
	handle  []byte
	backend HardwareBackend
	pub     *ecdh.PublicKey
}

func (k *hardwareECDHKey) PublicKey() *ecdh.PublicKey { return k.pub }
func (k *hardwareECDHKey) SharedSecret(peer *ecdh.PublicKey) ([]byte, error) {
	return k.backend.ECDH(k.handle, peer)
}
func (k *hardwareECDHKey) IsHardwareBacked() bool { return true }
func (k *hardwareECDHKey) blob() []byte           { return append([]byte{byte(VariantHardware)}, k.handle...) }

type hardwareSigningKey struct {
	handle  []byte
	backend HardwareBackend
	pub     *ecdsa.PublicKey
}

func (k *hardwareSigningKey) PublicKey() *ecdsa.PublicKey { return k.pub }
func (k *hardwareSigningKey) Sign(digest []byte) ([]byte, error) {
	return k.backend.Sign(k.handle, digest)
}
func (k *hardwareSigningKey) IsHardwareBacked() bool { return true }
func (k *hardwareSigningKey) blob() []byte {
	return append([]byte{byte(VariantHardware)}, k.handle...)
}
