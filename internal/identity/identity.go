// Package identity implements the device identity service (C3): the
// long-term encryption and signing key pair a vault uses both to encrypt
// its own files and to receive shares from other devices.
package identity

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/keystore"
	"securecloud/internal/log"
	"securecloud/internal/primitives"
)

const (
	accountEncPrivate  = "identity.enc.private"
	accountSignPrivate = "identity.sign.private"
	accountDescriptor  = "identity.descriptor"
)

// Identity is the stable, public-only descriptor of a device's long-term
// key pair.
type Identity struct {
	UserID              uuid.UUID
	EncryptionPublicKey *ecdh.PublicKey
	SigningPublicKey    *ecdsa.PublicKey
	CreatedAt           time.Time
	DisplayName         string
}

// descriptorWire is the JSON-on-disk shape of an Identity's public state.
type descriptorWire struct {
	UserID      string `json:"userId"`
	EncPK       string `json:"encPK"`
	SignPK      string `json:"signPK"`
	CreatedAt   int64  `json:"createdAt"`
	DisplayName string `json:"displayName"`
}

// KeyPair is an Identity plus both of its private keys, reconstructed on
// demand from the key store. It never outlives the scope that requested
// it; private keys are never copied beyond that scope.
type KeyPair struct {
	Identity          Identity
	EncryptionPrivate ECDHPrivateKey
	SigningPrivate    SigningPrivateKey
}

// Service implements the identity operations of §4.1. It holds no
// long-term in-memory state of its own: every call re-reads the key
// store, so multiple Service values backed by the same store observe
// the same identity.
type Service struct {
	store   keystore.Store
	backend HardwareBackend
}

// NewService creates an identity service backed by store. backend may be
// nil, in which case every generated key pair is software-backed.
func NewService(store keystore.Store, backend HardwareBackend) *Service {
	return &Service{store: store, backend: backend}
}

// Generate produces a fresh encryption and signing key pair, preferring
// hardware-backed keys when the backend is available. Persisting either
// private blob or the descriptor is all-or-nothing: on any failure, every
// partially-written piece is removed before returning ErrIdentityInit.
func (s *Service) Generate(displayName string) (Identity, error) {
	log.Debug("identity.generate", log.Component("identity"))

	encPriv, err := s.newECDHKey()
	if err != nil {
		return Identity{}, vaulterrors.Wrap(err, "identity: generate encryption key")
	}
	signPriv, err := s.newSigningKey()
	if err != nil {
		return Identity{}, vaulterrors.Wrap(err, "identity: generate signing key")
	}

	id := Identity{
		UserID:              uuid.New(),
		EncryptionPublicKey: encPriv.PublicKey(),
		SigningPublicKey:    signPriv.PublicKey(),
		CreatedAt:           time.Now(),
		DisplayName:         displayName,
	}

	if err := s.persistAll(id, encPriv, signPriv); err != nil {
		s.rollback()
		return Identity{}, fmt.Errorf("identity: persist: %w: %w", vaulterrors.ErrIdentityInit, err)
	}

	log.Info("identity.generate.ok", log.Component("identity"), log.String("userId", id.UserID.String()),
		log.Bool("hardwareBacked", encPriv.IsHardwareBacked()))
	return id, nil
}

func (s *Service) newECDHKey() (ECDHPrivateKey, error) {
	if s.backend != nil && s.backend.Available() {
		handle, pub, err := s.backend.NewECDHKey()
		if err == nil {
			return &hardwareECDHKey{handle: handle, backend: s.backend, pub: pub}, nil
		}
		log.Warn("identity.hardware_ecdh_fallback", log.Component("identity"), log.Err(err))
	}
	key, err := primitives.GenerateECDHKey()
	if err != nil {
		return nil, vaulterrors.NewKeyGenerationError("ecdh", err)
	}
	return &softwareECDHKey{key: key}, nil
}

func (s *Service) newSigningKey() (SigningPrivateKey, error) {
	if s.backend != nil && s.backend.Available() {
		handle, pub, err := s.backend.NewECDSAKey()
		if err == nil {
			return &hardwareSigningKey{handle: handle, backend: s.backend, pub: pub}, nil
		}
		log.Warn("identity.hardware_ecdsa_fallback", log.Component("identity"), log.Err(err))
	}
	key, err := primitives.GenerateSigningKey()
	if err != nil {
		return nil, vaulterrors.NewKeyGenerationError("ecdsa", err)
	}
	return &softwareSigningKey{key: key}, nil
}

func (s *Service) persistAll(id Identity, encPriv ECDHPrivateKey, signPriv SigningPrivateKey) error {
	if err := s.store.Save(accountEncPrivate, encPriv.blob()); err != nil {
		return err
	}
	if err := s.store.Save(accountSignPrivate, signPriv.blob()); err != nil {
		return err
	}
	desc, err := marshalDescriptor(id)
	if err != nil {
		return err
	}
	if err := s.store.Save(accountDescriptor, desc); err != nil {
		return err
	}
	return nil
}

// rollback removes every piece Generate may have written, best-effort,
// after a failed Generate call.
func (s *Service) rollback() {
	_ = s.store.Delete(accountEncPrivate)
	_ = s.store.Delete(accountSignPrivate)
	_ = s.store.Delete(accountDescriptor)
}

// LoadIdentity returns the stored public-only descriptor.
func (s *Service) LoadIdentity() (Identity, error) {
	raw, err := s.store.Load(accountDescriptor)
	if err != nil {
		return Identity{}, vaulterrors.ErrIdentityNotFound
	}
	return unmarshalDescriptor(raw)
}

// HasIdentity is a non-throwing existence probe.
func (s *Service) HasIdentity() bool {
	return s.store.Exists(accountDescriptor)
}

// LoadKeyPair reconstructs both private keys. For each key, reconstruction
// is attempted hardware-first, then software; both failing is fatal, never
// a silent downgrade between the two.
func (s *Service) LoadKeyPair() (KeyPair, error) {
	id, err := s.LoadIdentity()
	if err != nil {
		return KeyPair{}, err
	}

	encBlob, err := s.store.Load(accountEncPrivate)
	if err != nil {
		return KeyPair{}, vaulterrors.ErrIdentityNotFound
	}
	signBlob, err := s.store.Load(accountSignPrivate)
	if err != nil {
		return KeyPair{}, vaulterrors.ErrIdentityNotFound
	}

	encPriv, err := s.reconstructECDH(encBlob)
	if err != nil {
		return KeyPair{}, vaulterrors.Wrap(err, "identity: reconstruct encryption key")
	}
	signPriv, err := s.reconstructSigning(signBlob)
	if err != nil {
		return KeyPair{}, vaulterrors.Wrap(err, "identity: reconstruct signing key")
	}

	return KeyPair{Identity: id, EncryptionPrivate: encPriv, SigningPrivate: signPriv}, nil
}

func (s *Service) reconstructECDH(blob []byte) (ECDHPrivateKey, error) {
	if len(blob) < 1 {
		return nil, vaulterrors.NewValidationError("encPrivateBlob", "empty")
	}
	variant, payload := Variant(blob[0]), blob[1:]

	if variant == VariantHardware && s.backend != nil {
		if pub, err := s.backend.ECDHPublicKey(payload); err == nil {
			return &hardwareECDHKey{handle: payload, backend: s.backend, pub: pub}, nil
		}
	}
	key, err := primitives.Curve().NewPrivateKey(payload)
	if err != nil {
		return nil, vaulterrors.NewCryptoError("ecdh-reconstruct", err)
	}
	return &softwareECDHKey{key: key}, nil
}

func (s *Service) reconstructSigning(blob []byte) (SigningPrivateKey, error) {
	if len(blob) < 1 {
		return nil, vaulterrors.NewValidationError("signPrivateBlob", "empty")
	}
	variant, payload := Variant(blob[0]), blob[1:]

	if variant == VariantHardware && s.backend != nil {
		if pub, err := s.backend.ECDSAPublicKey(payload); err == nil {
			return &hardwareSigningKey{handle: payload, backend: s.backend, pub: pub}, nil
		}
	}
	key, err := primitives.ReconstructSigningKey(payload)
	if err != nil {
		return nil, err
	}
	return &softwareSigningKey{key: key}, nil
}

// UpdateDisplayName re-persists the identity descriptor, leaving all key
// material untouched.
func (s *Service) UpdateDisplayName(name string) error {
	id, err := s.LoadIdentity()
	if err != nil {
		return err
	}
	id.DisplayName = name
	desc, err := marshalDescriptor(id)
	if err != nil {
		return err
	}
	return s.store.Save(accountDescriptor, desc)
}

// DeleteIdentity best-effort removes all three persisted items. A missing
// item is not an error; if any removal fails, the first error is reported
// but every item is still attempted.
func (s *Service) DeleteIdentity() error {
	var firstErr error
	for _, account := range []string{accountEncPrivate, accountSignPrivate, accountDescriptor} {
		if err := s.store.Delete(account); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func marshalDescriptor(id Identity) ([]byte, error) {
	w := descriptorWire{
		UserID:      id.UserID.String(),
		EncPK:       base64.StdEncoding.EncodeToString(primitives.MarshalECDHPublicKey(id.EncryptionPublicKey)),
		SignPK:      base64.StdEncoding.EncodeToString(primitives.MarshalSigningPublicKey(id.SigningPublicKey)),
		CreatedAt:   id.CreatedAt.Unix(),
		DisplayName: id.DisplayName,
	}
	return json.Marshal(w)
}

func unmarshalDescriptor(raw []byte) (Identity, error) {
	var w descriptorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Identity{}, vaulterrors.Wrap(err, "identity: decode descriptor")
	}

	userID, err := uuid.Parse(w.UserID)
	if err != nil {
		return Identity{}, vaulterrors.Wrap(err, "identity: decode userId")
	}
	encRaw, err := base64.StdEncoding.DecodeString(w.EncPK)
	if err != nil {
		return Identity{}, vaulterrors.Wrap(err, "identity: decode encPK")
	}
	signRaw, err := base64.StdEncoding.DecodeString(w.SignPK)
	if err != nil {
		return Identity{}, vaulterrors.Wrap(err, "identity: decode signPK")
	}
	encPub, err := primitives.UnmarshalECDHPublicKey(encRaw)
	if err != nil {
		return Identity{}, err
	}
	signPub, err := primitives.UnmarshalSigningPublicKey(signRaw)
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:              userID,
		EncryptionPublicKey: encPub,
		SigningPublicKey:    signPub,
		CreatedAt:           time.Unix(w.CreatedAt, 0),
		DisplayName:         w.DisplayName,
	}, nil
}
