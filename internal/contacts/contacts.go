// Package contacts implements the trusted-contact registry (C5): a
// persistent, ordered set of known remote identities and their
// verification state, serialized through a single owner per the spec's
// concurrency model.
package contacts

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"time"

	"github.com/google/uuid"

	vaulterrors "securecloud/internal/errors"
)

// VerificationMethod records how a contact's identity was authenticated.
type VerificationMethod string

const (
	VerificationUnverified    VerificationMethod = "unverified"
	VerificationQRScan        VerificationMethod = "qr-scan"
	VerificationSafetyNumber  VerificationMethod = "safety-number"
)

// TrustedContact is the local record of a remote identity.
type TrustedContact struct {
	ContactID           uuid.UUID
	RemoteUserID        uuid.UUID
	DisplayName         string
	EncryptionPublicKey *ecdh.PublicKey
	SigningPublicKey    *ecdsa.PublicKey
	AddedAt             time.Time
	VerifiedAt          *time.Time
	VerificationMethod  VerificationMethod
}

// IsVerified reports whether the contact may be used as an add_recipient
// target: verified means QR-scan or safety-number, never unverified.
func (c TrustedContact) IsVerified() bool {
	return c.VerificationMethod == VerificationQRScan || c.VerificationMethod == VerificationSafetyNumber
}

// Registry is the contract consumed by the engine and by any UI surface
// that lists or edits contacts. Every method serializes through a single
// owner; concurrent mutation from multiple callers is the implementation's
// responsibility to forbid, not the caller's.
type Registry interface {
	All() ([]TrustedContact, error)
	ByID(contactID uuid.UUID) (TrustedContact, error)
	ByRemoteUserID(remoteUserID uuid.UUID) (TrustedContact, error)
	Upsert(contact TrustedContact) error
	Delete(contactID uuid.UUID) error
	MarkVerified(contactID uuid.UUID, method VerificationMethod) error
}

func findByID(contacts []TrustedContact, id uuid.UUID) int {
	for i := range contacts {
		if contacts[i].ContactID == id {
			return i
		}
	}
	return -1
}

func findByRemoteUserID(contacts []TrustedContact, id uuid.UUID) int {
	for i := range contacts {
		if contacts[i].RemoteUserID == id {
			return i
		}
	}
	return -1
}

func notFound(contactID uuid.UUID) error {
	return vaulterrors.Wrap(vaulterrors.ErrContactNotFound, "contacts: "+contactID.String())
}
