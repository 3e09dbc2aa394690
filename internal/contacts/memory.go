package contacts

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-process Registry for tests and embedders with no
// file system of their own. All access is guarded by a single mutex, so it
// satisfies the "serialized through a single owner" contract trivially.
type MemoryRegistry struct {
	mu       sync.Mutex
	contacts []TrustedContact
}

// NewMemoryRegistry creates an empty in-memory contact registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{}
}

func (r *MemoryRegistry) All() ([]TrustedContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TrustedContact, len(r.contacts))
	copy(out, r.contacts)
	return out, nil
}

func (r *MemoryRegistry) ByID(contactID uuid.UUID) (TrustedContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := findByID(r.contacts, contactID)
	if idx < 0 {
		return TrustedContact{}, notFound(contactID)
	}
	return r.contacts[idx], nil
}

func (r *MemoryRegistry) ByRemoteUserID(remoteUserID uuid.UUID) (TrustedContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := findByRemoteUserID(r.contacts, remoteUserID)
	if idx < 0 {
		return TrustedContact{}, notFound(remoteUserID)
	}
	return r.contacts[idx], nil
}

func (r *MemoryRegistry) Upsert(contact TrustedContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := findByID(r.contacts, contact.ContactID); idx >= 0 {
		r.contacts[idx] = contact
		return nil
	}
	r.contacts = append(r.contacts, contact)
	return nil
}

func (r *MemoryRegistry) Delete(contactID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := findByID(r.contacts, contactID)
	if idx < 0 {
		return nil
	}
	r.contacts = append(r.contacts[:idx], r.contacts[idx+1:]...)
	return nil
}

func (r *MemoryRegistry) MarkVerified(contactID uuid.UUID, method VerificationMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := findByID(r.contacts, contactID)
	if idx < 0 {
		return notFound(contactID)
	}
	now := time.Now()
	r.contacts[idx].VerifiedAt = &now
	r.contacts[idx].VerificationMethod = method
	return nil
}
