package contacts

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/primitives"
)

func encodeKey(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func decodeKey(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "contacts: decode key")
	}
	return b, nil
}

// contactWire is the on-disk JSON shape of a single TrustedContact,
// base64-encoding its raw key material like the SCV2 header does.
type contactWire struct {
	ContactID           string  `json:"contactId"`
	RemoteUserID        string  `json:"remoteUserId"`
	DisplayName         string  `json:"displayName"`
	EncryptionPublicKey string  `json:"encryptionPublicKey"`
	SigningPublicKey    string  `json:"signingPublicKey"`
	AddedAt             int64   `json:"addedAt"`
	VerifiedAt          *int64  `json:"verifiedAt,omitempty"`
	VerificationMethod  string  `json:"verificationMethod"`
}

// FileRegistry is a Registry backed by a single JSON file, rewritten
// atomically (write to a temp file, then rename) on every mutation.
type FileRegistry struct {
	mu   sync.Mutex
	path string
}

// NewFileRegistry opens (or prepares to create) a JSON-backed registry at path.
func NewFileRegistry(path string) (*FileRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, vaulterrors.Wrap(err, "contacts: create directory")
	}
	return &FileRegistry{path: path}, nil
}

func (r *FileRegistry) load() ([]TrustedContact, error) {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, vaulterrors.Wrap(err, "contacts: read registry")
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var wire []contactWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, vaulterrors.Wrap(err, "contacts: decode registry")
	}

	out := make([]TrustedContact, 0, len(wire))
	for _, w := range wire {
		c, err := fromWire(w)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *FileRegistry) save(contacts []TrustedContact) error {
	wire := make([]contactWire, 0, len(contacts))
	for _, c := range contacts {
		wire = append(wire, toWire(c))
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return vaulterrors.Wrap(err, "contacts: encode registry")
	}

	tmp := r.path + ".incomplete"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return vaulterrors.Wrap(err, "contacts: write registry")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return vaulterrors.Wrap(err, "contacts: commit registry")
	}
	return nil
}

func toWire(c TrustedContact) contactWire {
	w := contactWire{
		ContactID:           c.ContactID.String(),
		RemoteUserID:        c.RemoteUserID.String(),
		DisplayName:         c.DisplayName,
		EncryptionPublicKey: encodeKey(primitives.MarshalECDHPublicKey(c.EncryptionPublicKey)),
		SigningPublicKey:    encodeKey(primitives.MarshalSigningPublicKey(c.SigningPublicKey)),
		AddedAt:             c.AddedAt.Unix(),
		VerificationMethod:  string(c.VerificationMethod),
	}
	if c.VerifiedAt != nil {
		ts := c.VerifiedAt.Unix()
		w.VerifiedAt = &ts
	}
	return w
}

func fromWire(w contactWire) (TrustedContact, error) {
	contactID, err := uuid.Parse(w.ContactID)
	if err != nil {
		return TrustedContact{}, vaulterrors.Wrap(err, "contacts: decode contactId")
	}
	remoteUserID, err := uuid.Parse(w.RemoteUserID)
	if err != nil {
		return TrustedContact{}, vaulterrors.Wrap(err, "contacts: decode remoteUserId")
	}

	encRaw, err := decodeKey(w.EncryptionPublicKey)
	if err != nil {
		return TrustedContact{}, err
	}
	encPK, err := primitives.UnmarshalECDHPublicKey(encRaw)
	if err != nil {
		return TrustedContact{}, err
	}

	signRaw, err := decodeKey(w.SigningPublicKey)
	if err != nil {
		return TrustedContact{}, err
	}
	signPK, err := primitives.UnmarshalSigningPublicKey(signRaw)
	if err != nil {
		return TrustedContact{}, err
	}

	c := TrustedContact{
		ContactID:           contactID,
		RemoteUserID:        remoteUserID,
		DisplayName:         w.DisplayName,
		EncryptionPublicKey: encPK,
		SigningPublicKey:    signPK,
		AddedAt:             time.Unix(w.AddedAt, 0),
		VerificationMethod:  VerificationMethod(w.VerificationMethod),
	}
	if w.VerifiedAt != nil {
		t := time.Unix(*w.VerifiedAt, 0)
		c.VerifiedAt = &t
	}
	return c, nil
}

func (r *FileRegistry) All() ([]TrustedContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *FileRegistry) ByID(contactID uuid.UUID) (TrustedContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return TrustedContact{}, err
	}
	idx := findByID(all, contactID)
	if idx < 0 {
		return TrustedContact{}, notFound(contactID)
	}
	return all[idx], nil
}

func (r *FileRegistry) ByRemoteUserID(remoteUserID uuid.UUID) (TrustedContact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return TrustedContact{}, err
	}
	idx := findByRemoteUserID(all, remoteUserID)
	if idx < 0 {
		return TrustedContact{}, notFound(remoteUserID)
	}
	return all[idx], nil
}

func (r *FileRegistry) Upsert(contact TrustedContact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return err
	}
	if idx := findByID(all, contact.ContactID); idx >= 0 {
		all[idx] = contact
	} else {
		all = append(all, contact)
	}
	return r.save(all)
}

func (r *FileRegistry) Delete(contactID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return err
	}
	idx := findByID(all, contactID)
	if idx < 0 {
		return nil
	}
	all = append(all[:idx], all[idx+1:]...)
	return r.save(all)
}

func (r *FileRegistry) MarkVerified(contactID uuid.UUID, method VerificationMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	all, err := r.load()
	if err != nil {
		return err
	}
	idx := findByID(all, contactID)
	if idx < 0 {
		return notFound(contactID)
	}
	now := time.Now()
	all[idx].VerifiedAt = &now
	all[idx].VerificationMethod = method
	return r.save(all)
}
