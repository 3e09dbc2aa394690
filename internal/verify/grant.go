package verify

import (
	"encoding/binary"

	"github.com/google/uuid"

	"securecloud/internal/container"
	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/primitives"
)

// GrantPayload reconstructs the exact byte concatenation that was signed
// for block: fileId(16) || holderPK(65) || ephemeralPK(65) || salt(16) ||
// wrappedFEK(60) || timestamp as little-endian uint64(8). Both build_block
// and verify_grant must produce identical bytes for the same inputs.
func GrantPayload(fileID uuid.UUID, block container.FEKBlock) []byte {
	payload := make([]byte, 0, container.FileIDSize+container.PublicKeySize*2+container.SaltSize+container.WrappedFEKSize+8)
	payload = append(payload, fileID[:]...)
	payload = append(payload, block.HolderPublicKeyData...)
	payload = append(payload, block.EphemeralPublicKeyData...)
	payload = append(payload, block.Salt...)
	payload = append(payload, block.WrappedFEKCombined...)

	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], block.Timestamp)
	payload = append(payload, ts[:]...)

	return payload
}

// VerifyGrant checks block's signature against header's owner signing key.
// Every possible cause of failure — a malformed owner public key, a
// malformed DER signature, or a signature that simply does not verify — is
// surfaced uniformly as ErrSignatureVerificationFailed so callers never
// learn whether the failure was structural or cryptographic.
func VerifyGrant(header container.Header, block container.FEKBlock) error {
	ownerSignPK, err := primitives.UnmarshalSigningPublicKey(header.OwnerSigningPublicKeyData)
	if err != nil {
		return vaulterrors.NewGrantError("owner-signing-key", err)
	}

	fileID, err := uuid.Parse(header.FileID)
	if err != nil {
		return vaulterrors.NewGrantError("file-id", err)
	}

	payload := GrantPayload(fileID, block)
	digest := primitives.SHA256(payload)

	if !primitives.Verify(ownerSignPK, digest, block.SignatureData) {
		return vaulterrors.NewGrantError("signature", vaulterrors.ErrSignatureVerificationFailed)
	}
	return nil
}
