// Package engine implements the share-capable encryption engine (C7), the
// central algorithm of the container: encrypt, decrypt, add_recipient, and
// remove_recipient. It composes the primitives (C1), identity (C3),
// verification (C4), and container codec (C6) packages.
package engine

import (
	"crypto/ecdh"
	"time"

	"github.com/google/uuid"

	"securecloud/internal/contacts"
	"securecloud/internal/container"
	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/identity"
	"securecloud/internal/log"
	"securecloud/internal/primitives"
	"securecloud/internal/verify"
)

// Domain-separation constants for FEK wrapping, used verbatim as HKDF info.
const (
	domainOwner     = "SecureCloud-FEK-Owner-v2"
	domainRecipient = "SecureCloud-FEK-Recipient-v2"

	// maxGrantAge is the replay window for recipient blocks: 365 days.
	maxGrantAge = 365 * 24 * time.Hour
	// maxFutureSkew is the allowed clock skew in the other direction.
	maxFutureSkew = -300 * time.Second
)

func domainFor(kind container.BlockType) string {
	if kind == container.BlockTypeOwner {
		return domainOwner
	}
	return domainRecipient
}

// buildBlock assembles and signs one FEK block, as specified in §4.2. The
// signature always comes from the owner's signing key, regardless of kind:
// recipient blocks carry proof that the owner authorized this exact tuple.
func buildBlock(kind container.BlockType, fek []byte, holderPK *ecdh.PublicKey, ownerSigningKey identity.SigningPrivateKey, fileID uuid.UUID, ts uint64) (container.FEKBlock, error) {
	eph, err := primitives.GenerateECDHKey()
	if err != nil {
		return container.FEKBlock{}, vaulterrors.Wrap(err, "engine: generate ephemeral key")
	}
	salt, err := primitives.RandomBytes(container.SaltSize)
	if err != nil {
		return container.FEKBlock{}, vaulterrors.Wrap(err, "engine: generate salt")
	}

	shared, err := primitives.SharedSecret(eph, holderPK)
	if err != nil {
		return container.FEKBlock{}, vaulterrors.Wrap(err, "engine: ecdh")
	}
	wrapKey, err := primitives.HKDFDerive(shared, salt, []byte(domainFor(kind)), primitives.KeySize)
	if err != nil {
		return container.FEKBlock{}, vaulterrors.Wrap(err, "engine: derive wrap key")
	}
	wrapped, err := primitives.Seal(wrapKey, fek)
	if err != nil {
		return container.FEKBlock{}, vaulterrors.Wrap(err, "engine: wrap fek")
	}

	block := container.FEKBlock{
		BlockType:              kind,
		HolderPublicKeyData:    primitives.MarshalECDHPublicKey(holderPK),
		EphemeralPublicKeyData: primitives.MarshalECDHPublicKey(eph.PublicKey()),
		Salt:                   salt,
		WrappedFEKCombined:     wrapped,
		Timestamp:              ts,
	}

	digest := primitives.SHA256(verify.GrantPayload(fileID, block))
	sig, err := ownerSigningKey.Sign(digest)
	if err != nil {
		return container.FEKBlock{}, vaulterrors.Wrap(err, "engine: sign grant")
	}
	block.SignatureData = sig

	return block, nil
}

// unwrapFEK recovers the FEK from block using priv, the private key of the
// holder the block was addressed to.
func unwrapFEK(block container.FEKBlock, priv identity.ECDHPrivateKey) ([]byte, error) {
	ephPK, err := primitives.UnmarshalECDHPublicKey(block.EphemeralPublicKeyData)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "engine: decode ephemeral key")
	}
	shared, err := priv.SharedSecret(ephPK)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "engine: ecdh")
	}
	wrapKey, err := primitives.HKDFDerive(shared, block.Salt, []byte(domainFor(block.BlockType)), primitives.KeySize)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "engine: derive wrap key")
	}
	fek, err := primitives.Open(wrapKey, block.WrappedFEKCombined)
	if err != nil {
		return nil, err
	}
	if len(fek) != primitives.KeySize {
		return nil, vaulterrors.ErrDecryptionFailed
	}
	return fek, nil
}

// Encrypt seals plaintext under a fresh FEK and wraps it for the owner.
func Encrypt(plaintext []byte, owner identity.KeyPair, filename, contentType string) ([]byte, error) {
	fileID := uuid.New()

	fek, err := primitives.RandomBytes(primitives.KeySize)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "engine: generate fek")
	}
	body, err := primitives.Seal(fek, plaintext)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "engine: seal body")
	}

	ownerBlock, err := buildBlock(container.BlockTypeOwner, fek, owner.Identity.EncryptionPublicKey, owner.SigningPrivate, fileID, 0)
	if err != nil {
		return nil, err
	}

	header := container.Header{
		Magic:                        container.Magic,
		Version:                      container.Version,
		FileID:                       fileID.String(),
		Filename:                     filename,
		ContentType:                  contentType,
		OriginalSize:                 uint64(len(plaintext)),
		OwnerEncryptionPublicKeyData: primitives.MarshalECDHPublicKey(owner.Identity.EncryptionPublicKey),
		OwnerSigningPublicKeyData:    primitives.MarshalSigningPublicKey(owner.Identity.SigningPublicKey),
		FEKBlocks:                    []container.FEKBlock{ownerBlock},
	}

	log.Debug("engine.encrypt", log.Component("engine"), log.String("fileId", fileID.String()))
	return container.Build(header, body)
}

// Decrypt parses fileBytes, locates the block addressed to caller, verifies
// its grant, and opens the body.
func Decrypt(fileBytes []byte, caller identity.KeyPair) ([]byte, container.Header, error) {
	file, err := container.Parse(fileBytes)
	if err != nil {
		return nil, container.Header{}, err
	}
	header := file.Header

	callerPK := primitives.MarshalECDHPublicKey(caller.Identity.EncryptionPublicKey)

	block, err := locateBlock(header, callerPK)
	if err != nil {
		return nil, container.Header{}, err
	}

	if err := verify.VerifyGrant(header, block); err != nil {
		log.Warn("engine.decrypt.signature_failed", log.Component("engine"), log.String("fileId", header.FileID))
		return nil, container.Header{}, err
	}

	if block.BlockType == container.BlockTypeRecipient {
		if err := checkReplayWindow(block.Timestamp); err != nil {
			log.Warn("engine.decrypt.replay_detected", log.Component("engine"), log.String("fileId", header.FileID))
			return nil, container.Header{}, err
		}
	}

	fek, err := unwrapFEK(block, caller.EncryptionPrivate)
	if err != nil {
		return nil, container.Header{}, err
	}

	plaintext, err := primitives.Open(fek, file.Body)
	if err != nil {
		return nil, container.Header{}, err
	}

	log.Debug("engine.decrypt.ok", log.Component("engine"), log.String("fileId", header.FileID))
	return plaintext, header, nil
}

func locateBlock(header container.Header, callerPK []byte) (container.FEKBlock, error) {
	isOwner := bytesEqual(callerPK, header.OwnerEncryptionPublicKeyData)

	for _, block := range header.FEKBlocks {
		if !bytesEqual(block.HolderPublicKeyData, callerPK) {
			continue
		}
		if isOwner && block.BlockType == container.BlockTypeOwner {
			return block, nil
		}
		if !isOwner && block.BlockType == container.BlockTypeRecipient {
			return block, nil
		}
	}

	if isOwner {
		return container.FEKBlock{}, vaulterrors.ErrMissingOwnerBlock
	}
	return container.FEKBlock{}, vaulterrors.ErrNoRecipientBlock
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkReplayWindow(ts uint64) error {
	issued := time.Unix(int64(ts), 0)
	age := time.Since(issued)
	if age < maxFutureSkew || age >= maxGrantAge {
		return vaulterrors.ErrReplayAttackDetected
	}
	return nil
}

// AddRecipient wraps the file's existing FEK for recipient and appends a
// new recipient block, signed by owner. The sealed body is never
// re-encrypted. Returns the new file bytes and the human-verifiable safety
// code for this share.
func AddRecipient(fileBytes []byte, recipient contacts.TrustedContact, owner identity.KeyPair) ([]byte, string, error) {
	if !recipient.IsVerified() {
		return nil, "", vaulterrors.ErrContactNotVerified
	}

	file, err := container.Parse(fileBytes)
	if err != nil {
		return nil, "", err
	}
	header := file.Header

	ownerBlock, err := locateBlock(header, primitives.MarshalECDHPublicKey(owner.Identity.EncryptionPublicKey))
	if err != nil {
		return nil, "", err
	}
	if err := verify.VerifyGrant(header, ownerBlock); err != nil {
		return nil, "", err
	}

	fek, err := unwrapFEK(ownerBlock, owner.EncryptionPrivate)
	if err != nil {
		return nil, "", err
	}

	fileID, err := uuid.Parse(header.FileID)
	if err != nil {
		return nil, "", vaulterrors.Wrap(err, "engine: decode file id")
	}

	recipientBlock, err := buildBlock(container.BlockTypeRecipient, fek, recipient.EncryptionPublicKey, owner.SigningPrivate, fileID, uint64(time.Now().Unix()))
	if err != nil {
		return nil, "", err
	}

	safetyCode := verify.SafetyCode(recipientBlock.EphemeralPublicKeyData, primitives.MarshalECDHPublicKey(recipient.EncryptionPublicKey))

	header.FEKBlocks = append(append([]container.FEKBlock{}, header.FEKBlocks...), recipientBlock)

	newBytes, err := container.Build(header, file.Body)
	if err != nil {
		return nil, "", err
	}

	log.Info("engine.add_recipient", log.Component("engine"), log.String("fileId", header.FileID))
	return newBytes, safetyCode, nil
}

// RemoveRecipient removes every recipient block addressed to recipientPK.
// Removing a non-existent recipient succeeds without changes; the sealed
// body is never touched.
func RemoveRecipient(fileBytes []byte, recipientPK *ecdh.PublicKey, owner identity.KeyPair) ([]byte, error) {
	file, err := container.Parse(fileBytes)
	if err != nil {
		return nil, err
	}
	header := file.Header

	if !bytesEqual(header.OwnerEncryptionPublicKeyData, primitives.MarshalECDHPublicKey(owner.Identity.EncryptionPublicKey)) {
		return nil, vaulterrors.ErrDecryptionFailed
	}

	target := primitives.MarshalECDHPublicKey(recipientPK)
	kept := make([]container.FEKBlock, 0, len(header.FEKBlocks))
	for _, block := range header.FEKBlocks {
		if block.BlockType == container.BlockTypeRecipient && bytesEqual(block.HolderPublicKeyData, target) {
			continue
		}
		kept = append(kept, block)
	}
	header.FEKBlocks = kept

	log.Info("engine.remove_recipient", log.Component("engine"), log.String("fileId", header.FileID))
	return container.Build(header, file.Body)
}
