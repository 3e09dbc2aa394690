package container

import (
	"bytes"

	vaulterrors "securecloud/internal/errors"
)

// Validate enforces every SCV2 structural invariant from §3: exactly one
// owner block, no two blocks sharing a holder key, and the header's owner
// public keys matching the owner block's holder key. It is shared by
// Parse and by the engine so the invariant is checked in exactly one
// place regardless of call path.
func Validate(file File) error {
	h := file.Header

	if len(h.OwnerEncryptionPublicKeyData) != PublicKeySize || len(h.OwnerSigningPublicKeyData) != PublicKeySize {
		return vaulterrors.NewContainerError("ownerPublicKey", vaulterrors.ErrInvalidFormat)
	}

	var ownerBlocks int
	seen := make(map[string]struct{}, len(h.FEKBlocks))

	for i := range h.FEKBlocks {
		block := h.FEKBlocks[i]

		if err := validateBlockShape(block); err != nil {
			return err
		}

		if block.BlockType == BlockTypeOwner && ownerBlocks == 1 {
			return vaulterrors.Wrap(vaulterrors.ErrMissingOwnerBlock, "container: validate fekBlocks")
		}

		key := string(block.HolderPublicKeyData)
		if _, dup := seen[key]; dup {
			return vaulterrors.NewContainerError("fekBlocks", vaulterrors.ErrInvalidFormat)
		}
		seen[key] = struct{}{}

		switch block.BlockType {
		case BlockTypeOwner:
			ownerBlocks++
			if !bytes.Equal(block.HolderPublicKeyData, h.OwnerEncryptionPublicKeyData) {
				return vaulterrors.NewContainerError("ownerBlock.holderPublicKeyData", vaulterrors.ErrInvalidFormat)
			}
			if block.Timestamp != 0 {
				return vaulterrors.NewContainerError("ownerBlock.timestamp", vaulterrors.ErrInvalidFormat)
			}
		case BlockTypeRecipient:
			// no structural constraint beyond shape + uniqueness
		default:
			return vaulterrors.NewContainerError("fekBlocks.blockType", vaulterrors.ErrInvalidFormat)
		}
	}

	if ownerBlocks != 1 {
		return vaulterrors.Wrap(vaulterrors.ErrMissingOwnerBlock, "container: validate fekBlocks")
	}

	return nil
}

func validateBlockShape(block FEKBlock) error {
	switch {
	case len(block.HolderPublicKeyData) != PublicKeySize:
		return vaulterrors.NewContainerError("fekBlocks.holderPublicKeyData", vaulterrors.ErrInvalidFormat)
	case len(block.EphemeralPublicKeyData) != PublicKeySize:
		return vaulterrors.NewContainerError("fekBlocks.ephemeralPublicKeyData", vaulterrors.ErrInvalidFormat)
	case len(block.Salt) != SaltSize:
		return vaulterrors.NewContainerError("fekBlocks.salt", vaulterrors.ErrInvalidFormat)
	case len(block.WrappedFEKCombined) != WrappedFEKSize:
		return vaulterrors.NewContainerError("fekBlocks.wrappedFEKCombined", vaulterrors.ErrInvalidFormat)
	case len(block.SignatureData) == 0:
		return vaulterrors.NewContainerError("fekBlocks.signatureData", vaulterrors.ErrInvalidFormat)
	}
	return nil
}
