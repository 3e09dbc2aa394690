// Package container implements the SCV2 on-disk format: an 8-byte
// length-prefixed JSON header followed by an AEAD-sealed body. This
// package owns framing and structural validation only; it performs no
// cryptography of its own — the engine package is responsible for
// sealing and unsealing the body and for verifying grant signatures.
package container

import (
	"encoding/json"

	vaulterrors "securecloud/internal/errors"
)

const (
	// Magic is the fixed 4-byte SCV2 file identifier.
	Magic = "SCV2"
	// Version is the only header version this codec accepts.
	Version = 2

	// LengthPrefixSize is the width of the header-length field.
	LengthPrefixSize = 8
)

// BlockType distinguishes the file's owner grant from every recipient grant.
type BlockType string

const (
	BlockTypeOwner     BlockType = "owner"
	BlockTypeRecipient BlockType = "recipient"
)

// Sizes of the raw (pre-base64) FEK block fields, in bytes.
const (
	PublicKeySize      = 65
	SaltSize           = 16
	WrappedFEKSize     = 60 // 12-byte nonce || 32-byte ciphertext || 16-byte tag
	FileIDSize         = 16
)

// FEKBlock is the per-holder authorization record described in §3/§6.
type FEKBlock struct {
	BlockType             BlockType `json:"blockType"`
	HolderPublicKeyData    []byte `json:"holderPublicKeyData"`
	EphemeralPublicKeyData []byte `json:"ephemeralPublicKeyData"`
	Salt                   []byte `json:"salt"`
	WrappedFEKCombined     []byte `json:"wrappedFEKCombined"`
	Timestamp              uint64 `json:"timestamp"`
	SignatureData          []byte `json:"signatureData"`
}

// Header is the in-memory representation of the SCV2 header JSON.
type Header struct {
	Magic                        string     `json:"magic"`
	Version                      int        `json:"version"`
	FileID                       string     `json:"fileId"`
	Filename                     string     `json:"filename"`
	ContentType                  string     `json:"contentType"`
	OriginalSize                 uint64     `json:"originalSize"`
	OwnerEncryptionPublicKeyData []byte     `json:"ownerEncryptionPublicKeyData"`
	OwnerSigningPublicKeyData    []byte     `json:"ownerSigningPublicKeyData"`
	FEKBlocks                    []FEKBlock `json:"fekBlocks"`
}

// File is a fully parsed SCV2 file: the header plus the still-sealed body.
type File struct {
	Header Header
	Body   []byte // nonce(12) || ciphertext || tag(16), unmodified
}

// Build serializes header and body into the framed on-disk byte string.
// Build never validates header; callers that need structural guarantees
// call Validate first.
func Build(header Header, body []byte) ([]byte, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, vaulterrors.Wrap(err, "container: encode header")
	}

	out := make([]byte, 0, LengthPrefixSize+len(headerJSON)+len(body))
	out = appendLengthPrefix(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, body...)
	return out, nil
}

// Parse reads the framed byte string back into a File, rejecting any
// structural defect with ErrInvalidFormat. Parse performs no
// cryptographic validation.
func Parse(data []byte) (File, error) {
	if len(data) < LengthPrefixSize {
		return File{}, vaulterrors.NewContainerError("length", vaulterrors.ErrInvalidFormat)
	}

	headerLen := readLengthPrefix(data)
	if headerLen == 0 || headerLen > uint64(len(data)-LengthPrefixSize) {
		return File{}, vaulterrors.NewContainerError("headerLen", vaulterrors.ErrInvalidFormat)
	}

	headerJSON := data[LengthPrefixSize : LengthPrefixSize+headerLen]
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return File{}, vaulterrors.NewContainerError("headerJson", vaulterrors.ErrInvalidFormat)
	}

	if header.Magic != Magic || header.Version != Version {
		return File{}, vaulterrors.NewContainerError("magic", vaulterrors.ErrInvalidFormat)
	}

	body := data[LengthPrefixSize+headerLen:]

	file := File{Header: header, Body: body}
	if err := Validate(file); err != nil {
		return File{}, err
	}
	return file, nil
}

func appendLengthPrefix(out []byte, n uint64) []byte {
	var b [LengthPrefixSize]byte
	for i := range b {
		b[i] = byte(n >> (8 * i))
	}
	return append(out, b[:]...)
}

func readLengthPrefix(data []byte) uint64 {
	var n uint64
	for i := 0; i < LengthPrefixSize; i++ {
		n |= uint64(data[i]) << (8 * i)
	}
	return n
}
