package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	vaulterrors "securecloud/internal/errors"
)

func samplePublicKey(fill byte) []byte {
	b := make([]byte, PublicKeySize)
	for i := range b {
		b[i] = fill
	}
	return b
}

func sampleHeader() Header {
	ownerKey := samplePublicKey(0x01)
	signKey := samplePublicKey(0x02)
	return Header{
		Magic:                        Magic,
		Version:                      Version,
		FileID:                       "11111111-1111-1111-1111-111111111111",
		Filename:                     "hello.txt",
		ContentType:                  "public.plain-text",
		OriginalSize:                 19,
		OwnerEncryptionPublicKeyData: ownerKey,
		OwnerSigningPublicKeyData:    signKey,
		FEKBlocks: []FEKBlock{
			{
				BlockType:              BlockTypeOwner,
				HolderPublicKeyData:    ownerKey,
				EphemeralPublicKeyData: samplePublicKey(0x03),
				Salt:                   make([]byte, SaltSize),
				WrappedFEKCombined:     make([]byte, WrappedFEKSize),
				Timestamp:              0,
				SignatureData:          []byte{0x30, 0x02, 0x01, 0x00},
			},
		},
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	header := sampleHeader()
	body := []byte("sealed-body-bytes-not-validated-here")

	framed, err := Build(header, body)
	require.NoError(t, err)

	parsed, err := Parse(framed)
	require.NoError(t, err)
	require.Equal(t, header.FileID, parsed.Header.FileID)
	require.Equal(t, body, parsed.Body)
}

func TestParseRejectsTooShort(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3})
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestParseRejectsZeroLength(t *testing.T) {
	data := make([]byte, LengthPrefixSize+4)
	_, err := Parse(data)
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestParseRejectsOversizedLength(t *testing.T) {
	data := make([]byte, LengthPrefixSize)
	data[0] = 0xFF
	_, err := Parse(data)
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestParseRejectsBadMagic(t *testing.T) {
	header := sampleHeader()
	header.Magic = "XXXX"
	framed, err := Build(header, []byte("body"))
	require.NoError(t, err)

	_, err = Parse(framed)
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestParseRejectsBadVersion(t *testing.T) {
	header := sampleHeader()
	header.Version = 1
	framed, err := Build(header, []byte("body"))
	require.NoError(t, err)

	_, err = Parse(framed)
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestValidateRequiresExactlyOneOwnerBlock(t *testing.T) {
	header := sampleHeader()
	header.FEKBlocks = nil
	require.ErrorIs(t, Validate(File{Header: header}), vaulterrors.ErrMissingOwnerBlock)

	header = sampleHeader()
	header.FEKBlocks = append(header.FEKBlocks, header.FEKBlocks[0])
	require.ErrorIs(t, Validate(File{Header: header}), vaulterrors.ErrMissingOwnerBlock)
}

func TestValidateRejectsDuplicateHolderKeys(t *testing.T) {
	header := sampleHeader()
	dup := header.FEKBlocks[0]
	dup.BlockType = BlockTypeRecipient
	dup.Timestamp = 1700000000
	header.FEKBlocks = append(header.FEKBlocks, dup)

	err := Validate(File{Header: header})
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestValidateRequiresOwnerBlockHolderMatchesHeader(t *testing.T) {
	header := sampleHeader()
	header.FEKBlocks[0].HolderPublicKeyData = samplePublicKey(0x09)

	err := Validate(File{Header: header})
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}

func TestValidateRejectsMalformedBlockShape(t *testing.T) {
	header := sampleHeader()
	header.FEKBlocks[0].Salt = []byte{1, 2, 3}

	err := Validate(File{Header: header})
	require.ErrorIs(t, err, vaulterrors.ErrInvalidFormat)
}
