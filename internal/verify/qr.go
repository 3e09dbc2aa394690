package verify

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	vaulterrors "securecloud/internal/errors"
	"securecloud/internal/identity"
	"securecloud/internal/primitives"
)

// qrPayloadWire is the JSON object exchanged during in-person verification:
// {user_id, encPK, signPK, displayName}.
type qrPayloadWire struct {
	UserID      string `json:"user_id"`
	EncPK       string `json:"encPK"`
	SignPK      string `json:"signPK"`
	DisplayName string `json:"displayName"`
}

// EncodeQRPayload renders id's public exchange payload as JSON.
func EncodeQRPayload(id identity.Identity) ([]byte, error) {
	w := qrPayloadWire{
		UserID:      id.UserID.String(),
		EncPK:       base64.StdEncoding.EncodeToString(primitives.MarshalECDHPublicKey(id.EncryptionPublicKey)),
		SignPK:      base64.StdEncoding.EncodeToString(marshalSigningKey(id)),
		DisplayName: id.DisplayName,
	}
	return json.Marshal(w)
}

// DecodeQRPayload parses a scanned payload back into an Identity, validating
// that both public keys are valid P-256 points before constructing it.
func DecodeQRPayload(payload []byte) (identity.Identity, error) {
	var w qrPayloadWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return identity.Identity{}, vaulterrors.Wrap(err, "verify: decode qr payload")
	}

	userID, err := uuid.Parse(w.UserID)
	if err != nil {
		return identity.Identity{}, vaulterrors.Wrap(err, "verify: decode qr user id")
	}

	encRaw, err := base64.StdEncoding.DecodeString(w.EncPK)
	if err != nil {
		return identity.Identity{}, vaulterrors.Wrap(err, "verify: decode qr encPK")
	}
	encPK, err := primitives.UnmarshalECDHPublicKey(encRaw)
	if err != nil {
		return identity.Identity{}, err
	}

	signRaw, err := base64.StdEncoding.DecodeString(w.SignPK)
	if err != nil {
		return identity.Identity{}, vaulterrors.Wrap(err, "verify: decode qr signPK")
	}
	signPK, err := primitives.UnmarshalSigningPublicKey(signRaw)
	if err != nil {
		return identity.Identity{}, err
	}

	return identity.Identity{
		UserID:              userID,
		EncryptionPublicKey: encPK,
		SigningPublicKey:    signPK,
		DisplayName:         w.DisplayName,
	}, nil
}

// QRPayloadPNG renders id's exchange payload as a base64-encoded PNG, ready
// to hand to an image view for scanning by a peer device.
func QRPayloadPNG(id identity.Identity, size int) (string, error) {
	if size == 0 {
		size = 256
	}

	payload, err := EncodeQRPayload(id)
	if err != nil {
		return "", err
	}

	qr, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		return "", vaulterrors.Wrap(err, "verify: create qr code")
	}

	var buf bytes.Buffer
	encoder := base64.NewEncoder(base64.StdEncoding, &buf)
	if err := png.Encode(encoder, qr.Image(size)); err != nil {
		return "", vaulterrors.Wrap(err, "verify: encode qr png")
	}
	if err := encoder.Close(); err != nil {
		return "", vaulterrors.Wrap(err, "verify: close qr png encoder")
	}

	return buf.String(), nil
}
