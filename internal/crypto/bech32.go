package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// NIP-19 human-readable parts
const (
	PublicHRP  = "npub"
	PrivateHRP = "nsec"

	// Separator between the human-readable part and the data part.
	Separator = '1'

	// EncodedKeyLen is the length of an npub/nsec string for a 32-byte key:
	// hrp (4) + separator (1) + data (52) + checksum (6).
	EncodedKeyLen = 63
)

var (
	ErrInvalidKeyLength = errors.New("key payload must be 32 bytes")
	ErrUnexpectedHRP    = errors.New("unexpected human-readable part")
)

// EncodePublic renders a 32-byte x-only public key as an npub string.
func EncodePublic(pub []byte) (string, error) {
	return encodeKey(PublicHRP, pub)
}

// EncodePrivate renders a 32-byte secret key as an nsec string.
func EncodePrivate(sec []byte) (string, error) {
	return encodeKey(PrivateHRP, sec)
}

func encodeKey(hrp string, payload []byte) (string, error) {
	if len(payload) != 32 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(payload))
	}
	return encode(hrp, payload)
}

// encode regroups 8-bit bytes into 5-bit words and appends the bech32 checksum.
func encode(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, data)
}

// Decode is the inverse of the encoders: it verifies the checksum and returns
// the human-readable part and the raw payload.
func Decode(s string) (string, []byte, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return "", nil, err
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return hrp, payload, nil
}

// DecodePublic decodes an npub string into its 32-byte public key.
func DecodePublic(npub string) ([]byte, error) {
	return decodeKey(PublicHRP, npub)
}

// DecodePrivate decodes an nsec string into its 32-byte secret key.
func DecodePrivate(nsec string) ([]byte, error) {
	return decodeKey(PrivateHRP, nsec)
}

func decodeKey(want, s string) ([]byte, error) {
	hrp, payload, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if hrp != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedHRP, hrp, want)
	}
	if len(payload) != 32 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(payload))
	}
	return payload, nil
}
