package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcutil/bech32"
)

// Low cost keeps the tests fast; production uses DefaultLogN.
const testLogN = 4

func TestEncryptDecryptSecret(t *testing.T) {
	kp, err := NewKeypairSource(nil).Generate()
	if err != nil {
		t.Fatal(err)
	}
	secret := kp.SecretBytes()

	payload, err := EncryptSecret(secret, "nostr", testLogN, nil)
	if err != nil {
		t.Fatalf("EncryptSecret() error = %v", err)
	}
	if len(payload) != EncryptedSecretLen {
		t.Fatalf("payload length = %d, want %d", len(payload), EncryptedSecretLen)
	}
	if payload[0] != encryptedVersion || payload[1] != testLogN {
		t.Errorf("header = %x, want version %x log_n %d", payload[:2], encryptedVersion, testLogN)
	}

	got, err := DecryptSecret(payload, "nostr")
	if err != nil {
		t.Fatalf("DecryptSecret() error = %v", err)
	}
	if !bytes.Equal(got, secret) {
		t.Errorf("DecryptSecret() = %x, want %x", got, secret)
	}
}

func TestDecryptSecretNormalizesPassword(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 32)
	// U+212B ANGSTROM SIGN and U+00C5 share an NFKC form.
	payload, err := EncryptSecret(secret, "\u212b", testLogN, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecryptSecret(payload, "\u00c5")
	if err != nil {
		t.Fatalf("DecryptSecret() error = %v", err)
	}
	if !bytes.Equal(got, secret) {
		t.Error("normalized password did not recover the secret")
	}
}

func TestDecryptSecretErrors(t *testing.T) {
	secret := bytes.Repeat([]byte{0x07}, 32)
	payload, err := EncryptSecret(secret, "correct horse", testLogN, nil)
	if err != nil {
		t.Fatal(err)
	}

	badVersion := append([]byte(nil), payload...)
	badVersion[0] = 0x01
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-1] ^= 0x01
	badAD := append([]byte(nil), payload...)
	badAD[2+saltLen+24] = 0x00

	tests := []struct {
		name     string
		payload  []byte
		password string
		want     error
	}{
		{name: "wrong password", payload: payload, password: "battery staple", want: ErrDecrypt},
		{name: "unsupported version", payload: badVersion, password: "correct horse", want: ErrUnsupportedVersion},
		{name: "tampered ciphertext", payload: tampered, password: "correct horse", want: ErrDecrypt},
		{name: "tampered key security byte", payload: badAD, password: "correct horse", want: ErrDecrypt},
		{name: "truncated", payload: payload[:40], password: "correct horse", want: ErrDecrypt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptSecret(tt.payload, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("DecryptSecret() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncryptSecretToString(t *testing.T) {
	secret := bytes.Repeat([]byte{0x01}, 32)
	s, err := EncryptSecretToString(secret, "pw", testLogN)
	if err != nil {
		t.Fatalf("EncryptSecretToString() error = %v", err)
	}
	if !strings.HasPrefix(s, "ncryptsec1") {
		t.Errorf("missing ncryptsec1 prefix: %s", s)
	}
	// hrp (9) + separator (1) + ceil(91*8/5) data chars (146) + checksum (6)
	if len(s) != 162 {
		t.Errorf("len = %d, want 162", len(s))
	}
}

func TestEncryptSecretEntropyFailure(t *testing.T) {
	_, err := EncryptSecret(bytes.Repeat([]byte{0x01}, 32), "pw", testLogN, failingReader{})
	if !errors.Is(err, ErrEntropy) {
		t.Errorf("EncryptSecret() error = %v, want ErrEntropy", err)
	}
}

// unpackLongBech32 splits off the hrp and checksum of a bech32 string and
// regroups the data words into bytes. bech32.Decode rejects strings over 90
// characters, which every ncryptsec exceeds; the checksum is covered by
// re-encoding the payload.
func unpackLongBech32(t *testing.T, s string) []byte {
	t.Helper()
	const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	sep := strings.LastIndexByte(s, '1')
	if sep < 1 || len(s)-sep-1 < 6 {
		t.Fatalf("malformed bech32 string %q", s)
	}
	chars := s[sep+1 : len(s)-6]
	words := make([]byte, len(chars))
	for i := 0; i < len(chars); i++ {
		idx := strings.IndexByte(charset, chars[i])
		if idx < 0 {
			t.Fatalf("invalid bech32 character %q", chars[i])
		}
		words[i] = byte(idx)
	}
	payload, err := bech32.ConvertBits(words, 5, 8, false)
	if err != nil {
		t.Fatalf("ConvertBits() error = %v", err)
	}
	return payload
}

func TestDecryptSecretKnownVector(t *testing.T) {
	const (
		encrypted = "ncryptsec1qgg9947rlpvqu76pj5ecreduf9jxhselq2nae2kghhvd5g7dgjtcxfqtd67p9m0w57lspw8gsq6yphnm8623nsl8xn9j4jdzz84zm3frztj3z7s35vpzmqf6ksu8r89qk5z2zxfmu5gv8th8wclt0h4p"
		secretHex = "3501454135014541350145413501453fefb02227e449e57cf4d3a3ce05378683"
	)

	payload := unpackLongBech32(t, encrypted)
	if len(payload) != EncryptedSecretLen {
		t.Fatalf("payload length = %d, want %d", len(payload), EncryptedSecretLen)
	}
	if payload[1] != 16 {
		t.Errorf("log_n = %d, want 16", payload[1])
	}

	secret, err := DecryptSecret(payload, "nostr")
	if err != nil {
		t.Fatalf("DecryptSecret() error = %v", err)
	}
	if got := hex.EncodeToString(secret); got != secretHex {
		t.Errorf("DecryptSecret() = %s, want %s", got, secretHex)
	}

	reencoded, err := EncodeEncryptedSecret(payload)
	if err != nil {
		t.Fatalf("EncodeEncryptedSecret() error = %v", err)
	}
	if reencoded != encrypted {
		t.Errorf("EncodeEncryptedSecret() = %s, want %s", reencoded, encrypted)
	}
}
