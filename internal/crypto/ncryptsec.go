package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

// NIP-49 password-encrypted secret keys.
const (
	EncryptedHRP = "ncryptsec"

	encryptedVersion = 0x02
	saltLen          = 16

	// KeySecurityUnknown marks a key whose handling history is not tracked.
	KeySecurityUnknown = 0x02

	// DefaultLogN is the scrypt cost exponent used when none is configured.
	DefaultLogN = 16

	// version (1) + log_n (1) + salt (16) + nonce (24) + key security (1) + ciphertext (32+16)
	EncryptedSecretLen = 1 + 1 + saltLen + chacha20poly1305.NonceSizeX + 1 + SecretKeyLen + chacha20poly1305.Overhead
)

var (
	ErrUnsupportedVersion = errors.New("unsupported ncryptsec version")
	ErrDecrypt            = errors.New("ncryptsec decryption failed")
)

// EncryptSecret seals a 32-byte secret key under password, producing the raw
// ncryptsec payload. Randomness for salt and nonce comes from r, or crypto/rand when nil.
func EncryptSecret(secret []byte, password string, logN uint8, r io.Reader) ([]byte, error) {
	if len(secret) != SecretKeyLen {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(secret))
	}
	if r == nil {
		r = rand.Reader
	}

	out := make([]byte, 0, EncryptedSecretLen)
	out = append(out, encryptedVersion, logN)

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	aead, err := passwordCipher(password, salt, logN)
	if err != nil {
		return nil, err
	}

	ad := []byte{KeySecurityUnknown}
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ad...)
	return aead.Seal(out, nonce, secret, ad), nil
}

// DecryptSecret opens a raw ncryptsec payload with password.
func DecryptSecret(payload []byte, password string) ([]byte, error) {
	if len(payload) != EncryptedSecretLen {
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrDecrypt, len(payload))
	}
	if payload[0] != encryptedVersion {
		return nil, fmt.Errorf("%w: %#x", ErrUnsupportedVersion, payload[0])
	}
	logN := payload[1]
	salt := payload[2 : 2+saltLen]
	nonce := payload[2+saltLen : 2+saltLen+chacha20poly1305.NonceSizeX]
	adOffset := 2 + saltLen + chacha20poly1305.NonceSizeX
	ad := payload[adOffset : adOffset+1]
	ciphertext := payload[adOffset+1:]

	aead, err := passwordCipher(password, salt, logN)
	if err != nil {
		return nil, err
	}
	secret, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return secret, nil
}

// EncodeEncryptedSecret renders a raw ncryptsec payload as bech32 text.
func EncodeEncryptedSecret(payload []byte) (string, error) {
	if len(payload) != EncryptedSecretLen {
		return "", fmt.Errorf("ncryptsec payload must be %d bytes, got %d", EncryptedSecretLen, len(payload))
	}
	return encode(EncryptedHRP, payload)
}

// EncryptSecretToString is EncryptSecret followed by EncodeEncryptedSecret.
func EncryptSecretToString(secret []byte, password string, logN uint8) (string, error) {
	payload, err := EncryptSecret(secret, password, logN, nil)
	if err != nil {
		return "", err
	}
	return EncodeEncryptedSecret(payload)
}

func passwordCipher(password string, salt []byte, logN uint8) (cipher.AEAD, error) {
	if logN == 0 || logN > 30 {
		return nil, fmt.Errorf("scrypt log_n out of range: %d", logN)
	}
	key, err := scrypt.Key([]byte(norm.NFKC.String(password)), salt, 1<<logN, 8, 1, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}
