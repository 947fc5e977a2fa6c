package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// SecretKeyLen is the size of a serialized secp256k1 private scalar.
	SecretKeyLen = 32
	// PublicKeyLen is the size of an x-only (BIP-340) public key.
	PublicKeyLen = 32

	// A reader that keeps producing scalars outside [1, N-1] is not random.
	maxScalarRejections = 8
)

var (
	// ErrEntropy is returned when the randomness source cannot supply key material.
	ErrEntropy = errors.New("entropy source unavailable")
	// ErrInvalidSecretKey is returned for secret bytes that are zero or not below the curve order.
	ErrInvalidSecretKey = errors.New("invalid secret key")
	// ErrKeyMismatch reports that a keypair's public half does not derive from its secret.
	ErrKeyMismatch = errors.New("public key does not derive from secret key")
)

// Keypair is a secp256k1 secret scalar and its x-only public key.
type Keypair struct {
	secret *secp256k1.PrivateKey
	public [PublicKeyLen]byte
}

// SecretBytes returns the 32-byte big-endian secret scalar.
func (k *Keypair) SecretBytes() []byte {
	return k.secret.Serialize()
}

// PublicBytes returns a copy of the 32-byte x-only public key.
func (k *Keypair) PublicBytes() []byte {
	pub := k.public
	return pub[:]
}

// Verify re-derives the public key from the secret and checks it against the
// stored one.
func (k *Keypair) Verify() error {
	derived := xOnly(k.secret.PubKey())
	if !bytes.Equal(derived[:], k.public[:]) {
		return ErrKeyMismatch
	}
	return nil
}

// Zero clears the secret scalar from memory.
func (k *Keypair) Zero() {
	k.secret.Zero()
}

// KeypairSource draws fresh secp256k1 keypairs from an entropy reader.
// A KeypairSource is not safe for concurrent use; give each worker its own.
type KeypairSource struct {
	rand io.Reader
	buf  [SecretKeyLen]byte
}

// NewKeypairSource creates a source reading from r, or from crypto/rand when r is nil.
func NewKeypairSource(r io.Reader) *KeypairSource {
	if r == nil {
		r = rand.Reader
	}
	return &KeypairSource{rand: r}
}

// Generate returns a new random keypair. The only error it returns wraps ErrEntropy.
func (s *KeypairSource) Generate() (*Keypair, error) {
	for i := 0; i < maxScalarRejections; i++ {
		if _, err := io.ReadFull(s.rand, s.buf[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
		}

		var scalar secp256k1.ModNScalar
		overflow := scalar.SetByteSlice(s.buf[:])
		clear(s.buf[:])
		if overflow || scalar.IsZero() {
			continue
		}

		secret := secp256k1.NewPrivateKey(&scalar)
		return &Keypair{
			secret: secret,
			public: xOnly(secret.PubKey()),
		}, nil
	}
	return nil, fmt.Errorf("%w: %d consecutive out-of-range scalars", ErrEntropy, maxScalarRejections)
}

// KeypairFromSecret rebuilds a keypair from raw secret bytes.
func KeypairFromSecret(secret []byte) (*Keypair, error) {
	if len(secret) != SecretKeyLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSecretKey, len(secret), SecretKeyLen)
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(secret); overflow || scalar.IsZero() {
		return nil, ErrInvalidSecretKey
	}
	priv := secp256k1.NewPrivateKey(&scalar)
	return &Keypair{secret: priv, public: xOnly(priv.PubKey())}, nil
}

// DerivePublicKey returns the x-only public key for raw secret bytes.
func DerivePublicKey(secret []byte) ([PublicKeyLen]byte, error) {
	kp, err := KeypairFromSecret(secret)
	if err != nil {
		return [PublicKeyLen]byte{}, err
	}
	return kp.public, nil
}

// xOnly drops the parity byte of the compressed encoding, leaving the x coordinate.
func xOnly(pub *secp256k1.PublicKey) (out [PublicKeyLen]byte) {
	copy(out[:], pub.SerializeCompressed()[1:])
	return out
}
