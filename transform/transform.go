// Package transform provides the payload codecs applied to transformed messages.
// None of them is a confidentiality guarantee: the XOR codec is the historical
// demonstration cipher and the ChaCha codec shares one passphrase server wide.
package transform

import (
	"cipher-chat/contract"
	"cipher-chat/errors"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	ModeNone   = "none"
	ModeXOR    = "xor"
	ModeChaCha = "chacha"

	// xorShift is added to every byte after the XOR step.
	xorShift = 13
)

// Argon2 parameters used to derive the ChaCha key from the passphrase.
// The salt is fixed so that every server started with the same passphrase
// derives the same key.
const (
	keyMemory      = 64 * 1024
	keyIterations  = 3
	keyParallelism = 2
)

var keySalt = []byte("cipher-chat/transform/v1")

var (
	_ contract.Transform = Noop{}
	_ contract.Transform = (*XOR)(nil)
	_ contract.Transform = (*ChaCha)(nil)
)

// New builds the transform for the configured mode.
func New(mode, passphrase string) (contract.Transform, error) {
	switch mode {
	case ModeNone, "":
		return Noop{}, nil
	case ModeXOR:
		return NewXOR(passphrase)
	case ModeChaCha:
		return NewChaCha(passphrase)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownTransform, mode)
	}
}

// Noop leaves payloads untouched.
type Noop struct{}

func (Noop) Name() string { return ModeNone }

func (Noop) Encode(payload []byte) ([]byte, error) {
	return append([]byte(nil), payload...), nil
}

func (Noop) Decode(payload []byte) ([]byte, error) {
	return append([]byte(nil), payload...), nil
}

// XOR mixes every byte with the repeating key then shifts it by 13.
type XOR struct {
	key []byte
}

func NewXOR(key string) (*XOR, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty xor key", errors.ErrInvalidConfig)
	}
	return &XOR{key: []byte(key)}, nil
}

func (x *XOR) Name() string { return ModeXOR }

func (x *XOR) Encode(payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = (b ^ x.key[i%len(x.key)]) + xorShift
	}
	return out, nil
}

func (x *XOR) Decode(payload []byte) ([]byte, error) {
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = (b - xorShift) ^ x.key[i%len(x.key)]
	}
	return out, nil
}

// ChaCha seals payloads with XChaCha20-Poly1305. The random nonce is
// prepended to the ciphertext.
type ChaCha struct {
	key []byte
}

func NewChaCha(passphrase string) (*ChaCha, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", errors.ErrInvalidConfig)
	}
	key := argon2.IDKey([]byte(passphrase), keySalt, keyIterations, keyMemory, keyParallelism, chacha20poly1305.KeySize)
	return &ChaCha{key: key}, nil
}

func (c *ChaCha) Name() string { return ModeChaCha }

func (c *ChaCha) Encode(payload []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(payload)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, payload, nil), nil
}

func (c *ChaCha) Decode(payload []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	if len(payload) < aead.NonceSize()+aead.Overhead() {
		return nil, errors.ErrInvalidPayload
	}
	nonce, ciphertext := payload[:aead.NonceSize()], payload[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return plain, nil
}
