// Package secret protects sensitive values at rest and verifies credentials.
//
// Configuration secrets (third-party API keys) are stored as reversible
// envelopes "<ivHex>:<ciphertextHex>" produced with AES-256-CBC. Passwords are
// stored as one-way argon2id digests.
package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// envelopeSep separates the IV from the ciphertext. It never occurs in hex output.
const envelopeSep = ":"

var (
	// ErrInvalidKey is returned when the codec key is not KeySize bytes long.
	ErrInvalidKey = errors.New("encryption key must be 32 bytes")
	// ErrNonASCII is returned when a secret contains bytes outside ASCII.
	ErrNonASCII = errors.New("secret must contain ASCII characters only")
	// ErrMalformedEnvelope is returned when a value is not a valid envelope.
	ErrMalformedEnvelope = errors.New("malformed secret envelope")
	// ErrDecrypt is returned when an envelope cannot be opened with the key.
	ErrDecrypt = errors.New("secret decryption failed")
)

// Codec encrypts and decrypts secret envelopes with a fixed key.
type Codec struct {
	block cipher.Block
	// rand is the IV source.
	rand io.Reader
}

// NewCodec returns a Codec for the given 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &Codec{block: block, rand: rand.Reader}, nil
}

// Encrypt seals plaintext into a fresh envelope. Every call uses a new IV, so
// the same plaintext never produces the same envelope twice.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if !isASCII(plaintext) {
		return "", ErrNonASCII
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + envelopeSep + hex.EncodeToString(out), nil
}

// Decrypt opens an envelope produced by Encrypt.
func (c *Codec) Decrypt(envelope string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(envelope, envelopeSep)
	if !ok {
		return "", ErrMalformedEnvelope
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrMalformedEnvelope
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", ErrMalformedEnvelope
	}

	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, ct)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// DecryptOrRaw is meant for display paths only: it returns the decrypted value
// and true, or the input unchanged and false when it cannot be decrypted.
func (c *Codec) DecryptOrRaw(value string) (string, bool) {
	plain, err := c.Decrypt(value)
	if err != nil {
		return value, false
	}
	return plain, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.New("invalid padding size")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding bytes")
		}
	}
	return data[:len(data)-n], nil
}
