package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

const argon2Prefix = "argon2id"

// Argon2Params holds the argon2id cost parameters.
type Argon2Params struct {
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	SaltLength int
	KeyLength  uint32
}

// DefaultArgon2Params returns the parameters used for new credentials.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:       3,
		MemoryKiB:  64 * 1024,
		Threads:    2,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// Hasher creates and verifies password digests.
//
// Digests have the form argon2id$<time>$<memoryKiB>$<threads>$<saltHex>$<keyHex>.
// Bare 64-char hex digests (unsalted SHA-256) written by older deployments are
// still accepted by Verify and reported by NeedsRehash.
type Hasher struct {
	params Argon2Params
	rand   io.Reader
}

// NewHasher returns a Hasher using p for new digests.
func NewHasher(p Argon2Params) *Hasher {
	return &Hasher{params: p, rand: rand.Reader}
}

// Hash derives a salted digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLength)
	return strings.Join([]string{
		argon2Prefix,
		strconv.FormatUint(uint64(h.params.Time), 10),
		strconv.FormatUint(uint64(h.params.MemoryKiB), 10),
		strconv.FormatUint(uint64(h.params.Threads), 10),
		hex.EncodeToString(salt),
		hex.EncodeToString(key),
	}, "$"), nil
}

// Verify reports whether attempt matches digest. It returns false for an empty
// or unparsable digest.
func (h *Hasher) Verify(attempt, digest string) bool {
	if digest == "" {
		return false
	}
	if isLegacyDigest(digest) {
		return subtle.ConstantTimeCompare([]byte(LegacyDigest(attempt)), []byte(digest)) == 1
	}

	p, salt, key, ok := parseArgon2(digest)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(attempt), salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1
}

// NeedsRehash reports whether digest should be replaced by a fresh Hash, either
// because it is a legacy digest or because its cost is below the current one.
func (h *Hasher) NeedsRehash(digest string) bool {
	if isLegacyDigest(digest) {
		return true
	}
	p, _, _, ok := parseArgon2(digest)
	if !ok {
		return true
	}
	return p.Time < h.params.Time || p.MemoryKiB < h.params.MemoryKiB || p.Threads < h.params.Threads
}

// LegacyDigest returns the unsalted lowercase hex SHA-256 of plaintext.
func LegacyDigest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func isLegacyDigest(d string) bool {
	if len(d) != sha256.Size*2 {
		return false
	}
	for _, r := range d {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func parseArgon2(d string) (Argon2Params, []byte, []byte, bool) {
	parts := strings.Split(d, "$")
	if len(parts) != 6 || parts[0] != argon2Prefix {
		return Argon2Params{}, nil, nil, false
	}
	t, err1 := strconv.ParseUint(parts[1], 10, 32)
	m, err2 := strconv.ParseUint(parts[2], 10, 32)
	th, err3 := strconv.ParseUint(parts[3], 10, 8)
	if err1 != nil || err2 != nil || err3 != nil || t == 0 || m == 0 || th == 0 {
		return Argon2Params{}, nil, nil, false
	}
	salt, err := hex.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Argon2Params{}, nil, nil, false
	}
	key, err := hex.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Argon2Params{}, nil, nil, false
	}
	return Argon2Params{Time: uint32(t), MemoryKiB: uint32(m), Threads: uint8(th)}, salt, key, true
}

// MinPasswordLength is the exclusive lower bound on password length.
const MinPasswordLength = 8

// CheckComplexity reports whether password is longer than MinPasswordLength
// runes and mixes uppercase, lowercase and symbol characters.
func CheckComplexity(password string) bool {
	if utf8.RuneCountInString(password) <= MinPasswordLength {
		return false
	}
	var upper, lower, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && symbol
}

// Mask hides all but the last four characters of a secret.
func Mask(s string) string {
	if len(s) < 8 {
		return strings.Repeat("*", len(s))
	}
	return "****" + s[len(s)-4:]
}
