package secret

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testKey())
	require.NoError(t, err)
	return c
}

func TestNewCodec_KeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := NewCodec(make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidKey, "key length %d", n)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	inputs := []string{
		"",
		"a",
		"sk-proj-0123456789abcdef",
		strings.Repeat("x", 16),
		strings.Repeat("y", 33),
		"~!@#$%^&*()_+{}|:\"<>?`-=[]\\;',./ \t",
	}
	for _, in := range inputs {
		env, err := c.Encrypt(in)
		require.NoError(t, err)

		ivHex, ctHex, ok := strings.Cut(env, ":")
		require.True(t, ok, "envelope %q has no separator", env)
		assert.Len(t, ivHex, 32)
		assert.NotEmpty(t, ctHex)
		assert.Equal(t, strings.ToLower(env), env)

		got, err := c.Decrypt(env)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestCodec_EncryptIsRandomized(t *testing.T) {
	c := newTestCodec(t)

	a, err := c.Encrypt("same-key")
	require.NoError(t, err)
	b, err := c.Encrypt("same-key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	for _, env := range []string{a, b} {
		got, err := c.Decrypt(env)
		require.NoError(t, err)
		assert.Equal(t, "same-key", got)
	}
}

func TestCodec_EncryptRejectsNonASCII(t *testing.T) {
	c := newTestCodec(t)
	for _, in := range []string{"ключ", "key-é", "sk-\u00a0live"} {
		_, err := c.Encrypt(in)
		assert.ErrorIs(t, err, ErrNonASCII, "input %q", in)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestCodec_EncryptIVFailure(t *testing.T) {
	c := newTestCodec(t)
	c.rand = failingReader{}

	_, err := c.Encrypt("value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate iv")
}

func TestCodec_DecryptMalformed(t *testing.T) {
	c := newTestCodec(t)
	valid, err := c.Encrypt("hello")
	require.NoError(t, err)
	ivHex, ctHex, _ := strings.Cut(valid, ":")

	cases := map[string]string{
		"no separator":       ivHex + ctHex,
		"empty":              "",
		"iv not hex":         "zz" + ivHex[2:] + ":" + ctHex,
		"short iv":           ivHex[:30] + ":" + ctHex,
		"ciphertext not hex": ivHex + ":" + "xyz",
		"empty ciphertext":   ivHex + ":",
		"partial block":      ivHex + ":" + ctHex[:30],
		"plaintext value":    "sk-live-plaintext",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(in)
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func TestCodec_DecryptOrRaw(t *testing.T) {
	c := newTestCodec(t)

	env, err := c.Encrypt("token")
	require.NoError(t, err)

	got, ok := c.DecryptOrRaw(env)
	assert.True(t, ok)
	assert.Equal(t, "token", got)

	got, ok = c.DecryptOrRaw("not-an-envelope")
	assert.False(t, ok)
	assert.Equal(t, "not-an-envelope", got)
}

func TestPKCS7Unpad(t *testing.T) {
	block := 16
	good := pkcs7Pad([]byte("abc"), block)
	out, err := pkcs7Unpad(good, block)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	zero := bytes.Repeat([]byte{0}, block)
	_, err = pkcs7Unpad(zero, block)
	assert.Error(t, err)

	tooBig := bytes.Repeat([]byte{17}, block)
	_, err = pkcs7Unpad(tooBig, block)
	assert.Error(t, err)

	inconsistent := append(bytes.Repeat([]byte{'a'}, 13), 1, 3, 3)
	_, err = pkcs7Unpad(inconsistent, block)
	assert.Error(t, err)
}
