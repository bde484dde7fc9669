package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func newTestCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := New(testKey(7))
	require.NoError(t, err)
	return c
}

func TestNew_KeyLength(t *testing.T) {
	_, err := New(make([]byte, 16))
	assert.ErrorIs(t, err, apperr.ErrEncryption)
}

func TestEncryptDecrypt(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range [][]byte{[]byte(`{"api_key":"sk-test"}`), {}, bytes.Repeat([]byte("x"), 4096)} {
		sealed, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotContains(t, string(sealed), "sk-test")

		opened, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, len(plaintext), len(opened))
		assert.True(t, bytes.Equal(plaintext, opened))
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecrypt_Tampered(t *testing.T) {
	c := newTestCipher(t)
	sealed, err := c.Encrypt([]byte(`{"api_key":"sk-test"}`))
	require.NoError(t, err)

	for i := range sealed {
		tampered := bytes.Clone(sealed)
		tampered[i] ^= 0x01
		_, err := c.Decrypt(tampered)
		assert.ErrorIs(t, err, apperr.ErrEncryption, "flipped byte %d", i)
	}
}

func TestDecrypt_ShortOrForeign(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt(nil)
	assert.ErrorIs(t, err, apperr.ErrEncryption)
	_, err = c.Decrypt(make([]byte, 20))
	assert.ErrorIs(t, err, apperr.ErrEncryption)

	other, err := New(testKey(9))
	require.NoError(t, err)
	sealed, err := other.Encrypt([]byte("secret"))
	require.NoError(t, err)
	_, err = c.Decrypt(sealed)
	assert.ErrorIs(t, err, apperr.ErrEncryption)
}

func TestCredentialsRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, creds := range []models.Credentials{
		models.NewAPIKeyCredentials("sk-abc"),
		models.NewOAuthCredentials("ya29.token", "1//refresh"),
		models.NewOAuthCredentials("gho_x", ""),
	} {
		sealed, err := c.EncryptCredentials(creds)
		require.NoError(t, err)

		got, err := c.DecryptCredentials(sealed)
		require.NoError(t, err)
		assert.Equal(t, creds, got)
	}
}

func TestDecryptCredentials_NotJSON(t *testing.T) {
	c := newTestCipher(t)
	sealed, err := c.Encrypt([]byte("not json"))
	require.NoError(t, err)

	_, err = c.DecryptCredentials(sealed)
	assert.ErrorIs(t, err, apperr.ErrEncryption)
}
